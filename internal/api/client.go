// Package api talks to the household chores REST backend. It is the data
// source the engine reads items from and forwards completion toggles to.
package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	appLog "chorecal/internal/log"
	"chorecal/internal/model"
	"chorecal/internal/project"
)

const (
	defaultTimeout = 15 * time.Second
	defaultBackoff = 500 * time.Millisecond
	maxBodyBytes   = 16 << 20
)

// ErrNotFound is returned when the backend answers 404.
var ErrNotFound = errors.New("api: not found")

// StatusError is a non-2xx answer from the backend.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("api: unexpected status %s", e.Status)
}

// Config describes how to reach the backend.
type Config struct {
	// BaseURL is the API root, e.g. "https://chores.example.com/api".
	BaseURL string
	// Token, if set, is sent as a bearer token.
	Token string
	// Timeout bounds a single HTTP exchange. If zero, defaultTimeout is used.
	Timeout time.Duration
	// Retries is how many extra attempts a GET gets on transient failure.
	Retries int
	// Backoff is the base delay between attempts; attempt n waits n*Backoff.
	// If zero, defaultBackoff is used.
	Backoff time.Duration
	// HTTPClient overrides the transport, mostly for tests.
	HTTPClient *http.Client
}

// cachedBody holds HTTP cache metadata and payload for one collection URL.
type cachedBody struct {
	etag         string
	lastModified string
	body         []byte
	updatedAt    time.Time
}

// Client fetches items with HTTP caching (ETag / Last-Modified) and posts
// completion toggles.
type Client struct {
	base    *url.URL
	token   string
	http    *http.Client
	retries int
	backoff time.Duration

	mu     sync.Mutex
	bodies map[string]cachedBody
}

// NewClient validates cfg and builds a Client.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("api: base URL is empty")
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, errors.Wrap(err, "api: invalid base URL")
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, errors.Errorf("api: unsupported scheme %q", base.Scheme)
	}

	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}
	backoff := cfg.Backoff
	if backoff <= 0 {
		backoff = defaultBackoff
	}
	retries := cfg.Retries
	if retries < 0 {
		retries = 0
	}

	return &Client{
		base:    base,
		token:   cfg.Token,
		http:    hc,
		retries: retries,
		backoff: backoff,
		bodies:  make(map[string]cachedBody),
	}, nil
}

// FetchItems returns the items (with their instances) matching f.
func (c *Client) FetchItems(ctx context.Context, f model.Filter) ([]model.RecurringItem, error) {
	body, err := c.FetchRaw(ctx, f)
	if err != nil {
		return nil, err
	}
	return project.Decode(body), nil
}

// FetchRaw returns the undecoded collection payload for f.
func (c *Client) FetchRaw(ctx context.Context, f model.Filter) ([]byte, error) {
	q := f.Values()
	q.Set("include_instances", "true")
	u := c.base.JoinPath("chores")
	u.RawQuery = q.Encode()
	return c.getCached(ctx, u.String())
}

// ToggleCompletion flips completion of an item, or of one of its instances
// when instanceID is set. POSTs are never retried: a toggle is not
// idempotent.
func (c *Client) ToggleCompletion(ctx context.Context, itemID, instanceID model.ID) error {
	if itemID == "" {
		return errors.New("api: toggle needs an item id")
	}
	u := c.base.JoinPath("chores", url.PathEscape(string(itemID)), "toggle")
	if instanceID != "" {
		u = c.base.JoinPath("chores", url.PathEscape(string(itemID)),
			"instances", url.PathEscape(string(instanceID)), "toggle")
	}

	resp, err := c.do(ctx, 0, func() (*http.Request, error) {
		return c.newRequest(ctx, http.MethodPost, u.String())
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return errors.Wrapf(ErrNotFound, "toggle item %s", itemID)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}

	// Any write invalidates every cached collection.
	c.mu.Lock()
	c.bodies = make(map[string]cachedBody)
	c.mu.Unlock()

	appLog.Info("api toggle completion", "item_id", itemID, "instance_id", instanceID)
	return nil
}

func (c *Client) getCached(ctx context.Context, u string) ([]byte, error) {
	c.mu.Lock()
	cached, hasCache := c.bodies[u]
	c.mu.Unlock()

	resp, err := c.do(ctx, c.retries, func() (*http.Request, error) {
		req, err := c.newRequest(ctx, http.MethodGet, u)
		if err != nil {
			return nil, err
		}
		// Conditional headers from cache metadata.
		if cached.etag != "" {
			req.Header.Set("If-None-Match", cached.etag)
		}
		if cached.lastModified != "" {
			req.Header.Set("If-Modified-Since", cached.lastModified)
		}
		return req, nil
	})
	if err != nil {
		// Network error; if we have a cached body and the caller did not
		// give up, fall back to it.
		if hasCache && ctx.Err() == nil {
			appLog.Error("api fetch failed, using cached body", err, "url", redactURL(u))
			return cached.body, nil
		}
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if err != nil {
			return nil, errors.Wrap(err, "api: read body")
		}
		c.mu.Lock()
		c.bodies[u] = cachedBody{
			etag:         resp.Header.Get("ETag"),
			lastModified: resp.Header.Get("Last-Modified"),
			body:         body,
			updatedAt:    time.Now().UTC(),
		}
		c.mu.Unlock()
		appLog.Debug("api fetch success", "url", redactURL(u), "bytes", len(body))
		return body, nil

	case http.StatusNotModified:
		if !hasCache {
			return nil, errors.New("api: 304 Not Modified but no cached body available")
		}
		appLog.Debug("api fetch not modified; using cache", "url", redactURL(u), "cached_at", cached.updatedAt)
		return cached.body, nil

	case http.StatusNotFound:
		return nil, errors.Wrapf(ErrNotFound, "GET %s", redactURL(u))

	default:
		statusErr := &StatusError{Code: resp.StatusCode, Status: resp.Status}
		if hasCache {
			appLog.Error("api fetch non-OK, using cached body", statusErr, "url", redactURL(u))
			return cached.body, nil
		}
		return nil, statusErr
	}
}

func (c *Client) newRequest(ctx context.Context, method, u string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return nil, errors.Wrap(err, "api: build request")
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

// do sends the request built by build, retrying transient failures (network
// errors, 429, 5xx) up to retries extra times with linear backoff. The last
// retryable response is returned as is so the caller can apply its own
// status handling.
func (c *Client) do(ctx context.Context, retries int, build func() (*http.Request, error)) (*http.Response, error) {
	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, errors.Wrap(ctx.Err(), "api: retry aborted")
			case <-time.After(c.backoff * time.Duration(attempt)):
			}
		}

		req, err := build()
		if err != nil {
			return nil, err
		}

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = errors.Wrapf(err, "api: %s %s", req.Method, redactURL(req.URL.String()))
			if ctx.Err() != nil {
				return nil, lastErr
			}
			appLog.Error("api request failed", err, "attempt", attempt+1)
			continue
		}

		if retryable(resp.StatusCode) && attempt < retries {
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			appLog.Error("api transient status, retrying", &StatusError{Code: resp.StatusCode, Status: resp.Status}, "attempt", attempt+1)
			continue
		}
		return resp, nil
	}
	return nil, lastErr
}

func retryable(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

// redactURL drops the query string, which may carry filters or tokens.
func redactURL(u string) string {
	parsed, err := url.Parse(u)
	if err != nil {
		return "api://...(redacted)"
	}
	parsed.RawQuery = ""
	parsed.User = nil
	return parsed.String()
}
