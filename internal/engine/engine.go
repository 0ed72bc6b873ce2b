// Package engine composes fetching, projection, classification and caching
// into the surface a calendar or dashboard view consumes.
package engine

import (
	"context"
	"slices"
	"sync"
	"time"

	"chorecal/internal/cache"
	appLog "chorecal/internal/log"
	"chorecal/internal/model"
	"chorecal/internal/project"
	"chorecal/internal/recurrence"
	"chorecal/internal/status"
)

// Source provides raw items and accepts completion toggles. The REST client
// in internal/api implements it.
type Source interface {
	FetchItems(ctx context.Context, f model.Filter) ([]model.RecurringItem, error)
	ToggleCompletion(ctx context.Context, itemID, instanceID model.ID) error
}

// Clock returns the current time.
type Clock func() time.Time

// Options tune an Engine. Zero values pick defaults.
type Options struct {
	CacheTTL time.Duration
	Clock    Clock
}

// snapshot is one fetch: the items and the events projected from them.
type snapshot struct {
	items  []model.RecurringItem
	events []model.Event
}

// Engine memoizes projected events per filter and calendar day.
type Engine struct {
	src       Source
	clock     Clock
	snapshots *cache.TTL[snapshot]

	// items backs StatusOf and Due: the snapshot last handed to a caller.
	mu    sync.RWMutex
	items []model.RecurringItem
}

// New builds an Engine reading from src.
func New(src Source, opts Options) *Engine {
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Engine{
		src:       src,
		clock:     clock,
		snapshots: cache.New[snapshot](opts.CacheTTL, clock),
	}
}

// Events returns projected events for f. Results are cached per filter and
// day bucket, since statuses only change at midnight or on a write. The
// returned slice is the caller's own copy.
func (e *Engine) Events(ctx context.Context, f model.Filter) ([]model.Event, error) {
	now := e.clock()
	key := cache.Key("events", f.Key(), cache.DayBucket(now))
	if snap, ok := e.snapshots.Get(key); ok {
		appLog.Debug("engine events cache hit", "key", key, "count", len(snap.events))
		e.use(snap)
		return cloneEvents(snap.events), nil
	}

	items, err := e.src.FetchItems(ctx, f)
	if err != nil {
		return nil, err
	}

	snap := snapshot{items: items, events: project.Project(items, now)}
	e.snapshots.Set(key, snap)
	e.use(snap)

	appLog.Info("engine projected events", "items", len(items), "events", len(snap.events), "filter", f.Key())
	return cloneEvents(snap.events), nil
}

// use makes snap the one StatusOf and Due answer from.
func (e *Engine) use(snap snapshot) {
	e.mu.Lock()
	e.items = snap.items
	e.mu.Unlock()
}

func cloneEvents(evs []model.Event) []model.Event {
	out := slices.Clone(evs)
	for i := range out {
		if at := out[i].CompletedAt; at != nil {
			t := *at
			out[i].CompletedAt = &t
		}
	}
	return out
}

// StatusOf classifies an instance from the last fetched snapshot against the
// current clock. It reports false when the instance is unknown.
func (e *Engine) StatusOf(instanceID model.ID) (model.Status, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	for _, it := range e.items {
		if inst, ok := it.Instance(instanceID); ok {
			return status.Classify(inst, e.clock()), true
		}
	}
	return model.StatusActive, false
}

// Reset drops every memoized result.
func (e *Engine) Reset() {
	e.snapshots.Clear()
	appLog.Debug("engine cache reset")
}

// Refresh resets the cache and fetches f again.
func (e *Engine) Refresh(ctx context.Context, f model.Filter) ([]model.Event, error) {
	e.Reset()
	return e.Events(ctx, f)
}

// ToggleCompletion forwards the toggle to the source and invalidates the
// cache so the next Events call reflects it.
func (e *Engine) ToggleCompletion(ctx context.Context, itemID, instanceID model.ID) error {
	if err := e.src.ToggleCompletion(ctx, itemID, instanceID); err != nil {
		return err
	}
	e.Reset()
	return nil
}

// Due lists items from the last snapshot whose next occurrence falls on or
// before now.
func (e *Engine) Due(now time.Time) []model.RecurringItem {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return recurrence.Due(e.items, now)
}
