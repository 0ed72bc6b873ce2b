// Package cache is a small in-memory TTL map. Callers construct and own it;
// there is no package-level state.
package cache

import (
	"strings"
	"sync"
	"time"
)

const DefaultTTL = 5 * time.Minute

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// TTL memoizes values for a fixed duration. An entry is absent once its
// absolute expiry has passed, regardless of how often it was read.
// Invalidation is wholesale via Clear; there is no per-key delete.
type TTL[V any] struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]entry[V]
}

// New builds a cache. A non-positive ttl means DefaultTTL; a nil now means
// time.Now.
func New[V any](ttl time.Duration, now func() time.Time) *TTL[V] {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if now == nil {
		now = time.Now
	}
	return &TTL[V]{
		ttl:     ttl,
		now:     now,
		entries: make(map[string]entry[V]),
	}
}

// Get returns the value for key if present and unexpired.
func (c *TTL[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	var zero V
	if !ok || !c.now().Before(e.expiresAt) {
		return zero, false
	}
	return e.value, true
}

// Set stores value under key, expiring ttl from now.
func (c *TTL[V]) Set(key string, value V) {
	c.mu.Lock()
	c.entries[key] = entry[V]{value: value, expiresAt: c.now().Add(c.ttl)}
	c.mu.Unlock()
}

// Clear drops every entry. Call it after any create/update/delete that
// could make a cached value stale.
func (c *TTL[V]) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]entry[V])
	c.mu.Unlock()
}

// Len counts unexpired entries and sweeps the expired ones.
func (c *TTL[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for k, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, k)
		}
	}
	return len(c.entries)
}

// TTL reports the configured lifetime.
func (c *TTL[V]) TTL() time.Duration {
	return c.ttl
}

// Key joins the parts that determine a cached value (ids, status, a time
// bucket) into one key.
func Key(parts ...string) string {
	return strings.Join(parts, "|")
}

// DayBucket is a time bucket for values that only change at midnight.
func DayBucket(t time.Time) string {
	return t.Format("2006-01-02")
}
