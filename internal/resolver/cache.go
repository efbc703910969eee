package resolver

import (
	"context"
	"sync"
	"time"

	"github.com/starford/coursepress/internal/clock"
)

// Cache holds successful static-tier reads keyed by query shape. Entries
// older than the TTL are treated as absent; a TTL of zero never expires.
type Cache struct {
	clock clock.Clock
	ttl   time.Duration

	mu      sync.Mutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	value  any
	stored time.Time
}

// NewCache creates an empty cache.
func NewCache(c clock.Clock, ttl time.Duration) *Cache {
	if c == nil {
		c = clock.System{}
	}
	return &Cache{clock: c, ttl: ttl, entries: map[string]cacheEntry{}}
}

// Get returns the live entry for key.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.ttl > 0 && c.clock.Now().Sub(e.stored) >= c.ttl {
		delete(c.entries, key)
		return nil, false
	}
	return e.value, true
}

// Put stores value under key.
func (c *Cache) Put(key string, value any) {
	c.mu.Lock()
	c.entries[key] = cacheEntry{value: value, stored: c.clock.Now()}
	c.mu.Unlock()
}

// Len returns the number of stored entries, expired ones included.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = map[string]cacheEntry{}
	c.mu.Unlock()
}

// Run clears the cache every interval until ctx is cancelled.
func (c *Cache) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		<-ctx.Done()
		return nil
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			c.Clear()
		}
	}
}
