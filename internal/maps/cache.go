package maps

import (
	"context"
	"sync"
	"time"
)

// Cache serves lookup snapshots with a TTL, refreshing from its source on
// demand. The clock is injected so expiry is testable. A stale snapshot is
// preferred over a failed refresh once one has been loaded.
type Cache struct {
	source    Source
	ttl       time.Duration
	now       func() time.Time
	mu        sync.RWMutex
	lookup    Lookup
	fetchedAt time.Time
}

func NewCache(source Source, ttl time.Duration, now func() time.Time) *Cache {
	if now == nil {
		now = time.Now
	}

	return &Cache{source: source, ttl: ttl, now: now}
}

// Snapshot returns the current lookup, refreshing it when the TTL has
// lapsed. The returned Lookup is immutable and safe to hand to an
// extraction regardless of later refreshes.
func (cache *Cache) Snapshot(ctx context.Context) (Lookup, error) {
	cache.mu.RLock()
	lookup, fetchedAt := cache.lookup, cache.fetchedAt
	cache.mu.RUnlock()

	if lookup != nil && cache.now().Sub(fetchedAt) < cache.ttl {
		return lookup, nil
	}

	fresh, errFetch := cache.source.Fetch(ctx)
	if errFetch != nil {
		if lookup != nil {
			return lookup, nil
		}

		return nil, errFetch
	}

	cache.mu.Lock()
	cache.lookup = fresh
	cache.fetchedAt = cache.now()
	cache.mu.Unlock()

	return fresh, nil
}
