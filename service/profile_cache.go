package service

import (
	"sync"
	"time"
)

// ProfileCache is a process-wide TTL cache for resolved profile data, keyed
// by (kind, id). Cached entries are advisory only: destructive actions must
// re-verify against the database, never against this cache.
type ProfileCache struct {
	mu      sync.RWMutex
	entries map[cacheKey]cacheEntry
	ttl     time.Duration
	max     int
}

type cacheKey struct {
	Kind string
	ID   string
}

type cacheEntry struct {
	value     any
	expiresAt time.Time
}

var (
	globalProfileCache *ProfileCache
	profileCacheOnce   sync.Once
)

// InitProfileCache initializes the global cache. Safe to call once per
// process; later calls are no-ops.
func InitProfileCache(ttl time.Duration, max int) {
	profileCacheOnce.Do(func() {
		if max <= 0 {
			max = 1000
		}
		globalProfileCache = &ProfileCache{
			entries: make(map[cacheKey]cacheEntry),
			ttl:     ttl,
			max:     max,
		}
	})
}

// GetProfileCache returns the global cache, initializing defaults if needed.
func GetProfileCache() *ProfileCache {
	if globalProfileCache == nil {
		globalProfileCache = &ProfileCache{
			entries: make(map[cacheKey]cacheEntry),
			ttl:     5 * time.Minute,
			max:     1000,
		}
	}
	return globalProfileCache
}

// Get returns the cached value when present and not expired.
func (c *ProfileCache) Get(kind, id string) (any, bool) {
	c.mu.RLock()
	entry, ok := c.entries[cacheKey{Kind: kind, ID: id}]
	c.mu.RUnlock()
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.value, true
}

// Set stores a value under (kind, id).
func (c *ProfileCache) Set(kind, id string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) >= c.max {
		c.evictExpired()
		// Still full of live entries: drop one arbitrarily rather than grow.
		if len(c.entries) >= c.max {
			for k := range c.entries {
				delete(c.entries, k)
				break
			}
		}
	}

	c.entries[cacheKey{Kind: kind, ID: id}] = cacheEntry{
		value:     value,
		expiresAt: time.Now().Add(c.ttl),
	}
}

// Invalidate drops the entry for (kind, id). Call on writes to the
// underlying identity.
func (c *ProfileCache) Invalidate(kind, id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, cacheKey{Kind: kind, ID: id})
}

// Len returns the number of entries, expired included.
func (c *ProfileCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// evictExpired removes stale entries. Must be called with lock held.
func (c *ProfileCache) evictExpired() {
	now := time.Now()
	for k, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, k)
		}
	}
}
