package resilience

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"sync"
	"time"
)

// pruneThreshold is the cache size that triggers a bulk sweep of expired
// entries after an insert
const pruneThreshold = 100

// ResponseCache is the last-resort fallback source consulted when every
// provider strategy has been exhausted. Implementations swallow their own
// errors; a broken cache degrades to a miss.
type ResponseCache interface {
	Get(ctx context.Context, key string) (interface{}, bool)
	Put(ctx context.Context, key string, value interface{})
}

// CacheKey derives a deterministic key from the operation's argument tuple.
// The key is a hash of the stringified arguments: two distinct calls that
// stringify identically will collide. This mirrors the observed behavior of
// the cache and is a documented weakness, not a uniqueness guarantee.
func CacheKey(parts ...interface{}) string {
	sum := sha1.Sum([]byte(fmt.Sprintf("%v", parts)))
	return hex.EncodeToString(sum[:])
}

type cacheEntry struct {
	value    interface{}
	cachedAt time.Time
}

// MemoryCache is an in-process TTL-bounded ResponseCache. Expired entries
// are deleted on read; a bulk prune runs whenever an insert pushes the
// table past pruneThreshold entries.
type MemoryCache struct {
	mutex   sync.Mutex
	entries map[string]cacheEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryCache creates an in-memory response cache with the given TTL
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	return &MemoryCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the cached value for key if present and unexpired
func (c *MemoryCache) Get(_ context.Context, key string) (interface{}, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}

	if c.now().Sub(entry.cachedAt) > c.ttl {
		delete(c.entries, key)
		return nil, false
	}

	return entry.value, true
}

// Put stores value under key with the current timestamp
func (c *MemoryCache) Put(_ context.Context, key string, value interface{}) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.entries[key] = cacheEntry{value: value, cachedAt: c.now()}

	if len(c.entries) > pruneThreshold {
		c.pruneExpired()
	}
}

// PruneExpired removes all expired entries
func (c *MemoryCache) PruneExpired() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.pruneExpired()
}

// pruneExpired removes expired entries. Caller must hold the mutex.
func (c *MemoryCache) pruneExpired() {
	now := c.now()
	for key, entry := range c.entries {
		if now.Sub(entry.cachedAt) > c.ttl {
			delete(c.entries, key)
		}
	}
}

// Len returns the number of entries currently held, expired or not
func (c *MemoryCache) Len() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return len(c.entries)
}
