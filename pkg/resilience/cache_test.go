package resilience

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheKey_Deterministic(t *testing.T) {
	key1 := CacheKey("generate", "what is a deductible", "insurance")
	key2 := CacheKey("generate", "what is a deductible", "insurance")
	key3 := CacheKey("generate", "what is a deductible", "banking")

	assert.Equal(t, key1, key2)
	assert.NotEqual(t, key1, key3)
	assert.Len(t, key1, 40)
}

func TestMemoryCache_PutGet(t *testing.T) {
	cache := NewMemoryCache(5 * time.Minute)
	ctx := context.Background()

	_, ok := cache.Get(ctx, "missing")
	assert.False(t, ok)

	cache.Put(ctx, "key", "value")
	value, ok := cache.Get(ctx, "key")
	require.True(t, ok)
	assert.Equal(t, "value", value)
}

func TestMemoryCache_ExpiredEntriesNeverReturned(t *testing.T) {
	clock := newFakeClock()
	cache := NewMemoryCache(5 * time.Minute)
	cache.now = clock.Now
	ctx := context.Background()

	cache.Put(ctx, "key", "value")

	clock.Advance(5 * time.Minute)
	_, ok := cache.Get(ctx, "key")
	assert.True(t, ok, "entry at exactly the TTL boundary is still valid")

	clock.Advance(time.Second)
	_, ok = cache.Get(ctx, "key")
	assert.False(t, ok)

	// The expired entry was deleted on read
	assert.Equal(t, 0, cache.Len())
}

func TestMemoryCache_BulkPruneOverThreshold(t *testing.T) {
	clock := newFakeClock()
	cache := NewMemoryCache(5 * time.Minute)
	cache.now = clock.Now
	ctx := context.Background()

	for i := 0; i < 100; i++ {
		cache.Put(ctx, fmt.Sprintf("old-%d", i), i)
	}
	assert.Equal(t, 100, cache.Len())

	// Everything above expires; the insert that pushes the table past 100
	// entries triggers the sweep
	clock.Advance(6 * time.Minute)
	cache.Put(ctx, "fresh", "value")

	assert.Equal(t, 1, cache.Len())
	value, ok := cache.Get(ctx, "fresh")
	require.True(t, ok)
	assert.Equal(t, "value", value)
}

func TestMemoryCache_PruneExpired(t *testing.T) {
	clock := newFakeClock()
	cache := NewMemoryCache(time.Minute)
	cache.now = clock.Now
	ctx := context.Background()

	cache.Put(ctx, "a", 1)
	clock.Advance(30 * time.Second)
	cache.Put(ctx, "b", 2)
	clock.Advance(45 * time.Second)

	cache.PruneExpired()

	assert.Equal(t, 1, cache.Len())
	_, ok := cache.Get(ctx, "b")
	assert.True(t, ok)
}
