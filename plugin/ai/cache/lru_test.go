package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func TestLRUCache_BasicOperations(t *testing.T) {
	cache := NewLRUCache[string](100, time.Minute)

	t.Run("SetAndGet", func(t *testing.T) {
		cache.Set("key1", "value1", 0)

		val, ok := cache.Get("key1")
		assert.True(t, ok)
		assert.Equal(t, "value1", val)
	})

	t.Run("GetNonExistent", func(t *testing.T) {
		val, ok := cache.Get("nonexistent")
		assert.False(t, ok)
		assert.Empty(t, val)
	})

	t.Run("UpdateExisting", func(t *testing.T) {
		cache.Set("key2", "original", 0)
		cache.Set("key2", "updated", 0)

		val, ok := cache.Get("key2")
		assert.True(t, ok)
		assert.Equal(t, "updated", val)
	})
}

func TestLRUCache_Expiration(t *testing.T) {
	clock := &testClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	cache := NewLRUCache[int](100, time.Minute).WithClock(clock.Now)

	cache.Set("default", 1, 0)
	cache.Set("short", 2, 10*time.Second)

	clock.now = clock.now.Add(30 * time.Second)
	_, ok := cache.Get("short")
	assert.False(t, ok)
	val, ok := cache.Get("default")
	assert.True(t, ok)
	assert.Equal(t, 1, val)

	clock.now = clock.now.Add(time.Minute)
	assert.Equal(t, 1, cache.CleanupExpired())
	assert.Zero(t, cache.Len())
}

func TestLRUCache_Eviction(t *testing.T) {
	cache := NewLRUCache[string](3, time.Minute)

	cache.Set("key1", "1", 0)
	cache.Set("key2", "2", 0)
	cache.Set("key3", "3", 0)
	require.Equal(t, 3, cache.Len())

	// Access key1 to make it recently used
	cache.Get("key1")

	// Add new entry, should evict key2 (LRU)
	cache.Set("key4", "4", 0)
	assert.Equal(t, 3, cache.Len())

	_, ok := cache.Get("key2")
	assert.False(t, ok)
	_, ok = cache.Get("key1")
	assert.True(t, ok)
}

func TestLRUCache_Invalidate(t *testing.T) {
	cache := NewLRUCache[string](10, time.Minute)
	cache.Set("session:a:1", "x", 0)
	cache.Set("session:a:2", "x", 0)
	cache.Set("session:b:1", "x", 0)

	assert.Equal(t, 2, cache.Invalidate("session:a:*"))
	assert.Equal(t, 1, cache.Invalidate("session:b:1"))
	assert.Equal(t, 0, cache.Invalidate("session:b:1"))
	assert.Zero(t, cache.Len())
}

func TestService_CleanupLoop(t *testing.T) {
	svc := NewService[[]byte](ServiceConfig{
		Capacity:        10,
		DefaultTTL:      time.Millisecond,
		CleanupInterval: 5 * time.Millisecond,
	})
	defer svc.Close()

	svc.Set("key", []byte("value"), 0)

	assert.Eventually(t, func() bool {
		return svc.Len() == 0
	}, 2*time.Second, 5*time.Millisecond)

	// Close is idempotent.
	svc.Close()
}
