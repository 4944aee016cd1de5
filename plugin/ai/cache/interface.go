// Package cache provides an in-memory TTL cache with LRU eviction.
// The assistant uses it to memoise enhancer output per prompt.
package cache

import "time"

// Cache defines the cache interface.
// Consumers: server/ai enhancer.
type Cache[V any] interface {
	// Get retrieves a live value.
	Get(key string) (V, bool)

	// Set stores a value. ttl <= 0 uses the cache default.
	Set(key string, value V, ttl time.Duration)

	// Invalidate removes entries matching pattern ("*" suffix wildcard supported)
	// and returns how many were removed.
	Invalidate(pattern string) int
}
