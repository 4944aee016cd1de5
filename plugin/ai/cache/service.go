package cache

import (
	"context"
	"sync"
	"time"
)

// ServiceConfig configures the cache service.
type ServiceConfig struct {
	Capacity        int           // Maximum number of entries (default: 1000)
	DefaultTTL      time.Duration // Default TTL for entries (default: 5 minutes)
	CleanupInterval time.Duration // Interval for expired entry cleanup (default: 1 minute)
}

// DefaultServiceConfig returns default cache service configuration.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		Capacity:        defaultCapacity,
		DefaultTTL:      defaultTTL,
		CleanupInterval: time.Minute,
	}
}

// Service is an LRUCache with a background loop that drops expired entries.
type Service[V any] struct {
	*LRUCache[V]

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	cleanupInterval time.Duration
}

// NewService creates a cache service and starts its cleanup loop.
// Call Close to stop it.
func NewService[V any](cfg ServiceConfig) *Service[V] {
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = time.Minute
	}

	ctx, cancel := context.WithCancel(context.Background())

	s := &Service[V]{
		LRUCache:        NewLRUCache[V](cfg.Capacity, cfg.DefaultTTL),
		ctx:             ctx,
		cancel:          cancel,
		cleanupInterval: cfg.CleanupInterval,
	}

	s.wg.Add(1)
	go s.cleanupLoop()

	return s
}

// Close stops the cleanup loop. Stored values stay readable.
func (s *Service[V]) Close() {
	s.cancel()
	s.wg.Wait()
}

func (s *Service[V]) cleanupLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.CleanupExpired()
		}
	}
}

var _ Cache[[]byte] = (*Service[[]byte])(nil)
