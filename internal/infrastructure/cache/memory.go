package cache

import (
	"context"
	"time"

	"github.com/hszk-dev/vidvault/internal/infrastructure/metrics"
)

// MemoryURLCache implements URLCache on top of an in-process TTLCache.
type MemoryURLCache struct {
	store *TTLCache[string]
}

var _ URLCache = (*MemoryURLCache)(nil)

// NewMemoryURLCache creates a URLCache backed by store.
// The store is shared, so its janitor and stats stay with the caller.
func NewMemoryURLCache(store *TTLCache[string]) *MemoryURLCache {
	return &MemoryURLCache{store: store}
}

// Get retrieves a URL from the in-memory cache.
func (c *MemoryURLCache) Get(_ context.Context, videoID string) (string, error) {
	url, ok := c.store.Get(buildKey(videoID))
	if !ok {
		metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpGet, metrics.CacheStatusMiss, metrics.CacheTypeMemory).Inc()
		return "", nil
	}
	metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpGet, metrics.CacheStatusHit, metrics.CacheTypeMemory).Inc()
	return url, nil
}

// Set stores a URL in the in-memory cache.
func (c *MemoryURLCache) Set(_ context.Context, videoID, url string, ttl time.Duration) error {
	c.store.SetWithTTL(buildKey(videoID), url, ttl)
	metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpSet, metrics.CacheStatusSuccess, metrics.CacheTypeMemory).Inc()
	return nil
}

// Delete removes a URL from the in-memory cache.
func (c *MemoryURLCache) Delete(_ context.Context, videoID string) error {
	c.store.Delete(buildKey(videoID))
	metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpDelete, metrics.CacheStatusSuccess, metrics.CacheTypeMemory).Inc()
	return nil
}
