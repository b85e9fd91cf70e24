package cache

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hszk-dev/vidvault/internal/infrastructure/metrics"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// expired reports whether the entry is logically absent at now.
// An entry set with a zero TTL is expired immediately.
func (e entry[V]) expired(now time.Time) bool {
	return !now.Before(e.expiresAt)
}

// Stats is a point-in-time count of cache entries.
type Stats struct {
	// Total includes expired entries that have not been evicted yet.
	Total   int `json:"total"`
	Active  int `json:"active"`
	Expired int `json:"expired"`
}

// TTLCache is an in-memory key/value store with per-entry expiry.
//
// Expiry is checked lazily on Get and Has, which evict what they find expired.
// Keys that are written and never read again are removed by Cleanup, normally
// driven by RunJanitor. No operation fails.
type TTLCache[V any] struct {
	mu         sync.Mutex
	items      map[string]entry[V]
	defaultTTL time.Duration
	now        func() time.Time
}

// NewTTLCache creates a cache whose entries live for defaultTTL unless
// overridden per write.
func NewTTLCache[V any](defaultTTL time.Duration) *TTLCache[V] {
	return &TTLCache[V]{
		items:      make(map[string]entry[V]),
		defaultTTL: defaultTTL,
		now:        time.Now,
	}
}

// WithClock replaces the time source. Intended for tests.
func (c *TTLCache[V]) WithClock(now func() time.Time) *TTLCache[V] {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
	return c
}

// DefaultTTL returns the TTL applied by Set.
func (c *TTLCache[V]) DefaultTTL() time.Duration {
	return c.defaultTTL
}

// Set stores value under key for the default TTL, replacing any previous entry.
func (c *TTLCache[V]) Set(key string, value V) {
	c.SetWithTTL(key, value, c.defaultTTL)
}

// SetWithTTL stores value under key for ttl, replacing any previous entry.
func (c *TTLCache[V]) SetWithTTL(key string, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = entry[V]{value: value, expiresAt: c.now().Add(ttl)}
}

// Get returns the value stored under key. The boolean is false if the key is
// missing or expired; an expired entry is evicted.
func (c *TTLCache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.lookupLocked(key)
	if !ok {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Has reports whether key holds a live entry, evicting it if expired.
func (c *TTLCache[V]) Has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.lookupLocked(key)
	return ok
}

func (c *TTLCache[V]) lookupLocked(key string) (entry[V], bool) {
	e, ok := c.items[key]
	if !ok {
		return entry[V]{}, false
	}
	if e.expired(c.now()) {
		delete(c.items, key)
		return entry[V]{}, false
	}
	return e, true
}

// Delete removes key and reports whether an entry was present.
func (c *TTLCache[V]) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.items[key]; !ok {
		return false
	}
	delete(c.items, key)
	return true
}

// Clear removes every entry.
func (c *TTLCache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.items)
}

// Cleanup evicts every expired entry and returns how many were removed.
func (c *TTLCache[V]) Cleanup() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for key, e := range c.items {
		if e.expired(now) {
			delete(c.items, key)
			removed++
		}
	}
	return removed
}

// Stats scans the cache and counts active and expired entries.
func (c *TTLCache[V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	s := Stats{Total: len(c.items)}
	for _, e := range c.items {
		if e.expired(now) {
			s.Expired++
		} else {
			s.Active++
		}
	}
	return s
}

// RunJanitor calls Cleanup every interval until ctx is cancelled.
// It blocks; run it in its own goroutine.
func (c *TTLCache[V]) RunJanitor(ctx context.Context, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed := c.Cleanup()
			stats := c.Stats()

			metrics.CacheEvictionsTotal.Add(float64(removed))
			metrics.CacheEntries.WithLabelValues(metrics.CacheStateActive).Set(float64(stats.Active))
			metrics.CacheEntries.WithLabelValues(metrics.CacheStateExpired).Set(float64(stats.Expired))

			logger.Debug("cache sweep completed",
				slog.Int("evicted", removed),
				slog.Int("active", stats.Active),
				slog.Int("total", stats.Total),
			)
		}
	}
}
