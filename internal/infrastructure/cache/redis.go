package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hszk-dev/vidvault/internal/infrastructure/metrics"
)

// RedisURLCache implements URLCache using Redis as the backing store.
// Expiry is enforced by Redis, so no sweep is needed.
type RedisURLCache struct {
	client *redis.Client
}

var _ URLCache = (*RedisURLCache)(nil)

// NewRedisURLCache creates a new Redis-backed URL cache.
func NewRedisURLCache(client *redis.Client) *RedisURLCache {
	return &RedisURLCache{
		client: client,
	}
}

// Get retrieves a URL from Redis.
// Returns "", nil on cache miss.
func (c *RedisURLCache) Get(ctx context.Context, videoID string) (string, error) {
	url, err := c.client.Get(ctx, buildKey(videoID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpGet, metrics.CacheStatusMiss, metrics.CacheTypeRedis).Inc()
			return "", nil
		}
		metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpGet, metrics.CacheStatusError, metrics.CacheTypeRedis).Inc()
		return "", fmt.Errorf("redis get: %w", err)
	}

	metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpGet, metrics.CacheStatusHit, metrics.CacheTypeRedis).Inc()
	return url, nil
}

// Set stores a URL in Redis with the specified TTL.
// A non-positive ttl leaves no entry behind, matching the in-memory cache.
func (c *RedisURLCache) Set(ctx context.Context, videoID, url string, ttl time.Duration) error {
	if ttl <= 0 {
		return c.Delete(ctx, videoID)
	}

	if err := c.client.Set(ctx, buildKey(videoID), url, ttl).Err(); err != nil {
		metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpSet, metrics.CacheStatusError, metrics.CacheTypeRedis).Inc()
		return fmt.Errorf("redis set: %w", err)
	}

	metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpSet, metrics.CacheStatusSuccess, metrics.CacheTypeRedis).Inc()
	return nil
}

// Delete removes a URL from Redis.
func (c *RedisURLCache) Delete(ctx context.Context, videoID string) error {
	if err := c.client.Del(ctx, buildKey(videoID)).Err(); err != nil {
		metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpDelete, metrics.CacheStatusError, metrics.CacheTypeRedis).Inc()
		return fmt.Errorf("redis del: %w", err)
	}

	metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpDelete, metrics.CacheStatusSuccess, metrics.CacheTypeRedis).Inc()
	return nil
}
