package usecase

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/hszk-dev/vidvault/internal/domain/model"
	"github.com/hszk-dev/vidvault/internal/infrastructure/cache"
	"github.com/hszk-dev/vidvault/internal/infrastructure/metrics"
)

// CachedVideoServiceConfig holds configuration for CachedVideoService.
type CachedVideoServiceConfig struct {
	// URLTTL is how long a resolved playback URL is reused.
	URLTTL time.Duration
}

// DefaultCachedVideoServiceConfig returns the default configuration.
func DefaultCachedVideoServiceConfig() CachedVideoServiceConfig {
	return CachedVideoServiceConfig{
		URLTTL: time.Hour,
	}
}

// cachedVideoService wraps VideoService with playback URL caching.
// It implements the decorator pattern to add caching without modifying the original service.
type cachedVideoService struct {
	delegate VideoService
	cache    cache.URLCache
	sfGroup  singleflight.Group

	urlTTL time.Duration
}

// NewCachedVideoService creates a new CachedVideoService wrapping the provided VideoService.
func NewCachedVideoService(
	delegate VideoService,
	urlCache cache.URLCache,
	cfg CachedVideoServiceConfig,
) VideoService {
	return &cachedVideoService{
		delegate: delegate,
		cache:    urlCache,
		urlTTL:   cfg.URLTTL,
	}
}

// Upload delegates to the underlying service. Uploads never touch cached URLs.
func (s *cachedVideoService) Upload(ctx context.Context, input UploadInput) (*model.VideoRecord, error) {
	return s.delegate.Upload(ctx, input)
}

// List delegates to the underlying service. Listings are always fresh.
func (s *cachedVideoService) List(ctx context.Context, input ListInput) (*ListOutput, error) {
	return s.delegate.List(ctx, input)
}

// ResolveURL returns the cached playback URL for id or resolves and caches it.
// Uses singleflight to prevent cache stampede on concurrent requests for the same video.
func (s *cachedVideoService) ResolveURL(ctx context.Context, id string) (string, error) {
	if id == "" {
		return "", ErrIDRequired
	}

	result, err, shared := s.sfGroup.Do(id, func() (any, error) {
		return s.resolveWithCache(ctx, id)
	})

	if shared {
		metrics.SingleflightRequestsTotal.WithLabelValues(metrics.SingleflightShared).Inc()
	} else {
		metrics.SingleflightRequestsTotal.WithLabelValues(metrics.SingleflightInitiated).Inc()
	}

	if err != nil {
		return "", err
	}
	return result.(string), nil
}

// resolveWithCache implements the cache-aside pattern.
func (s *cachedVideoService) resolveWithCache(ctx context.Context, id string) (string, error) {
	u, err := s.cache.Get(ctx, id)
	if err != nil {
		slog.Warn("cache get failed, falling back to storage",
			"video_id", id,
			"error", err,
		)
	}
	if u != "" {
		return u, nil // Cache hit
	}

	u, err = s.delegate.ResolveURL(ctx, id)
	if err != nil {
		return "", err
	}

	if err := s.cache.Set(ctx, id, u, s.urlTTL); err != nil {
		slog.Warn("failed to cache video url",
			"video_id", id,
			"error", err,
		)
	}
	return u, nil
}

// Delete delegates to the underlying service and, once the remote file is
// gone, drops the cached URL for input.ID.
func (s *cachedVideoService) Delete(ctx context.Context, input DeleteInput) error {
	if err := s.delegate.Delete(ctx, input); err != nil {
		return err
	}

	if input.ID == "" {
		return nil
	}
	if err := s.cache.Delete(ctx, input.ID); err != nil {
		// Log but don't fail - the entry expires on its own
		slog.Warn("failed to invalidate cached video url",
			"video_id", input.ID,
			"error", err,
		)
	}
	return nil
}
