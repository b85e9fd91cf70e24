package cache

import (
	"context"
	"time"
)

// videoURLKeyPrefix is the prefix for resolved playback URL keys.
const videoURLKeyPrefix = "video-url-"

// URLCache defines the interface for caching resolved playback URLs.
type URLCache interface {
	// Get retrieves the cached URL for a video.
	// Returns "", nil if the URL is not cached (cache miss).
	Get(ctx context.Context, videoID string) (string, error)

	// Set stores a URL with the specified TTL, replacing any previous value.
	Set(ctx context.Context, videoID, url string, ttl time.Duration) error

	// Delete removes a video's URL from cache.
	// Returns nil if nothing was cached.
	Delete(ctx context.Context, videoID string) error
}

// buildKey constructs the cache key for a video's playback URL.
func buildKey(videoID string) string {
	return videoURLKeyPrefix + videoID
}
