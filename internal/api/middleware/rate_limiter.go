package middleware

import (
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter decides whether the caller identified by key may proceed. A
// refusal carries how long until the next request would be admitted.
type RateLimiter interface {
	Allow(key string) (ok bool, retryAfter time.Duration)
}

type clientBucket struct {
	tokens   *rate.Limiter
	lastSeen time.Time
}

// ClientRateLimiter keeps one token bucket per client key. Buckets idle for
// longer than idleTTL are swept, at most once per idleTTL.
type ClientRateLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*clientBucket
	refill    rate.Limit
	burst     int
	idleTTL   time.Duration
	lastSweep time.Time
	now       func() time.Time
}

// NewClientRateLimiter admits requests per window per client, plus burst.
// Non-positive arguments fall back to 1 request per second, a burst of 1 and
// a five minute idle TTL.
func NewClientRateLimiter(requests int, window time.Duration, burst int, idleTTL time.Duration) *ClientRateLimiter {
	if requests <= 0 {
		requests = 1
	}
	if window <= 0 {
		window = time.Second
	}
	if burst <= 0 {
		burst = 1
	}
	if idleTTL <= 0 {
		idleTTL = 5 * time.Minute
	}

	return &ClientRateLimiter{
		buckets: make(map[string]*clientBucket),
		refill:  rate.Every(window / time.Duration(requests)),
		burst:   burst,
		idleTTL: idleTTL,
		now:     time.Now,
	}
}

// Allow takes a token from key's bucket. When none is available the
// reservation is cancelled so refused requests do not push the wait further out.
func (l *ClientRateLimiter) Allow(key string) (bool, time.Duration) {
	if key == "" {
		key = "unknown"
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweepLocked(now)

	b, ok := l.buckets[key]
	if !ok {
		b = &clientBucket{tokens: rate.NewLimiter(l.refill, l.burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now

	res := b.tokens.ReserveN(now, 1)
	if delay := res.DelayFrom(now); delay > 0 {
		res.CancelAt(now)
		return false, delay
	}
	return true, 0
}

// Len reports how many client buckets are tracked.
func (l *ClientRateLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

func (l *ClientRateLimiter) sweepLocked(now time.Time) {
	if now.Sub(l.lastSweep) < l.idleTTL {
		return
	}
	l.lastSweep = now
	for key, b := range l.buckets {
		if now.Sub(b.lastSeen) > l.idleTTL {
			delete(l.buckets, key)
		}
	}
}

// WithClock replaces the time source. Used by tests.
func (l *ClientRateLimiter) WithClock(now func() time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.now = now
}

// RateLimit answers 429 with Retry-After once the caller's address runs out of
// tokens. A nil limiter disables the check.
func RateLimit(limiter RateLimiter, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			ok, retryAfter := limiter.Allow(ip)
			if !ok {
				logger.Warn("rate limit exceeded",
					slog.String("request_id", GetRequestID(r.Context())),
					slog.String("remote_ip", ip),
					slog.String("path", r.URL.Path),
					slog.Duration("retry_after", retryAfter),
				)
				w.Header().Set("Retry-After", retryAfterSeconds(retryAfter))
				writeError(w, http.StatusTooManyRequests, "rate_limited", "Too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// retryAfterSeconds rounds d up to whole seconds, never below 1.
func retryAfterSeconds(d time.Duration) string {
	secs := int(math.Ceil(d.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}

// clientIP returns the host part of RemoteAddr. chi's RealIP middleware runs
// first and has already applied any forwarding headers.
func clientIP(r *http.Request) string {
	addr := strings.TrimSpace(r.RemoteAddr)
	host, _, err := net.SplitHostPort(addr)
	if err == nil && host != "" {
		return host
	}
	return addr
}
