package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/driftlog/driftlog-server/internal/http/response"
	"github.com/driftlog/driftlog-server/internal/ratelimit"
)

// RateLimiter is the per-client limiter guarding abuse-prone endpoints.
type RateLimiter = ratelimit.KeyedRateLimiter

// NewRateLimiter allows n requests per interval with the given burst.
// Config speaks per-minute; the underlying limiter speaks per-second.
func NewRateLimiter(n int, interval time.Duration, burst int) *RateLimiter {
	return ratelimit.New(float64(n)/interval.Seconds(), burst)
}

// RateLimitMiddleware rejects requests over the per-IP limit with a 429.
func RateLimitMiddleware(limiter *RateLimiter, logger interface{ Warn(msg string, args ...any) }) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)

			if !limiter.Allow(ip) {
				logger.Warn("Rate limit exceeded",
					"ip", ip,
					"path", r.URL.Path,
				)
				response.TooManyRequests(w, "Too many requests. Please try again later.", nil)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientIP resolves the originating address, trusting proxy headers when
// present. X-Forwarded-For lists the client first.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if i := strings.IndexByte(xff, ','); i >= 0 {
			return strings.TrimSpace(xff[:i])
		}
		return xff
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	// RemoteAddr is host:port.
	if i := strings.LastIndexByte(r.RemoteAddr, ':'); i >= 0 {
		return r.RemoteAddr[:i]
	}
	return r.RemoteAddr
}
