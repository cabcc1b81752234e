// Package ratelimit implements per-key token buckets on top of
// golang.org/x/time/rate, with a non-blocking Allow and a blocking Wait.
package ratelimit

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// KeyedRateLimiter hands out an independent token bucket per key. Keys are
// typically client IPs.
type KeyedRateLimiter struct {
	mu       sync.RWMutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int

	done     chan struct{}
	stopOnce sync.Once
}

// New builds a limiter allowing rps requests per second per key, with burst
// tokens available up front.
func New(rps float64, burst int) *KeyedRateLimiter {
	l := &KeyedRateLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(rps),
		burst:    burst,
		done:     make(chan struct{}),
	}

	go l.run()

	return l
}

// Allow reports whether a request under key may proceed right now.
func (l *KeyedRateLimiter) Allow(key string) bool {
	return l.bucket(key).Allow()
}

// Wait blocks until a token is available for key or the context ends.
func (l *KeyedRateLimiter) Wait(ctx context.Context, key string) error {
	return l.bucket(key).Wait(ctx)
}

func (l *KeyedRateLimiter) bucket(key string) *rate.Limiter {
	l.mu.RLock()
	limiter, ok := l.limiters[key]
	l.mu.RUnlock()

	if ok {
		return limiter
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Another goroutine may have created it between the locks.
	if limiter, ok = l.limiters[key]; ok {
		return limiter
	}

	limiter = rate.NewLimiter(l.limit, l.burst)
	l.limiters[key] = limiter
	return limiter
}

// Stop releases the background goroutine. Safe to call more than once.
func (l *KeyedRateLimiter) Stop() {
	l.stopOnce.Do(func() {
		close(l.done)
	})
}

// run idles until Stop. Buckets are never evicted: rate.Limiter carries no
// last-access time, and with IP keys on a handful of endpoints the map stays
// small. Add access tracking here if keys ever become unbounded.
func (l *KeyedRateLimiter) run() {
	<-l.done
}
