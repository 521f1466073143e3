// Package transport holds the request pacing and retry helpers shared by
// the wallet and backend HTTP clients.
package transport

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/time/rate"
)

// Default pacing for a single key.
const (
	DefaultRequestsPerSecond = 5
	DefaultBurst             = 10
)

// RateLimiter paces requests with one token bucket per key. Keys are
// service names or endpoint URLs.
type RateLimiter struct {
	limit   rate.Limit
	burst   int
	buckets sync.Map // string -> *rate.Limiter
}

// NewRateLimiter creates a limiter. perSecond <= 0 disables pacing.
func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	r := &RateLimiter{limit: rate.Limit(perSecond), burst: max(burst, 1)}
	if perSecond <= 0 {
		r.limit = rate.Inf
	}
	return r
}

// DefaultRateLimiter paces at DefaultRequestsPerSecond with DefaultBurst.
func DefaultRateLimiter() *RateLimiter {
	return NewRateLimiter(DefaultRequestsPerSecond, DefaultBurst)
}

// Allow takes a token for key if one is available now.
func (r *RateLimiter) Allow(key string) bool {
	return r.bucket(key).Allow()
}

// Wait blocks until key has a token or ctx ends.
func (r *RateLimiter) Wait(ctx context.Context, key string) error {
	if err := r.bucket(key).Wait(ctx); err != nil {
		return fmt.Errorf("waiting for %s rate limit: %w", key, err)
	}
	return nil
}

func (r *RateLimiter) bucket(key string) *rate.Limiter {
	if b, ok := r.buckets.Load(key); ok {
		return b.(*rate.Limiter)
	}
	b, _ := r.buckets.LoadOrStore(key, rate.NewLimiter(r.limit, r.burst))
	return b.(*rate.Limiter)
}
