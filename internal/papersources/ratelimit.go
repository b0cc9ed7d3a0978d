// Package papersources provides the shared HTTP transport used to reach
// bibliographic APIs: token-bucket rate limiting, bounded retries, and
// request identification.
package papersources

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimiter is the token bucket every upstream request waits on. It is
// safe for concurrent use.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter allows ratePerSecond sustained requests with bursts of up
// to burst. scholarview ships with 10 per second and a burst of 5, inside
// the OpenAlex polite-pool allowance.
func NewRateLimiter(ratePerSecond float64, burst int) *RateLimiter {
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(ratePerSecond), burst),
	}
}

// Wait blocks until a request is allowed or the context is done.
func (r *RateLimiter) Wait(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}

// Allow reports whether a request may start now, consuming a token if so.
func (r *RateLimiter) Allow() bool {
	return r.limiter.Allow()
}
