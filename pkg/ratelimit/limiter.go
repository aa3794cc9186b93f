// Package ratelimit paces outbound REST requests so the connector stays
// inside the Coinglass plan limits. It wraps Uber's token-bucket limiter
// behind a small interface that supports context cancellation and runtime
// adjustment.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/ratelimit"
)

// Rate expresses a limit as operations per interval, e.g. {30, time.Minute}
// for the Coinglass hobbyist tier.
type Rate struct {
	Limit    int
	Interval time.Duration
}

// RateLimiter gates rate-limited operations.
type RateLimiter interface {
	// Wait blocks until an operation is permitted or ctx is cancelled.
	Wait(ctx context.Context) error

	// SetLimit replaces the rate configuration at runtime.
	SetLimit(limit Rate) error
}

type uberLimiter struct {
	limiter ratelimit.Limiter
	rate    Rate
}

// NewTokenBucketLimiter creates a RateLimiter backed by Uber's token bucket.
// The rate is converted to operations per second; rates below 1 op/s are
// clamped to 1.
func NewTokenBucketLimiter(rate Rate) RateLimiter {
	return &uberLimiter{
		limiter: ratelimit.New(perSecond(rate)),
		rate:    rate,
	}
}

func perSecond(rate Rate) int {
	rps := int(float64(rate.Limit) / rate.Interval.Seconds())
	if rps < 1 {
		rps = 1
	}
	return rps
}

func (l *uberLimiter) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("rate limit wait cancelled: %w", ctx.Err())
	default:
		l.limiter.Take()
		return nil
	}
}

func (l *uberLimiter) SetLimit(rate Rate) error {
	if rate.Limit <= 0 || rate.Interval <= 0 {
		return fmt.Errorf("invalid rate limit: %+v", rate)
	}
	l.limiter = ratelimit.New(perSecond(rate))
	l.rate = rate
	return nil
}
