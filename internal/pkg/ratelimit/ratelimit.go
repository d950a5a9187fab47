// Package ratelimit counts attempts per key in fixed windows.
//
// It backs the per-account throttle in front of code verification: a six
// digit code space is small enough that an unthrottled verifier falls to
// brute force inside the drift window.
package ratelimit

import (
	"context"
	"time"
)

// Decision is the outcome of one counted attempt.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// Limiter counts an attempt against key and reports whether it may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
	Reset(ctx context.Context, key string) error
}

// Policy is the number of attempts allowed per window.
type Policy struct {
	Limit  int
	Window time.Duration
}

func (p Policy) decide(count int64, ttl time.Duration) Decision {
	if count > int64(p.Limit) {
		return Decision{Allowed: false, RetryAfter: ttl}
	}
	return Decision{Allowed: true, Remaining: p.Limit - int(count)}
}

var (
	_ Limiter = (*Redis)(nil)
	_ Limiter = (*Memory)(nil)
)
