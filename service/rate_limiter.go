// file: service/rate_limiter.go

package service

import (
	"context"
	"go-recruit-auth/config"
	"go-recruit-auth/logger"
	"math"
	"time"
)

// RateDecision is the outcome of one rate-limit check. Reason is set only on
// a denial.
type RateDecision struct {
	Allowed           bool
	Reason            Reason
	Remaining         int
	ResetAt           time.Time
	RetryAfterSeconds int
}

// RateLimiter applies fixed-window throttling per (identity, limiter name).
// Presets come from configuration so authentication endpoints can run a
// stricter window than public or administrative ones while sharing the same
// algorithm.
type RateLimiter struct {
	store   RateCounterStore
	presets map[string]config.LimiterPreset
	clock   Clock
}

// NewRateLimiter creates a RateLimiter over the given counter store, using
// the limiter presets from the loaded configuration.
func NewRateLimiter(store RateCounterStore) *RateLimiter {
	return &RateLimiter{
		store:   store,
		presets: config.AppConfig.RateLimits,
		clock:   systemClock{},
	}
}

// WithClock overrides the time source, primarily for tests.
func (l *RateLimiter) WithClock(clock Clock) *RateLimiter {
	if clock != nil {
		l.clock = clock
	}
	return l
}

// Check registers one request for identity against the named limiter and
// decides whether it may proceed. An unknown limiter name or a counter-store
// failure lets the request through: throttling is an abuse control, and a
// degraded counter store should not take the whole API down with it.
func (l *RateLimiter) Check(ctx context.Context, identity, limiterName string) RateDecision {
	preset, ok := l.presets[limiterName]
	if !ok || preset.MaxRequests <= 0 {
		logger.Log.WithField("limiter", limiterName).Warn("Unknown rate limiter preset, allowing request")
		return RateDecision{Allowed: true}
	}

	ctx, cancel := withStoreTimeout(ctx)
	defer cancel()

	now := l.clock.Now()
	window := time.Duration(preset.WindowMs) * time.Millisecond

	count, resetAt, err := l.store.Hit(ctx, limiterName+":"+identity, window, now)
	if err != nil {
		logger.Log.WithError(err).WithField("limiter", limiterName).Error("Rate counter store failed, allowing request")
		return RateDecision{Allowed: true}
	}

	remaining := preset.MaxRequests - int(count)
	if remaining < 0 {
		remaining = 0
	}

	if count > int64(preset.MaxRequests) {
		retryAfter := int(math.Ceil(resetAt.Sub(now).Seconds()))
		if retryAfter < 1 {
			retryAfter = 1
		}
		return RateDecision{
			Allowed:           false,
			Reason:            ReasonRateLimited,
			Remaining:         0,
			ResetAt:           resetAt,
			RetryAfterSeconds: retryAfter,
		}
	}

	return RateDecision{
		Allowed:   true,
		Remaining: remaining,
		ResetAt:   resetAt,
	}
}
