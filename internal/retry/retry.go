// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package retry re-runs a fallible call with randomized exponential backoff.
//
// The wait before retry n (1-indexed) is drawn uniformly from
// [0, min(MaxDelay, MinDelay*2^(n-1))] ("full jitter"). When every attempt
// fails, the error of the last attempt is returned as-is.
package retry

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/paper-triage/pkg/types"
)

// Default policy values.
const (
	DefaultMinDelay    = 15 * time.Second
	DefaultMaxDelay    = 300 * time.Second
	DefaultMaxAttempts = 20
)

// Policy bounds retries. Policies are immutable values, safe to share.
type Policy struct {
	MinDelay    time.Duration
	MaxDelay    time.Duration
	MaxAttempts int
}

// DefaultPolicy returns 15s / 300s / 20 attempts.
func DefaultPolicy() Policy {
	return Policy{
		MinDelay:    DefaultMinDelay,
		MaxDelay:    DefaultMaxDelay,
		MaxAttempts: DefaultMaxAttempts,
	}
}

// PolicyFrom converts config into a Policy. Fields are copied as given;
// defaults belong to the config layer, and Validate rejects unusable values.
func PolicyFrom(cfg types.RetryConfig) Policy {
	return Policy{MinDelay: cfg.MinDelay, MaxDelay: cfg.MaxDelay, MaxAttempts: cfg.MaxAttempts}
}

// Validate reports a config error for an unusable policy.
func (p Policy) Validate() error {
	switch {
	case p.MaxAttempts < 1:
		return types.Configf("retry max attempts must be at least 1, got %d", p.MaxAttempts)
	case p.MinDelay < 0:
		return types.Configf("retry min delay must not be negative, got %s", p.MinDelay)
	case p.MaxDelay < p.MinDelay:
		return types.Configf("retry max delay %s is below min delay %s", p.MaxDelay, p.MinDelay)
	}
	return nil
}

// Ceiling returns the upper bound of the backoff window before retry n.
func (p Policy) Ceiling(n int) time.Duration {
	if n < 1 {
		n = 1
	}
	c := p.MinDelay
	for i := 1; i < n && c < p.MaxDelay; i++ {
		if c > math.MaxInt64/2 {
			c = p.MaxDelay
			break
		}
		c *= 2
	}
	return min(c, p.MaxDelay)
}

// Delay draws the wait before retry n. jitter(k) must return a value in [0, k);
// nil uses math/rand/v2.
func (p Policy) Delay(n int, jitter func(int64) int64) time.Duration {
	c := p.Ceiling(n)
	if c <= 0 {
		return 0
	}
	if jitter == nil {
		jitter = rand.Int64N
	}
	// The window is [0, c]; at the int64 limit it narrows to [0, c).
	if int64(c) == math.MaxInt64 {
		return time.Duration(jitter(int64(c)))
	}
	return time.Duration(jitter(int64(c) + 1))
}

// Caller applies a Policy to individual calls. A Caller is safe for
// concurrent use; each call keeps its own attempt count.
type Caller struct {
	policy Policy
	logger *zap.Logger
	sleep  func(context.Context, time.Duration) error
	jitter func(int64) int64
}

// Option customizes a Caller.
type Option func(*Caller)

// WithLogger logs each failed attempt.
func WithLogger(l *zap.Logger) Option {
	return func(c *Caller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithSleep replaces the backoff wait. Tests use it to record delays.
func WithSleep(fn func(context.Context, time.Duration) error) Option {
	return func(c *Caller) { c.sleep = fn }
}

// WithJitter replaces the random source used to draw delays.
func WithJitter(fn func(int64) int64) Option {
	return func(c *Caller) { c.jitter = fn }
}

// NewCaller validates p and returns a Caller.
func NewCaller(p Policy, opts ...Option) (*Caller, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	c := &Caller{
		policy: p,
		logger: zap.NewNop(),
		sleep:  sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Policy returns the caller's policy.
func (c *Caller) Policy() Policy {
	return c.policy
}

// Do calls op until it succeeds or MaxAttempts calls have failed, returning
// the result, the number of attempts made, and the last error. Each attempt
// is a fresh call to op. If ctx ends while waiting between attempts, Do
// returns a KindCancelled error.
func Do[T any](ctx context.Context, c *Caller, op func(context.Context) (T, error)) (T, int, error) {
	var zero T
	var lastErr error

	for attempt := 1; attempt <= c.policy.MaxAttempts; attempt++ {
		if attempt > 1 {
			delay := c.policy.Delay(attempt-1, c.jitter)
			c.logger.Warn("attempt failed, backing off",
				zap.Int("attempt", attempt-1),
				zap.Int("max_attempts", c.policy.MaxAttempts),
				zap.Duration("delay", delay),
				zap.Error(lastErr))
			if err := c.sleep(ctx, delay); err != nil {
				return zero, attempt - 1, types.NewError(types.KindCancelled, "",
					fmt.Errorf("retry wait after attempt %d: %w", attempt-1, err))
			}
		}

		v, err := op(ctx)
		if err == nil {
			return v, attempt, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return zero, attempt, lastErr
		}
	}

	c.logger.Warn("attempts exhausted",
		zap.Int("max_attempts", c.policy.MaxAttempts),
		zap.Error(lastErr))
	return zero, c.policy.MaxAttempts, lastErr
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
