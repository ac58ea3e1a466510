// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package limiter caps the number of operations in flight at once.
//
// A Limiter hands out permits from a weighted semaphore. Waiters are served
// in FIFO order, and a waiter whose context ends stops waiting and gets a
// cancelled error. Callers should prefer Do, which releases the permit on
// every exit path, over pairing Acquire and Release by hand.
package limiter

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"github.com/pdiddy/paper-triage/pkg/types"
)

// Limiter bounds concurrent operations to a fixed number of permits.
type Limiter struct {
	sem   *semaphore.Weighted
	limit int
	held  atomic.Int64
}

// New returns a Limiter with limit permits. A limit below 1 is a config error.
func New(limit int) (*Limiter, error) {
	if limit < 1 {
		return nil, types.Configf("concurrency limit must be at least 1, got %d", limit)
	}
	return &Limiter{
		sem:   semaphore.NewWeighted(int64(limit)),
		limit: limit,
	}, nil
}

// Limit returns the configured number of permits.
func (l *Limiter) Limit() int {
	return l.limit
}

// InUse returns the number of permits currently granted. It is zero once
// every Do call has returned; batches log it on completion.
func (l *Limiter) InUse() int {
	return int(l.held.Load())
}

// Acquire blocks until a permit is free or ctx ends. On cancellation it
// returns a KindCancelled error and holds no permit.
func (l *Limiter) Acquire(ctx context.Context) error {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return types.NewError(types.KindCancelled, "", fmt.Errorf("waiting for permit: %w", err))
	}
	l.held.Add(1)
	return nil
}

// tryAcquire takes a permit only if one is free right now.
func (l *Limiter) tryAcquire() bool {
	if !l.sem.TryAcquire(1) {
		return false
	}
	l.held.Add(1)
	return true
}

// Release returns a permit. Releasing more permits than were acquired panics.
func (l *Limiter) Release() {
	l.held.Add(-1)
	l.sem.Release(1)
}

// Do runs fn while holding a permit. The permit is released when fn returns,
// fails, or panics. If ctx ends before a permit is granted, fn is not run.
func (l *Limiter) Do(ctx context.Context, fn func(context.Context) error) error {
	if err := l.Acquire(ctx); err != nil {
		return err
	}
	defer l.Release()
	return fn(ctx)
}
