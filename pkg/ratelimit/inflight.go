package ratelimit

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Inflight caps the number of requests outstanding at the same time
type Inflight struct {
	sem *semaphore.Weighted
	max int64
}

// NewInflight creates a cap of n concurrent requests (minimum 1)
func NewInflight(n int) *Inflight {
	if n < 1 {
		n = 1
	}
	return &Inflight{sem: semaphore.NewWeighted(int64(n)), max: int64(n)}
}

// Acquire blocks until a slot is free or ctx is done
func (i *Inflight) Acquire(ctx context.Context) error {
	return i.sem.Acquire(ctx, 1)
}

// TryAcquire takes a slot without blocking
func (i *Inflight) TryAcquire() bool {
	return i.sem.TryAcquire(1)
}

// Release frees a slot taken by Acquire or TryAcquire
func (i *Inflight) Release() {
	i.sem.Release(1)
}

// Max returns the configured cap
func (i *Inflight) Max() int {
	return int(i.max)
}
