package batch

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// gate bounds how many object operations run at once. Fairness is not
// guaranteed; any free slot may go to any waiting operation, which matches the
// batch's undefined-order contract.
type gate struct {
	sem *semaphore.Weighted
}

// newGate creates a gate with the given capacity. Capacity 0 means unbounded:
// every operation is admitted immediately.
func newGate(capacity int) *gate {
	if capacity <= 0 {
		return &gate{}
	}

	return &gate{sem: semaphore.NewWeighted(int64(capacity))}
}

// acquire blocks until a slot is free or ctx is cancelled.
func (g *gate) acquire(ctx context.Context) error {
	if g.sem == nil {
		return ctx.Err()
	}

	return g.sem.Acquire(ctx, 1)
}

func (g *gate) release() {
	if g.sem != nil {
		g.sem.Release(1)
	}
}
