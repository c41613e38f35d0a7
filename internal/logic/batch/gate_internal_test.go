package batch

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGate_bound(t *testing.T) {
	t.Parallel()

	const capacity = 3

	g := newGate(capacity)

	var (
		inFlight atomic.Int64
		peak     atomic.Int64
		wg       sync.WaitGroup
	)

	for i := 0; i < 20; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			require.NoError(t, g.acquire(context.Background()))
			defer g.release()

			current := inFlight.Add(1)
			defer inFlight.Add(-1)

			for {
				observed := peak.Load()
				if current <= observed || peak.CompareAndSwap(observed, current) {
					break
				}
			}

			time.Sleep(time.Millisecond)
		}()
	}

	wg.Wait()

	require.LessOrEqual(t, peak.Load(), int64(capacity))
	require.Positive(t, peak.Load())
}

func TestGate_unbounded(t *testing.T) {
	t.Parallel()

	g := newGate(0)

	// Every acquire must be granted immediately.
	for i := 0; i < 100; i++ {
		require.NoError(t, g.acquire(context.Background()))
	}
}

func TestGate_cancelled(t *testing.T) {
	t.Parallel()

	g := newGate(1)
	require.NoError(t, g.acquire(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.Error(t, g.acquire(ctx))

	t.Run("unbounded gate also observes cancellation", func(t *testing.T) {
		t.Parallel()

		unbounded := newGate(0)
		require.Error(t, unbounded.acquire(ctx))
	})
}
