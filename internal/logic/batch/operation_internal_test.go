package batch

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type stubUnavailableError struct{}

func (stubUnavailableError) Error() string  { return "server unavailable" }
func (stubUnavailableError) IsUnavailable() {}

// stubRepo fails with the scripted errors in order, then succeeds.
type stubRepo struct {
	errs   []error
	sticky bool
}

func (r *stubRepo) ApplyCommand(context.Context, TargetObject) error {
	if len(r.errs) == 0 {
		return nil
	}

	err := r.errs[0]
	if !r.sticky {
		r.errs = r.errs[1:]
	}

	return err
}

func (r *stubRepo) DeleteCommand(ctx context.Context, obj TargetObject) error {
	return r.ApplyCommand(ctx, obj)
}

func tightBackoff() BackoffConfig {
	return BackoffConfig{
		InitialDelay: time.Millisecond,
		Multiplier:   1,
		Jitter:       0,
		MaxDelay:     time.Millisecond,
	}
}

func TestOperation_phases(t *testing.T) {
	t.Parallel()

	logger := slog.Default()
	obj := TargetObject{Name: "pod-a", Action: ActionApply}

	t.Run("starts idle", func(t *testing.T) {
		t.Parallel()

		op := newOperation(logger, &stubRepo{}, tightBackoff())
		require.Equal(t, phaseIdle, op.phase)
	})

	t.Run("success ends in succeeded", func(t *testing.T) {
		t.Parallel()

		op := newOperation(logger, &stubRepo{}, tightBackoff())

		outcome := op.run(t.Context(), obj, budget{})
		require.Equal(t, OutcomeSucceeded, outcome.Status)
		require.Equal(t, phaseSucceeded, op.phase)
	})

	t.Run("retry then success ends in succeeded", func(t *testing.T) {
		t.Parallel()

		repo := &stubRepo{errs: []error{stubUnavailableError{}}}
		op := newOperation(logger, repo, tightBackoff())

		outcome := op.run(t.Context(), obj, budget{})
		require.Equal(t, OutcomeSucceeded, outcome.Status)
		require.Equal(t, 2, outcome.Attempts)
		require.Equal(t, phaseSucceeded, op.phase)
	})

	t.Run("terminal error ends in failed", func(t *testing.T) {
		t.Parallel()

		repo := &stubRepo{errs: []error{errors.New("denied")}, sticky: true}
		op := newOperation(logger, repo, tightBackoff())

		outcome := op.run(t.Context(), obj, budget{})
		require.Equal(t, OutcomeFailed, outcome.Status)
		require.Equal(t, FailureTerminal, outcome.Reason)
		require.Equal(t, phaseFailed, op.phase)
	})

	t.Run("budget exhaustion ends in failed", func(t *testing.T) {
		t.Parallel()

		repo := &stubRepo{errs: []error{stubUnavailableError{}}, sticky: true}
		op := newOperation(logger, repo, tightBackoff())

		expired := budget{deadline: time.Now().Add(-time.Second)}

		outcome := op.run(t.Context(), obj, expired)
		require.Equal(t, OutcomeFailed, outcome.Status)
		require.Equal(t, FailureTimeout, outcome.Reason)
		require.Equal(t, phaseFailed, op.phase)
	})

	t.Run("cancellation ends in failed", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(t.Context())
		cancel()

		repo := &stubRepo{errs: []error{stubUnavailableError{}}, sticky: true}
		op := newOperation(logger, repo, tightBackoff())

		outcome := op.run(ctx, obj, budget{})
		require.Equal(t, OutcomeFailed, outcome.Status)
		require.Equal(t, FailureCancelled, outcome.Reason)
		require.Equal(t, phaseFailed, op.phase)
	})
}
