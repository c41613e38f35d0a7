package batch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ndrpnt/deka/internal/infra/metrics"
)

// opPhase is the state of a single object operation. Transitions:
// idle -> attempting -> attempting (retry) | succeeded | failed.
type opPhase int

const (
	phaseIdle opPhase = iota
	phaseAttempting
	phaseSucceeded
	phaseFailed
)

// operation runs the retry loop for one object. Attempts are strictly
// sequential within an operation; suspending between attempts (backoff sleep,
// gate wait, in-flight call) never blocks sibling operations.
type operation struct {
	logger *slog.Logger
	repo   Repository
	cfg    BackoffConfig
	phase  opPhase
}

func newOperation(logger *slog.Logger, repo Repository, cfg BackoffConfig) *operation {
	return &operation{
		logger: logger,
		repo:   repo,
		cfg:    cfg,
	}
}

// run drives the object to a terminal outcome. The budget is shared read-only
// across the batch; ctx carries process-level cancellation.
func (op *operation) run(ctx context.Context, obj TargetObject, b budget) Outcome {
	logger := op.logger.With(
		"object", obj.Identity(),
		"action", string(obj.Action),
	)

	sched := op.cfg.newSchedule()
	start := time.Now()
	op.phase = phaseAttempting

	for attempt := 1; ; attempt++ {
		err := op.call(ctx, obj)
		elapsed := time.Since(start)

		result := "failure"
		if err == nil {
			result = "success"
		}

		metrics.RecordAttempt(string(obj.Action), result)

		if err == nil {
			op.phase = phaseSucceeded
			logger.InfoContext(ctx, "object reconciled", "attempt", attempt, "elapsed", elapsed)

			return Outcome{
				Status:   OutcomeSucceeded,
				Attempts: attempt,
				Elapsed:  elapsed,
			}
		}

		if ctx.Err() != nil {
			op.phase = phaseFailed
			logger.WarnContext(ctx, "operation cancelled", "attempt", attempt, "reason", err)

			return Outcome{
				Status:   OutcomeFailed,
				Reason:   FailureCancelled,
				Err:      fmt.Errorf("%w: %w", ErrCancelled, err),
				Attempts: attempt,
				Elapsed:  elapsed,
			}
		}

		if Classify(err) == Terminal {
			op.phase = phaseFailed
			logger.WarnContext(ctx, "attempt failed, not retryable", "attempt", attempt, "reason", err)

			return Outcome{
				Status:   OutcomeFailed,
				Reason:   FailureTerminal,
				Err:      err,
				Attempts: attempt,
				Elapsed:  elapsed,
			}
		}

		delay, ok := sched.next(b, time.Now())
		if !ok {
			op.phase = phaseFailed
			logger.WarnContext(ctx, "attempt failed, retry budget exhausted", "attempt", attempt, "reason", err)

			return Outcome{
				Status:   OutcomeFailed,
				Reason:   FailureTimeout,
				Err:      fmt.Errorf("%w: %w", ErrBudgetExhausted, err),
				Attempts: attempt,
				Elapsed:  elapsed,
			}
		}

		logger.WarnContext(ctx, "attempt failed, will retry",
			"attempt", attempt,
			"delay", delay,
			"reason", err,
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()

			op.phase = phaseFailed

			return Outcome{
				Status:   OutcomeFailed,
				Reason:   FailureCancelled,
				Err:      fmt.Errorf("%w: %w", ErrCancelled, ctx.Err()),
				Attempts: attempt,
				Elapsed:  time.Since(start),
			}
		case <-timer.C:
		}
	}
}

func (op *operation) call(ctx context.Context, obj TargetObject) error {
	if obj.Action == ActionDelete {
		return op.repo.DeleteCommand(ctx, obj)
	}

	return op.repo.ApplyCommand(ctx, obj)
}
