package batch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ndrpnt/deka/internal/infra/metrics"
)

// Service orchestrates one batch of object operations: it fans every
// TargetObject out over the concurrency gate, waits for all of them to reach a
// terminal outcome and assembles the report. No ordering is imposed among
// objects and no failure short-circuits siblings.
type Service struct {
	logger      *slog.Logger
	repo        Repository
	backoff     BackoffConfig
	parallelism int
	timeout     time.Duration

	total     atomic.Int64
	succeeded atomic.Int64
	failed    atomic.Int64
	inFlight  atomic.Int64
	startedAt atomic.Value // time.Time
}

// New creates a batch orchestrator. Configuration is validated here so a
// malformed batch fails before any operation starts.
func New(
	logger *slog.Logger,
	repo Repository,
	backoff BackoffConfig,
	parallelism int,
	timeout time.Duration,
) (*Service, error) {
	if parallelism < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidParallelism, parallelism)
	}

	if timeout < 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidTimeout, timeout)
	}

	if err := backoff.validate(); err != nil {
		return nil, err
	}

	return &Service{
		logger:      logger,
		repo:        repo,
		backoff:     backoff,
		parallelism: parallelism,
		timeout:     timeout,
	}, nil
}

// ApplyBatchCommand applies every object and blocks until all operations reach
// a terminal outcome. A terminal failure on one object never cancels siblings;
// only ctx cancellation cuts the batch short, and outcomes already produced
// are preserved in the report.
func (s *Service) ApplyBatchCommand(ctx context.Context, objects []TargetObject) BatchReport {
	start := time.Now()
	s.startedAt.Store(start)
	s.total.Store(int64(len(objects)))

	s.logger.InfoContext(ctx, "starting batch",
		"objects", len(objects),
		"parallelism", s.parallelism,
		"timeout", s.timeout,
	)

	b := newBudget(s.timeout)
	g := newGate(s.parallelism)
	results := make([]ObjectResult, len(objects))

	var wg sync.WaitGroup
	for i := range objects {
		wg.Add(1)

		go func(i int, obj TargetObject) {
			defer wg.Done()

			outcome := s.runOne(ctx, g, obj, b)
			results[i] = ObjectResult{Object: obj, Outcome: outcome}

			if outcome.Status == OutcomeSucceeded {
				s.succeeded.Add(1)
			} else {
				s.failed.Add(1)
			}

			metrics.RecordObjectOutcome(string(obj.Action), string(outcome.Status))
		}(i, objects[i])
	}

	wg.Wait()

	report := BatchReport{
		Results: results,
		Elapsed: time.Since(start),
	}

	for i := range results {
		if results[i].Outcome.Status == OutcomeSucceeded {
			report.Succeeded++
		} else {
			report.Failed++
		}
	}

	report.Success = report.Failed == 0

	metrics.ObserveBatchDuration(report.Elapsed.Seconds())
	s.logger.InfoContext(ctx, "batch finished",
		"succeeded", report.Succeeded,
		"failed", report.Failed,
		"elapsed", report.Elapsed,
		"success", report.Success,
	)

	return report
}

func (s *Service) runOne(ctx context.Context, g *gate, obj TargetObject, b budget) Outcome {
	if err := g.acquire(ctx); err != nil {
		return Outcome{
			Status: OutcomeFailed,
			Reason: FailureCancelled,
			Err:    fmt.Errorf("%w: %w", ErrCancelled, err),
		}
	}
	defer g.release()

	s.inFlight.Add(1)
	metrics.IncInFlightOperations()

	defer func() {
		s.inFlight.Add(-1)
		metrics.DecInFlightOperations()
	}()

	op := newOperation(s.logger, s.repo, s.backoff)

	return op.run(ctx, obj, b)
}

// Progress returns a point-in-time snapshot of the running batch.
func (s *Service) Progress() Progress {
	p := Progress{
		Total:     s.total.Load(),
		Succeeded: s.succeeded.Load(),
		Failed:    s.failed.Load(),
		InFlight:  s.inFlight.Load(),
	}

	if v, ok := s.startedAt.Load().(time.Time); ok {
		p.StartedAt = v
	}

	return p
}
