package batch

import (
	"math"
	"time"

	"k8s.io/apimachinery/pkg/util/wait"
)

// BackoffConfig parameterizes the per-object retry delay schedule.
type BackoffConfig struct {
	InitialDelay time.Duration
	Multiplier   float64
	// Jitter randomizes each delay by up to Jitter*delay so many failing
	// objects do not retry in lockstep.
	Jitter   float64
	MaxDelay time.Duration
}

// DefaultBackoff returns the default schedule: 400ms growing 5x per attempt,
// capped at 30s, with 50% jitter.
func DefaultBackoff() BackoffConfig {
	return BackoffConfig{
		InitialDelay: 400 * time.Millisecond,
		Multiplier:   5.0,
		Jitter:       0.5,
		MaxDelay:     30 * time.Second,
	}
}

func (c BackoffConfig) validate() error {
	if c.InitialDelay <= 0 || c.Multiplier < 1 || c.Jitter < 0 || c.MaxDelay < c.InitialDelay {
		return ErrInvalidBackoff
	}

	return nil
}

// newSchedule creates a fresh delay sequence for one object operation.
// A schedule is not safe for concurrent use; every operation owns its own.
func (c BackoffConfig) newSchedule() *schedule {
	return &schedule{
		backoff: wait.Backoff{
			Duration: c.InitialDelay,
			Factor:   c.Multiplier,
			Jitter:   c.Jitter,
			Cap:      c.MaxDelay,
			Steps:    math.MaxInt32,
		},
	}
}

type schedule struct {
	backoff wait.Backoff
}

// next returns the delay to sleep before the following attempt. It returns
// false when sleeping that long would overrun the budget; the operation must
// then terminate instead of sleeping past the deadline.
func (s *schedule) next(b budget, now time.Time) (time.Duration, bool) {
	delay := s.backoff.Step()
	if !b.admits(now, delay) {
		return 0, false
	}

	return delay, true
}

// budget is the batch-wide deadline, computed once at batch start and shared
// read-only by every operation. A zero budget never expires.
type budget struct {
	deadline time.Time
}

func newBudget(timeout time.Duration) budget {
	if timeout == 0 {
		return budget{}
	}

	return budget{deadline: time.Now().Add(timeout)}
}

func (b budget) admits(now time.Time, delay time.Duration) bool {
	if b.deadline.IsZero() {
		return true
	}

	return !now.Add(delay).After(b.deadline)
}
