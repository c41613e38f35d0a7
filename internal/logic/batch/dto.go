package batch

import (
	"fmt"
	"time"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
)

// Action is what the batch does with a single object.
type Action string

const (
	ActionApply  Action = "apply"
	ActionDelete Action = "delete"
)

// TargetObject is one unit of work, fully resolved by the manifest layer
// before the batch starts. It is immutable for the life of the batch.
type TargetObject struct {
	GVK       schema.GroupVersionKind
	Namespace string
	Name      string
	Action    Action
	// Object is the desired-state payload as read from the manifest.
	Object *unstructured.Unstructured
}

// Identity returns a stable human-readable identifier for logs and reports.
func (o TargetObject) Identity() string {
	apiVersion := o.GVK.Version
	if o.GVK.Group != "" {
		apiVersion = o.GVK.Group + "/" + o.GVK.Version
	}

	if o.Namespace != "" {
		return fmt.Sprintf("%s/%s %s/%s", apiVersion, o.GVK.Kind, o.Namespace, o.Name)
	}

	return fmt.Sprintf("%s/%s %s", apiVersion, o.GVK.Kind, o.Name)
}

// OutcomeStatus is the terminal state of a single object operation.
type OutcomeStatus string

const (
	OutcomeSucceeded OutcomeStatus = "succeeded"
	OutcomeFailed    OutcomeStatus = "failed"
)

// FailureReason distinguishes why a failed operation stopped retrying.
type FailureReason string

const (
	// FailureTerminal means the last error was classified as not retryable.
	FailureTerminal FailureReason = "terminal-error"

	// FailureTimeout means the error was retryable but the batch budget ran out.
	FailureTimeout FailureReason = "budget-exhausted"

	// FailureCancelled means the run context was cancelled mid-operation.
	FailureCancelled FailureReason = "cancelled"
)

// Outcome is the terminal result of one object operation. It is produced
// exactly once per object and never mutated afterwards.
type Outcome struct {
	Status   OutcomeStatus
	Reason   FailureReason
	Err      error
	Attempts int
	Elapsed  time.Duration
}

// ObjectResult pairs an object identity with its outcome.
type ObjectResult struct {
	Object  TargetObject
	Outcome Outcome
}

// BatchReport is the aggregate result of one batch.
type BatchReport struct {
	Succeeded int
	Failed    int
	Results   []ObjectResult
	Elapsed   time.Duration
	// Success is true iff every object succeeded.
	Success bool
}

// Progress is a point-in-time snapshot of a running batch, consumed by the
// status server.
type Progress struct {
	Total     int64     `json:"total"`
	Succeeded int64     `json:"succeeded"`
	Failed    int64     `json:"failed"`
	InFlight  int64     `json:"inFlight"`
	StartedAt time.Time `json:"startedAt"`
}
