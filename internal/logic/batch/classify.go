package batch

import "errors"

// Classification decides what an object operation does with a failed attempt.
type Classification int

const (
	// Terminal stops the operation after the current attempt.
	Terminal Classification = iota

	// Retryable admits another attempt while the budget allows it.
	Retryable
)

// Classify maps an attempt error to Retryable or Terminal.
//
// Dependency ordering problems surface as retryable errors: a child submitted
// before its parent gets "not found", a custom resource submitted before its
// CRD gets "kind not found". Retrying those until a sibling operation creates
// the missing prerequisite is what lets unordered application converge.
// Anything not recognized is terminal; failing fast beats retrying forever on
// an unknown condition.
func Classify(err error) Classification {
	var nf notFound
	if errors.As(err, &nf) {
		return Retryable
	}

	var knf kindNotFound
	if errors.As(err, &knf) {
		return Retryable
	}

	var unavail unavailable
	if errors.As(err, &unavail) {
		return Retryable
	}

	var tmr tooManyRequests
	if errors.As(err, &tmr) {
		return Retryable
	}

	return Terminal
}
