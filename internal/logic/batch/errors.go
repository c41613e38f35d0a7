package batch

import "errors"

var (
	ErrBudgetExhausted    = errors.New("retry budget exhausted")
	ErrCancelled          = errors.New("operation cancelled")
	ErrInvalidParallelism = errors.New("parallelism must not be negative")
	ErrInvalidTimeout     = errors.New("timeout must not be negative")
	ErrInvalidBackoff     = errors.New("invalid backoff configuration")
)
