package batch

import "context"

// Repository is the port interface for cluster write operations.
// Implementations are provided by adapters in the outbound layer. Both
// operations are idempotent: ApplyCommand is a server-side apply attributed to
// a field manager, DeleteCommand treats an already-absent object as success.
type Repository interface {
	ApplyCommand(ctx context.Context, obj TargetObject) error
	DeleteCommand(ctx context.Context, obj TargetObject) error
}

// Private interfaces for classifying adapter errors without importing the
// adapter package. The adapter attaches these behaviors to marker error types.

// notFound: a referenced object or namespace does not exist yet.
type notFound interface {
	IsNotFound()
}

// kindNotFound: discovery does not recognize the kind yet (CRD registration lag).
type kindNotFound interface {
	IsKindNotFound()
}

// unavailable: transport failure or 5xx-class server condition.
type unavailable interface {
	IsUnavailable()
}

// tooManyRequests: the server asked the client to back off.
type tooManyRequests interface {
	IsTooManyRequests()
}
