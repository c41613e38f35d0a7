package k8s

// Marker error types wrapping API server failures. Each carries a behavior
// method the batch classifier recognizes through a private interface, so the
// retry decision never depends on apimachinery error helpers.

// NotFoundError marks a response where a referenced object or namespace does
// not exist yet.
type NotFoundError struct{ Err error }

func (e *NotFoundError) Error() string { return e.Err.Error() }

func (e *NotFoundError) Unwrap() error { return e.Err }

func (e *NotFoundError) IsNotFound() {}

// KindNotFoundError marks a kind that discovery does not recognize yet,
// typically a CRD still being registered.
type KindNotFoundError struct{ Err error }

func (e *KindNotFoundError) Error() string { return e.Err.Error() }

func (e *KindNotFoundError) Unwrap() error { return e.Err }

func (e *KindNotFoundError) IsKindNotFound() {}

// UnavailableError marks transport failures and 5xx-class server conditions.
type UnavailableError struct{ Err error }

func (e *UnavailableError) Error() string { return e.Err.Error() }

func (e *UnavailableError) Unwrap() error { return e.Err }

func (e *UnavailableError) IsUnavailable() {}

// TooManyRequestsError marks a response asking the client to back off.
type TooManyRequestsError struct{ Err error }

func (e *TooManyRequestsError) Error() string { return e.Err.Error() }

func (e *TooManyRequestsError) Unwrap() error { return e.Err }

func (e *TooManyRequestsError) IsTooManyRequests() {}
