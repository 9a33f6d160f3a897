// Package caperr defines the error taxonomy shared across the capture
// pipeline. Callers branch on these sentinels with errors.Is; everything
// else is wrapped context.
package caperr

import "errors"

var (
	// ErrUnsupported means the operation is not available on this
	// platform or OS version. Never retried.
	ErrUnsupported = errors.New("operation not supported on this platform")

	// ErrTimeout means a bounded wait expired before the native
	// operation completed. The operation itself is not cancelled; a
	// late result is discarded.
	ErrTimeout = errors.New("deadline exceeded")

	// ErrNotFound means the requested display, window or identity does
	// not exist.
	ErrNotFound = errors.New("not found")

	// ErrMalformedDescriptor means a display descriptor failed
	// validation. Resolvers treat it as "try the next tier".
	ErrMalformedDescriptor = errors.New("malformed display descriptor")

	// ErrSerialUnavailable means every serial resolution tier was
	// exhausted without data. Distinct from ErrNotFound: callers rely on
	// it to mean the hardware exposes no serial at all.
	ErrSerialUnavailable = errors.New("display serial number not available")

	// ErrStatePoisoned means shared state was left inconsistent by a
	// failed writer. Non-retryable.
	ErrStatePoisoned = errors.New("shared state poisoned by failed writer")
)
