package domain

import "errors"

var (
	// ErrScanNotFound is returned when a scan cannot be found in the database
	ErrScanNotFound = errors.New("scan not found")

	// ErrTargetNotFound is returned when a scan references a target record
	// that does not exist
	ErrTargetNotFound = errors.New("target not found")
)

// RetryableError wraps transient store errors. The worker loop treats these
// as "try again after backoff", never as an empty queue.
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string {
	return "retryable error: " + e.Err.Error()
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// NewRetryableError creates a new retryable error
func NewRetryableError(err error) error {
	return &RetryableError{Err: err}
}
