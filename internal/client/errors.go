package client

import (
	"errors"
	"fmt"
)

// The error taxonomy callers branch on. Every failure out of this package
// is exactly one of these kinds, so a caller can always tell "retry this
// call" from "redirect to login" from "start the pipeline over".
var (
	// ErrUnauthorized means the session is missing or expired. The caller
	// should redirect to the login flow, not retry.
	ErrUnauthorized = errors.New("unauthorized: session missing or expired")

	// ErrNotFound means the server has no record for the given id.
	ErrNotFound = errors.New("not found")

	// ErrProcessingFailed is the business-terminal outcome: the server
	// finished processing and reported failure. Recovery is a brand-new
	// upload, never a resume of the failed job.
	ErrProcessingFailed = errors.New("cv processing failed")
)

// ValidationError means the request itself was bad: rejected locally
// before any network call (file type, size, download format) or by the
// server as a 4xx. Never retried automatically.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return "validation: " + e.Message
}

// TransportError covers network failures and unexpected server statuses.
// It is surfaced with a manual retry affordance; nothing in this package
// retries it automatically.
type TransportError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transport: %s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("transport: %s returned status %d", e.Op, e.StatusCode)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err is a validation reject, local or
// server-side.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsTransport reports whether err is a transport-level failure, as opposed
// to a business failure or a local validation reject.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
