// Package gateway wraps the shipping-label provider's REST API behind a
// two-tier failure model. Callers branch on the error class, not on status
// codes: permanent failures quarantine a work unit, transient failures leave
// it in place for the next run.
package gateway

import (
	"errors"
	"fmt"
)

// PermanentError is a non-retryable failure: a 4xx response other than
// rate limiting, or a locally detected validation problem. It is surfaced
// immediately and never retried.
type PermanentError struct {
	// Op is the gateway operation that failed (e.g. "create order").
	Op string
	// Status is the HTTP status code, or 0 for local validation failures.
	Status int
	// Detail is a truncated human-readable description from the response.
	Detail string
}

func (e *PermanentError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: HTTP %d: %s", e.Op, e.Status, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Detail)
}

// TransientError is a retryable failure: a network error, HTTP 429, HTTP 5xx,
// or retry exhaustion. The wrapped error is the last failure observed.
type TransientError struct {
	// Op is the gateway operation that failed.
	Op string
	// Attempts is how many attempts were made before giving up.
	Attempts int
	// Err is the last underlying failure.
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s: giving up after %d attempt(s): %v", e.Op, e.Attempts, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As chain traversal.
func (e *TransientError) Unwrap() error { return e.Err }

// IsTransient reports whether err is a retryable gateway failure.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// IsPermanent reports whether err is a non-retryable gateway failure.
func IsPermanent(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}
