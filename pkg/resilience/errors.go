package resilience

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Kind classifies the failure mode of one upstream call
type Kind string

const (
	// KindNotFound is an expected absence (HTTP 404). It is not counted as a
	// circuit failure and is never retried.
	KindNotFound Kind = "NOT_FOUND"

	// KindClient is a caller-side error (other 4xx). Counted as a circuit
	// failure, never retried.
	KindClient Kind = "CLIENT_ERROR"

	// KindServer is an upstream 5xx. Counted and retried.
	KindServer Kind = "SERVER_ERROR"

	// KindTimeout means the call did not complete within the configured
	// timeout. Counted and retried.
	KindTimeout Kind = "TIMEOUT"

	// KindTransport is a connection-level failure. Counted and retried.
	KindTransport Kind = "TRANSPORT_ERROR"

	// KindCircuitOpen means the breaker rejected the call before any network
	// attempt was made.
	KindCircuitOpen Kind = "CIRCUIT_OPEN"
)

// CallError is the typed failure of a single upstream dependency call
type CallError struct {
	Kind       Kind
	StatusCode int
	Err        error
}

// Error implements the error interface
func (e *CallError) Error() string {
	switch {
	case e.StatusCode > 0 && e.Err != nil:
		return fmt.Sprintf("%s (status %d): %v", e.Kind, e.StatusCode, e.Err)
	case e.StatusCode > 0:
		return fmt.Sprintf("%s (status %d)", e.Kind, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return string(e.Kind)
	}
}

// Unwrap implements the unwrap interface
func (e *CallError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the failure is transient and eligible for retry
func (e *CallError) Retryable() bool {
	switch e.Kind {
	case KindServer, KindTimeout, KindTransport:
		return true
	default:
		return false
	}
}

// NewCallError builds a CallError from an HTTP status code
func NewCallError(statusCode int, err error) *CallError {
	kind := KindServer
	switch {
	case statusCode == 404:
		kind = KindNotFound
	case statusCode >= 400 && statusCode < 500:
		kind = KindClient
	}
	return &CallError{Kind: kind, StatusCode: statusCode, Err: err}
}

// Classify maps an arbitrary operation error onto the call taxonomy. Errors
// that already carry a CallError pass through unchanged.
func Classify(err error) *CallError {
	var ce *CallError
	if errors.As(err, &ce) {
		return ce
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &CallError{Kind: KindTimeout, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &CallError{Kind: KindTimeout, Err: err}
	}
	return &CallError{Kind: KindTransport, Err: err}
}
