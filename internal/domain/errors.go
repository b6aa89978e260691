package domain

import (
	"context"
	"errors"
)

// Sentinel errors for the time-sync core.
// Use errors.Is() for matching - never compare error strings.
var (
	// ErrUnauthorized means the authority rejected the session (401/403).
	// Sync paths treat it as "stay on local time", not as a failure.
	ErrUnauthorized = errors.New("authentication required")

	// ErrUnavailable covers transport failures and 5xx/429 responses.
	ErrUnavailable = errors.New("time authority unavailable")

	// ErrTimeout means the round-trip exceeded its deadline and was aborted.
	ErrTimeout = errors.New("time authority request timed out")

	// ErrContractViolation means the authority answered with a payload that
	// is missing required fields or cannot be interpreted.
	ErrContractViolation = errors.New("time authority contract violation")

	// ErrCommandFailed wraps failures of explicit developer commands
	// (mock date set/clear). These are the only sync-path errors that
	// surface to callers.
	ErrCommandFailed = errors.New("time command failed")

	ErrInvalidInput   = errors.New("invalid input")
	ErrNotFound       = errors.New("resource not found")
	ErrNotInitialized = errors.New("time service not initialized")

	// Configuration errors
	ErrConfigRequired = errors.New("required configuration key missing")
)

// IsAuthFailure reports whether err means "not authenticated". Such failures
// are not counted against the consecutive sync error ceiling.
func IsAuthFailure(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsTimeout reports whether err is a deadline expiry, either our own sentinel
// or a raw context deadline that escaped an adapter.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout) || errors.Is(err, context.DeadlineExceeded)
}

// IsRetryable returns true if the error represents a transient condition
// that the periodic cadence may clear on its own.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrUnavailable) || IsTimeout(err)
}

// Reason returns a short low-cardinality label for err, used in metric
// attributes and logs.
func Reason(err error) string {
	switch {
	case err == nil:
		return "ok"
	case IsAuthFailure(err):
		return "unauthorized"
	case IsTimeout(err):
		return "timeout"
	case errors.Is(err, ErrUnavailable):
		return "unavailable"
	case errors.Is(err, ErrContractViolation):
		return "contract_violation"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	default:
		return "error"
	}
}
