// Package errmap provides wire protocol mappers for domain errors.
// Every domain error has explicit HTTP and WebSocket mappings.
package errmap

import (
	"errors"
	"net/http"

	"github.com/aelexs/timesync/internal/domain"
)

// HTTPError represents an HTTP error response.
type HTTPError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e HTTPError) Error() string {
	return e.Message
}

// httpMapping defines a domain error to HTTP status/code mapping.
type httpMapping struct {
	err        error
	statusCode int
	code       string
}

// httpMappings maps domain errors to HTTP status codes and error codes.
// Order matters: first match wins (via errors.Is). Command failures wrap
// their cause, so causes come before ErrCommandFailed.
var httpMappings = []httpMapping{
	// Caller errors
	{domain.ErrUnauthorized, http.StatusUnauthorized, "UNAUTHENTICATED"},
	{domain.ErrInvalidInput, http.StatusBadRequest, "INVALID_ARGUMENT"},
	{domain.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},

	// Upstream authority errors
	{domain.ErrTimeout, http.StatusGatewayTimeout, "AUTHORITY_TIMEOUT"},
	{domain.ErrUnavailable, http.StatusServiceUnavailable, "UNAVAILABLE"},
	{domain.ErrContractViolation, http.StatusBadGateway, "CONTRACT_VIOLATION"},
	{domain.ErrCommandFailed, http.StatusBadGateway, "COMMAND_FAILED"},

	// Local state
	{domain.ErrNotInitialized, http.StatusServiceUnavailable, "NOT_INITIALIZED"},
	{domain.ErrConfigRequired, http.StatusNotImplemented, "NOT_CONFIGURED"},
}

// ToHTTPError converts a domain error to an HTTP error.
func ToHTTPError(err error) HTTPError {
	if err == nil {
		return HTTPError{StatusCode: http.StatusOK}
	}
	for _, m := range httpMappings {
		if errors.Is(err, m.err) {
			return HTTPError{StatusCode: m.statusCode, Code: m.code, Message: err.Error()}
		}
	}
	// Never expose internal error details to clients
	return HTTPError{StatusCode: http.StatusInternalServerError, Code: "INTERNAL", Message: "internal error"}
}

// ToHTTPStatusCode extracts just the HTTP status code for a domain error.
func ToHTTPStatusCode(err error) int {
	return ToHTTPError(err).StatusCode
}
