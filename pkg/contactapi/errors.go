package contactapi

import (
	"errors"
	"fmt"
	"net/http"
)

// Error types for common failure scenarios.
var (
	// ErrNotAuthenticated indicates an operation that needs a token was called without one.
	ErrNotAuthenticated = errors.New("not authenticated: no token configured")

	// ErrEmptyToken indicates the identity API answered without an access token.
	ErrEmptyToken = errors.New("identity API returned no access token")

	// ErrNotFound indicates the requested contact does not exist.
	ErrNotFound = errors.New("not found")
)

// HTTPError represents a non-2xx response.
type HTTPError struct {
	StatusCode int
	Body       string
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

// IsRetryable returns true if the HTTP error is retryable.
func (e *HTTPError) IsRetryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// Error wraps an API error with the operation that produced it.
type Error struct {
	// Op is the operation that failed.
	Op string

	// Message is the error message.
	Message string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// WrapError wraps an error with operation context.
func WrapError(op string, err error) *Error {
	return &Error{Op: op, Err: err, Message: err.Error()}
}

// IsAuthError returns true if the API rejected the credentials or none were sent.
func IsAuthError(err error) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == http.StatusUnauthorized || httpErr.StatusCode == http.StatusForbidden
	}
	return errors.Is(err, ErrNotAuthenticated)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return true
	}
	var httpErr *HTTPError
	return errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusNotFound
}

// IsRetryable returns true if the error is likely transient.
// Transport errors (no response at all) count as transient.
func IsRetryable(err error) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.IsRetryable()
	}
	var transportErr *transportError
	return errors.As(err, &transportErr)
}

// transportError marks failures that happened before any response arrived.
type transportError struct {
	err error
}

func (e *transportError) Error() string { return "HTTP request failed: " + e.err.Error() }
func (e *transportError) Unwrap() error { return e.err }
