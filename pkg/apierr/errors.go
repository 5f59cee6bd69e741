// Package apierr defines the error taxonomy shared by all ORTEX client
// packages. Every failed call maps to exactly one Kind, carrying the raw
// status code and, for rate limits, the server's Retry-After hint.
package apierr

import (
	"fmt"
	"net/http"
	"time"
)

// Kind classifies a failed API call.
type Kind string

const (
	// KindAuthentication indicates a missing or invalid API key (401).
	KindAuthentication Kind = "authentication"

	// KindValidation indicates a malformed request or parameters (400).
	KindValidation Kind = "validation"

	// KindNotFound indicates the requested resource does not exist (404).
	KindNotFound Kind = "not_found"

	// KindRateLimited indicates the account exceeded its request quota (429).
	KindRateLimited Kind = "rate_limited"

	// KindServer indicates a remote failure (5xx).
	KindServer Kind = "server"

	// KindTimeout indicates no response within the configured deadline.
	KindTimeout Kind = "timeout"

	// KindNetwork indicates a transport or connection failure.
	KindNetwork Kind = "network"
)

// Error is the single failure type returned by the client. The Kind field
// makes handling exhaustive at call sites; StatusCode is zero when the
// failure happened before a response arrived.
type Error struct {
	Kind       Kind
	Message    string
	StatusCode int

	// RetryAfter is the server-provided backoff hint for rate limits.
	// Zero when the Retry-After header was absent.
	RetryAfter time.Duration

	// Err is the underlying transport error, if any.
	Err error
}

// Error renders "[<status_code>] <message>" when a status code is present,
// else just the message.
func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("[%d] %s", e.StatusCode, e.Message)
	}
	return e.Message
}

// Unwrap exposes the underlying transport error for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable reports whether the failure is transient. Rate limits, server
// failures, and network failures are worth retrying; everything else
// indicates the request itself is wrong and must surface immediately.
func (e *Error) Retryable() bool {
	switch e.Kind {
	case KindRateLimited, KindServer, KindNetwork:
		return true
	default:
		return false
	}
}

// NewAuthentication returns an authentication error. An empty message uses
// the default.
func NewAuthentication(message string) *Error {
	if message == "" {
		message = "Invalid or missing API key"
	}
	return &Error{Kind: KindAuthentication, Message: message, StatusCode: http.StatusUnauthorized}
}

// NewValidation returns a validation error for a malformed request.
func NewValidation(message string) *Error {
	if message == "" {
		message = "Invalid request parameters"
	}
	return &Error{Kind: KindValidation, Message: message, StatusCode: http.StatusBadRequest}
}

// NewNotFound returns a not-found error.
func NewNotFound(message string) *Error {
	if message == "" {
		message = "Resource not found"
	}
	return &Error{Kind: KindNotFound, Message: message, StatusCode: http.StatusNotFound}
}

// NewRateLimited returns a rate-limit error. retryAfter is the server's
// hint; pass zero when none was provided.
func NewRateLimited(message string, retryAfter time.Duration) *Error {
	if message == "" {
		message = "Rate limit exceeded"
	}
	return &Error{
		Kind:       KindRateLimited,
		Message:    message,
		StatusCode: http.StatusTooManyRequests,
		RetryAfter: retryAfter,
	}
}

// NewServer returns a server error. statusCode must be in the 5xx range;
// zero defaults to 500.
func NewServer(message string, statusCode int) *Error {
	if message == "" {
		message = "Internal server error"
	}
	if statusCode == 0 {
		statusCode = http.StatusInternalServerError
	}
	return &Error{Kind: KindServer, Message: message, StatusCode: statusCode}
}

// NewTimeout returns a timeout error. Timeouts carry no status code since
// no response was received.
func NewTimeout(message string) *Error {
	if message == "" {
		message = "Request timed out"
	}
	return &Error{Kind: KindTimeout, Message: message}
}

// NewNetwork returns a network error wrapping the transport failure.
func NewNetwork(message string, err error) *Error {
	if message == "" {
		message = "Connection failed"
	}
	return &Error{Kind: KindNetwork, Message: message, Err: err}
}
