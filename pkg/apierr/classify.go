package apierr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"
)

// errorBody is the documented shape of ORTEX error payloads.
type errorBody struct {
	Error string `json:"error"`
}

// FromResponse maps an HTTP response to an Error. Returns nil for 2xx and
// 3xx statuses. The mapping is total over the 4xx/5xx domain: statuses
// without a dedicated kind fall back to Validation for 4xx.
func FromResponse(statusCode int, header http.Header, body []byte) *Error {
	if statusCode < 400 {
		return nil
	}

	message := messageFromBody(body)

	switch {
	case statusCode == http.StatusUnauthorized:
		return NewAuthentication(message)
	case statusCode == http.StatusNotFound:
		return NewNotFound(message)
	case statusCode == http.StatusTooManyRequests:
		return NewRateLimited(message, parseRetryAfter(header))
	case statusCode >= 500:
		return NewServer(message, statusCode)
	default:
		// Remaining 4xx (400, 403, 422, ...) all indicate a bad request.
		e := NewValidation(message)
		e.StatusCode = statusCode
		return e
	}
}

// FromTransport maps a transport-level failure (no response received) to
// either a Timeout or a Network error.
func FromTransport(err error) *Error {
	if err == nil {
		return nil
	}

	if isTimeout(err) {
		e := NewTimeout("")
		e.Err = err
		return e
	}

	return NewNetwork(fmt.Sprintf("Connection failed: %v", err), err)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// messageFromBody extracts the "error" field from a JSON error payload.
// Returns "" when the body is empty or not the documented shape, letting
// the constructor defaults apply.
func messageFromBody(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		return ""
	}
	return eb.Error
}

// parseRetryAfter reads the Retry-After header as whole seconds. Malformed
// or missing values yield zero.
func parseRetryAfter(header http.Header) time.Duration {
	raw := header.Get("Retry-After")
	if raw == "" {
		return 0
	}
	secs, err := strconv.Atoi(raw)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
