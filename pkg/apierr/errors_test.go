package apierr

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "message only",
			err:  &Error{Kind: KindTimeout, Message: "Something went wrong"},
			want: "Something went wrong",
		},
		{
			name: "message with status code",
			err:  &Error{Kind: KindValidation, Message: "Bad request", StatusCode: 400},
			want: "[400] Bad request",
		},
		{
			name: "server error format",
			err:  NewServer("upstream exploded", 503),
			want: "[503] upstream exploded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestConstructorDefaults(t *testing.T) {
	tests := []struct {
		name       string
		err        *Error
		wantKind   Kind
		wantStatus int
		contains   string
	}{
		{"authentication", NewAuthentication(""), KindAuthentication, 401, "Invalid or missing API key"},
		{"validation", NewValidation(""), KindValidation, 400, "Invalid request"},
		{"not found", NewNotFound(""), KindNotFound, 404, "not found"},
		{"rate limited", NewRateLimited("", 0), KindRateLimited, 429, "Rate limit"},
		{"server", NewServer("", 0), KindServer, 500, "server error"},
		{"timeout", NewTimeout(""), KindTimeout, 0, "timed out"},
		{"network", NewNetwork("", nil), KindNetwork, 0, "Connection"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Kind != tt.wantKind {
				t.Errorf("Kind = %q, want %q", tt.err.Kind, tt.wantKind)
			}
			if tt.err.StatusCode != tt.wantStatus {
				t.Errorf("StatusCode = %d, want %d", tt.err.StatusCode, tt.wantStatus)
			}
			if !strings.Contains(strings.ToLower(tt.err.Message), strings.ToLower(tt.contains)) {
				t.Errorf("Message = %q, want it to contain %q", tt.err.Message, tt.contains)
			}
		})
	}
}

func TestConstructorCustomMessage(t *testing.T) {
	err := NewNotFound("Ticker INVALID not found")
	if !strings.Contains(err.Error(), "INVALID") {
		t.Errorf("Error() = %q, want custom message preserved", err.Error())
	}

	err = NewAuthentication("API key expired")
	if !strings.Contains(err.Error(), "API key expired") {
		t.Errorf("Error() = %q, want custom message preserved", err.Error())
	}
}

func TestRateLimitedRetryAfter(t *testing.T) {
	err := NewRateLimited("Too many requests", 60*time.Second)
	if err.RetryAfter != 60*time.Second {
		t.Errorf("RetryAfter = %v, want 60s", err.RetryAfter)
	}
	if err.StatusCode != 429 {
		t.Errorf("StatusCode = %d, want 429", err.StatusCode)
	}
}

func TestRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want bool
	}{
		{"authentication never retried", NewAuthentication(""), false},
		{"validation never retried", NewValidation(""), false},
		{"not found never retried", NewNotFound(""), false},
		{"timeout not retried", NewTimeout(""), false},
		{"rate limited retried", NewRateLimited("", 0), true},
		{"server retried", NewServer("", 0), true},
		{"network retried", NewNetwork("", nil), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Retryable(); got != tt.want {
				t.Errorf("Retryable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestErrorsAs(t *testing.T) {
	wrapped := errors.New("connection refused")
	err := NewNetwork("Connection failed", wrapped)

	var apiErr *Error
	if !errors.As(error(err), &apiErr) {
		t.Fatal("errors.As failed to match *Error")
	}
	if apiErr.Kind != KindNetwork {
		t.Errorf("Kind = %q, want %q", apiErr.Kind, KindNetwork)
	}
	if !errors.Is(err, wrapped) {
		t.Error("errors.Is failed to find the wrapped transport error")
	}
}
