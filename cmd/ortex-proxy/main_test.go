package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/ortex-financial/ortex-go/internal/testutil"
	"github.com/ortex-financial/ortex-go/pkg/client"
)

func newProxyHandler(t *testing.T, mock *testutil.MockAPI) http.Handler {
	t.Helper()

	cfg := client.DefaultConfig()
	cfg.APIKey = "test-key"
	cfg.BaseURL = mock.URL()
	cfg.MaxRetries = 1
	cfg.RequestsPerSecond = 0

	c, err := client.New(cfg)
	if err != nil {
		t.Fatalf("client.New failed: %v", err)
	}
	t.Cleanup(func() { c.Close() })

	return proxyHandler(c, zerolog.Nop())
}

func TestHealthHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	healthHandler(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %q, want ok", body["status"])
	}
}

func TestProxyForwardsRequest(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()

	rows := []map[string]any{{"date": "2024-12-17", "sharesOnLoan": 1000000.0}}
	mock.Respond("/NYSE/AMC/short_interest", testutil.Envelope(rows, 1.0, 999.0))

	handler := newProxyHandler(t, mock)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/NYSE/AMC/short_interest?from_date=2024-01-01", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Rows        []map[string]any `json:"rows"`
		CreditsLeft float64          `json:"creditsLeft"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if len(body.Rows) != 1 {
		t.Errorf("got %d rows, want 1", len(body.Rows))
	}
	if body.CreditsLeft != 999.0 {
		t.Errorf("creditsLeft = %v, want 999", body.CreditsLeft)
	}

	if got := mock.LastQuery["from_date"]; len(got) != 1 || got[0] != "2024-01-01" {
		t.Errorf("query was not forwarded, from_date = %v", got)
	}
}

func TestProxyMapsErrorKinds(t *testing.T) {
	tests := []struct {
		name       string
		upstream   int
		body       string
		wantStatus int
		wantKind   string
	}{
		{"authentication", 401, `{"error": "Invalid or missing API key"}`, http.StatusUnauthorized, "authentication"},
		{"validation", 400, `{"error": "bad params"}`, http.StatusBadRequest, "validation"},
		{"not found", 404, `{"error": "not found"}`, http.StatusNotFound, "not_found"},
		{"rate limited", 429, `{"error": "slow down"}`, http.StatusTooManyRequests, "rate_limited"},
		{"server", 500, `{"error": "boom"}`, http.StatusBadGateway, "server"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := testutil.NewMockAPI()
			defer mock.Close()
			mock.Script("/earnings", testutil.Step{StatusCode: tt.upstream, Body: tt.body})

			handler := newProxyHandler(t, mock)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/earnings", nil))

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}

			var body map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("body is not JSON: %v", err)
			}
			if body["kind"] != tt.wantKind {
				t.Errorf("kind = %q, want %q", body["kind"], tt.wantKind)
			}
		})
	}
}

func TestProxyRejectsNonGET(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()

	handler := newProxyHandler(t, mock)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/earnings", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
	if mock.Requests() != 0 {
		t.Errorf("upstream saw %d requests, want 0", mock.Requests())
	}
}

func TestProxyRejectsEmptyPath(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()

	handler := newProxyHandler(t, mock)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/", nil))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestBuildClientAppliesUpstreamConfig(t *testing.T) {
	cfg := &ProxyConfig{}
	cfg.Upstream.APIKey = "test-key"
	cfg.Upstream.MaxRetries = 5
	cfg.Upstream.TimeoutMS = 10000

	c, err := buildClient(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("buildClient failed: %v", err)
	}
	defer c.Close()

	if c.MaxRetries() != 5 {
		t.Errorf("MaxRetries = %d, want 5", c.MaxRetries())
	}
	if c.Timeout().Seconds() != 10 {
		t.Errorf("Timeout = %v, want 10s", c.Timeout())
	}
}
