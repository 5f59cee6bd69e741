// Package testutil provides testing utilities for the ORTEX client.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
)

// Envelope builds a standard paginated API response body.
func Envelope(rows []map[string]any, creditsUsed, creditsLeft float64) string {
	body, _ := json.Marshal(map[string]any{
		"paginationLinks": map[string]any{"next": nil, "previous": nil},
		"length":          len(rows),
		"rows":            rows,
		"creditsUsed":     creditsUsed,
		"creditsLeft":     creditsLeft,
	})
	return string(body)
}

// FundamentalsEnvelope builds a fundamentals API response body.
func FundamentalsEnvelope(data map[string]any, company, period, category string) string {
	body, _ := json.Marshal(map[string]any{
		"company":     company,
		"period":      period,
		"category":    category,
		"data":        data,
		"creditsUsed": 0.1,
		"creditsLeft": 1000.0,
	})
	return string(body)
}

// Step is one scripted response. When a path has more requests than steps,
// the last step repeats.
type Step struct {
	StatusCode int
	Body       string
	Headers    map[string]string
}

// MockAPI is a configurable mock ORTEX server: scripted status sequences
// per path plus request tracking for assertions.
type MockAPI struct {
	server *httptest.Server

	mu       sync.Mutex
	scripts  map[string][]Step
	hits     map[string]int
	fallback Step

	// RequestCount is the total number of requests served.
	RequestCount int

	// LastRequestHeader holds the headers of the most recent request.
	LastRequestHeader http.Header

	// LastQuery holds the query values of the most recent request.
	LastQuery map[string][]string
}

// NewMockAPI creates a mock server whose unscripted paths return an empty
// paginated envelope.
func NewMockAPI() *MockAPI {
	mock := &MockAPI{
		scripts: make(map[string][]Step),
		hits:    make(map[string]int),
		fallback: Step{
			StatusCode: http.StatusOK,
			Body:       Envelope(nil, 1.0, 1000.0),
		},
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.RequestCount++
		mock.LastRequestHeader = r.Header.Clone()
		mock.LastQuery = r.URL.Query()

		step := mock.fallback
		if steps, ok := mock.scripts[r.URL.Path]; ok {
			i := mock.hits[r.URL.Path]
			if i >= len(steps) {
				i = len(steps) - 1
			}
			step = steps[i]
		}
		mock.hits[r.URL.Path]++
		mock.mu.Unlock()

		for k, v := range step.Headers {
			w.Header().Set(k, v)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(step.StatusCode)
		fmt.Fprint(w, step.Body)
	}))

	return mock
}

// URL returns the mock server's base URL.
func (m *MockAPI) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockAPI) Close() {
	m.server.Close()
}

// Script sets the response sequence for a path. The path must include the
// leading slash as the client would request it.
func (m *MockAPI) Script(path string, steps ...Step) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scripts[path] = steps
	m.hits[path] = 0
}

// Respond sets a single canned 200 response for a path.
func (m *MockAPI) Respond(path, body string) {
	m.Script(path, Step{StatusCode: http.StatusOK, Body: body})
}

// Hits returns how many requests a path has served.
func (m *MockAPI) Hits(path string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hits[path]
}

// Requests returns the total request count.
func (m *MockAPI) Requests() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.RequestCount
}
