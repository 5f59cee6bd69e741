// Package client provides the core ORTEX HTTP client with concurrency
// gating, rate pacing, retry with backoff, and error classification.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ortex-financial/ortex-go/pkg/apierr"
	"github.com/ortex-financial/ortex-go/pkg/credits"
	"github.com/ortex-financial/ortex-go/pkg/response"
	"github.com/ortex-financial/ortex-go/pkg/throttle"
)

// Prometheus metrics for client operations.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ortex_requests_total",
		Help: "Total API requests by endpoint and status",
	}, []string{"endpoint", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ortex_request_duration_seconds",
		Help:    "API request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ortex_errors_total",
		Help: "Total API errors by kind",
	}, []string{"kind"})
)

// DefaultBaseURL is the production API root.
const DefaultBaseURL = "https://api.ortex.com/api/v1"

// EnvAPIKey is the environment variable consulted when no explicit API key
// is configured.
const EnvAPIKey = "ORTEX_API_KEY"

// maxResponseSize bounds how much of a response body is read (32 MiB).
const maxResponseSize = 32 << 20

// Config holds the client configuration.
type Config struct {
	// APIKey authenticates every call. When empty, the ORTEX_API_KEY
	// environment variable is consulted; if that is empty too, New fails
	// with an authentication error.
	APIKey string

	// BaseURL overrides the production API root (tests, proxies).
	BaseURL string

	// Timeout is the per-request transport deadline.
	Timeout time.Duration

	// AcquireTimeout bounds how long a call waits for a throttler permit.
	// Zero waits as long as the caller's context allows.
	AcquireTimeout time.Duration

	// MaxRetries is the total number of attempts per call, including the
	// first. Zero uses the default.
	MaxRetries int

	// MaxConcurrent bounds simultaneous in-flight requests. Zero disables
	// throttling entirely.
	MaxConcurrent int

	// RequestsPerSecond paces request rate. Zero or negative disables
	// pacing.
	RequestsPerSecond float64

	// Retry is the backoff policy between attempts.
	Retry RetryConfig

	// Redis enables cross-process credit tracking when set.
	Redis *redis.Client

	// HTTPClient overrides the transport (tests).
	HTTPClient *http.Client
}

// DefaultConfig returns the standard client configuration: 30s timeout,
// 3 attempts, 2 concurrent requests paced at 3 per second.
func DefaultConfig() Config {
	return Config{
		BaseURL:           DefaultBaseURL,
		Timeout:           30 * time.Second,
		MaxRetries:        3,
		MaxConcurrent:     2,
		RequestsPerSecond: 3.0,
		Retry:             DefaultRetryConfig(),
	}
}

// Client performs gated, retried API calls and returns classified outcomes.
type Client struct {
	httpClient *http.Client
	throttler  *throttle.Throttler
	credits    *credits.Tracker
	config     Config
	logger     zerolog.Logger
}

// New creates a Client. The API key resolves from the config, falling back
// to the ORTEX_API_KEY environment variable; absence of both fails here, at
// construction, not at first request.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv(EnvAPIKey)
	}
	if cfg.APIKey == "" {
		return nil, apierr.NewAuthentication(
			fmt.Sprintf("No API key provided and %s is not set", EnvAPIKey))
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.Retry == (RetryConfig{}) {
		cfg.Retry = DefaultRetryConfig()
	}

	logger := log.With().Str("component", "ortex-client").Logger()

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	var creditTracker *credits.Tracker
	if cfg.Redis != nil {
		creditTracker = credits.NewTracker(cfg.Redis, logger)
	}

	return &Client{
		httpClient: httpClient,
		throttler:  throttle.New(cfg.MaxConcurrent, cfg.RequestsPerSecond),
		credits:    creditTracker,
		config:     cfg,
		logger:     logger,
	}, nil
}

// APIKey returns the resolved credential.
func (c *Client) APIKey() string { return c.config.APIKey }

// MaxRetries returns the configured number of attempts per call.
func (c *Client) MaxRetries() int { return c.config.MaxRetries }

// Timeout returns the per-request transport deadline.
func (c *Client) Timeout() time.Duration { return c.config.Timeout }

// Throttler exposes the concurrency gate, mainly for stats inspection.
func (c *Client) Throttler() *throttle.Throttler { return c.throttler }

// Get performs a GET call against an API path relative to the base URL.
func (c *Client) Get(ctx context.Context, path string, params url.Values) (*response.Response, error) {
	return c.Request(ctx, http.MethodGet, path, params)
}

// Request performs a gated, retried call and returns either a populated
// envelope or exactly one classified error.
func (c *Client) Request(ctx context.Context, method, path string, params url.Values) (*response.Response, error) {
	rawURL := c.config.BaseURL + "/" + strings.TrimLeft(path, "/")
	if len(params) > 0 {
		rawURL += "?" + params.Encode()
	}
	return c.do(ctx, method, rawURL)
}

// GetLink fetches an absolute URL, as handed out in pagination links. The
// link must point at the configured API host.
func (c *Client) GetLink(ctx context.Context, link string) (*response.Response, error) {
	u, err := url.Parse(link)
	if err != nil || !u.IsAbs() {
		return nil, apierr.NewValidation(fmt.Sprintf("Invalid pagination link: %q", link))
	}
	return c.do(ctx, http.MethodGet, link)
}

// do runs the attempt loop: acquire a permit, call, classify, and either
// retry transient failures with backoff or surface the error. The permit is
// released before any backoff sleep, so waiting callers are never blocked
// behind another caller's retry delay.
func (c *Client) do(ctx context.Context, method, rawURL string) (*response.Response, error) {
	endpoint := endpointLabel(rawURL)

	start := time.Now()
	defer func() {
		requestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	}()

	if c.credits != nil {
		allowed, err := c.credits.ShouldAllowRequest(ctx)
		if err != nil {
			c.logger.Warn().Err(err).Msg("Credit check failed, allowing request")
		} else if !allowed {
			requestsTotal.WithLabelValues(endpoint, "credit_blocked").Inc()
			return nil, apierr.NewRateLimited("Account credits exhausted", 0)
		}
	}

	var lastErr *apierr.Error
	backoff := c.config.Retry.InitialBackoff

	for attempt := 1; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 1 {
			delay := backoffDelay(lastErr, backoff)
			backoff = c.config.Retry.nextBackoff(backoff)

			retriesTotal.WithLabelValues(string(lastErr.Kind)).Inc()
			retryBackoffSeconds.WithLabelValues(string(lastErr.Kind)).Observe(delay.Seconds())

			c.logger.Debug().
				Str("endpoint", endpoint).
				Str("kind", string(lastErr.Kind)).
				Int("attempt", attempt).
				Dur("backoff", delay).
				Msg("Retrying request after backoff")

			select {
			case <-ctx.Done():
				e := apierr.NewTimeout("Cancelled during retry backoff")
				e.Err = ctx.Err()
				return nil, e
			case <-time.After(delay):
			}
		}

		resp, err := c.attempt(ctx, method, rawURL, endpoint)
		if err == nil {
			if attempt > 1 {
				c.logger.Info().
					Str("endpoint", endpoint).
					Int("attempt", attempt).
					Msg("Request succeeded after retry")
			}
			return resp, nil
		}

		var apiErr *apierr.Error
		if !errors.As(err, &apiErr) {
			// Should not happen: every failure path is classified.
			return nil, apierr.NewNetwork(err.Error(), err)
		}

		errorsTotal.WithLabelValues(string(apiErr.Kind)).Inc()

		if !apiErr.Retryable() {
			return nil, apiErr
		}
		lastErr = apiErr
	}

	retryExhaustedTotal.WithLabelValues(string(lastErr.Kind)).Inc()
	c.logger.Warn().
		Str("endpoint", endpoint).
		Str("kind", string(lastErr.Kind)).
		Int("max_retries", c.config.MaxRetries).
		Msg("Retry attempts exhausted")

	return nil, lastErr
}

// attempt performs one permit-guarded transport call. The permit is
// released on every exit path.
func (c *Client) attempt(ctx context.Context, method, rawURL, endpoint string) (*response.Response, error) {
	acquireCtx := ctx
	if c.config.AcquireTimeout > 0 {
		var cancel context.CancelFunc
		acquireCtx, cancel = context.WithTimeout(ctx, c.config.AcquireTimeout)
		defer cancel()
	}

	permit, err := c.throttler.Acquire(acquireCtx)
	if err != nil {
		requestsTotal.WithLabelValues(endpoint, "throttle_timeout").Inc()
		return nil, err
	}
	defer permit.Release()

	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return nil, apierr.NewValidation(fmt.Sprintf("Invalid request: %v", err))
	}
	req.Header.Set("Ortex-Api-Key", c.config.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().
		Str("endpoint", endpoint).
		Str("method", method).
		Msg("Executing API request")

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("HTTP request failed")
		requestsTotal.WithLabelValues(endpoint, "transport_error").Inc()
		return nil, apierr.FromTransport(err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseSize))
	if err != nil {
		requestsTotal.WithLabelValues(endpoint, "read_error").Inc()
		return nil, apierr.FromTransport(err)
	}

	requestsTotal.WithLabelValues(endpoint, fmt.Sprintf("%d", httpResp.StatusCode)).Inc()

	if apiErr := apierr.FromResponse(httpResp.StatusCode, httpResp.Header, body); apiErr != nil {
		c.logger.Warn().
			Str("endpoint", endpoint).
			Int("status_code", httpResp.StatusCode).
			Str("kind", string(apiErr.Kind)).
			Msg("API request error")
		return nil, apiErr
	}

	envelope, err := response.Parse(body)
	if err != nil {
		// A garbled 2xx payload is a remote failure, never silent success.
		e := apierr.NewServer("Malformed response body", httpResp.StatusCode)
		e.Err = err
		return nil, e
	}

	if c.credits != nil {
		if err := c.credits.UpdateFromResponse(ctx, envelope); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to record credit state")
		}
	}

	return envelope, nil
}

// Close releases the client's transport resources. The client must not be
// used afterwards.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// endpointLabel reduces a URL to its path for metric labels, keeping
// cardinality bounded by dropping query strings.
func endpointLabel(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "invalid"
	}
	return u.Path
}
