// Package metrics provides centralized Prometheus metrics registry for the ORTEX client.
// All metrics are defined in their respective packages (client, throttle, credits)
// to maintain modularity and avoid circular dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the ORTEX client.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Throttle Metrics (pkg/throttle):
//   - ortex_throttle_acquired_total (Counter): Total permits granted
//   - ortex_throttle_in_flight (Gauge): Permits currently held
//   - ortex_throttle_queued (Gauge): Callers currently waiting for a permit
//   - ortex_throttle_wait_seconds (Histogram): Time spent waiting to acquire a permit
//   - ortex_throttle_timeouts_total (Counter): Permit acquisitions that timed out
//
// Credit Metrics (pkg/credits):
//   - ortex_credits_left (Gauge): Last known account credit balance
//   - ortex_credits_used_total (Counter): Credits consumed by observed calls
//   - ortex_credit_blocks_total (Counter): Requests blocked by an exhausted balance
//
// Request Metrics (pkg/client):
//   - ortex_requests_total{endpoint, status} (Counter): Total requests by endpoint and HTTP status
//   - ortex_request_duration_seconds{endpoint} (Histogram): Request duration by endpoint
//   - ortex_errors_total{kind} (Counter): Errors by taxonomy kind
//
// Retry Metrics (pkg/client):
//   - ortex_retries_total{kind} (Counter): Retry attempts by error kind
//   - ortex_retry_backoff_seconds{kind} (Histogram): Backoff duration by error kind
//   - ortex_retry_exhausted_total{kind} (Counter): Requests that exhausted max retries
//
// Example Prometheus Queries:
//
//   # Request Error Rate
//   rate(ortex_errors_total[5m])
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(ortex_request_duration_seconds_bucket[5m]))
//
//   # Throttle Saturation
//   ortex_throttle_in_flight / on() group_left() max(ortex_throttle_in_flight)
//
//   # Credit Burn Rate
//   rate(ortex_credits_used_total[1h])
//
//   # Retry Pressure by Kind
//   sum by (kind) (rate(ortex_retries_total[5m]))
