// Package throttle bounds concurrent in-flight requests and paces request
// rate with a token bucket. It has no knowledge of HTTP: callers acquire a
// permit around any guarded operation and release it on every exit path.
package throttle

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/time/rate"

	"github.com/ortex-financial/ortex-go/pkg/apierr"
)

// Prometheus metrics for throttler operations.
var (
	throttleAcquiredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ortex_throttle_acquired_total",
		Help: "Total permits granted",
	})

	throttleInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ortex_throttle_in_flight",
		Help: "Permits currently held",
	})

	throttleQueued = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ortex_throttle_queued",
		Help: "Callers currently waiting for a permit",
	})

	throttleWaitSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ortex_throttle_wait_seconds",
		Help:    "Time spent waiting to acquire a permit",
		Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
	})

	throttleTimeoutsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ortex_throttle_timeouts_total",
		Help: "Permit acquisitions that timed out or were cancelled",
	})
)

// Default throttler settings when used standalone.
const (
	DefaultMaxConcurrent = 10
)

// Stats is a snapshot of throttler counters. All fields are maintained
// atomically; CurrentConcurrent returns to zero once every holder releases.
type Stats struct {
	// TotalRequests is the number of permits ever granted.
	TotalRequests int64

	// CurrentConcurrent is the number of permits currently held.
	CurrentConcurrent int64

	// QueuedRequests is the number of callers blocked in Acquire.
	QueuedRequests int64
}

// Throttler gates concurrent operations with a counting semaphore and,
// optionally, paces them with a token bucket. The bucket's burst capacity
// equals the concurrency limit, so the first maxConcurrent operations
// proceed immediately and subsequent ones pace at the configured rate.
//
// The zero concurrency limit is an explicit escape valve: a Throttler built
// with maxConcurrent == 0 grants every acquisition immediately.
type Throttler struct {
	maxConcurrent     int
	requestsPerSecond float64

	sem     chan struct{} // nil when throttling is disabled
	limiter *rate.Limiter // nil when rate limiting is disabled

	total      atomic.Int64
	concurrent atomic.Int64
	queued     atomic.Int64
}

// New creates a Throttler. maxConcurrent == 0 disables throttling entirely;
// requestsPerSecond <= 0 disables rate pacing.
func New(maxConcurrent int, requestsPerSecond float64) *Throttler {
	t := &Throttler{
		maxConcurrent:     maxConcurrent,
		requestsPerSecond: requestsPerSecond,
	}
	if maxConcurrent > 0 {
		t.sem = make(chan struct{}, maxConcurrent)
		if requestsPerSecond > 0 {
			t.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), maxConcurrent)
		}
	}
	return t
}

// Default returns a Throttler with the standalone defaults: 10 concurrent
// permits, no rate pacing.
func Default() *Throttler {
	return New(DefaultMaxConcurrent, 0)
}

// MaxConcurrent returns the configured concurrency limit.
func (t *Throttler) MaxConcurrent() int { return t.maxConcurrent }

// RequestsPerSecond returns the configured pacing rate, zero when disabled.
func (t *Throttler) RequestsPerSecond() float64 { return t.requestsPerSecond }

// Permit is a held throttler slot. Release is safe to call multiple times;
// only the first call returns the slot.
type Permit struct {
	t    *Throttler
	once sync.Once
}

// Release returns the permit to the pool. Always release via defer so the
// slot is returned on every exit path, including panics.
func (p *Permit) Release() {
	p.once.Do(func() {
		p.t.Release()
	})
}

// Acquire blocks until a permit is available, subject to token-bucket
// pacing when enabled, or until ctx expires. Expiry surfaces as a
// Timeout-kind error from pkg/apierr and leaves pool state unchanged: no
// slot is held and no stats counter moves.
func (t *Throttler) Acquire(ctx context.Context) (*Permit, error) {
	start := time.Now()

	if t.sem != nil {
		t.queued.Add(1)
		throttleQueued.Inc()
		select {
		case t.sem <- struct{}{}:
			t.queued.Add(-1)
			throttleQueued.Dec()
		case <-ctx.Done():
			t.queued.Add(-1)
			throttleQueued.Dec()
			throttleTimeoutsTotal.Inc()
			return nil, timeoutError(ctx.Err())
		}

		if t.limiter != nil {
			if err := t.limiter.Wait(ctx); err != nil {
				// Wait cancels its own reservation; return the slot so the
				// timed-out acquisition has no side effect.
				<-t.sem
				throttleTimeoutsTotal.Inc()
				return nil, timeoutError(err)
			}
		}
	}

	t.total.Add(1)
	t.concurrent.Add(1)
	throttleAcquiredTotal.Inc()
	throttleInFlight.Inc()
	throttleWaitSeconds.Observe(time.Since(start).Seconds())

	return &Permit{t: t}, nil
}

// TryAcquire attempts to acquire without blocking. On success the caller
// must pair it with exactly one Release.
func (t *Throttler) TryAcquire() bool {
	if t.sem != nil {
		select {
		case t.sem <- struct{}{}:
		default:
			return false
		}

		if t.limiter != nil && !t.limiter.Allow() {
			<-t.sem
			return false
		}
	}

	t.total.Add(1)
	t.concurrent.Add(1)
	throttleAcquiredTotal.Inc()
	throttleInFlight.Inc()
	return true
}

// Release returns a permit to the pool. Call sites must pair releases with
// successful acquisitions; the Permit form guarantees this.
func (t *Throttler) Release() {
	if t.sem != nil {
		<-t.sem
	}
	t.concurrent.Add(-1)
	throttleInFlight.Dec()
}

// Stats returns a snapshot of the throttler counters. Safe to call
// concurrently with Acquire and Release.
func (t *Throttler) Stats() Stats {
	return Stats{
		TotalRequests:     t.total.Load(),
		CurrentConcurrent: t.concurrent.Load(),
		QueuedRequests:    t.queued.Load(),
	}
}

// timeoutError maps a context error to the shared taxonomy. Cancellation
// and deadline expiry both resume the caller with a Timeout condition.
func timeoutError(err error) error {
	msg := "Timed out waiting for a request slot"
	if errors.Is(err, context.Canceled) {
		msg = "Permit acquisition cancelled"
	}
	e := apierr.NewTimeout(msg)
	e.Err = err
	return e
}
