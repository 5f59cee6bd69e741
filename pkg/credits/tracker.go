package credits

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/ortex-financial/ortex-go/pkg/response"
)

// Prometheus metrics for credit tracking.
var (
	creditsLeft = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ortex_credits_left",
		Help: "Last known account credit balance",
	})

	creditsUsedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ortex_credits_used_total",
		Help: "Credits consumed by calls observed by this process",
	})

	creditBlocksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ortex_credit_blocks_total",
		Help: "Requests blocked because the account balance is exhausted",
	})
)

// Tracker records credit metadata from completed calls and gates requests
// when the account balance is exhausted.
type Tracker struct {
	redis  *redis.Client
	logger zerolog.Logger
}

// NewTracker creates a credit tracker backed by the given Redis client.
func NewTracker(redisClient *redis.Client, logger zerolog.Logger) *Tracker {
	return &Tracker{
		redis:  redisClient,
		logger: logger,
	}
}

// GetState retrieves the last known credit state. Returns a healthy default
// when no state exists yet (a fresh account is assumed solvent until the
// first call reports otherwise).
func (t *Tracker) GetState(ctx context.Context) (*CreditState, error) {
	left, err := t.redis.Get(ctx, RedisKeyCreditsLeft).Float64()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("get credits left: %w", err)
	}
	if err == redis.Nil {
		t.logger.Debug().Msg("No credit state in Redis, assuming healthy balance")
		return &CreditState{IsHealthy: true}, nil
	}

	used, err := t.redis.Get(ctx, RedisKeyCreditsUsed).Float64()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("get credits used: %w", err)
	}

	lastUpdateStr, err := t.redis.Get(ctx, RedisKeyLastUpdate).Result()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("get last update: %w", err)
	}

	var lastUpdate time.Time
	if lastUpdateStr != "" {
		if err := json.Unmarshal([]byte(lastUpdateStr), &lastUpdate); err != nil {
			return nil, fmt.Errorf("parse last update: %w", err)
		}
	}

	state := &CreditState{
		CreditsLeft: left,
		CreditsUsed: used,
		LastUpdate:  lastUpdate,
	}
	state.UpdateHealth()

	return state, nil
}

// UpdateFromResponse records the credit metadata of a completed call.
// Envelopes without credit fields (both zero) are ignored.
func (t *Tracker) UpdateFromResponse(ctx context.Context, resp *response.Response) error {
	if resp == nil || (resp.CreditsUsed == 0 && resp.CreditsLeft == 0) {
		return nil
	}

	now := time.Now()
	lastUpdateJSON, err := json.Marshal(now)
	if err != nil {
		return fmt.Errorf("marshal last update: %w", err)
	}

	pipe := t.redis.Pipeline()
	pipe.Set(ctx, RedisKeyCreditsLeft, resp.CreditsLeft, 0)
	pipe.IncrByFloat(ctx, RedisKeyCreditsUsed, resp.CreditsUsed)
	pipe.Set(ctx, RedisKeyLastUpdate, lastUpdateJSON, 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store credit state in redis: %w", err)
	}

	creditsLeft.Set(resp.CreditsLeft)
	creditsUsedTotal.Add(resp.CreditsUsed)

	state := &CreditState{CreditsLeft: resp.CreditsLeft, LastUpdate: now}
	state.UpdateHealth()

	logEvent := t.logger.Debug().
		Float64("credits_used", resp.CreditsUsed).
		Float64("credits_left", resp.CreditsLeft)

	if state.Exhausted() {
		logEvent = t.logger.Error().
			Float64("credits_left", resp.CreditsLeft)
		logEvent.Msg("Account credits exhausted - further requests will be blocked")
	} else if state.NeedsWarning() {
		logEvent = t.logger.Warn().
			Float64("credits_left", resp.CreditsLeft)
		logEvent.Msg("Account credit balance low")
	} else {
		logEvent.Msg("Credit state updated")
	}

	return nil
}

// ShouldAllowRequest reports whether a request should proceed given the
// known balance. A stale or missing balance allows the request; the API
// itself is the authority and will reject overspend.
func (t *Tracker) ShouldAllowRequest(ctx context.Context) (bool, error) {
	state, err := t.GetState(ctx)
	if err != nil {
		return false, fmt.Errorf("get credit state: %w", err)
	}

	if state.IsStale(time.Hour) {
		return true, nil
	}

	if state.Exhausted() {
		t.logger.Error().
			Float64("credits_left", state.CreditsLeft).
			Msg("Account credits exhausted - blocking request")
		creditBlocksTotal.Inc()
		return false, nil
	}

	return true, nil
}
