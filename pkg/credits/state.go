// Package credits tracks the account's API credit balance across processes.
// Every successful call reports creditsUsed/creditsLeft; the tracker stores
// the latest balance in Redis so all client instances sharing an account see
// the same state and can stop before the account runs dry.
package credits

import (
	"time"
)

// Redis keys for credit state storage.
const (
	RedisKeyCreditsLeft = "ortex:credits:left"
	RedisKeyCreditsUsed = "ortex:credits:used_total"
	RedisKeyLastUpdate  = "ortex:credits:last_update"
)

// Thresholds for credit balance decisions.
const (
	// CreditThresholdCritical blocks further requests when the known
	// balance falls to or below this value.
	CreditThresholdCritical = 0

	// CreditThresholdWarning triggers warning logs when the balance falls
	// below this value.
	CreditThresholdWarning = 50
)

// CreditState is the last known account credit balance.
type CreditState struct {
	// CreditsLeft is the balance reported by the most recent call.
	CreditsLeft float64 `json:"credits_left"`

	// CreditsUsed is the cumulative spend recorded by this tracker.
	CreditsUsed float64 `json:"credits_used"`

	// LastUpdate is when the balance was last refreshed.
	LastUpdate time.Time `json:"last_update"`

	// IsHealthy is true while the balance is above the warning threshold.
	IsHealthy bool `json:"is_healthy"`
}

// IsStale reports whether the state is older than maxAge. Stale balances
// should not be used to block requests.
func (s *CreditState) IsStale(maxAge time.Duration) bool {
	return time.Since(s.LastUpdate) > maxAge
}

// Exhausted reports whether the account is known to be out of credits.
func (s *CreditState) Exhausted() bool {
	return !s.LastUpdate.IsZero() && s.CreditsLeft <= CreditThresholdCritical
}

// NeedsWarning reports whether the balance is low but not yet exhausted.
func (s *CreditState) NeedsWarning() bool {
	return !s.Exhausted() && s.CreditsLeft < CreditThresholdWarning
}

// UpdateHealth refreshes IsHealthy from the current balance.
func (s *CreditState) UpdateHealth() {
	s.IsHealthy = s.CreditsLeft >= CreditThresholdWarning
}
