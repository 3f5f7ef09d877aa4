// Package session holds identity, subscription tier, and the two
// monotonic counters driving the authentication gating sequence.
package session

import "roomscan/pkg/domain"

// State is the persisted shape of the session.
type State struct {
	Account         *domain.Account `json:"user,omitempty"`
	Tier            domain.Tier     `json:"subscription"`
	LifetimeScans   int             `json:"totalScansEver"`
	SoftPromptShown bool            `json:"hasSeenSoftPrompt"`
}

// Session is the account/subscription state for this installation.
type Session struct {
	state State
}

// New creates a fresh anonymous free session.
func New() *Session {
	return &Session{state: State{Tier: domain.TierFree}}
}

// Restore rebuilds a session from persisted state, normalizing values
// that could only come from corrupted storage.
func Restore(st State) *Session {
	if st.Tier != domain.TierPremium {
		st.Tier = domain.TierFree
	}
	if st.LifetimeScans < 0 {
		st.LifetimeScans = 0
	}
	if st.Account != nil && st.Account.ID == "" {
		st.Account = nil
	}
	return &Session{state: st}
}

// IsAuthenticated reports whether a sign-in has completed.
func (s *Session) IsAuthenticated() bool {
	return s.state.Account != nil
}

// Account returns the signed-in account, if any.
func (s *Session) Account() (domain.Account, bool) {
	if s.state.Account == nil {
		return domain.Account{}, false
	}
	return *s.state.Account, true
}

// Tier reports the current subscription tier.
func (s *Session) Tier() domain.Tier {
	return s.state.Tier
}

// LifetimeScans reports the total scans ever performed. This counter is
// monotonic and independent of the monthly budget.
func (s *Session) LifetimeScans() int {
	return s.state.LifetimeScans
}

// SoftPromptShown reports whether the one-time sign-up nudge was shown.
func (s *Session) SoftPromptShown() bool {
	return s.state.SoftPromptShown
}

// Snapshot returns the state to persist.
func (s *Session) Snapshot() State {
	return s.state
}

// RecordScanCompleted increments the lifetime counter. Unconditional:
// the counter drives the one-time gating sequence regardless of tier.
func (s *Session) RecordScanCompleted() {
	s.state.LifetimeScans++
}

// MarkSoftPromptShown records that the sign-up nudge was displayed.
// One-way transition.
func (s *Session) MarkSoftPromptShown() {
	s.state.SoftPromptShown = true
}

// Authenticate records a completed sign-in. The tier is left alone;
// entitlement comes from the billing collaborator separately.
func (s *Session) Authenticate(account domain.Account) {
	acct := account
	s.state.Account = &acct
}

// SignOut drops the identity and resets the tier to free. Premium is
// re-validated from the billing platform on the next sign-in/restore.
func (s *Session) SignOut() {
	s.state.Account = nil
	s.state.Tier = domain.TierFree
}

// SetTier applies a tier reported by the billing collaborator.
func (s *Session) SetTier(tier domain.Tier) {
	s.state.Tier = tier
}
