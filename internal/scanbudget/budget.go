// Package scanbudget tracks the free-tier monthly scan allowance.
package scanbudget

import (
	"fmt"
	"time"

	"roomscan/pkg/domain"
)

// State is the persisted shape of the budget.
type State struct {
	Remaining int    `json:"scansRemaining"`
	CycleKey  string `json:"lastResetDate"`
}

// TierFunc reports the current subscription tier. The budget never
// reaches into the session store directly.
type TierFunc func() domain.Tier

// Budget holds the monthly free-scan allowance. Premium accounts are
// never tracked: Decrement and ResetIfNewCycle are no-ops for them.
type Budget struct {
	limit int
	tier  TierFunc
	state State
}

// New creates a budget at the full allotment with no cycle recorded yet.
func New(limit int, tier TierFunc) *Budget {
	return &Budget{
		limit: limit,
		tier:  tier,
		state: State{Remaining: limit},
	}
}

// Restore rebuilds a budget from persisted state, clamping out-of-range
// values so corrupted storage cannot produce a negative counter.
func Restore(limit int, tier TierFunc, st State) *Budget {
	if st.Remaining < 0 {
		st.Remaining = 0
	}
	if st.Remaining > limit {
		st.Remaining = limit
	}
	return &Budget{limit: limit, tier: tier, state: st}
}

// Remaining reports free scans left this cycle.
func (b *Budget) Remaining() int {
	return b.state.Remaining
}

// CycleKey reports the last reset period, empty before first use.
func (b *Budget) CycleKey() string {
	return b.state.CycleKey
}

// Snapshot returns the state to persist.
func (b *Budget) Snapshot() State {
	return b.state
}

// Decrement consumes one free scan. Silent no-op at zero: the caller is
// expected to have checked the budget first, and the counter never goes
// negative. Premium accounts are untouched.
func (b *Budget) Decrement() {
	if b.premium() {
		return
	}
	if b.state.Remaining > 0 {
		b.state.Remaining--
	}
}

// ResetIfNewCycle replenishes the allowance on the first observation of
// a new cycle key. Idempotent within the same cycle. Premium accounts
// are untouched.
func (b *Budget) ResetIfNewCycle(key string) {
	if b.premium() {
		return
	}
	if b.state.CycleKey != key {
		b.state.Remaining = b.limit
		b.state.CycleKey = key
	}
}

func (b *Budget) premium() bool {
	return b.tier != nil && b.tier() == domain.TierPremium
}

// MonthKey derives the cycle key for t. It changes exactly once per
// calendar month.
func MonthKey(t time.Time) string {
	return fmt.Sprintf("%d-%d", t.Year(), int(t.Month()))
}
