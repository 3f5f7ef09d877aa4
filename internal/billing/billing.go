// Package billing is the boundary to the purchase/restore platform.
// The platform resolves entitlement asynchronously; this package only
// applies its confirmed outcome to the session.
package billing

import (
	"fmt"

	"roomscan/internal/session"
	"roomscan/pkg/domain"
)

// TierChange is a confirmed entitlement change reported by the billing
// platform.
type TierChange struct {
	Tier domain.Tier `json:"tier"`
	// Source records what produced the change: "purchase", "restore",
	// "expiry". Informational only.
	Source string `json:"source,omitempty"`
}

// Apply validates and applies a tier change to the session. SetTier is
// the session's sole entitlement mutation point.
func Apply(sess *session.Session, change TierChange) error {
	switch change.Tier {
	case domain.TierFree, domain.TierPremium:
	default:
		return fmt.Errorf("unknown tier %q", change.Tier)
	}
	sess.SetTier(change.Tier)
	return nil
}
