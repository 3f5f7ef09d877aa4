// Package entitlement derives the access decisions the UI branches on:
// scan gating, save gating, and room/match limits.
package entitlement

import (
	"roomscan/internal/scanbudget"
	"roomscan/internal/session"
	"roomscan/pkg/domain"
)

// RoomCounter reports the number of rooms created. It must reflect
// committed state at evaluation time.
type RoomCounter interface {
	RoomCount() int
}

// Evaluator combines session, budget, and room count into an
// AccessDecision. Pure: Evaluate never mutates and never fails.
type Evaluator struct {
	limits  Limits
	session *session.Session
	budget  *scanbudget.Budget
	rooms   RoomCounter
}

// NewEvaluator wires the evaluator to its inputs. Dependencies are
// passed explicitly; there is no global state to reach into.
func NewEvaluator(limits Limits, sess *session.Session, budget *scanbudget.Budget, rooms RoomCounter) *Evaluator {
	return &Evaluator{
		limits:  limits.WithDefaults(),
		session: sess,
		budget:  budget,
		rooms:   rooms,
	}
}

// Limits returns the effective policy values.
func (e *Evaluator) Limits() Limits {
	return e.limits
}

// Evaluate computes the current access decision.
//
// Anonymous scan gating over the lifetime counter: scans below
// HardGateAfter are permitted, the soft prompt fires exactly once when
// the counter sits at SoftPromptAfter, and from HardGateAfter onward
// scanning is blocked pending authentication. Authenticated users are
// never blocked by this rule; the monthly budget applies separately.
func (e *Evaluator) Evaluate() domain.AccessDecision {
	authed := e.session.IsAuthenticated()
	premium := e.session.Tier() == domain.TierPremium
	scans := e.session.LifetimeScans()
	roomCount := e.rooms.RoomCount()

	d := domain.AccessDecision{
		IsAuthenticated: authed,
		IsPremium:       premium,

		CanScan:              authed || scans < e.limits.HardGateAfter,
		ShouldShowSoftPrompt: !authed && scans == e.limits.SoftPromptAfter && !e.session.SoftPromptShown(),
		ShouldShowHardGate:   !authed && scans >= e.limits.HardGateAfter,

		CanSave:       authed,
		CanCreateRoom: authed && (premium || roomCount < e.limits.FreeRooms),

		ScansRemaining: e.budget.Remaining(),
		RoomCount:      roomCount,
		RoomLimit:      e.limits.FreeRooms,
		MatchLimit:     e.limits.FreeMatches,
		LifetimeScans:  scans,
	}
	if premium {
		d.ScansRemaining = domain.Unlimited
		d.RoomLimit = domain.Unlimited
		d.MatchLimit = domain.Unlimited
	}
	return d
}
