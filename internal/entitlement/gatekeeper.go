package entitlement

import (
	"time"

	"roomscan/internal/scanbudget"
	"roomscan/internal/session"
)

// Clock supplies the current time; injected so cycle rollover is
// testable.
type Clock func() time.Time

// Gatekeeper is the mutation surface around the evaluator. Each
// attempt combines the relevant checks and, when permitted, applies
// the counter updates as one step from the caller's perspective.
type Gatekeeper struct {
	eval    *Evaluator
	session *session.Session
	budget  *scanbudget.Budget
	now     Clock
}

// NewGatekeeper wires the gatekeeper. A nil clock uses time.Now.
func NewGatekeeper(eval *Evaluator, sess *session.Session, budget *scanbudget.Budget, now Clock) *Gatekeeper {
	if now == nil {
		now = time.Now
	}
	return &Gatekeeper{eval: eval, session: sess, budget: budget, now: now}
}

// OnScanAttempted reports whether the scan may proceed and, when it
// may, consumes one budgeted scan and bumps the lifetime counter.
func (g *Gatekeeper) OnScanAttempted() bool {
	g.budget.ResetIfNewCycle(scanbudget.MonthKey(g.now()))
	d := g.eval.Evaluate()
	if !d.CanScan {
		return false
	}
	if !d.IsPremium && g.budget.Remaining() == 0 {
		return false
	}
	g.budget.Decrement()
	g.session.RecordScanCompleted()
	return true
}

// OnRoomCreateAttempted reports whether a new room may be created.
func (g *Gatekeeper) OnRoomCreateAttempted() bool {
	return g.eval.Evaluate().CanCreateRoom
}

// OnSaveAttempted reports whether saving a match to a room is allowed.
func (g *Gatekeeper) OnSaveAttempted() bool {
	return g.eval.Evaluate().CanSave
}

// DismissSoftPrompt records the nudge as shown without opening sign-in.
func (g *Gatekeeper) DismissSoftPrompt() {
	g.session.MarkSoftPromptShown()
}

// AcceptSoftPrompt records the nudge as shown; the caller opens the
// sign-in flow afterwards.
func (g *Gatekeeper) AcceptSoftPrompt() {
	g.session.MarkSoftPromptShown()
}
