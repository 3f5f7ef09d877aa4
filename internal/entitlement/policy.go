package entitlement

// Limits are the free-tier policy constants. Premium is unbounded on
// every axis, so no premium values appear here.
type Limits struct {
	// FreeMonthlyScans is the scan allowance replenished each cycle.
	FreeMonthlyScans int
	// FreeRooms caps rooms an authenticated free account may create.
	FreeRooms int
	// FreeMatches caps product matches requested per detected item.
	FreeMatches int
	// SoftPromptAfter is the lifetime scan count at which the one-time
	// sign-up nudge fires for anonymous users.
	SoftPromptAfter int
	// HardGateAfter is the lifetime scan count from which anonymous
	// scanning is blocked pending authentication.
	HardGateAfter int
}

// DefaultLimits returns the reference policy values.
func DefaultLimits() Limits {
	return Limits{
		FreeMonthlyScans: 5,
		FreeRooms:        1,
		FreeMatches:      3,
		SoftPromptAfter:  1,
		HardGateAfter:    2,
	}
}

// WithDefaults fills unset fields so a partially configured policy
// falls back to reference behavior.
func (l Limits) WithDefaults() Limits {
	def := DefaultLimits()
	if l.FreeMonthlyScans <= 0 {
		l.FreeMonthlyScans = def.FreeMonthlyScans
	}
	if l.FreeRooms <= 0 {
		l.FreeRooms = def.FreeRooms
	}
	if l.FreeMatches <= 0 {
		l.FreeMatches = def.FreeMatches
	}
	if l.SoftPromptAfter <= 0 {
		l.SoftPromptAfter = def.SoftPromptAfter
	}
	if l.HardGateAfter <= 0 {
		l.HardGateAfter = def.HardGateAfter
	}
	return l
}
