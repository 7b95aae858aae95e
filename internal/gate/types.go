package gate

// #region veto-type
// VetoType enumerates hard veto categories.
type VetoType string

const (
	VetoIdentity    VetoType = "identity_mismatch"
	VetoProgression VetoType = "progression_violation"
	VetoBounds      VetoType = "bounds_violation"
	VetoConstraint  VetoType = "constraint_violation"
)

// #endregion veto-type

// #region veto-signal
// VetoSignal represents a detected hard veto condition.
type VetoSignal struct {
	Type   VetoType `json:"type"`
	Reason string   `json:"reason"`
}

// #endregion veto-signal

// #region gate-config
// GateConfig holds thresholds for gate decisions.
type GateConfig struct {
	XPPerLevel           int     // xp needed per level step
	MaxXPGainPerTurn     int     // hard cap on xp gained in one proposal
	MaxRelationshipDelta float64 // max L2 norm of the relationship change per turn
}

// DefaultGateConfig returns defaults matching the experience and relationship engines.
func DefaultGateConfig() GateConfig {
	return GateConfig{
		XPPerLevel:           1000,
		MaxXPGainPerTurn:     100,
		MaxRelationshipDelta: 0.5,
	}
}

// #endregion gate-config

// #region gate-decision
// GateDecision is the output of the gate evaluation.
type GateDecision struct {
	Action      string       `json:"action"` // "commit" | "reject"
	Reason      string       `json:"reason"`
	Vetoed      bool         `json:"vetoed"`
	VetoSignals []VetoSignal `json:"veto_signals,omitempty"` // non-empty if vetoed
	SoftScore   float64      `json:"soft_score"`             // 0-1 stability score (for logging)
}

// #endregion gate-decision
