package gate

import (
	"github.com/danielpatrickdp/stress-dost/internal/trigger"
)

// #region veto-type
// VetoType enumerates hard veto categories for generated popups.
type VetoType string

const (
	VetoMissingText  VetoType = "missing_text"
	VetoInvalidType  VetoType = "invalid_type"
	VetoInvalidValue VetoType = "invalid_value"
	VetoOptionCount  VetoType = "option_count"
	VetoIgnoresTags  VetoType = "ignores_tags"
)

// #endregion veto-type

// #region veto-signal
// VetoSignal represents a detected hard veto condition.
type VetoSignal struct {
	Type   VetoType
	Reason string
}

// #endregion veto-signal

// #region candidate
// Candidate is a popup as decoded from the generation service, before any
// checks. Value holds the raw decoded JSON value and is nil when absent.
type Candidate struct {
	Type    string
	Text    string
	Options []string
	Value   any
}

// #endregion candidate

// #region gate-config
// GateConfig holds the acceptance rules for generated popups.
type GateConfig struct {
	DefaultValue   float64 // used when the candidate carries no value
	RequireKeyword bool    // text must mention a personalization keyword
	OptionCount    int     // exact option count for option_based
}

// DefaultGateConfig returns the production rules.
func DefaultGateConfig() GateConfig {
	return GateConfig{
		DefaultValue:   0.3,
		RequireKeyword: true,
		OptionCount:    trigger.OptionCount,
	}
}

// #endregion gate-config

// #region gate-decision
// GateDecision is the output of the gate evaluation.
type GateDecision struct {
	Action      string // "commit" | "reject"
	Reason      string
	Vetoed      bool
	VetoSignals []VetoSignal  // non-empty if vetoed
	Popup       trigger.Popup // normalized popup, set on commit
}

// #endregion gate-decision
