package logging

import (
	"strings"
	"time"
)

// #region provenance-entry
// ProvenanceEntry is a single row in the provenance_log table.
type ProvenanceEntry struct {
	VersionID   string
	SessionID   string
	TriggerType string // "assessment" | "performance" | "rollback"
	SignalsJSON string
	Decision    string // "commit" | "no_op"
	Reason      string
	CreatedAt   time.Time
}

// #endregion provenance-entry

// #region update-record
// UpdateRecord captures the inputs and outcome of one personality recompute.
// Serialized as JSON into provenance_log.signals_json so the decision can be
// audited without re-running the session.
type UpdateRecord struct {
	Window          int                `json:"window"`
	Accuracy        float64            `json:"accuracy"`
	AvgResponseTime float64            `json:"avg_response_time"`
	Adjustments     map[string]float64 `json:"adjustments,omitempty"`
	DeltaNorm       float64            `json:"delta_norm"`
	Traits          []string           `json:"traits"`
	Decision        string             `json:"decision"`
	Reason          string             `json:"reason"`
}

// #endregion update-record

// #region response-row
// ResponseRow is the flat record written once per trigger response.
type ResponseRow struct {
	LoggedAt         time.Time `json:"timestamp"`
	UserID           string    `json:"user_id"`
	SessionID        string    `json:"session_id"`
	QuestionIndex    int       `json:"question_index"`
	TriggerText      string    `json:"trigger_text"`
	TriggerType      string    `json:"trigger_type"`
	SelectedOption   string    `json:"selected_option"`
	TimeTaken        float64   `json:"time_taken"`
	Correct          bool      `json:"answer_correct"`
	FearMeter        float64   `json:"fear_meter"`
	ThoughtMeter     float64   `json:"thought_meter"`
	FrustrationMeter float64   `json:"frustration_meter"`
}

// TriggerLogText appends the option list to the trigger text the way the
// response sheet has always shown it.
func TriggerLogText(text string, options []string) string {
	if len(options) == 0 {
		return text
	}
	return text + " | Options: " + strings.Join(options, " / ")
}

// #endregion response-row
