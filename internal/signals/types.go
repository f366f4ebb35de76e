package signals

import (
	"github.com/danielpatrickdp/stress-dost/internal/meter"
	"github.com/danielpatrickdp/stress-dost/internal/trigger"
)

// #region history-interface

// History abstracts the meter engine's trigger bookkeeping so Producer can be
// tested without a live engine.
type History interface {
	DistinctTriggers() int
	RecentTriggers(n int) []string
	Responses() []meter.TriggerResponse
	Calibration() meter.Calibration
}

// #endregion history-interface

// #region config

// ProducerConfig holds tuning knobs for context computation.
type ProducerConfig struct {
	RisingFear       float64 // fear above this reads as an increasing trend (default 0.6)
	FallingFear      float64 // fear below this reads as a decreasing trend (default 0.3)
	ResilientAbove   float64 // recent accuracy above this is "resilient" (default 0.7)
	RecentAnswers    int     // answers echoed in recent_performance (default 3)
	AvoidRepeats     int     // recent trigger texts the generator must avoid (default 5)
	MinTrendResponse int     // responses needed before a trend is reported (default 2)
}

// DefaultProducerConfig returns sensible defaults.
func DefaultProducerConfig() ProducerConfig {
	return ProducerConfig{
		RisingFear:       0.6,
		FallingFear:      0.3,
		ResilientAbove:   0.7,
		RecentAnswers:    3,
		AvoidRepeats:     5,
		MinTrendResponse: 2,
	}
}

// #endregion config

// #region input

// ProduceInput bundles what a session knows when it asks for the next trigger.
type ProduceInput struct {
	State      meter.State
	Difficulty float64
	History    History
}

// #endregion input

// #region context

// StudentProfile summarizes the calibration and current coping style.
type StudentProfile struct {
	BaselineAnxiety string                `json:"baseline_anxiety"`
	TimeProcessing  meter.ProcessingSpeed `json:"time_processing"`
	ReactionStyle   string                `json:"reaction_style"`
}

// EmotionalState is the rounded meter snapshot with its trend.
type EmotionalState struct {
	Fear           float64          `json:"fear_meter"`
	Thoughts       float64          `json:"thought_meter"`
	Frustration    float64          `json:"frustration_meter"`
	DominantStress trigger.Category `json:"dominant_stress"`
	Severity       string           `json:"severity_level"`
	Trend          string           `json:"trend"`
}

// RecentPerformance covers main-question answers since the session began.
type RecentPerformance struct {
	LastAnswersCorrect []bool  `json:"last_answers_correct"`
	Accuracy           float64 `json:"accuracy"`
	AvgResponseTime    float64 `json:"avg_response_time"`
}

// TriggerHistory summarizes what has been shown.
type TriggerHistory struct {
	TriggersShown         int              `json:"triggers_shown"`
	MostEffectiveCategory trigger.Category `json:"most_effective_category"`
	SensitizationPattern  string           `json:"sensitization_pattern"`
}

// NextTriggerRequest tells the generator what to produce next.
type NextTriggerRequest struct {
	Category     trigger.Category `json:"category"`
	Intensity    float64          `json:"intensity"`
	Type         trigger.Type     `json:"type"`
	AvoidRepeats []string         `json:"avoid_repeats"`
}

// MeterContext is the generation context for one session.
type MeterContext struct {
	StudentProfile    StudentProfile     `json:"student_profile"`
	EmotionalState    EmotionalState     `json:"current_emotional_state"`
	RecentPerformance RecentPerformance  `json:"recent_performance"`
	TriggerHistory    TriggerHistory     `json:"trigger_history"`
	NextTrigger       NextTriggerRequest `json:"next_trigger_request"`
}

// #endregion context
