package meter

import (
	"time"

	"github.com/danielpatrickdp/stress-dost/internal/apperr"
	"github.com/danielpatrickdp/stress-dost/internal/trigger"
)

// #region calibration
// ProcessingSpeed is the student's baseline speed tier.
type ProcessingSpeed string

const (
	SpeedFast   ProcessingSpeed = "fast"
	SpeedNormal ProcessingSpeed = "normal"
	SpeedSlow   ProcessingSpeed = "slow"
)

// Calibration holds a student's per-session baselines.
type Calibration struct {
	BaselineReactionTime float64         `json:"baseline_reaction_time"`
	AccuracyBaseline     float64         `json:"accuracy_baseline"`
	AnxietyLevel         string          `json:"anxiety_level"` // "low" | "moderate" | "high"
	ProcessingSpeed      ProcessingSpeed `json:"processing_speed"`
}

// DefaultCalibration returns the population baseline.
func DefaultCalibration() Calibration {
	return Calibration{
		BaselineReactionTime: 3.0,
		AccuracyBaseline:     0.7,
		AnxietyLevel:         "moderate",
		ProcessingSpeed:      SpeedNormal,
	}
}

// Thresholds are the personalised reaction-time cut points in seconds.
type Thresholds struct {
	Quick    float64 `json:"quick"`
	Moderate float64 `json:"moderate"`
	Slow     float64 `json:"slow"`
}

// Thresholds scales the baseline by the processing-speed multipliers.
func (c Calibration) Thresholds() Thresholds {
	quick, slow := 0.85, 1.3
	switch c.ProcessingSpeed {
	case SpeedFast:
		quick, slow = 0.7, 1.5
	case SpeedSlow:
		quick, slow = 1.0, 1.2
	}
	return Thresholds{
		Quick:    c.BaselineReactionTime * quick,
		Moderate: c.BaselineReactionTime,
		Slow:     c.BaselineReactionTime * slow,
	}
}

// #endregion calibration

// #region time-category
// TimeCategory buckets a reaction time against the thresholds.
type TimeCategory string

const (
	TimeQuick    TimeCategory = "quick"
	TimeModerate TimeCategory = "moderate"
	TimeSlow     TimeCategory = "slow"
)

// #endregion time-category

// #region state
// State is the three-meter emotional state. Every field stays in [0,1].
type State struct {
	Fear        float64 `json:"fear"`
	Thoughts    float64 `json:"thoughts"`
	Frustration float64 `json:"frustration"`
}

// Get returns the meter for a category.
func (s State) Get(c trigger.Category) float64 {
	switch c {
	case trigger.CategoryFear:
		return s.Fear
	case trigger.CategoryThoughts:
		return s.Thoughts
	case trigger.CategoryFrustration:
		return s.Frustration
	}
	return 0
}

// Dominant returns the highest meter. Ties go to fear, then thoughts.
func (s State) Dominant() (trigger.Category, float64) {
	best, val := trigger.CategoryFear, s.Fear
	if s.Thoughts > val {
		best, val = trigger.CategoryThoughts, s.Thoughts
	}
	if s.Frustration > val {
		best, val = trigger.CategoryFrustration, s.Frustration
	}
	return best, val
}

// Average is the mean of the three meters.
func (s State) Average() float64 {
	return (s.Fear + s.Thoughts + s.Frustration) / 3
}

// Max is the largest meter value.
func (s State) Max() float64 {
	_, v := s.Dominant()
	return v
}

// Severity bands the mean at 0.3 and 0.6.
func (s State) Severity() string {
	avg := s.Average()
	switch {
	case avg < 0.3:
		return "low"
	case avg < 0.6:
		return "moderate"
	default:
		return "high"
	}
}

// #endregion state

// #region response
// TriggerResponse records one trigger interaction.
type TriggerResponse struct {
	Text                string           `json:"trigger_text"`
	Type                trigger.Type     `json:"trigger_type"`
	Category            trigger.Category `json:"category"`
	Value               float64          `json:"trigger_value"`
	ReactionTime        float64          `json:"time_taken"`
	SelectedOption      *int             `json:"selected_option"`
	MainQuestionCorrect bool             `json:"main_question_correct"`
	MainQuestionTime    float64          `json:"main_question_time"`
	Timestamp           time.Time        `json:"timestamp"`
	RepeatCount         int              `json:"repeat_count"`
}

// Validate rejects responses the engine cannot score.
func (r TriggerResponse) Validate() error {
	if r.Text == "" {
		return apperr.Validation("trigger text is required")
	}
	if _, err := trigger.ParseType(string(r.Type)); err != nil {
		return err
	}
	if _, err := trigger.ParseCategory(string(r.Category)); err != nil {
		return err
	}
	if r.Value < -1 || r.Value > 1 {
		return apperr.Validation("trigger value %.3f outside [-1,1]", r.Value)
	}
	if r.ReactionTime < 0 || r.MainQuestionTime < 0 {
		return apperr.Validation("negative response time")
	}
	if r.SelectedOption != nil && *r.SelectedOption < 0 {
		return apperr.Validation("selected option %d is negative", *r.SelectedOption)
	}
	return nil
}

// #endregion response

// #region analysis
// Meters is a rounded meter snapshot inside an Analysis.
type Meters struct {
	Fear        float64 `json:"fear"`
	Thoughts    float64 `json:"thoughts"`
	Frustration float64 `json:"frustration"`
}

// Analysis is the audit record of one Process call. Field order is fixed so
// the JSON encoding is stable.
type Analysis struct {
	ResponseTimeCategory TimeCategory     `json:"response_time_category"`
	BaseImpact           float64          `json:"base_impact"`
	FinalImpact          float64          `json:"final_impact"`
	MetersBefore         Meters           `json:"meters_before"`
	MetersAfter          Meters           `json:"meters_after"`
	DominantBefore       trigger.Category `json:"dominant_stress_before"`
	DominantAfter        trigger.Category `json:"dominant_stress_after"`
	SeverityBefore       string           `json:"severity_before"`
	SeverityAfter        string           `json:"severity_after"`
	TriggerRepeatCount   int              `json:"trigger_repeat_count"`
}

// #endregion analysis

// #region engine-config
// EngineConfig holds the meter dynamics constants.
type EngineConfig struct {
	DecayFactor       float64 // applied to every meter each response (default 0.95)
	SensitizationRate float64 // per-repeat growth on the negative path (default 0.1)
	SensitizationCap  float64 // cap as a fraction of the pre-modifier impact (default 0.95)
	HabituationRate   float64 // per-repeat shrink on the positive path (default 0.1)
	HabituationFloor  float64 // floor as a fraction of the pre-modifier impact (default 0.1)
}

// DefaultEngineConfig returns the research-derived constants.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		DecayFactor:       0.95,
		SensitizationRate: 0.1,
		SensitizationCap:  0.95,
		HabituationRate:   0.1,
		HabituationFloor:  0.1,
	}
}

// #endregion engine-config
