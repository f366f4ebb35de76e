package personality

import (
	"github.com/danielpatrickdp/stress-dost/internal/apperr"
)

// #region dimension
// Dimension names one axis of the personality vector.
type Dimension string

const (
	StressSensitivity     Dimension = "stress_sensitivity"
	AnalyticalThinking    Dimension = "analytical_thinking"
	SocialPreference      Dimension = "social_preference"
	IntrinsicMotivation   Dimension = "intrinsic_motivation"
	Resilience            Dimension = "resilience"
	SelfConfidence        Dimension = "self_confidence"
	PlanningTendency      Dimension = "planning_tendency"
	OpennessToFeedback    Dimension = "openness_to_feedback"
	Impulsivity           Dimension = "impulsivity"
	TimeAwareness         Dimension = "time_awareness"
	DistractionResistance Dimension = "distraction_resistance"
)

// CoreDimensions are the eight axes the quiz scores.
var CoreDimensions = []Dimension{
	StressSensitivity,
	AnalyticalThinking,
	SocialPreference,
	IntrinsicMotivation,
	Resilience,
	SelfConfidence,
	PlanningTendency,
	OpennessToFeedback,
}

// AllDimensions is CoreDimensions followed by the tagging-only axes.
// Every ordered walk over a vector uses this order.
var AllDimensions = append(append([]Dimension(nil), CoreDimensions...),
	Impulsivity, TimeAwareness, DistractionResistance)

// ParseDimension rejects names outside AllDimensions.
func ParseDimension(s string) (Dimension, error) {
	d := Dimension(s)
	for _, known := range AllDimensions {
		if d == known {
			return d, nil
		}
	}
	return "", apperr.Validation("unknown personality dimension %q", s)
}

// #endregion dimension

// #region tier
// Tier is the coarse band a dimension value falls into for tagging.
type Tier string

const (
	TierLow    Tier = "low"
	TierMedium Tier = "medium"
	TierHigh   Tier = "high"
)

// TierOf bands a value at 0.33 / 0.67.
func TierOf(v float64) Tier {
	switch {
	case v < 0.33:
		return TierLow
	case v < 0.67:
		return TierMedium
	default:
		return TierHigh
	}
}

// Target is the representative value of a tier, used for relevance scoring.
func (t Tier) Target() float64 {
	switch t {
	case TierLow:
		return 0.25
	case TierHigh:
		return 0.75
	default:
		return 0.5
	}
}

// #endregion tier
