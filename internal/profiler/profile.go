package profiler

import (
	"math"

	"github.com/danielpatrickdp/stress-dost/internal/personality"
)

// #region profile-name
// ProfileName is a display label for a vector. Selection never uses it.
func ProfileName(v personality.Vector) string {
	stress := v.Get(personality.StressSensitivity)
	analytical := v.Get(personality.AnalyticalThinking)
	confidence := v.Get(personality.SelfConfidence)
	resilience := v.Get(personality.Resilience)
	planning := v.Get(personality.PlanningTendency)
	motivation := v.Get(personality.IntrinsicMotivation)

	switch {
	case stress > 0.70 && confidence < 0.50:
		return "High Stress Sensitive"
	case analytical > 0.80 && planning > 0.75 && stress < 0.35:
		return "Problem Solver"
	case planning < 0.30 && motivation < 0.40:
		return "Procrastinator"
	case stress < 0.40 && resilience > 0.80 && motivation > 0.75:
		return "Balanced Learner"
	default:
		return "Adaptive Learner"
	}
}

// #endregion profile-name

// #region affinity
// QuestionProperties describes the demands a content question places on a student.
type QuestionProperties struct {
	Difficulty           float64 `json:"difficulty"`
	AnalyticalLoad       float64 `json:"analytical_load"`
	SocialContext        float64 `json:"social_context"`
	TimePressure         float64 `json:"time_pressure"`
	MemorizationRequired float64 `json:"memorization_required"`
	PracticalApplication float64 `json:"practical_application"`
	DeepConcept          float64 `json:"deep_concept"`
	StructureLevel       float64 `json:"structure_level"`
}

// NeutralQuestionProperties sets every property to 0.5.
func NeutralQuestionProperties() QuestionProperties {
	return QuestionProperties{0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5}
}

// QuestionAffinity scores in [0,1] how well a question suits a vector,
// rounded to three decimals.
func QuestionAffinity(v personality.Vector, q QuestionProperties) float64 {
	match := func(a, b float64) float64 { return 1 - math.Abs(a-b) }

	motivation := v.Get(personality.IntrinsicMotivation)
	var motivationMatch float64
	if motivation > 0.6 {
		motivationMatch = math.Max(0, 1-math.Abs(motivation-q.DeepConcept))
	} else {
		motivationMatch = math.Max(0, 1-math.Abs((1-motivation)-q.PracticalApplication))
	}

	terms := []struct{ score, weight float64 }{
		{match(v.Get(personality.StressSensitivity), q.TimePressure), 0.15},
		{match(v.Get(personality.AnalyticalThinking), q.AnalyticalLoad), 0.20},
		{match(v.Get(personality.SocialPreference), q.SocialContext), 0.10},
		{motivationMatch, 0.15},
		{match(v.Get(personality.Resilience), q.Difficulty), 0.15},
		{match(1-v.Get(personality.SelfConfidence), q.MemorizationRequired), 0.10},
		{match(v.Get(personality.PlanningTendency), q.StructureLevel), 0.10},
	}
	var sum, total float64
	for _, t := range terms {
		sum += t.score * t.weight
		total += t.weight
	}
	return personality.Round(sum/total, 3)
}

// #endregion affinity
