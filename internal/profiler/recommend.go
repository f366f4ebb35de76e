package profiler

import (
	"strings"

	"github.com/danielpatrickdp/stress-dost/internal/personality"
)

// #region summary
// Summary renders the one-line narrative profile. Bands are 0.35/0.65 for
// stress, 0.35/0.75 for analytical thinking and 0.35/0.70 elsewhere.
func Summary(v personality.Vector) string {
	band := func(x, lo, hi float64, low, mid, high string) string {
		switch {
		case x > hi:
			return high
		case x < lo:
			return low
		default:
			return mid
		}
	}

	parts := []string{
		band(v.Get(personality.StressSensitivity), 0.35, 0.65,
			"calm under pressure", "moderate stress response", "highly anxiety-prone"),
		band(v.Get(personality.AnalyticalThinking), 0.35, 0.75,
			"intuitive/creative learner", "balanced thinker", "strong analytical thinker"),
		band(v.Get(personality.SocialPreference), 0.35, 0.70,
			"introvert, independent", "ambivert, flexible socially", "extrovert, collaborative"),
		band(v.Get(personality.IntrinsicMotivation), 0.35, 0.70,
			"extrinsically motivated (reward-driven)", "mixed motivation", "intrinsically motivated (mastery-driven)"),
		band(v.Get(personality.Resilience), 0.35, 0.70,
			"struggles after setbacks", "moderate resilience", "highly resilient, bounces back quickly"),
		band(v.Get(personality.SelfConfidence), 0.35, 0.70,
			"low self-confidence, self-doubting", "moderate confidence", "high self-confidence"),
		band(v.Get(personality.PlanningTendency), 0.35, 0.70,
			"spontaneous, adaptive learner", "balanced planning style", "organized, planned approach"),
		band(v.Get(personality.OpennessToFeedback), 0.35, 0.70,
			"defensive, closed to criticism", "moderately receptive to feedback", "highly open to feedback"),
	}
	return "Personality Profile: " + strings.Join(parts, ", ") + "."
}

// #endregion summary

// #region recommend
// Recommend derives the content plan. Rules within each section are checked
// in order and the first match wins.
func Recommend(v personality.Vector) Recommendations {
	stress := v.Get(personality.StressSensitivity)
	analytical := v.Get(personality.AnalyticalThinking)
	social := v.Get(personality.SocialPreference)
	resilience := v.Get(personality.Resilience)
	confidence := v.Get(personality.SelfConfidence)
	planning := v.Get(personality.PlanningTendency)
	feedback := v.Get(personality.OpennessToFeedback)

	var r Recommendations

	switch {
	case stress >= 0.70 || resilience <= 0.35:
		r.QuestionDifficulty = DifficultyRecommendation{0.30, "High stress/low resilience - use easier questions to stabilize confidence"}
	case stress >= 0.55:
		r.QuestionDifficulty = DifficultyRecommendation{0.40, "Moderate stress - keep difficulty gentle but progressive"}
	case stress <= 0.35 && confidence >= 0.55:
		r.QuestionDifficulty = DifficultyRecommendation{0.70, "Low stress and decent confidence - push difficulty upward"}
	case confidence >= 0.80 && analytical >= 0.70:
		r.QuestionDifficulty = DifficultyRecommendation{0.85, "Very confident + analytical - unlock toughest problems"}
	case planning <= 0.30:
		r.QuestionDifficulty = DifficultyRecommendation{0.50, "Spontaneous planner - keep moderate difficulty for focus"}
	default:
		r.QuestionDifficulty = DifficultyRecommendation{0.55, "Balanced profile - steady medium difficulty"}
	}

	switch {
	case stress >= 0.70:
		r.QuestionPool = PoolRecommendation{"acadza_easy", "High anxiety - start with comforting known questions"}
	case analytical >= 0.70 && confidence >= 0.60:
		r.QuestionPool = PoolRecommendation{"acadza_challenging", "Strong analytical skills - focus on challenging problems"}
	case analytical < 0.40:
		r.QuestionPool = PoolRecommendation{"mixed_with_visual", "Intuitive learner - use visual explanations and applications"}
	case planning < 0.35 && stress < 0.40:
		r.QuestionPool = PoolRecommendation{"generated_mixed", "Spontaneous learner - varied generated questions"}
	default:
		r.QuestionPool = PoolRecommendation{"mixed_adaptive", "Balanced profile - mix of Acadza and generated questions"}
	}

	switch {
	case stress >= 0.75:
		r.TriggerFrequency = FrequencyRecommendation{4, "High stress - nudge often with calming triggers"}
	case resilience <= 0.35:
		r.TriggerFrequency = FrequencyRecommendation{5, "Low resilience - regular encouragement between questions"}
	case planning < 0.30:
		r.TriggerFrequency = FrequencyRecommendation{3, "Spontaneous, procrastinator - frequent triggers for urgency"}
	case confidence > 0.80 && analytical > 0.80:
		r.TriggerFrequency = FrequencyRecommendation{10, "High confidence - let them flow, minimal interruptions"}
	case social > 0.75:
		r.TriggerFrequency = FrequencyRecommendation{4, "Social, feedback-seeker - regular social validation triggers"}
	default:
		r.TriggerFrequency = FrequencyRecommendation{6, "Standard trigger frequency for balanced approach"}
	}

	switch {
	case stress > 0.70:
		r.TriggerTypes = []string{"motivational", "confidence_building"}
	case planning < 0.35:
		r.TriggerTypes = []string{"urgency", "pressure"}
	case social > 0.75:
		r.TriggerTypes = []string{"social_validation", "recognition"}
	default:
		r.TriggerTypes = []string{"analytical_challenge", "mastery_focus"}
	}

	if analytical > 0.75 {
		r.LearningStyle = append(r.LearningStyle, "Deep conceptual understanding")
	} else {
		r.LearningStyle = append(r.LearningStyle, "Practical application + step-by-step")
	}
	if social > 0.60 {
		r.LearningStyle = append(r.LearningStyle, "Collaborative study recommended")
	} else {
		r.LearningStyle = append(r.LearningStyle, "Solo study optimal")
	}
	if planning > 0.70 {
		r.LearningStyle = append(r.LearningStyle, "Structure your study schedule")
	} else {
		r.LearningStyle = append(r.LearningStyle, "Flexible, adaptive study timing")
	}

	switch {
	case stress > 0.70:
		r.StressManagement = []string{
			"Take frequent breaks (5 min per hour)",
			"Use calming techniques (breathing exercises)",
			"Start with easier questions to build momentum",
			"Practice mindfulness or meditation",
		}
	case stress < 0.35:
		r.StressManagement = []string{
			"Push yourself with challenging problems",
			"Use pressure and competition as motivation",
		}
	default:
		r.StressManagement = []string{
			"Maintain steady, consistent pace",
			"Balance study with breaks",
		}
	}

	if feedback < 0.40 {
		r.FeedbackHandling = "Work on accepting criticism - try reframing feedback as data, not judgment"
	} else {
		r.FeedbackHandling = "Use feedback actively - implement suggestions immediately"
	}
	return r
}

// #endregion recommend
