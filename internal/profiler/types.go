package profiler

import (
	"time"

	"github.com/danielpatrickdp/stress-dost/internal/personality"
)

// #region bank
// Option is one answer choice of a quiz question.
type Option struct {
	Text   string
	Scores map[personality.Dimension]float64
	Traits []string
}

// Question is a quiz item as loaded from the bank.
type Question struct {
	ID       int
	Category string
	Text     string
	Options  []Option
}

// Bank is the parsed quiz source. Skipped lists entries dropped while parsing.
type Bank struct {
	Questions  []Question
	Dimensions []personality.Dimension
	Skipped    []string
}

// #endregion bank

// #region display
// DisplayQuestion is a question stripped of scores and traits.
type DisplayQuestion struct {
	ID       int             `json:"id"`
	Category string          `json:"category"`
	Question string          `json:"question"`
	Options  []DisplayOption `json:"options"`
}

// DisplayOption is an option stripped of scores and traits.
type DisplayOption struct {
	Text string `json:"text"`
}

// #endregion display

// #region response
// Response is one submitted quiz answer. A nil OptionIndex is skipped.
type Response struct {
	QuestionID  int  `json:"question_id"`
	OptionIndex *int `json:"option_index"`
}

// #endregion response

// #region result
// Coverage reports, per dimension, how many contributing answers arrived
// against how many quiz questions can score it.
type Coverage struct {
	Answered       map[personality.Dimension]int    `json:"coverage"`
	Expected       map[personality.Dimension]int    `json:"expected"`
	Report         map[personality.Dimension]string `json:"report"`
	AllCovered     bool                             `json:"all_dimensions_covered"`
	TotalProcessed int                              `json:"total_questions_processed"`
}

// Result is the full output of an assessment.
type Result struct {
	Vector          personality.Vector `json:"personality_vector"`
	Traits          []string           `json:"traits"`
	TraitCounts     map[string]int     `json:"trait_details"`
	Summary         string             `json:"summary"`
	Recommendations Recommendations    `json:"recommendations"`
	Coverage        Coverage           `json:"weight_check"`
	Valid           bool               `json:"valid"`
	Timestamp       time.Time          `json:"timestamp"`
}

// #endregion result

// #region recommendations
type DifficultyRecommendation struct {
	Value  float64 `json:"value"`
	Reason string  `json:"reason"`
}

type PoolRecommendation struct {
	Value  string `json:"value"`
	Reason string `json:"reason"`
}

type FrequencyRecommendation struct {
	Value  int    `json:"value"`
	Reason string `json:"reason"`
}

// Recommendations is the deterministic content plan derived from a vector.
type Recommendations struct {
	QuestionDifficulty DifficultyRecommendation `json:"question_difficulty"`
	QuestionPool       PoolRecommendation       `json:"question_pool"`
	TriggerFrequency   FrequencyRecommendation  `json:"trigger_frequency"`
	TriggerTypes       []string                 `json:"trigger_types"`
	LearningStyle      []string                 `json:"learning_style"`
	StressManagement   []string                 `json:"stress_management"`
	FeedbackHandling   string                   `json:"feedback_handling"`
}

// #endregion recommendations

// #region assessor-config
// AssessorConfig controls quiz sizing.
type AssessorConfig struct {
	QuestionLimit int // 0 = every question in the bank
}

// DefaultAssessorConfig returns the ten-question quiz.
func DefaultAssessorConfig() AssessorConfig {
	return AssessorConfig{QuestionLimit: 10}
}

// #endregion assessor-config
