package orchestrator

// #region imports
import (
	"time"

	"github.com/danielpatrickdp/stress-dost/internal/apperr"
	"github.com/danielpatrickdp/stress-dost/internal/content"
	"github.com/danielpatrickdp/stress-dost/internal/difficulty"
	"github.com/danielpatrickdp/stress-dost/internal/meter"
	"github.com/danielpatrickdp/stress-dost/internal/personality"
	"github.com/danielpatrickdp/stress-dost/internal/profiler"
	"github.com/danielpatrickdp/stress-dost/internal/selection"
	"github.com/danielpatrickdp/stress-dost/internal/session"
	"github.com/danielpatrickdp/stress-dost/internal/trigger"
)

// #endregion

// ErrAssessmentPending is returned by every trigger and question operation
// until the personality quiz has been submitted.
var ErrAssessmentPending = apperr.Validation("personality assessment not completed")

// #region config

// Config holds orchestration constants.
type Config struct {
	MeterThreshold  float64 // any meter at or above this reports threshold_reached (default 0.8)
	GenerateRetries int     // extra generator attempts after a failure, capped at maxRetries (default 1)
	QuestionCount   int     // content questions loaded per session when none is asked for (default 5)
	Enabled         bool    // false skips the generator and serves the dataset only
}

// DefaultConfig returns the production orchestration constants.
func DefaultConfig() Config {
	return Config{
		MeterThreshold:  0.8,
		GenerateRetries: 1,
		QuestionCount:   5,
		Enabled:         true,
	}
}

// #endregion

// #region trigger-io

// TriggerRequest asks for the popup shown with one main question.
type TriggerRequest struct {
	SessionID     string           `json:"session_id"`
	QuestionIndex int              `json:"question_index"`
	Category      trigger.Category `json:"label"`
}

// Delivery is the outcome of NextTrigger. Found is false when neither source
// had anything to offer; that is a valid result, not an error.
type Delivery struct {
	Found         bool            `json:"found"`
	Popup         trigger.Popup   `json:"trigger"`
	Source        session.Source  `json:"source"`
	Level         selection.Level `json:"level,omitempty"`
	PopupCounter  int             `json:"popup_counter"`
	QuestionIndex int             `json:"question_index"`
	Session       session.View    `json:"session"`
}

// #endregion

// #region response-io

// ResponseInput is one answered popup plus the main question outcome.
type ResponseInput struct {
	SessionID      string           `json:"session_id"`
	Text           string           `json:"trigger_text"`
	Type           trigger.Type     `json:"trigger_type"`
	Value          *float64         `json:"trigger_value"`
	Options        []string         `json:"options"`
	Category       trigger.Category `json:"label"`
	TimeTaken      float64          `json:"time_taken"`
	QuestionTime   *float64         `json:"question_time"`
	AnswerCorrect  bool             `json:"answer_correct"`
	SelectedOption *int             `json:"selected_option"`
}

// ResponseOutcome reports the meter and difficulty effect of one response.
type ResponseOutcome struct {
	Status            string                `json:"status"`
	Analysis          meter.Analysis        `json:"meter_analysis"`
	Meters            session.MeterView     `json:"meters"`
	CurrentDifficulty float64               `json:"current_difficulty"`
	Adjustment        difficulty.Adjustment `json:"difficulty_adjustment"`
	ThresholdReached  bool                  `json:"threshold_reached"`
	VectorUpdated     bool                  `json:"personality_updated"`
	Session           session.View          `json:"session"`
}

// #endregion

// #region assessment-io

// AssessmentOutcome is the result of integrating a quiz into a session.
type AssessmentOutcome struct {
	Result           profiler.Result    `json:"personality_analysis"`
	Vector           personality.Vector `json:"personality_vector"`
	Traits           []string           `json:"traits"`
	Difficulty       float64            `json:"difficulty"`
	QuestionPool     string             `json:"question_pool"`
	TriggerFrequency int                `json:"trigger_frequency"`
	ProfileName      string             `json:"profile_name"`
	VersionID        string             `json:"version_id,omitempty"`
}

// #endregion

// #region report

// FinalMeters is the rounded closing meter state.
type FinalMeters struct {
	Fear        float64 `json:"fear"`
	Thoughts    float64 `json:"thoughts"`
	Frustration float64 `json:"frustration"`
	Average     float64 `json:"average"`
}

// Report is returned when a session ends.
type Report struct {
	SessionID          string                   `json:"session_id"`
	UserID             string                   `json:"user_id"`
	PersonalityVector  personality.Vector       `json:"personality_vector"`
	ProfileName        string                   `json:"profile_name,omitempty"`
	Duration           float64                  `json:"duration_seconds"`
	FinalMeters        FinalMeters              `json:"final_meters"`
	QuestionsAttempted int                      `json:"questions_attempted"`
	TriggersShown      int                      `json:"triggers_shown"`
	FinalDifficulty    float64                  `json:"final_difficulty"`
	SourceCounts       map[session.Source]int   `json:"trigger_source_counts"`
	Responses          []session.ResponseRecord `json:"responses"`
	EndedAt            time.Time                `json:"ended_at"`
}

// #endregion

// #region answer-io

// AnswerInput is a main question answer.
type AnswerInput struct {
	SessionID  string  `json:"session_id"`
	QuestionID string  `json:"question_id"`
	Answer     string  `json:"answer"`
	TimeTaken  float64 `json:"time_taken"`
}

// AnswerResult reports correctness of a main question answer.
type AnswerResult struct {
	Correct        bool                 `json:"correct"`
	QuestionID     string               `json:"question_id"`
	CorrectAnswer  string               `json:"correct_answer,omitempty"`
	CorrectAnswers []string             `json:"correct_answers,omitempty"`
	QuestionType   content.QuestionType `json:"question_type"`
	TimeTaken      float64              `json:"time_taken"`
}

// #endregion
