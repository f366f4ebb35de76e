package session

import (
	"hash/fnv"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/danielpatrickdp/stress-dost/internal/content"
	"github.com/danielpatrickdp/stress-dost/internal/difficulty"
	"github.com/danielpatrickdp/stress-dost/internal/meter"
	"github.com/danielpatrickdp/stress-dost/internal/personality"
	"github.com/danielpatrickdp/stress-dost/internal/profiler"
	"github.com/danielpatrickdp/stress-dost/internal/selection"
	"github.com/danielpatrickdp/stress-dost/internal/tracker"
	"github.com/danielpatrickdp/stress-dost/internal/trigger"
	"github.com/danielpatrickdp/stress-dost/internal/weighting"
)

// #region source
// Source names where a delivered trigger came from.
type Source string

const (
	SourceGenerator Source = "generator"
	SourceDataset   Source = "dataset"
	SourceNone      Source = "none"
)

// #endregion source

// #region options
// Options configures the per-session components.
type Options struct {
	Calibration meter.Calibration
	Engine      meter.EngineConfig
	Difficulty  difficulty.Config
	Selection   selection.Config
	Weighting   weighting.Config
	Tracker     tracker.Config
	Seed        uint64 // 0 seeds each session randomly
	Now         func() time.Time
}

// DefaultOptions returns the production session setup.
func DefaultOptions() Options {
	return Options{
		Calibration: meter.DefaultCalibration(),
		Engine:      meter.DefaultEngineConfig(),
		Difficulty:  difficulty.DefaultConfig(),
		Selection:   selection.DefaultConfig(),
		Weighting:   weighting.DefaultConfig(),
		Tracker:     tracker.DefaultConfig(),
	}
}

// #endregion options

// #region response-record
// ResponseRecord is one processed trigger response kept for the end report.
type ResponseRecord struct {
	QuestionIndex  int              `json:"question_index"`
	TriggerText    string           `json:"trigger_text"`
	TriggerType    trigger.Type     `json:"trigger_type"`
	SelectedOption *int             `json:"selected_option"`
	TimeTaken      float64          `json:"time_taken"`
	Correct        bool             `json:"answer_correct"`
	Analysis       meter.Analysis   `json:"meter_analysis"`
	Category       trigger.Category `json:"label"`
	Timestamp      time.Time        `json:"timestamp"`
}

// #endregion response-record

// #region session
// Session is one student's live state. Callers must hold the session through
// Store.With; the exported fields are not safe for unsynchronized access.
type Session struct {
	mu sync.Mutex

	ID             string
	UserID         string
	StartedAt      time.Time
	LastActive     time.Time
	TotalQuestions int
	TestCategory   trigger.Category

	Engine            *meter.Engine
	Meters            meter.State
	Difficulty        *difficulty.Controller
	CurrentDifficulty float64
	Selector          *selection.Selector
	Tracker           *tracker.Tracker
	Rand              *rand.Rand

	QuestionIndex int
	QuestionStart time.Time
	Questions     []content.Question
	Responses     []ResponseRecord
	PopupCounter  int
	SourceCounts  map[Source]int

	Assessment          *profiler.Result
	AssessmentCompleted bool
	QuestionPool        string
	TriggerFrequency    int
	TriggerTypes        []string

	triggered      map[string]struct{}
	triggeredOrder []string
	now            func() time.Time
}

// New builds a session with fresh per-session components.
func New(id, userID string, opts Options) *Session {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	seed := opts.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(id))
	rng := rand.New(rand.NewPCG(seed, h.Sum64()))

	w := weighting.New(opts.Weighting, rng).WithClock(now)
	started := now()
	return &Session{
		ID:                id,
		UserID:            userID,
		StartedAt:         started,
		LastActive:        started,
		TotalQuestions:    5,
		TestCategory:      trigger.CategoryThoughts,
		Engine:            meter.NewEngine(opts.Calibration, opts.Engine),
		Difficulty:        difficulty.NewController(opts.Difficulty),
		CurrentDifficulty: 1.0,
		Selector:          selection.New(opts.Selection, w, rng).WithClock(now),
		Tracker:           tracker.New(id, opts.Tracker).WithClock(now),
		Rand:              rng,
		SourceCounts:      map[Source]int{SourceGenerator: 0, SourceDataset: 0},
		QuestionPool:      "mixed",
		TriggerFrequency:  6,
		triggered:         make(map[string]struct{}),
		now:               now,
	}
}

// Now reads the session clock.
func (s *Session) Now() time.Time { return s.now() }

// #endregion session

// #region triggers
// WasTriggered reports whether text has already been delivered.
func (s *Session) WasTriggered(text string) bool {
	_, ok := s.triggered[text]
	return ok
}

// Triggered returns the delivered texts in delivery order.
func (s *Session) Triggered() []string {
	return append([]string(nil), s.triggeredOrder...)
}

// RecordDelivery books a delivered trigger against the popup counter and
// its source.
func (s *Session) RecordDelivery(text string, counter int, source Source) {
	if _, ok := s.triggered[text]; !ok {
		s.triggered[text] = struct{}{}
	}
	s.triggeredOrder = append(s.triggeredOrder, text)
	s.PopupCounter = counter
	s.SourceCounts[source]++
}

// Vector returns the live personality vector, nil before the assessment.
func (s *Session) Vector() personality.Vector {
	if !s.Tracker.Seeded() {
		return nil
	}
	return s.Tracker.Vector()
}

// Question finds a loaded content question by ID.
func (s *Session) Question(id string) (content.Question, bool) {
	for _, q := range s.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return content.Question{}, false
}

// #endregion triggers

// #region view
// MeterView is the unrounded meter triple.
type MeterView struct {
	Fear        float64 `json:"fear"`
	Thoughts    float64 `json:"thoughts"`
	Frustration float64 `json:"frustration"`
}

// View is the JSON snapshot of a session.
type View struct {
	UserID               string             `json:"user_id"`
	SessionID            string             `json:"session_id"`
	FearMeter            float64            `json:"fear_meter"`
	ThoughtMeter         float64            `json:"thought_meter"`
	FrustrationMeter     float64            `json:"frustration_meter"`
	CurrentQuestion      int                `json:"current_question"`
	TotalQuestions       int                `json:"total_questions"`
	Timestamp            time.Time          `json:"timestamp"`
	Difficulty           float64            `json:"difficulty"`
	PersonalityVector    personality.Vector `json:"personality_vector"`
	QuestionPool         string             `json:"question_pool"`
	TriggerFrequency     int                `json:"trigger_frequency"`
	CurrentTraits        []string           `json:"current_traits"`
	PersonalityCompleted bool               `json:"personality_completed"`
	TriggerSourceCounts  map[Source]int     `json:"trigger_source_counts"`
	PopupCounter         int                `json:"popup_counter"`
	Meters               MeterView          `json:"meters"`
	TriggersServed       int                `json:"triggers_served"`
}

// View snapshots the session for callers outside the lock.
func (s *Session) View() View {
	counts := make(map[Source]int, len(s.SourceCounts))
	for k, v := range s.SourceCounts {
		counts[k] = v
	}
	traits := s.Tracker.Traits()
	if traits == nil {
		traits = []string{}
	}
	return View{
		UserID:               s.UserID,
		SessionID:            s.ID,
		FearMeter:            personality.Round(s.Meters.Fear, 3),
		ThoughtMeter:         personality.Round(s.Meters.Thoughts, 3),
		FrustrationMeter:     personality.Round(s.Meters.Frustration, 3),
		CurrentQuestion:      s.QuestionIndex,
		TotalQuestions:       s.TotalQuestions,
		Timestamp:            s.StartedAt,
		Difficulty:           s.CurrentDifficulty,
		PersonalityVector:    s.Vector(),
		QuestionPool:         s.QuestionPool,
		TriggerFrequency:     s.TriggerFrequency,
		CurrentTraits:        traits,
		PersonalityCompleted: s.AssessmentCompleted,
		TriggerSourceCounts:  counts,
		PopupCounter:         s.PopupCounter,
		Meters:               MeterView{Fear: s.Meters.Fear, Thoughts: s.Meters.Thoughts, Frustration: s.Meters.Frustration},
		TriggersServed:       len(s.Responses),
	}
}

// #endregion view
