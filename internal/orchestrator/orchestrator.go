package orchestrator

// #region imports
import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/stress-dost/internal/apperr"
	"github.com/danielpatrickdp/stress-dost/internal/codec"
	"github.com/danielpatrickdp/stress-dost/internal/content"
	"github.com/danielpatrickdp/stress-dost/internal/dataset"
	"github.com/danielpatrickdp/stress-dost/internal/logging"
	"github.com/danielpatrickdp/stress-dost/internal/metrics"
	"github.com/danielpatrickdp/stress-dost/internal/personality"
	"github.com/danielpatrickdp/stress-dost/internal/profiler"
	"github.com/danielpatrickdp/stress-dost/internal/session"
	"github.com/danielpatrickdp/stress-dost/internal/signals"
	"github.com/danielpatrickdp/stress-dost/internal/state"
	"github.com/danielpatrickdp/stress-dost/internal/trigger"
)

// #endregion

// #region notifier

// Event is pushed to live listeners of a session.
type Event struct {
	Type      string `json:"type"` // "trigger_delivered" | "meter_update" | "session_ended"
	SessionID string `json:"session_id"`
	Data      any    `json:"data"`
}

// Notifier receives session events. The websocket hub implements it.
type Notifier interface {
	Publish(sessionID string, event Event)
}

// #endregion

// #region orchestrator-struct

// Deps are the collaborators an Orchestrator drives. Sessions, Assessor and
// Dataset are required; the rest are optional.
type Deps struct {
	Sessions    *session.Store
	Assessor    *profiler.Assessor
	Dataset     *dataset.Dataset
	Generator   codec.Generator
	Vectors     *state.Store
	Sink        logging.Sink
	Fetcher     *content.Fetcher
	QuestionIDs []string
	Producer    *signals.Producer
	Metrics     *metrics.Metrics
	Notifier    Notifier
	Logger      *zap.Logger
}

// Orchestrator is the top-level coordinator for trigger delivery, response
// scoring, assessment integration and session reports.
type Orchestrator struct {
	config    Config
	sessions  *session.Store
	assessor  *profiler.Assessor
	dataset   *dataset.Dataset
	generator codec.Generator
	vectors   *state.Store
	sink      logging.Sink
	fetcher   *content.Fetcher
	ids       []string
	producer  *signals.Producer
	metrics   *metrics.Metrics
	notifier  Notifier
	retry     *RetryEngine
	logger    *zap.Logger
}

// #endregion

// #region constructor

// New creates a fully wired orchestrator.
func New(config Config, deps Deps) (*Orchestrator, error) {
	if deps.Sessions == nil || deps.Assessor == nil || deps.Dataset == nil {
		return nil, errors.New("new orchestrator: sessions, assessor and dataset are required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	producer := deps.Producer
	if producer == nil {
		producer = signals.NewProducer(signals.DefaultProducerConfig())
	}
	return &Orchestrator{
		config:    config,
		sessions:  deps.Sessions,
		assessor:  deps.Assessor,
		dataset:   deps.Dataset,
		generator: deps.Generator,
		vectors:   deps.Vectors,
		sink:      deps.Sink,
		fetcher:   deps.Fetcher,
		ids:       deps.QuestionIDs,
		producer:  producer,
		metrics:   deps.Metrics,
		notifier:  deps.Notifier,
		retry:     NewRetryEngine(config.GenerateRetries),
		logger:    logger.Named("orch"),
	}, nil
}

// #endregion

// #region accessors

// Config returns the orchestration constants.
func (o *Orchestrator) Config() Config { return o.config }

// GeneratorReady reports whether generated triggers can be requested.
func (o *Orchestrator) GeneratorReady() bool {
	return o.config.Enabled && o.generator != nil
}

// ContentReady reports whether main questions can be loaded.
func (o *Orchestrator) ContentReady() bool {
	return o.fetcher != nil && len(o.ids) > 0
}

// SinkReady reports whether response rows are persisted anywhere.
func (o *Orchestrator) SinkReady() bool { return o.sink != nil }

// ActiveSessions is the number of live sessions.
func (o *Orchestrator) ActiveSessions() int { return o.sessions.Len() }

// PersonalityQuestions returns the quiz without scores.
func (o *Orchestrator) PersonalityQuestions() []profiler.DisplayQuestion {
	return o.assessor.Questions()
}

func (o *Orchestrator) publish(sessionID, typ string, data any) {
	if o.notifier == nil {
		return
	}
	o.notifier.Publish(sessionID, Event{Type: typ, SessionID: sessionID, Data: data})
}

// #endregion

// #region session

// StartSession registers a new session and returns its snapshot.
func (o *Orchestrator) StartSession(userID string, totalQuestions int, category trigger.Category) (session.View, error) {
	sess, err := o.sessions.Create(userID, totalQuestions, category)
	if err != nil {
		return session.View{}, fmt.Errorf("start session: %w", err)
	}
	var view session.View
	_ = o.sessions.With(sess.ID, func(s *session.Session) error {
		view = s.View()
		return nil
	})
	o.metrics.SetActiveSessions(o.sessions.Len())
	o.logger.Info("session started",
		zap.String("session_id", sess.ID),
		zap.String("user_id", userID),
		zap.String("category", string(sess.TestCategory)),
	)
	return view, nil
}

// Session returns the snapshot of a live session.
func (o *Orchestrator) Session(id string) (session.View, error) {
	var view session.View
	err := o.sessions.With(id, func(s *session.Session) error {
		view = s.View()
		return nil
	})
	return view, err
}

// EndSession builds the closing report and destroys the session.
func (o *Orchestrator) EndSession(id string) (Report, error) {
	var report Report
	err := o.sessions.With(id, func(s *session.Session) error {
		now := s.Now()
		counts := make(map[session.Source]int, len(s.SourceCounts))
		for k, v := range s.SourceCounts {
			counts[k] = v
		}
		vector := s.Vector()
		if vector == nil {
			vector = personality.Vector{}
		}
		responses := append([]session.ResponseRecord{}, s.Responses...)
		report = Report{
			SessionID:         s.ID,
			UserID:            s.UserID,
			PersonalityVector: vector,
			ProfileName:       profiler.ProfileName(vector),
			Duration:          now.Sub(s.StartedAt).Seconds(),
			FinalMeters: FinalMeters{
				Fear:        personality.Round(s.Meters.Fear, 3),
				Thoughts:    personality.Round(s.Meters.Thoughts, 3),
				Frustration: personality.Round(s.Meters.Frustration, 3),
				Average:     personality.Round(s.Meters.Average(), 3),
			},
			QuestionsAttempted: s.QuestionIndex,
			TriggersShown:      len(s.Responses),
			FinalDifficulty:    personality.Round(s.CurrentDifficulty, 2),
			SourceCounts:       counts,
			Responses:          responses,
			EndedAt:            now,
		}
		return nil
	})
	if err != nil {
		return Report{}, err
	}
	if _, err := o.sessions.Destroy(id); err != nil && !apperr.Is(err, apperr.KindNotFound) {
		return Report{}, fmt.Errorf("end session: %w", err)
	}
	o.metrics.SetActiveSessions(o.sessions.Len())
	o.publish(id, "session_ended", report.FinalMeters)
	o.logger.Info("session ended",
		zap.String("session_id", id),
		zap.Int("triggers_shown", report.TriggersShown),
		zap.Float64("final_difficulty", report.FinalDifficulty),
	)
	return report, nil
}

// #endregion

// #region assessment

// SubmitAssessment scores the quiz, applies its recommendations to the
// session and seeds the personality tracker.
func (o *Orchestrator) SubmitAssessment(sessionID string, responses []profiler.Response) (AssessmentOutcome, error) {
	if len(responses) == 0 {
		return AssessmentOutcome{}, apperr.Validation("no personality responses submitted")
	}
	result, err := o.assessor.Analyze(responses)
	if err != nil {
		return AssessmentOutcome{}, fmt.Errorf("submit assessment: %w", err)
	}

	var out AssessmentOutcome
	err = o.sessions.With(sessionID, func(s *session.Session) error {
		rec := state.VectorRecord{
			VersionID: uuid.NewString(),
			SessionID: s.ID,
			Vector:    result.Vector.Clone(),
			Traits:    append([]string(nil), result.Traits...),
			CreatedAt: s.Now(),
		}
		if o.vectors != nil {
			stored, err := o.vectors.CreateInitial(s.ID, result.Vector, result.Traits)
			if err != nil {
				o.logger.Warn("store initial vector failed", zap.String("session_id", s.ID), zap.Error(err))
			} else {
				rec = stored
				o.logProvenance(logging.ProvenanceEntry{
					VersionID:   rec.VersionID,
					SessionID:   s.ID,
					TriggerType: "assessment",
					Decision:    "commit",
					Reason:      result.Summary,
				})
			}
		}
		s.Tracker.Seed(rec)

		recs := result.Recommendations
		s.Assessment = &result
		s.CurrentDifficulty = recs.QuestionDifficulty.Value
		s.QuestionPool = recs.QuestionPool.Value
		s.TriggerFrequency = recs.TriggerFrequency.Value
		s.TriggerTypes = append([]string(nil), recs.TriggerTypes...)
		s.AssessmentCompleted = true

		out = AssessmentOutcome{
			Result:           result,
			Vector:           s.Vector(),
			Traits:           s.Tracker.Traits(),
			Difficulty:       s.CurrentDifficulty,
			QuestionPool:     s.QuestionPool,
			TriggerFrequency: s.TriggerFrequency,
			ProfileName:      profiler.ProfileName(result.Vector),
			VersionID:        rec.VersionID,
		}
		return nil
	})
	if err != nil {
		return AssessmentOutcome{}, err
	}
	o.logger.Info("assessment integrated",
		zap.String("session_id", sessionID),
		zap.Strings("traits", out.Traits),
		zap.Float64("difficulty", out.Difficulty),
	)
	return out, nil
}

func (o *Orchestrator) logProvenance(entry logging.ProvenanceEntry) {
	if o.vectors == nil {
		return
	}
	if err := logging.LogDecision(o.vectors.DB(), entry); err != nil {
		o.logger.Warn("provenance write failed", zap.String("session_id", entry.SessionID), zap.Error(err))
	}
}

// #endregion

// #region questions

// LoadQuestions samples n content question IDs for the session, fetches and
// formats them, and stores them on the session. Failed fetches are skipped.
func (o *Orchestrator) LoadQuestions(ctx context.Context, sessionID string, n int) ([]content.Question, error) {
	if !o.ContentReady() {
		return nil, apperr.ContentFetch("question source not configured", nil)
	}
	if n <= 0 {
		n = o.config.QuestionCount
	}

	var ids []string
	err := o.sessions.With(sessionID, func(s *session.Session) error {
		if !s.AssessmentCompleted {
			return ErrAssessmentPending
		}
		ids = content.SampleIDs(o.ids, n, s.Rand)
		return nil
	})
	if err != nil {
		return nil, err
	}

	questions, err := o.fetcher.LoadFormatted(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	if len(questions) == 0 {
		return nil, apperr.ContentFetch("no questions could be loaded", nil)
	}

	err = o.sessions.With(sessionID, func(s *session.Session) error {
		v := s.Vector()
		for i := range questions {
			questions[i].Affinity = profiler.QuestionAffinity(v, questionProperties(questions[i]))
		}
		s.Questions = questions
		s.TotalQuestions = len(questions)
		return nil
	})
	if err != nil {
		return nil, err
	}
	o.logger.Info("questions loaded", zap.String("session_id", sessionID), zap.Int("count", len(questions)))
	return questions, nil
}

// questionProperties reads the demands of a content question off its
// metadata. Anything the content API does not flag stays neutral.
func questionProperties(q content.Question) profiler.QuestionProperties {
	p := profiler.NeutralQuestionProperties()
	switch strings.ToLower(q.Difficulty) {
	case "easy":
		p.Difficulty = 0.3
	case "hard", "difficult":
		p.Difficulty = 0.8
	}
	if q.Metadata.IsLengthy > 0 {
		p.TimePressure = 0.7
	}
	if q.Metadata.Trap || q.Metadata.SmartTrick {
		p.AnalyticalLoad = 0.7
	}
	if q.Metadata.IsNCERT {
		p.MemorizationRequired = 0.7
	}
	return p
}

// SubmitAnswer checks a main question answer against the loaded questions.
func (o *Orchestrator) SubmitAnswer(in AnswerInput) (AnswerResult, error) {
	var out AnswerResult
	err := o.sessions.With(in.SessionID, func(s *session.Session) error {
		q, ok := s.Question(in.QuestionID)
		if !ok {
			return apperr.NotFound("question %q is not loaded in this session", in.QuestionID)
		}
		out = AnswerResult{
			Correct:        q.IsCorrect(in.Answer),
			QuestionID:     q.ID,
			CorrectAnswer:  q.CorrectAnswer,
			CorrectAnswers: q.CorrectAnswers,
			QuestionType:   q.Type,
			TimeTaken:      in.TimeTaken,
		}
		return nil
	})
	return out, err
}

// #endregion
