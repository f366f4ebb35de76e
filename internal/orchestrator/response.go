package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/danielpatrickdp/stress-dost/internal/logging"
	"github.com/danielpatrickdp/stress-dost/internal/meter"
	"github.com/danielpatrickdp/stress-dost/internal/session"
	"github.com/danielpatrickdp/stress-dost/internal/trigger"
	"github.com/danielpatrickdp/stress-dost/internal/update"
)

const defaultTriggerValue = 0.5

// #region submit-response

// SubmitResponse scores one answered popup: the meters and the difficulty
// move, the response is recorded and logged, and the personality tracker
// sees the main question outcome.
func (o *Orchestrator) SubmitResponse(ctx context.Context, in ResponseInput) (ResponseOutcome, error) {
	in = withResponseDefaults(in)

	var (
		out     ResponseOutcome
		row     logging.ResponseRow
		updated *update.UpdateResult
	)
	err := o.sessions.With(in.SessionID, func(s *session.Session) error {
		now := s.Now()
		questionTime := questionTime(in, s)

		resp := meter.TriggerResponse{
			Text:                in.Text,
			Type:                in.Type,
			Category:            in.Category,
			Value:               *in.Value,
			ReactionTime:        in.TimeTaken,
			SelectedOption:      in.SelectedOption,
			MainQuestionCorrect: in.AnswerCorrect,
			MainQuestionTime:    questionTime,
			Timestamp:           now,
			RepeatCount:         s.Engine.RepeatCount(in.Text),
		}
		next, analysis, err := s.Engine.Process(resp, s.Meters)
		if err != nil {
			return fmt.Errorf("submit response: %w", err)
		}
		s.Meters = next

		adj := s.Difficulty.Add(in.AnswerCorrect, questionTime)
		s.CurrentDifficulty = adj.Multiplier

		s.Responses = append(s.Responses, session.ResponseRecord{
			QuestionIndex:  s.QuestionIndex,
			TriggerText:    in.Text,
			TriggerType:    in.Type,
			SelectedOption: in.SelectedOption,
			TimeTaken:      in.TimeTaken,
			Correct:        in.AnswerCorrect,
			Analysis:       analysis,
			Category:       in.Category,
			Timestamp:      now,
		})

		row = logging.ResponseRow{
			LoggedAt:         now,
			UserID:           s.UserID,
			SessionID:        s.ID,
			QuestionIndex:    s.QuestionIndex,
			TriggerText:      logging.TriggerLogText(in.Text, in.Options),
			TriggerType:      string(in.Type),
			SelectedOption:   optionLabel(in.SelectedOption),
			TimeTaken:        in.TimeTaken,
			Correct:          in.AnswerCorrect,
			FearMeter:        analysis.MetersAfter.Fear,
			ThoughtMeter:     analysis.MetersAfter.Thoughts,
			FrustrationMeter: analysis.MetersAfter.Frustration,
		}

		if s.Tracker.Seeded() {
			updated = s.Tracker.Observe(update.Record{
				Correct:      in.AnswerCorrect,
				ResponseTime: &questionTime,
				Category:     in.Category,
				Timestamp:    now,
			})
			if updated != nil {
				o.recordUpdate(s, updated)
			}
		}

		out = ResponseOutcome{
			Status:            "response_recorded",
			Analysis:          analysis,
			Meters:            session.MeterView{Fear: next.Fear, Thoughts: next.Thoughts, Frustration: next.Frustration},
			CurrentDifficulty: s.CurrentDifficulty,
			Adjustment:        adj,
			ThresholdReached:  next.Max() >= o.config.MeterThreshold,
			VectorUpdated:     updated != nil && updated.Decision.Action == "commit",
			Session:           s.View(),
		}
		return nil
	})
	if err != nil {
		return ResponseOutcome{}, err
	}

	o.metrics.ObserveImpact(string(in.Category), out.Analysis.FinalImpact)
	o.writeRow(ctx, row)
	o.publish(in.SessionID, "meter_update", out.Meters)
	if out.ThresholdReached {
		o.logger.Info("meter threshold reached",
			zap.String("session_id", in.SessionID),
			zap.Float64("fear", out.Meters.Fear),
			zap.Float64("thoughts", out.Meters.Thoughts),
			zap.Float64("frustration", out.Meters.Frustration),
		)
	}
	return out, nil
}

// #endregion

// #region helpers

func withResponseDefaults(in ResponseInput) ResponseInput {
	in.Text = strings.TrimSpace(in.Text)
	if in.Type == "" {
		in.Type = trigger.TypeSarcasm
	}
	if in.Category == "" {
		in.Category = trigger.CategoryThoughts
	}
	if in.Value == nil {
		v := defaultTriggerValue
		in.Value = &v
	}
	return in
}

// questionTime prefers the explicit time, then the time since the trigger
// was requested, then the popup reaction time.
func questionTime(in ResponseInput, s *session.Session) float64 {
	if in.QuestionTime != nil && *in.QuestionTime >= 0 {
		return *in.QuestionTime
	}
	if !s.QuestionStart.IsZero() {
		if d := s.Now().Sub(s.QuestionStart).Seconds(); d >= 0 {
			return d
		}
	}
	if in.TimeTaken > 0 {
		return in.TimeTaken
	}
	return 0
}

func optionLabel(opt *int) string {
	if opt == nil {
		return ""
	}
	return strconv.Itoa(*opt)
}

// writeRow is best effort; a sink failure never fails the response.
func (o *Orchestrator) writeRow(ctx context.Context, row logging.ResponseRow) {
	if o.sink == nil {
		return
	}
	if err := o.sink.Write(ctx, row); err != nil {
		o.metrics.IncSinkFailure()
		o.logger.Warn("response log write failed", zap.String("session_id", row.SessionID), zap.Error(err))
	}
}

// recordUpdate persists a recomputed vector and its provenance.
func (o *Orchestrator) recordUpdate(s *session.Session, res *update.UpdateResult) {
	o.logger.Debug("personality recomputed",
		zap.String("session_id", s.ID),
		zap.String("decision", res.Decision.Action),
		zap.String("reason", res.Decision.Reason),
	)
	if o.vectors == nil {
		return
	}

	adjustments := make(map[string]float64, len(res.Metrics.Adjustments))
	for _, a := range res.Metrics.Adjustments {
		adjustments[a.Dimension] = a.Delta
	}
	rec := logging.UpdateRecord{
		Window:          res.Metrics.Window,
		Accuracy:        res.Metrics.Accuracy,
		AvgResponseTime: res.Metrics.AvgResponseTime,
		Adjustments:     adjustments,
		DeltaNorm:       res.Metrics.DeltaNorm,
		Traits:          res.NewState.Traits,
		Decision:        res.Decision.Action,
		Reason:          res.Decision.Reason,
	}

	versionID := res.NewState.ParentID
	if res.Decision.Action == "commit" {
		next := res.NewState
		if b, err := json.Marshal(rec); err == nil {
			next.MetricsJSON = string(b)
		}
		if err := o.vectors.CommitVersion(next); err != nil {
			o.logger.Warn("commit vector failed", zap.String("session_id", s.ID), zap.Error(err))
			return
		}
		versionID = next.VersionID
	}
	if versionID == "" {
		versionID = s.Tracker.Current().VersionID
	}

	err := logging.LogUpdate(o.vectors.DB(), logging.ProvenanceEntry{
		VersionID:   versionID,
		SessionID:   s.ID,
		TriggerType: "performance",
		CreatedAt:   s.Now(),
	}, rec)
	if err != nil {
		o.logger.Warn("provenance write failed", zap.String("session_id", s.ID), zap.Error(err))
	}
}

// #endregion
