package replay

import (
	"time"

	"github.com/danielpatrickdp/stress-dost/internal/difficulty"
	"github.com/danielpatrickdp/stress-dost/internal/meter"
	"github.com/danielpatrickdp/stress-dost/internal/personality"
	"github.com/danielpatrickdp/stress-dost/internal/state"
	"github.com/danielpatrickdp/stress-dost/internal/tracker"
	"github.com/danielpatrickdp/stress-dost/internal/trigger"
	"github.com/danielpatrickdp/stress-dost/internal/update"
)

// #region types
// Interaction is one recorded trigger response together with the main
// question outcome it was paired with.
type Interaction struct {
	TurnID         string
	Text           string
	Type           trigger.Type
	Category       trigger.Category
	Value          float64
	ReactionTime   float64
	SelectedOption *int
	AnswerCorrect  bool
	QuestionTime   float64
}

// ReplayConfig bundles the meter, difficulty and tracker configs for a run.
type ReplayConfig struct {
	Calibration meter.Calibration
	Engine      meter.EngineConfig
	Difficulty  difficulty.Config
	Tracker     tracker.Config
}

// DefaultReplayConfig returns the production setup.
func DefaultReplayConfig() ReplayConfig {
	return ReplayConfig{
		Calibration: meter.DefaultCalibration(),
		Engine:      meter.DefaultEngineConfig(),
		Difficulty:  difficulty.DefaultConfig(),
		Tracker:     tracker.DefaultConfig(),
	}
}

// ReplayResult captures the outcome of replaying one interaction.
type ReplayResult struct {
	TurnID string
	Action string // "scored" | "rejected"
	Reason string

	Analysis   meter.Analysis
	Meters     meter.Meters
	Difficulty difficulty.Adjustment

	// VectorAction is "" when the tracker did not recompute on this turn.
	VectorAction string
	VersionID    string
}

// ReplaySummary provides aggregate stats from a replay run.
type ReplaySummary struct {
	TotalTurns      int
	Scored          int
	Rejected        int
	VectorCommits   int
	FinalMeters     meter.Meters
	FinalDifficulty float64
	FinalVector     personality.Vector
}

// #endregion types

// #region replay
// Replay scores each interaction the way a live session does: meter engine,
// then difficulty window, then the personality tracker when a start vector
// is given. Rejected responses leave every component untouched. Runs
// entirely in memory with a fixed clock.
func Replay(start personality.Vector, interactions []Interaction, config ReplayConfig) ([]ReplayResult, ReplaySummary) {
	epoch := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := func() time.Time { return epoch }

	engine := meter.NewEngine(config.Calibration, config.Engine)
	controller := difficulty.NewController(config.Difficulty)
	track := tracker.New("replay", config.Tracker).WithClock(now)
	if len(start) > 0 {
		track.Seed(state.VectorRecord{VersionID: "replay-start", SessionID: "replay", Vector: start, CreatedAt: epoch})
	}

	var meters meter.State
	adj := difficulty.Adjustment{Action: "hold", Multiplier: 1.0}
	results := make([]ReplayResult, 0, len(interactions))
	summary := ReplaySummary{TotalTurns: len(interactions)}

	for _, in := range interactions {
		resp := meter.TriggerResponse{
			Text:                in.Text,
			Type:                in.Type,
			Category:            in.Category,
			Value:               in.Value,
			ReactionTime:        in.ReactionTime,
			SelectedOption:      in.SelectedOption,
			MainQuestionCorrect: in.AnswerCorrect,
			MainQuestionTime:    in.QuestionTime,
			Timestamp:           epoch,
			RepeatCount:         engine.RepeatCount(in.Text),
		}
		next, analysis, err := engine.Process(resp, meters)
		if err != nil {
			summary.Rejected++
			results = append(results, ReplayResult{
				TurnID:     in.TurnID,
				Action:     "rejected",
				Reason:     err.Error(),
				Meters:     snapshot(meters),
				Difficulty: adj,
				VersionID:  track.Current().VersionID,
			})
			continue
		}
		meters = next
		adj = controller.Add(in.AnswerCorrect, in.QuestionTime)
		summary.Scored++

		r := ReplayResult{
			TurnID:     in.TurnID,
			Action:     "scored",
			Reason:     adj.Reason,
			Analysis:   analysis,
			Meters:     analysis.MetersAfter,
			Difficulty: adj,
		}
		if track.Seeded() {
			qt := in.QuestionTime
			if res := track.Observe(update.Record{Correct: in.AnswerCorrect, ResponseTime: &qt, Category: in.Category, Timestamp: epoch}); res != nil {
				r.VectorAction = res.Decision.Action
				if res.Decision.Action == "commit" {
					summary.VectorCommits++
				}
			}
		}
		r.VersionID = track.Current().VersionID
		results = append(results, r)
	}

	summary.FinalMeters = snapshot(meters)
	summary.FinalDifficulty = adj.Multiplier
	summary.FinalVector = track.Vector()
	return results, summary
}

func snapshot(s meter.State) meter.Meters {
	return meter.Meters{
		Fear:        personality.Round(s.Fear, 3),
		Thoughts:    personality.Round(s.Thoughts, 3),
		Frustration: personality.Round(s.Frustration, 3),
	}
}

// #endregion replay
