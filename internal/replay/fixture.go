package replay

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"gopkg.in/yaml.v3"

	"github.com/danielpatrickdp/stress-dost/internal/meter"
	"github.com/danielpatrickdp/stress-dost/internal/personality"
	"github.com/danielpatrickdp/stress-dost/internal/trigger"
)

// Tolerance is the absolute margin allowed between replayed and expected values.
const Tolerance = 1e-3

// #region fixture-types

// Fixture is the top-level structure for a replay fixture, JSON or YAML.
type Fixture struct {
	Description         string                  `json:"description" yaml:"description"`
	StartVector         map[string]float64      `json:"start_vector" yaml:"start_vector"`
	Config              FixtureConfig           `json:"config" yaml:"config"`
	Interactions        []FixtureInteraction    `json:"interactions" yaml:"interactions"`
	ExpectedResults     []FixtureExpectedResult `json:"expected_results" yaml:"expected_results"`
	ExpectedFinalVector map[string]float64      `json:"expected_final_vector" yaml:"expected_final_vector"`
}

// FixtureInteraction is one recorded trigger response.
type FixtureInteraction struct {
	TurnID         string  `json:"turn_id" yaml:"turn_id"`
	Text           string  `json:"trigger_text" yaml:"trigger_text"`
	Type           string  `json:"trigger_type" yaml:"trigger_type"`
	Category       string  `json:"label" yaml:"label"`
	Value          float64 `json:"trigger_value" yaml:"trigger_value"`
	TimeTaken      float64 `json:"time_taken" yaml:"time_taken"`
	SelectedOption *int    `json:"selected_option" yaml:"selected_option"`
	AnswerCorrect  bool    `json:"answer_correct" yaml:"answer_correct"`
	QuestionTime   float64 `json:"question_time" yaml:"question_time"`
}

// FixtureMeters are the rounded meters expected after a turn.
type FixtureMeters struct {
	Fear        float64 `json:"fear" yaml:"fear"`
	Thoughts    float64 `json:"thoughts" yaml:"thoughts"`
	Frustration float64 `json:"frustration" yaml:"frustration"`
}

// FixtureExpectedResult captures what one turn should produce.
type FixtureExpectedResult struct {
	TurnID           string        `json:"turn_id" yaml:"turn_id"`
	Action           string        `json:"action" yaml:"action"`
	Meters           FixtureMeters `json:"meters" yaml:"meters"`
	DifficultyAction string        `json:"difficulty_action" yaml:"difficulty_action"`
	Multiplier       float64       `json:"multiplier" yaml:"multiplier"`
	VectorAction     string        `json:"vector_action" yaml:"vector_action"`
}

// FixtureConfig overrides the production defaults. Zero values keep them.
type FixtureConfig struct {
	BaselineReactionTime float64 `json:"baseline_reaction_time" yaml:"baseline_reaction_time"`
	ProcessingSpeed      string  `json:"processing_speed" yaml:"processing_speed"`
	DecayFactor          float64 `json:"decay_factor" yaml:"decay_factor"`
	DifficultyWindow     int     `json:"difficulty_window" yaml:"difficulty_window"`
	UpdateEvery          int     `json:"update_every" yaml:"update_every"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads a fixture file. .yaml and .yml files are decoded as
// YAML, everything else as JSON.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &f)
	default:
		err = json.Unmarshal(data, &f)
	}
	if err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return &f, nil
}

// ToReplayConfig applies the overrides to DefaultReplayConfig.
func (fc *FixtureConfig) ToReplayConfig() (ReplayConfig, error) {
	cfg := DefaultReplayConfig()
	if fc.BaselineReactionTime > 0 {
		cfg.Calibration.BaselineReactionTime = fc.BaselineReactionTime
	}
	switch meter.ProcessingSpeed(fc.ProcessingSpeed) {
	case "":
	case meter.SpeedFast, meter.SpeedNormal, meter.SpeedSlow:
		cfg.Calibration.ProcessingSpeed = meter.ProcessingSpeed(fc.ProcessingSpeed)
	default:
		return cfg, fmt.Errorf("unknown processing_speed %q", fc.ProcessingSpeed)
	}
	if fc.DecayFactor > 0 {
		cfg.Engine.DecayFactor = fc.DecayFactor
	}
	if fc.DifficultyWindow > 0 {
		cfg.Difficulty.WindowSize = fc.DifficultyWindow
	}
	if fc.UpdateEvery > 0 {
		cfg.Tracker.UpdateEvery = fc.UpdateEvery
		// Recomputes are driven by the counter only; the replay clock never advances.
		cfg.Tracker.UpdateInterval = 24 * time.Hour
	}
	return cfg, nil
}

// ToInteraction converts a FixtureInteraction to a domain Interaction.
// Type and label are passed through unchecked so invalid recordings replay
// as rejections.
func (fi *FixtureInteraction) ToInteraction() Interaction {
	return Interaction{
		TurnID:         fi.TurnID,
		Text:           fi.Text,
		Type:           trigger.Type(fi.Type),
		Category:       trigger.Category(fi.Category),
		Value:          fi.Value,
		ReactionTime:   fi.TimeTaken,
		SelectedOption: fi.SelectedOption,
		AnswerCorrect:  fi.AnswerCorrect,
		QuestionTime:   fi.QuestionTime,
	}
}

// Interactions converts every recorded turn.
func (f *Fixture) ToInteractions() []Interaction {
	out := make([]Interaction, len(f.Interactions))
	for i := range f.Interactions {
		out[i] = f.Interactions[i].ToInteraction()
	}
	return out
}

// Start parses the start vector. An empty vector leaves the tracker unseeded.
func (f *Fixture) Start() (personality.Vector, error) {
	return parseVector(f.StartVector)
}

func parseVector(raw map[string]float64) (personality.Vector, error) {
	v := personality.Vector{}
	for name, x := range raw {
		d, err := personality.ParseDimension(name)
		if err != nil {
			return nil, err
		}
		v.Set(d, x)
	}
	return v, nil
}

// #endregion fixture-loader

// #region compare

// Mismatch is one difference between a replay and its fixture.
type Mismatch struct {
	TurnID string
	Field  string
	Diff   string
}

func (m Mismatch) String() string {
	if m.TurnID == "" {
		return fmt.Sprintf("%s: %s", m.Field, m.Diff)
	}
	return fmt.Sprintf("%s %s: %s", m.TurnID, m.Field, m.Diff)
}

var approx = cmpopts.EquateApprox(0, Tolerance)

// Compare checks results against the fixture's expectations. An empty
// expected vector_action means the tracker must not have recomputed.
func Compare(f *Fixture, results []ReplayResult, summary ReplaySummary) []Mismatch {
	var out []Mismatch
	if len(results) != len(f.ExpectedResults) {
		out = append(out, Mismatch{
			Field: "results",
			Diff:  fmt.Sprintf("expected %d results, got %d", len(f.ExpectedResults), len(results)),
		})
	}
	n := min(len(results), len(f.ExpectedResults))
	for i := 0; i < n; i++ {
		want, got := f.ExpectedResults[i], results[i]
		add := func(field, diff string) {
			out = append(out, Mismatch{TurnID: want.TurnID, Field: field, Diff: diff})
		}
		if got.TurnID != want.TurnID {
			add("turn_id", fmt.Sprintf("expected %s, got %s", want.TurnID, got.TurnID))
		}
		if got.Action != want.Action {
			add("action", fmt.Sprintf("expected %s, got %s (reason: %s)", want.Action, got.Action, got.Reason))
		}
		gotMeters := FixtureMeters{Fear: got.Meters.Fear, Thoughts: got.Meters.Thoughts, Frustration: got.Meters.Frustration}
		if d := cmp.Diff(want.Meters, gotMeters, approx); d != "" {
			add("meters", d)
		}
		if want.DifficultyAction != "" && got.Difficulty.Action != want.DifficultyAction {
			add("difficulty_action", fmt.Sprintf("expected %s, got %s", want.DifficultyAction, got.Difficulty.Action))
		}
		if want.Multiplier != 0 && !cmp.Equal(want.Multiplier, got.Difficulty.Multiplier, approx) {
			add("multiplier", fmt.Sprintf("expected %.2f, got %.2f", want.Multiplier, got.Difficulty.Multiplier))
		}
		if got.VectorAction != want.VectorAction {
			add("vector_action", fmt.Sprintf("expected %q, got %q", want.VectorAction, got.VectorAction))
		}
	}

	if len(f.ExpectedFinalVector) > 0 {
		want, err := parseVector(f.ExpectedFinalVector)
		if err != nil {
			out = append(out, Mismatch{Field: "expected_final_vector", Diff: err.Error()})
			return out
		}
		got := personality.Vector{}
		for d := range want {
			got.Set(d, summary.FinalVector.Get(d))
		}
		if d := cmp.Diff(want, got, approx); d != "" {
			out = append(out, Mismatch{Field: "final_vector", Diff: d})
		}
	}
	return out
}

// #endregion compare
