package meter

import (
	"fmt"
	"math"

	"github.com/danielpatrickdp/stress-dost/internal/personality"
	"github.com/danielpatrickdp/stress-dost/internal/trigger"
)

// #region engine
// Engine applies trigger responses to a meter state. It keeps the per-session
// repeat history, so one Engine serves exactly one session.
type Engine struct {
	calibration Calibration
	config      EngineConfig
	thresholds  Thresholds

	history   map[string]int
	seenOrder []string
	responses []TriggerResponse
}

// NewEngine builds an engine for one student's calibration.
func NewEngine(calibration Calibration, config EngineConfig) *Engine {
	return &Engine{
		calibration: calibration,
		config:      config,
		thresholds:  calibration.Thresholds(),
		history:     make(map[string]int),
	}
}

// Calibration returns the calibration the engine was built with.
func (e *Engine) Calibration() Calibration { return e.calibration }

// RepeatCount is how many times text has been processed so far.
func (e *Engine) RepeatCount(text string) int { return e.history[text] }

// DistinctTriggers is the number of different trigger texts processed.
func (e *Engine) DistinctTriggers() int { return len(e.seenOrder) }

// RecentTriggers returns up to n trigger texts, most recently first-seen last.
func (e *Engine) RecentTriggers(n int) []string {
	if n > len(e.seenOrder) {
		n = len(e.seenOrder)
	}
	return append([]string(nil), e.seenOrder[len(e.seenOrder)-n:]...)
}

// Responses returns the processed responses in order.
func (e *Engine) Responses() []TriggerResponse {
	return append([]TriggerResponse(nil), e.responses...)
}

// #endregion engine

// #region categorize
// Categorize buckets a time against the personalised thresholds.
func (e *Engine) Categorize(seconds float64) TimeCategory {
	switch {
	case seconds <= e.thresholds.Quick:
		return TimeQuick
	case seconds <= e.thresholds.Slow:
		return TimeModerate
	default:
		return TimeSlow
	}
}

// #endregion categorize

// #region impact
var optionMultipliers = map[int]float64{0: 0.90, 1: 0.25, 2: 0.50}

// baseImpact scales the trigger value by its type rule.
func baseImpact(r TriggerResponse, reaction TimeCategory) float64 {
	switch r.Type {
	case trigger.TypeOptionBased:
		m := 0.50
		if r.SelectedOption != nil {
			if v, ok := optionMultipliers[*r.SelectedOption]; ok {
				m = v
			}
		}
		return r.Value * m
	case trigger.TypeSarcasm:
		var m float64
		switch {
		case reaction == TimeSlow && r.MainQuestionCorrect:
			m = 0.60
		case reaction == TimeSlow:
			m = 1.00
		case r.MainQuestionCorrect:
			m = 0.10
		default:
			m = 0.35
		}
		return r.Value * m
	case trigger.TypeMotivation:
		return r.Value
	}
	return 0
}

// repeatModifier applies sensitization (negative path) or habituation.
func (e *Engine) repeatModifier(text string, impact float64, negative bool) float64 {
	n := e.history[text]
	if n == 0 {
		return impact
	}
	if negative {
		grown := impact * (1 + e.config.SensitizationRate*float64(n))
		return math.Min(grown, impact*e.config.SensitizationCap)
	}
	shrunk := impact * math.Pow(1-e.config.HabituationRate, float64(n))
	return math.Max(shrunk, impact*e.config.HabituationFloor)
}

func performanceModifier(main TimeCategory, correct bool) float64 {
	if correct {
		if main == TimeQuick {
			return 0.85
		}
		return 1.0
	}
	switch main {
	case TimeQuick:
		return 1.10
	case TimeModerate:
		return 1.15
	default:
		return 1.20
	}
}

// #endregion impact

// #region process
// Process scores one response against the current state and returns the new
// state with its audit record. Nothing is recorded when validation fails.
func (e *Engine) Process(r TriggerResponse, current State) (State, Analysis, error) {
	if err := r.Validate(); err != nil {
		return current, Analysis{}, fmt.Errorf("process response: %w", err)
	}

	reaction := e.Categorize(r.ReactionTime)
	impact := baseImpact(r, reaction)
	negative := r.SelectedOption != nil && *r.SelectedOption == 0
	impact = e.repeatModifier(r.Text, impact, negative)
	impact *= performanceModifier(e.Categorize(r.MainQuestionTime), r.MainQuestionCorrect)

	if e.history[r.Text] == 0 {
		e.seenOrder = append(e.seenOrder, r.Text)
	}
	e.history[r.Text]++
	e.responses = append(e.responses, r)

	next := e.apply(current, r.Category, impact)

	domBefore, _ := current.Dominant()
	domAfter, _ := next.Dominant()
	return next, Analysis{
		ResponseTimeCategory: reaction,
		BaseImpact:           r.Value,
		FinalImpact:          impact,
		MetersBefore:         rounded(current),
		MetersAfter:          rounded(next),
		DominantBefore:       domBefore,
		DominantAfter:        domAfter,
		SeverityBefore:       current.Severity(),
		SeverityAfter:        next.Severity(),
		TriggerRepeatCount:   e.history[r.Text],
	}, nil
}

// apply decays every meter, adds impact to the category meter, then clamps.
func (e *Engine) apply(s State, category trigger.Category, impact float64) State {
	next := State{
		Fear:        s.Fear * e.config.DecayFactor,
		Thoughts:    s.Thoughts * e.config.DecayFactor,
		Frustration: s.Frustration * e.config.DecayFactor,
	}
	switch category {
	case trigger.CategoryFear:
		next.Fear += impact
	case trigger.CategoryThoughts:
		next.Thoughts += impact
	case trigger.CategoryFrustration:
		next.Frustration += impact
	}
	next.Fear = personality.Clamp01(next.Fear)
	next.Thoughts = personality.Clamp01(next.Thoughts)
	next.Frustration = personality.Clamp01(next.Frustration)
	return next
}

func rounded(s State) Meters {
	return Meters{
		Fear:        personality.Round(s.Fear, 3),
		Thoughts:    personality.Round(s.Thoughts, 3),
		Frustration: personality.Round(s.Frustration, 3),
	}
}

// #endregion process
