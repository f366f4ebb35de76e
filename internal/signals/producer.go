package signals

import (
	"math"

	"github.com/danielpatrickdp/stress-dost/internal/meter"
	"github.com/danielpatrickdp/stress-dost/internal/personality"
	"github.com/danielpatrickdp/stress-dost/internal/trigger"
)

// #region producer

// Producer builds generation context from a session's meters and history.
type Producer struct {
	config ProducerConfig
}

// NewProducer creates a Producer.
func NewProducer(config ProducerConfig) *Producer {
	return &Producer{config: config}
}

// #endregion producer

// #region produce

// Produce computes the full context. A nil History reads as an empty session
// with the default calibration.
func (p *Producer) Produce(input ProduceInput) MeterContext {
	var responses []meter.TriggerResponse
	calibration := meter.DefaultCalibration()
	shown := 0
	var avoid []string
	if input.History != nil {
		responses = input.History.Responses()
		calibration = input.History.Calibration()
		shown = input.History.DistinctTriggers()
		avoid = input.History.RecentTriggers(p.config.AvoidRepeats)
	}
	if avoid == nil {
		avoid = []string{}
	}

	accuracy, avgTime := performance(responses)
	dominant, dominantValue := input.State.Dominant()

	reaction := "struggling"
	if accuracy > p.config.ResilientAbove {
		reaction = "resilient"
	}

	nextType := trigger.TypeSarcasm
	if len(responses)%2 == 0 {
		nextType = trigger.TypeOptionBased
	}

	return MeterContext{
		StudentProfile: StudentProfile{
			BaselineAnxiety: anxietyBand(calibration.AnxietyLevel),
			TimeProcessing:  calibration.ProcessingSpeed,
			ReactionStyle:   reaction,
		},
		EmotionalState: EmotionalState{
			Fear:           personality.Round(input.State.Fear, 3),
			Thoughts:       personality.Round(input.State.Thoughts, 3),
			Frustration:    personality.Round(input.State.Frustration, 3),
			DominantStress: dominant,
			Severity:       input.State.Severity(),
			Trend:          p.trend(input.State, len(responses)),
		},
		RecentPerformance: RecentPerformance{
			LastAnswersCorrect: lastCorrect(responses, p.config.RecentAnswers),
			Accuracy:           personality.Round(accuracy, 2),
			AvgResponseTime:    personality.Round(avgTime, 2),
		},
		TriggerHistory: TriggerHistory{
			TriggersShown:         shown,
			MostEffectiveCategory: dominant,
			SensitizationPattern:  "moderate",
		},
		NextTrigger: NextTriggerRequest{
			Category:     dominant,
			Intensity:    personality.Round(math.Min(1.0, dominantValue*input.Difficulty), 2),
			Type:         nextType,
			AvoidRepeats: avoid,
		},
	}
}

// #endregion produce

// #region trend

// trend reads the fear meter once enough responses exist.
func (p *Producer) trend(s meter.State, responses int) string {
	if responses < p.config.MinTrendResponse {
		return "unknown"
	}
	switch {
	case s.Fear > p.config.RisingFear:
		return "increasing"
	case s.Fear < p.config.FallingFear:
		return "decreasing"
	default:
		return "stable"
	}
}

// #endregion trend

// #region helpers

func performance(responses []meter.TriggerResponse) (accuracy, avgTime float64) {
	if len(responses) == 0 {
		return 0, 0
	}
	correct := 0
	var total float64
	for _, r := range responses {
		if r.MainQuestionCorrect {
			correct++
		}
		total += r.MainQuestionTime
	}
	n := float64(len(responses))
	return float64(correct) / n, total / n
}

func lastCorrect(responses []meter.TriggerResponse, n int) []bool {
	if len(responses) > n {
		responses = responses[len(responses)-n:]
	}
	out := make([]bool, len(responses))
	for i, r := range responses {
		out[i] = r.MainQuestionCorrect
	}
	return out
}

func anxietyBand(level string) string {
	switch level {
	case "moderate", "low":
		return level
	default:
		return "high"
	}
}

// #endregion helpers
