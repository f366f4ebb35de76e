package orchestrator

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	"github.com/danielpatrickdp/stress-dost/internal/codec"
	"github.com/danielpatrickdp/stress-dost/internal/personality"
	"github.com/danielpatrickdp/stress-dost/internal/selection"
	"github.com/danielpatrickdp/stress-dost/internal/session"
	"github.com/danielpatrickdp/stress-dost/internal/signals"
	"github.com/danielpatrickdp/stress-dost/internal/trigger"
)

// #region source-order

// SourceOrder ranks the available trigger sources so generated and dataset
// triggers stay close to a 50/50 split. The generator goes first on an empty
// history or when it is behind; a tie is broken by rng.
func SourceOrder(counts map[session.Source]int, generatorReady, datasetReady bool, rng *rand.Rand) []session.Source {
	switch {
	case generatorReady && datasetReady:
		gen, ds := counts[session.SourceGenerator], counts[session.SourceDataset]
		total := gen + ds
		generatorFirst := true
		if total > 0 {
			ratio := float64(gen) / float64(total)
			switch {
			case ratio < 0.5:
				generatorFirst = true
			case ratio > 0.5:
				generatorFirst = false
			default:
				generatorFirst = rng.IntN(2) == 0
			}
		}
		if generatorFirst {
			return []session.Source{session.SourceGenerator, session.SourceDataset}
		}
		return []session.Source{session.SourceDataset, session.SourceGenerator}
	case generatorReady:
		return []session.Source{session.SourceGenerator}
	case datasetReady:
		return []session.Source{session.SourceDataset}
	}
	return nil
}

// #endregion

// #region next-trigger

// NextTrigger picks the popup for the next main question. Every second popup
// must be option based; when no source can satisfy that, the rule is relaxed
// for one more pass before the final dataset fallback.
func (o *Orchestrator) NextTrigger(ctx context.Context, req TriggerRequest) (Delivery, error) {
	var d Delivery
	err := o.sessions.With(req.SessionID, func(s *session.Session) error {
		if !s.AssessmentCompleted {
			return ErrAssessmentPending
		}
		category := req.Category
		if category == "" {
			category = s.TestCategory
		}
		if _, err := trigger.ParseCategory(string(category)); err != nil {
			return fmt.Errorf("next trigger: %w", err)
		}

		s.QuestionIndex = req.QuestionIndex
		s.QuestionStart = s.Now()
		d = o.deliver(ctx, s, category)
		d.Session = s.View()
		return nil
	})
	if err != nil {
		return Delivery{}, err
	}
	if d.Found {
		o.publish(req.SessionID, "trigger_delivered", d.Popup)
	}
	return d, nil
}

func (o *Orchestrator) deliver(ctx context.Context, s *session.Session, category trigger.Category) Delivery {
	next := s.PopupCounter + 1
	needsOption := next%2 == 0
	requirements := []bool{needsOption}
	if needsOption {
		requirements = append(requirements, false)
	}

	order := SourceOrder(s.SourceCounts, o.GeneratorReady(), o.dataset.Has(category), s.Rand)
	for _, forceOption := range requirements {
		for _, src := range order {
			switch src {
			case session.SourceGenerator:
				if p, ok := o.fromGenerator(ctx, s, category, forceOption); ok {
					return o.finish(s, p, src, "", next)
				}
			case session.SourceDataset:
				if p, level, ok := o.fromDataset(s, category, forceOption); ok {
					return o.finish(s, p, src, level, next)
				}
			}
		}
	}

	pool := o.dataset.Popups(category)
	if len(pool) == 0 {
		o.logger.Warn("no trigger available",
			zap.String("session_id", s.ID),
			zap.String("category", string(category)),
		)
		return Delivery{Source: session.SourceNone, PopupCounter: s.PopupCounter, QuestionIndex: s.QuestionIndex}
	}
	candidates := unused(s, pool)
	if len(candidates) == 0 {
		candidates = pool
	}
	p := candidates[s.Rand.IntN(len(candidates))]
	return o.finish(s, p, session.SourceDataset, selection.LevelRandom, next)
}

// finish scales the delivered value by the session difficulty and books the
// delivery against the counters.
func (o *Orchestrator) finish(s *session.Session, p trigger.Popup, src session.Source, level selection.Level, counter int) Delivery {
	scaled := p.Clone()
	scaled.Value = personality.Round(clampUnit(p.Value*s.CurrentDifficulty), 3)
	s.RecordDelivery(p.Text, counter, src)
	o.metrics.IncSelection(string(src), string(level))
	o.logger.Debug("trigger delivered",
		zap.String("session_id", s.ID),
		zap.String("source", string(src)),
		zap.String("level", string(level)),
		zap.String("type", string(p.Type)),
		zap.Int("popup_counter", counter),
	)
	return Delivery{
		Found:         true,
		Popup:         scaled,
		Source:        src,
		Level:         level,
		PopupCounter:  counter,
		QuestionIndex: s.QuestionIndex,
	}
}

func clampUnit(x float64) float64 {
	if x < -1 {
		return -1
	}
	if x > 1 {
		return 1
	}
	return x
}

// #endregion

// #region dataset-path

// fromDataset runs the cascade and accepts its pick when it has not been
// shown yet; otherwise a random unshown popup of the required type is used.
func (o *Orchestrator) fromDataset(s *session.Session, category trigger.Category, forceOption bool) (trigger.Popup, selection.Level, bool) {
	pool := o.dataset.Popups(category)
	if len(pool) == 0 {
		return trigger.Popup{}, "", false
	}
	var required trigger.Type
	if forceOption {
		required = trigger.TypeOptionBased
	}

	vector := s.Vector()
	if vector == nil {
		vector = personality.Vector{}
	}
	res, ok := s.Selector.Select(selection.Request{Vector: vector, Category: category, RequiredType: required}, pool)
	if ok && !s.WasTriggered(res.Popup.Text) {
		return res.Popup, res.Level, true
	}

	var candidates []trigger.Popup
	for _, p := range unused(s, pool) {
		if required == "" || p.Type == required {
			candidates = append(candidates, p)
		}
	}
	if len(candidates) == 0 {
		return trigger.Popup{}, "", false
	}
	return candidates[s.Rand.IntN(len(candidates))], selection.LevelRandom, true
}

func unused(s *session.Session, pool []trigger.Popup) []trigger.Popup {
	var out []trigger.Popup
	for _, p := range pool {
		if !s.WasTriggered(p.Text) {
			out = append(out, p)
		}
	}
	return out
}

// #endregion

// #region generator-path

// fromGenerator asks the generation service for a popup, retrying failed
// calls. Vetoed, repeated or wrongly typed output counts as a miss.
func (o *Orchestrator) fromGenerator(ctx context.Context, s *session.Session, category trigger.Category, forceOption bool) (trigger.Popup, bool) {
	req := o.generationRequest(s, category, forceOption)

	var attempts []Attempt
	for {
		start := time.Now()
		p, err := o.generator.GeneratePopup(ctx, req)
		attempts = append(attempts, Attempt{Err: err, Elapsed: time.Since(start)})
		if err == nil {
			switch {
			case s.WasTriggered(p.Text):
				o.metrics.IncGenerationRejection("repeat")
			case forceOption && p.Type != trigger.TypeOptionBased:
				o.metrics.IncGenerationRejection("type_mismatch")
			default:
				return p, true
			}
			return trigger.Popup{}, false
		}

		o.metrics.IncGenerationRejection("generation_error")
		o.logger.Warn("generation failed",
			zap.String("session_id", s.ID),
			zap.Int("attempt", len(attempts)),
			zap.Error(err),
		)
		if !o.retry.ShouldRetry(ctx, attempts) {
			return trigger.Popup{}, false
		}
	}
}

func (o *Orchestrator) generationRequest(s *session.Session, category trigger.Category, forceOption bool) codec.Request {
	vector := s.Vector()
	if vector == nil {
		vector = personality.Vector{}
	}
	confidence := "medium"
	if vector.Get(personality.SelfConfidence) > 0.7 {
		confidence = "high"
	}
	mc := o.producer.Produce(signals.ProduceInput{
		State:      s.Meters,
		Difficulty: s.CurrentDifficulty,
		History:    s.Engine,
	})
	return codec.Request{
		SessionID: s.ID,
		Vector:    vector,
		Traits:    s.Tracker.Traits(),
		Tags:      personality.TagsFromVector(vector, category),
		Category:  category,
		Performance: codec.PerformanceContext{
			Accuracy:   personality.Round(s.Tracker.RecentAccuracy()*100, 1),
			Trend:      s.Meters.Severity(),
			Confidence: confidence,
		},
		MeterContext:     &mc,
		ForceOptionBased: forceOption,
	}
}

// #endregion
