package weighting

import (
	"math/rand/v2"
	"time"

	"github.com/danielpatrickdp/stress-dost/internal/personality"
	"github.com/danielpatrickdp/stress-dost/internal/trigger"
)

// #region weighting
// Weighting tracks tag and category usage for one session and samples tags
// by personality relevance, recency and novelty.
type Weighting struct {
	config Config
	rng    *rand.Rand
	now    func() time.Time

	tagHistory      map[string][]time.Time
	categoryHistory map[trigger.Category][]time.Time
	picks           []Pick
}

// New creates an empty weighting tracker. rng must not be nil.
func New(config Config, rng *rand.Rand) *Weighting {
	return &Weighting{
		config:          config,
		rng:             rng,
		now:             time.Now,
		tagHistory:      make(map[string][]time.Time),
		categoryHistory: make(map[trigger.Category][]time.Time),
	}
}

// WithClock replaces the wall clock. Used by tests and replays.
func (w *Weighting) WithClock(now func() time.Time) *Weighting {
	w.now = now
	return w
}

// Uses returns how many times tag has been picked.
func (w *Weighting) Uses(tag string) int { return len(w.tagHistory[tag]) }

// Picks returns the selection history, oldest first.
func (w *Weighting) Picks() []Pick { return append([]Pick(nil), w.picks...) }

// #endregion weighting

// #region weights
// Weights scores each distinct tag and normalizes the result to sum to 1.
// Output order follows the first appearance of each tag in tags.
func (w *Weighting) Weights(tags []string, v personality.Vector) []TagWeight {
	tags = trigger.DedupTags(tags)
	if len(tags) == 0 {
		return nil
	}
	now := w.now()
	out := make([]TagWeight, 0, len(tags))
	var total float64
	for _, tag := range tags {
		weight := w.relevance(tag, v)

		history := w.tagHistory[tag]
		recent := 0
		for _, ts := range history {
			if now.Sub(ts) < w.config.TagRepeatWindow {
				recent++
			}
		}
		if recent > 0 {
			weight *= 1 / (1 + w.config.RecencyFactor*float64(recent))
		}
		if len(history) < w.config.NoveltyMaxUses {
			weight *= w.config.NoveltyBonus
		}
		if weight < w.config.WeightFloor {
			weight = w.config.WeightFloor
		}
		out = append(out, TagWeight{Tag: tag, Weight: weight})
		total += weight
	}
	if total > 0 {
		for i := range out {
			out[i].Weight /= total
		}
	}
	return out
}

// relevance compares the vector against the tier that owns the tag.
// Tags outside the trait table score 1.0.
func (w *Weighting) relevance(tag string, v personality.Vector) float64 {
	dim, tier, ok := personality.ReverseLookup(tag)
	if !ok {
		return 1.0
	}
	r := 1 - abs(v.Get(dim)-tier.Target())/0.5
	if r < w.config.RelevanceFloor {
		return w.config.RelevanceFloor
	}
	return r
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

// #endregion weights

// #region select
// SelectWeightedTag samples one tag by weight and records the pick.
func (w *Weighting) SelectWeightedTag(tags []string, v personality.Vector) (string, bool) {
	weights := w.Weights(tags, v)
	if len(weights) == 0 {
		return "", false
	}
	r := w.rng.Float64()
	chosen := weights[len(weights)-1].Tag
	var acc float64
	for _, tw := range weights {
		acc += tw.Weight
		if r < acc {
			chosen = tw.Tag
			break
		}
	}
	w.record(chosen)
	return chosen, true
}

func (w *Weighting) record(tag string) {
	now := w.now()
	w.tagHistory[tag] = append(w.tagHistory[tag], now)
	w.picks = append(w.picks, Pick{Tag: tag, Timestamp: now})
}

// VarietyScore is the ratio of distinct picked tags to picks, 1.0 with fewer
// than two picks.
func (w *Weighting) VarietyScore() float64 {
	if len(w.picks) < 2 {
		return 1.0
	}
	seen := make(map[string]struct{}, len(w.picks))
	for _, p := range w.picks {
		seen[p.Tag] = struct{}{}
	}
	return float64(len(seen)) / float64(len(w.picks))
}

// ShouldForceVariety reports whether recent picks are too repetitive.
func (w *Weighting) ShouldForceVariety() bool {
	if n := w.config.VarietyWindow; n > 0 && len(w.picks) >= n {
		seen := make(map[string]struct{}, n)
		for _, p := range w.picks[len(w.picks)-n:] {
			seen[p.Tag] = struct{}{}
		}
		if len(seen) <= w.config.VarietyMaxDistinct {
			return true
		}
	}
	return w.VarietyScore() < w.config.VarietyMinScore
}

// RecordCategoryUse notes that a popup from category was delivered.
func (w *Weighting) RecordCategoryUse(c trigger.Category) {
	w.categoryHistory[c] = append(w.categoryHistory[c], w.now())
}

// RecentCategoryUses counts deliveries of category inside the category window.
func (w *Weighting) RecentCategoryUses(c trigger.Category) int {
	now := w.now()
	n := 0
	for _, ts := range w.categoryHistory[c] {
		if now.Sub(ts) < w.config.CategoryRepeatWindow {
			n++
		}
	}
	return n
}

// #endregion select

// #region select-popup
// SelectPopup picks a popup from pool through its tags. When variety is
// forced it prefers tags used fewer than NoveltyMaxUses times. Popups without
// tags fall back to a uniform draw.
func (w *Weighting) SelectPopup(pool []trigger.Popup, v personality.Vector) (trigger.Popup, bool) {
	if len(pool) == 0 {
		return trigger.Popup{}, false
	}

	var tags []string
	owner := make(map[string]int)
	for i, p := range pool {
		for _, tag := range p.Tags {
			if _, ok := owner[tag]; !ok {
				owner[tag] = i
				tags = append(tags, tag)
			}
		}
	}
	if len(tags) == 0 {
		return pool[w.rng.IntN(len(pool))], true
	}

	var chosen string
	if w.ShouldForceVariety() {
		var rare []string
		for _, tag := range tags {
			if w.Uses(tag) < w.config.NoveltyMaxUses {
				rare = append(rare, tag)
			}
		}
		if len(rare) > 0 {
			chosen = rare[w.rng.IntN(len(rare))]
			w.record(chosen)
		}
	}
	if chosen == "" {
		chosen, _ = w.SelectWeightedTag(tags, v)
	}
	return pool[owner[chosen]], true
}

// #endregion select-popup
