package selection

import (
	"math/rand/v2"
	"time"

	"github.com/danielpatrickdp/stress-dost/internal/personality"
	"github.com/danielpatrickdp/stress-dost/internal/trigger"
	"github.com/danielpatrickdp/stress-dost/internal/weighting"
)

// #region strategy
// Strategy is one level of the cascade. It returns false when it has no match.
type Strategy struct {
	Level  Level
	Select func(s *Selector, req Request, pool []trigger.Popup) (trigger.Popup, bool)
}

// DefaultStrategies is the five-level cascade in priority order.
func DefaultStrategies() []Strategy {
	return []Strategy{
		{LevelPersonality, personalityMatch},
		{LevelDominant, dominantMatch},
		{LevelCategory, categoryMatch},
		{LevelSafeDefault, safeDefault},
		{LevelRandom, uniform},
	}
}

// #endregion strategy

// #region selector
// Selector picks popups for one session and remembers what it served.
type Selector struct {
	config     Config
	strategies []Strategy
	weighting  *weighting.Weighting
	rng        *rand.Rand
	now        func() time.Time

	lastSelected map[string]time.Time
}

// New creates a selector sharing rng with its trait weighting.
func New(config Config, w *weighting.Weighting, rng *rand.Rand) *Selector {
	return &Selector{
		config:       config,
		strategies:   DefaultStrategies(),
		weighting:    w,
		rng:          rng,
		now:          time.Now,
		lastSelected: make(map[string]time.Time),
	}
}

// WithClock replaces the wall clock.
func (s *Selector) WithClock(now func() time.Time) *Selector {
	s.now = now
	return s
}

// WithStrategies replaces the cascade.
func (s *Selector) WithStrategies(strategies []Strategy) *Selector {
	s.strategies = strategies
	return s
}

// Weighting exposes the session's trait weighting.
func (s *Selector) Weighting() *weighting.Weighting { return s.weighting }

// LastSelected reports when the popup with key was last served.
func (s *Selector) LastSelected(key string) (time.Time, bool) {
	t, ok := s.lastSelected[key]
	return t, ok
}

// Select runs the cascade over the category's pool. The first strategy with
// a match wins; the selection is recorded for recency and category usage.
// False means no popup is available, which is a valid outcome.
func (s *Selector) Select(req Request, pool []trigger.Popup) (Result, bool) {
	candidates := pool
	if req.RequiredType != "" {
		candidates = make([]trigger.Popup, 0, len(pool))
		for _, p := range pool {
			if p.Type == req.RequiredType {
				candidates = append(candidates, p)
			}
		}
	}
	if len(candidates) == 0 {
		return Result{}, false
	}

	available := s.filterRecent(candidates)
	if len(available) == 0 {
		available = candidates
	}

	for _, st := range s.strategies {
		p, ok := st.Select(s, req, available)
		if !ok {
			continue
		}
		s.record(p, req.Category)
		return Result{Popup: p.Clone(), Level: st.Level}, true
	}
	return Result{}, false
}

func (s *Selector) filterRecent(pool []trigger.Popup) []trigger.Popup {
	now := s.now()
	out := make([]trigger.Popup, 0, len(pool))
	for _, p := range pool {
		last, ok := s.lastSelected[p.Key()]
		if !ok || now.Sub(last) > s.config.DuplicateBuffer {
			out = append(out, p)
		}
	}
	return out
}

func (s *Selector) record(p trigger.Popup, c trigger.Category) {
	s.lastSelected[p.Key()] = s.now()
	s.weighting.RecordCategoryUse(c)
}

// #endregion selector

// #region levels
func personalityMatch(s *Selector, req Request, pool []trigger.Popup) (trigger.Popup, bool) {
	tags := personality.TagsFromVector(req.Vector, req.Category)
	if len(tags) == 0 {
		return trigger.Popup{}, false
	}
	var matching []trigger.Popup
	for _, p := range pool {
		if p.HasAnyTag(tags) {
			matching = append(matching, p)
		}
	}
	switch len(matching) {
	case 0:
		return trigger.Popup{}, false
	case 1:
		return matching[0], true
	}
	return s.weighting.SelectPopup(matching, req.Vector)
}

func dominantMatch(s *Selector, req Request, pool []trigger.Popup) (trigger.Popup, bool) {
	tags := personality.DominantTags(req.Vector, s.config.DominantTopN)
	if len(tags) == 0 {
		return trigger.Popup{}, false
	}
	best := 0
	var top []trigger.Popup
	for _, p := range pool {
		n := p.OverlapCount(tags)
		switch {
		case n == 0 || n < best:
		case n > best:
			best = n
			top = []trigger.Popup{p}
		default:
			top = append(top, p)
		}
	}
	switch len(top) {
	case 0:
		return trigger.Popup{}, false
	case 1:
		return top[0], true
	}
	return s.weighting.SelectPopup(top, req.Vector)
}

func categoryMatch(s *Selector, req Request, pool []trigger.Popup) (trigger.Popup, bool) {
	return s.pickAny(pool, personality.CategoryBaseTags(req.Category))
}

func safeDefault(s *Selector, _ Request, pool []trigger.Popup) (trigger.Popup, bool) {
	return s.pickAny(pool, SafeTags)
}

func uniform(s *Selector, _ Request, pool []trigger.Popup) (trigger.Popup, bool) {
	if len(pool) == 0 {
		return trigger.Popup{}, false
	}
	return pool[s.rng.IntN(len(pool))], true
}

// pickAny draws uniformly among popups carrying any of tags.
func (s *Selector) pickAny(pool []trigger.Popup, tags []string) (trigger.Popup, bool) {
	var matches []trigger.Popup
	for _, p := range pool {
		if p.HasAnyTag(tags) {
			matches = append(matches, p)
		}
	}
	return uniform(s, Request{}, matches)
}

// #endregion levels
