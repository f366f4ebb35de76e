package personality

import (
	"strings"

	"github.com/danielpatrickdp/stress-dost/internal/trigger"
)

// #region tag-table
// tierTags holds the three tag lists of one dimension.
type tierTags struct {
	Low, Medium, High []string
}

func (t tierTags) forTier(tier Tier) []string {
	switch tier {
	case TierLow:
		return t.Low
	case TierHigh:
		return t.High
	default:
		return t.Medium
	}
}

var traitTags = map[Dimension]tierTags{
	StressSensitivity: {
		Low:    []string{"calm_under_pressure", "composed", "resilient"},
		Medium: []string{"manageable_stress", "adaptive", "balanced"},
		High:   []string{"anxious_response", "needs_calm", "needs_support"},
	},
	AnalyticalThinking: {
		Low:    []string{"intuitive_learner", "big_picture", "creative"},
		Medium: []string{"balanced_analysis", "methodical", "structured"},
		High:   []string{"detail_oriented", "systematic", "logical"},
	},
	SocialPreference: {
		Low:    []string{"independent", "solo_work", "introverted"},
		Medium: []string{"selective_social", "flexible", "balanced_social"},
		High:   []string{"collaborative", "group_oriented", "extroverted"},
	},
	IntrinsicMotivation: {
		Low:    []string{"extrinsic_driven", "grade_focused", "reward_motivated"},
		Medium: []string{"balanced_motivation", "mixed_drivers", "flexible"},
		High:   []string{"intrinsic_driven", "mastery_focused", "learning_oriented"},
	},
	Resilience: {
		Low:    []string{"fragile_to_setbacks", "needs_encouragement", "recovery_support"},
		Medium: []string{"moderate_resilience", "recovers_with_help", "adaptable"},
		High:   []string{"bounces_back", "self_recovering", "strong_resilience"},
	},
	SelfConfidence: {
		Low:    []string{"low_confidence", "self_doubt", "confidence_building"},
		Medium: []string{"moderate_confidence", "situational_confidence", "developing"},
		High:   []string{"high_confidence", "capable", "self_assured"},
	},
	PlanningTendency: {
		Low:    []string{"spontaneous", "flexible", "improviser"},
		Medium: []string{"balanced_planning", "adaptive_planning", "flexible_structure"},
		High:   []string{"organized", "structured", "planner"},
	},
	OpennessToFeedback: {
		Low:    []string{"defensive", "resistant", "fixed_mindset"},
		Medium: []string{"receptive_with_caution", "growth_oriented", "learner"},
		High:   []string{"open_to_feedback", "growth_mindset", "seeker_of_input"},
	},
	Impulsivity: {
		Low:    []string{"deliberate", "thoughtful", "careful"},
		Medium: []string{"balanced_pace", "measured", "considered"},
		High:   []string{"impulsive", "rushing", "needs_slowdown"},
	},
	TimeAwareness: {
		Low:    []string{"poor_time_sense", "panic_at_end", "needs_timing"},
		Medium: []string{"adequate_time_sense", "manageable_awareness", "improving"},
		High:   []string{"excellent_timer", "time_aware", "strategic_pacing"},
	},
	DistractionResistance: {
		Low:    []string{"easily_distracted", "needs_focus_support", "focus_help"},
		Medium: []string{"moderate_focus", "situational_focus", "variable_focus"},
		High:   []string{"excellent_focus", "deep_focus", "flow_capable"},
	},
}

// TagsFor returns the static tags of a dimension tier.
func TagsFor(d Dimension, tier Tier) []string {
	t, ok := traitTags[d]
	if !ok {
		return nil
	}
	return append([]string(nil), t.forTier(tier)...)
}

// #endregion tag-table

// #region category-enrichment
// Enrichment lists the tags a category adds on top of the per-dimension tags.
type Enrichment struct {
	BaseTags               []string
	StressSensitiveAdd     []string
	ConfidentAdd           []string
	LowResilienceAdd       []string
	HighResilienceAdd      []string
	AnalyticalAdd          []string
	IntuitiveAdd           []string
	LowConfidenceAdd       []string
	ResilientAdd           []string
	IntrinsicMotivationAdd []string
}

var categoryEnrichment = map[trigger.Category]Enrichment{
	trigger.CategoryThoughts: {
		BaseTags:           []string{"analytical", "logical", "conceptual"},
		StressSensitiveAdd: []string{"needs_simplification", "step_by_step"},
		ConfidentAdd:       []string{"challenge_worthy", "advanced"},
		AnalyticalAdd:      []string{"deep_dive", "explanation"},
		IntuitiveAdd:       []string{"pattern_recognition", "big_picture"},
	},
	trigger.CategoryFrustration: {
		BaseTags:           []string{"persistence", "resilience", "encouragement"},
		LowResilienceAdd:   []string{"compassionate", "supportive", "confidence_building"},
		HighResilienceAdd:  []string{"motivating", "challenge_reframing"},
		StressSensitiveAdd: []string{"calm", "reassuring", "manageable"},
		ConfidentAdd:       []string{"capability_reminder", "strength_focus"},
	},
	trigger.CategoryFear: {
		BaseTags:               []string{"reassurance", "confidence_building", "support"},
		StressSensitiveAdd:     []string{"calming", "grounding", "breathing"},
		LowConfidenceAdd:       []string{"capable_reminder", "success_story"},
		ResilientAdd:           []string{"challenge_reframe", "strength_building"},
		IntrinsicMotivationAdd: []string{"purpose_reminder", "learning_value"},
	},
}

// CategoryBaseTags returns the static base tags of a category.
func CategoryBaseTags(c trigger.Category) []string {
	return append([]string(nil), categoryEnrichment[c].BaseTags...)
}

// #endregion category-enrichment

// #region tags-from-vector
// TagsFromVector derives the ordered, deduplicated tag set for a vector and,
// when category is non-empty, the category enrichment.
func TagsFromVector(v Vector, category trigger.Category) []string {
	var tags []string
	for _, d := range v.Present() {
		t, ok := traitTags[d]
		if !ok {
			continue
		}
		tags = append(tags, t.forTier(TierOf(v[d]))...)
	}

	if e, ok := categoryEnrichment[category]; ok {
		tags = append(tags, e.BaseTags...)

		stress := v.Get(StressSensitivity)
		confidence := v.Get(SelfConfidence)
		resilience := v.Get(Resilience)
		analytical := v.Get(AnalyticalThinking)

		if stress > 0.7 {
			tags = append(tags, e.StressSensitiveAdd...)
		}
		if confidence > 0.7 {
			tags = append(tags, e.ConfidentAdd...)
		}
		if resilience < 0.3 {
			tags = append(tags, e.LowResilienceAdd...)
		}
		if analytical > 0.7 {
			tags = append(tags, e.AnalyticalAdd...)
		}
		if analytical < 0.33 {
			tags = append(tags, e.IntuitiveAdd...)
		}
		if category == trigger.CategoryFear {
			if confidence < 0.3 {
				tags = append(tags, e.LowConfidenceAdd...)
			}
			if resilience > 0.7 {
				tags = append(tags, e.ResilientAdd...)
			}
			if v.Get(IntrinsicMotivation) > 0.7 {
				tags = append(tags, e.IntrinsicMotivationAdd...)
			}
		}
	}
	return trigger.DedupTags(tags)
}

// #endregion tags-from-vector

// #region trait-names
var fuzzyTraits = []struct {
	substr string
	tags   []string
}{
	{"anxious", []string{"anxious_response", "needs_calm"}},
	{"confident", []string{"high_confidence", "capable"}},
	{"organized", []string{"organized", "structured"}},
	{"flexible", []string{"flexible", "adaptive"}},
	{"creative", []string{"creative", "intuitive_learner"}},
	{"systematic", []string{"systematic", "detail_oriented"}},
	{"motivated", []string{"intrinsic_driven", "learning_oriented"}},
	{"resilient", []string{"bounces_back", "strong_resilience"}},
}

// MapTraitName turns a free-text trait name into canonical tags: the name
// itself when it is already a known tag, else a substring match, else needs_support.
func MapTraitName(name string) []string {
	if name == "" {
		return []string{"needs_support"}
	}
	if _, _, ok := ReverseLookup(name); ok {
		return []string{name}
	}
	lower := strings.ToLower(name)
	for _, f := range fuzzyTraits {
		if strings.Contains(lower, f.substr) {
			return append([]string(nil), f.tags...)
		}
	}
	return []string{"needs_support"}
}

// #endregion trait-names

// #region dominant-tags
// DominantTags returns the tier tags of the topN dimensions furthest from neutral.
func DominantTags(v Vector, topN int) []string {
	var tags []string
	for _, d := range v.Dominant(topN) {
		t, ok := traitTags[d]
		if !ok {
			continue
		}
		tags = append(tags, t.forTier(TierOf(v[d]))...)
	}
	return trigger.DedupTags(tags)
}

// #endregion dominant-tags

// #region reverse-lookup
type tagOrigin struct {
	dim  Dimension
	tier Tier
}

var reverseIndex = buildReverseIndex()

// buildReverseIndex walks dimensions in canonical order; the first owner of a tag wins.
func buildReverseIndex() map[string]tagOrigin {
	idx := make(map[string]tagOrigin)
	for _, d := range AllDimensions {
		t := traitTags[d]
		for _, tier := range []Tier{TierLow, TierMedium, TierHigh} {
			for _, tag := range t.forTier(tier) {
				if _, seen := idx[tag]; !seen {
					idx[tag] = tagOrigin{dim: d, tier: tier}
				}
			}
		}
	}
	return idx
}

// ReverseLookup returns the (dimension, tier) that owns tag.
func ReverseLookup(tag string) (Dimension, Tier, bool) {
	o, ok := reverseIndex[tag]
	return o.dim, o.tier, ok
}

// #endregion reverse-lookup
