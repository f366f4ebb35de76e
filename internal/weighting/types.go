package weighting

import "time"

// #region config
// Config holds the weighting constants.
type Config struct {
	TagRepeatWindow      time.Duration // uses inside this window count as recent (default 15m)
	CategoryRepeatWindow time.Duration // category reuse window (default 10m)
	RecencyFactor        float64       // penalty = 1/(1+factor*recent) (default 0.5)
	NoveltyBonus         float64       // multiplier for rarely used tags (default 1.2)
	NoveltyMaxUses       int           // tags used fewer times than this are novel (default 2)
	RelevanceFloor       float64       // minimum personality relevance (default 0.3)
	WeightFloor          float64       // minimum raw weight before normalizing (default 0.1)
	VarietyWindow        int           // picks inspected for repetition (default 5)
	VarietyMaxDistinct   int           // at most this many distinct tags in the window forces variety (default 2)
	VarietyMinScore      float64       // uniqueness ratio below this forces variety (default 0.4)
}

// DefaultConfig returns the weighting constants.
func DefaultConfig() Config {
	return Config{
		TagRepeatWindow:      15 * time.Minute,
		CategoryRepeatWindow: 10 * time.Minute,
		RecencyFactor:        0.5,
		NoveltyBonus:         1.2,
		NoveltyMaxUses:       2,
		RelevanceFloor:       0.3,
		WeightFloor:          0.1,
		VarietyWindow:        5,
		VarietyMaxDistinct:   2,
		VarietyMinScore:      0.4,
	}
}

// #endregion config

// #region tag-weight
// TagWeight is a tag and its normalized selection probability.
type TagWeight struct {
	Tag    string  `json:"tag"`
	Weight float64 `json:"weight"`
}

// Pick is one entry of the selection history.
type Pick struct {
	Tag       string    `json:"tag"`
	Timestamp time.Time `json:"timestamp"`
}

// #endregion tag-weight
