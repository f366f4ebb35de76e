package selection

import (
	"time"

	"github.com/danielpatrickdp/stress-dost/internal/personality"
	"github.com/danielpatrickdp/stress-dost/internal/trigger"
)

// Level names the cascade strategy that produced a selection.
type Level string

const (
	LevelPersonality Level = "personality_match"
	LevelDominant    Level = "dominant_match"
	LevelCategory    Level = "category_match"
	LevelSafeDefault Level = "safe_default"
	LevelRandom      Level = "random"
)

// SafeTags is the fallback tag set of the safe-default level.
var SafeTags = []string{"needs_encouragement", "supportive", "compassionate", "confidence_building"}

// #region request
// Request is one selection call.
type Request struct {
	Vector       personality.Vector
	Category     trigger.Category
	RequiredType trigger.Type // empty means any type
}

// Result is a successful selection.
type Result struct {
	Popup trigger.Popup `json:"popup"`
	Level Level         `json:"level"`
}

// #endregion request

// #region config
// Config holds selector constants.
type Config struct {
	DuplicateBuffer time.Duration // a popup is not repeated inside this window (default 30m)
	DominantTopN    int           // dimensions used by the dominant level (default 5)
}

// DefaultConfig returns the selector constants.
func DefaultConfig() Config {
	return Config{
		DuplicateBuffer: 30 * time.Minute,
		DominantTopN:    5,
	}
}

// #endregion config
