package codec

import (
	"context"
	"time"

	"github.com/danielpatrickdp/stress-dost/internal/personality"
	"github.com/danielpatrickdp/stress-dost/internal/signals"
	"github.com/danielpatrickdp/stress-dost/internal/trigger"
)

// #region generator
// Generator produces a personalized popup. Implementations return an
// apperr generation error when nothing usable came back.
type Generator interface {
	GeneratePopup(ctx context.Context, req Request) (trigger.Popup, error)
}

// #endregion generator

// #region request
// PerformanceContext is the short performance line put into the prompt.
type PerformanceContext struct {
	Accuracy   float64 `json:"accuracy"`   // percent, one decimal
	Trend      string  `json:"trend"`      // meter severity
	Confidence string  `json:"confidence"` // "high" | "medium"
}

// Request carries everything the generation service sees for one popup.
type Request struct {
	SessionID        string
	Vector           personality.Vector
	Traits           []string
	Tags             []string
	Category         trigger.Category
	Performance      PerformanceContext
	MeterContext     *signals.MeterContext
	ForceOptionBased bool
}

// #endregion request

// #region config
// ClientConfig holds the generation service connection settings.
type ClientConfig struct {
	Addr        string
	Timeout     time.Duration
	Model       string
	Temperature float64
	MaxTokens   int
}

// DefaultClientConfig returns the settings used by the server binary.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Addr:        "localhost:50051",
		Timeout:     10 * time.Second,
		Model:       "mixtral-8x7b-32768",
		Temperature: 0.7,
		MaxTokens:   400,
	}
}

// #endregion config
