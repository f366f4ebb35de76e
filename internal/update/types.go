package update

import (
	"time"

	"github.com/danielpatrickdp/stress-dost/internal/state"
	"github.com/danielpatrickdp/stress-dost/internal/trigger"
)

// #region record
// Record is one popup interaction folded into the personality vector.
type Record struct {
	Correct      bool             `json:"correct"`
	ResponseTime *float64         `json:"response_time,omitempty"`
	Category     trigger.Category `json:"category"`
	Timestamp    time.Time        `json:"timestamp"`
}

// #endregion record

// #region decision
// Decision records what the update function decided.
type Decision struct {
	Action string // "commit" | "no_op"
	Reason string
}

// #endregion decision

// #region metrics
// Adjustment is one dimension nudge applied during an update.
type Adjustment struct {
	Dimension string  `json:"dimension"`
	Delta     float64 `json:"delta"`
}

// Metrics captures telemetry from an update cycle.
type Metrics struct {
	Window          int          `json:"window"`
	Accuracy        float64      `json:"accuracy"`
	AvgResponseTime float64      `json:"avg_response_time"`
	Adjustments     []Adjustment `json:"adjustments"`
	DeltaNorm       float64      `json:"delta_norm"`
	UpdateTimeMs    int64        `json:"update_time_ms"`
}

// #endregion metrics

// #region update-config
// UpdateConfig holds the performance thresholds and nudge sizes.
type UpdateConfig struct {
	MinHistory          int     // records required before any adjustment (default 3)
	Window              int     // most recent records considered (default 10)
	DefaultResponseTime float64 // used when no record carries a time (default 30)
	HighAccuracy        float64 // above this the student is coasting (default 0.85)
	FastResponse        float64 // avg seconds below which a coasting student counts as impulsive (default 20)
	LowAccuracy         float64 // below this resilience drops (default 0.5)
	VeryLowAccuracy     float64 // below this stress sensitivity rises (default 0.3)
	FocusMinRecords     int     // single-category streak length that lowers distraction resistance (default 5)
	SmallStep           float64 // decrements (default 0.05)
	LargeStep           float64 // increments (default 0.08)
}

// DefaultUpdateConfig returns the adjustment thresholds.
func DefaultUpdateConfig() UpdateConfig {
	return UpdateConfig{
		MinHistory:          3,
		Window:              10,
		DefaultResponseTime: 30,
		HighAccuracy:        0.85,
		FastResponse:        20,
		LowAccuracy:         0.5,
		VeryLowAccuracy:     0.3,
		FocusMinRecords:     5,
		SmallStep:           0.05,
		LargeStep:           0.08,
	}
}

// #endregion update-config

// #region update-result
// UpdateResult bundles everything returned by Update().
type UpdateResult struct {
	NewState state.VectorRecord
	Decision Decision
	Metrics  Metrics
}

// #endregion update-result
