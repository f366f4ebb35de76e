package update

import (
	"fmt"
	"math"
	"time"

	"github.com/danielpatrickdp/stress-dost/internal/personality"
	"github.com/danielpatrickdp/stress-dost/internal/state"
	"github.com/danielpatrickdp/stress-dost/internal/trigger"
	"github.com/google/uuid"
)

// #region update-function
// Update is a pure function that computes the next personality version from
// the current one and the session's performance history. The new record is a
// child of old even when nothing changed; callers commit only on "commit".
func Update(old state.VectorRecord, history []Record, config UpdateConfig) UpdateResult {
	start := time.Now()

	vec := old.Vector.Clone()
	newRec := state.VectorRecord{
		VersionID: uuid.New().String(),
		ParentID:  old.VersionID,
		SessionID: old.SessionID,
		Vector:    vec,
		CreatedAt: time.Now().UTC(),
	}

	if len(history) < config.MinHistory {
		return UpdateResult{
			NewState: newRec,
			Decision: Decision{
				Action: "no_op",
				Reason: fmt.Sprintf("insufficient history: %d < %d", len(history), config.MinHistory),
			},
			Metrics: Metrics{UpdateTimeMs: time.Since(start).Milliseconds()},
		}
	}

	recent := history
	if config.Window > 0 && len(recent) > config.Window {
		recent = recent[len(recent)-config.Window:]
	}

	// 1. Window statistics
	correct := 0
	var timeSum float64
	timed := 0
	categories := make(map[trigger.Category]struct{})
	for _, r := range recent {
		if r.Correct {
			correct++
		}
		if r.ResponseTime != nil {
			timeSum += *r.ResponseTime
			timed++
		}
		categories[r.Category] = struct{}{}
	}
	accuracy := float64(correct) / float64(len(recent))
	avgTime := config.DefaultResponseTime
	if timed > 0 {
		avgTime = timeSum / float64(timed)
	}

	// 2. Nudges
	var adjustments []Adjustment
	nudge := func(d personality.Dimension, delta float64) {
		vec.Add(d, delta)
		adjustments = append(adjustments, Adjustment{Dimension: string(d), Delta: delta})
	}
	if accuracy > config.HighAccuracy {
		nudge(personality.IntrinsicMotivation, -config.SmallStep)
		if avgTime < config.FastResponse {
			nudge(personality.Impulsivity, config.LargeStep)
		}
	}
	if accuracy < config.LowAccuracy {
		nudge(personality.Resilience, -config.SmallStep)
		if accuracy < config.VeryLowAccuracy {
			nudge(personality.StressSensitivity, config.LargeStep)
		}
	}
	if len(categories) == 1 && len(recent) >= config.FocusMinRecords {
		nudge(personality.DistractionResistance, -config.SmallStep)
	}

	// 3. Reclamp every dimension
	for d, x := range vec {
		vec[d] = personality.Clamp01(x)
	}

	// 4. Delta norm against the old vector
	var sumSq float64
	for _, d := range vec.Present() {
		diff := vec.Get(d) - old.Vector.Get(d)
		sumSq += diff * diff
	}
	deltaNorm := math.Sqrt(sumSq)

	decision := Decision{Action: "no_op", Reason: "no dimension changed"}
	if deltaNorm > 0 {
		decision = Decision{
			Action: "commit",
			Reason: fmt.Sprintf("accuracy %.2f over %d records, %d adjustments, delta norm: %.4f",
				accuracy, len(recent), len(adjustments), deltaNorm),
		}
	}

	return UpdateResult{
		NewState: newRec,
		Decision: decision,
		Metrics: Metrics{
			Window:          len(recent),
			Accuracy:        accuracy,
			AvgResponseTime: avgTime,
			Adjustments:     adjustments,
			DeltaNorm:       deltaNorm,
			UpdateTimeMs:    time.Since(start).Milliseconds(),
		},
	}
}

// #endregion update-function
