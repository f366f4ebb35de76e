package tracker

import (
	"time"

	"github.com/danielpatrickdp/stress-dost/internal/personality"
	"github.com/danielpatrickdp/stress-dost/internal/state"
	"github.com/danielpatrickdp/stress-dost/internal/update"
)

// #region config
// Config controls when the vector is recomputed.
type Config struct {
	UpdateEvery    int           // observations between recomputes (default 10)
	UpdateInterval time.Duration // maximum time between recomputes (default 10m)
	TopTraits      int           // dimensions feeding the trait cache (default 5)
	AccuracyWindow int           // records behind RecentAccuracy (default 5)
	Update         update.UpdateConfig
}

// DefaultConfig returns the tracker cadence.
func DefaultConfig() Config {
	return Config{
		UpdateEvery:    10,
		UpdateInterval: 10 * time.Minute,
		TopTraits:      5,
		AccuracyWindow: 5,
		Update:         update.DefaultUpdateConfig(),
	}
}

// #endregion config

// #region state
// State is a read-only snapshot of the tracker.
type State struct {
	SessionID        string             `json:"session_id"`
	Initial          personality.Vector `json:"initial_personality"`
	Vector           personality.Vector `json:"current_personality_vector"`
	Traits           []string           `json:"current_traits"`
	TraitLastUpdated time.Time          `json:"trait_last_updated"`
	PopupCount       int                `json:"popup_count"`
	RecentAccuracy   float64            `json:"recent_accuracy"`
}

// #endregion state

// #region tracker
// Tracker owns one session's evolving personality vector. It is not safe for
// concurrent use; the owning session serializes access.
type Tracker struct {
	config Config
	now    func() time.Time

	current     state.VectorRecord
	initial     personality.Vector
	seeded      bool
	traits      []string
	lastUpdate  time.Time
	sinceUpdate int
	history     []update.Record
}

// New creates an unseeded tracker for sessionID.
func New(sessionID string, config Config) *Tracker {
	return &Tracker{
		config:  config,
		now:     time.Now,
		current: state.VectorRecord{SessionID: sessionID, Vector: personality.Vector{}},
	}
}

// WithClock replaces the wall clock.
func (t *Tracker) WithClock(now func() time.Time) *Tracker {
	t.now = now
	return t
}

// Seed loads the assessment vector and refreshes the trait cache.
func (t *Tracker) Seed(rec state.VectorRecord) {
	rec.Vector = rec.Vector.Clone()
	if rec.SessionID == "" {
		rec.SessionID = t.current.SessionID
	}
	t.current = rec
	t.initial = rec.Vector.Clone()
	t.seeded = true
	t.refresh()
}

// Seeded reports whether Seed has been called.
func (t *Tracker) Seeded() bool { return t.seeded }

// Observe appends a performance record and recomputes the vector when the
// counter reaches UpdateEvery or UpdateInterval has passed since the last
// recompute. The result is non-nil only when a recompute ran.
func (t *Tracker) Observe(r update.Record) *update.UpdateResult {
	now := t.now()
	if r.Timestamp.IsZero() {
		r.Timestamp = now
	}
	t.history = append(t.history, r)
	t.sinceUpdate++

	due := t.sinceUpdate >= t.config.UpdateEvery
	if !t.lastUpdate.IsZero() && now.Sub(t.lastUpdate) > t.config.UpdateInterval {
		due = true
	}
	if !due {
		return nil
	}

	res := update.Update(t.current, t.history, t.config.Update)
	if res.Decision.Action == "commit" {
		t.current = res.NewState
	}
	t.refresh()
	res.NewState.Traits = t.Traits()
	return &res
}

func (t *Tracker) refresh() {
	t.traits = personality.DominantTags(t.current.Vector, t.config.TopTraits)
	t.current.Traits = t.traits
	t.lastUpdate = t.now()
	t.sinceUpdate = 0
}

// #endregion tracker

// #region accessors
// Vector returns a copy of the current vector.
func (t *Tracker) Vector() personality.Vector { return t.current.Vector.Clone() }

// Current returns the active version record.
func (t *Tracker) Current() state.VectorRecord {
	rec := t.current
	rec.Vector = rec.Vector.Clone()
	rec.Traits = t.Traits()
	return rec
}

// Traits returns the cached dominant-trait tags.
func (t *Tracker) Traits() []string { return append([]string(nil), t.traits...) }

// History returns the performance log, oldest first.
func (t *Tracker) History() []update.Record { return append([]update.Record(nil), t.history...) }

// RecentAccuracy is the correct ratio over the last AccuracyWindow records,
// 0.5 with no history.
func (t *Tracker) RecentAccuracy() float64 {
	if len(t.history) == 0 {
		return 0.5
	}
	recent := t.history
	if n := t.config.AccuracyWindow; n > 0 && len(recent) > n {
		recent = recent[len(recent)-n:]
	}
	correct := 0
	for _, r := range recent {
		if r.Correct {
			correct++
		}
	}
	return float64(correct) / float64(len(recent))
}

// Snapshot returns the tracker state for other components.
func (t *Tracker) Snapshot() State {
	return State{
		SessionID:        t.current.SessionID,
		Initial:          t.initial.Clone(),
		Vector:           t.Vector(),
		Traits:           t.Traits(),
		TraitLastUpdated: t.lastUpdate,
		PopupCount:       len(t.history),
		RecentAccuracy:   t.RecentAccuracy(),
	}
}

// #endregion accessors
