package tracker

import (
	"testing"
	"time"

	"github.com/danielpatrickdp/stress-dost/internal/personality"
	"github.com/danielpatrickdp/stress-dost/internal/state"
	"github.com/danielpatrickdp/stress-dost/internal/trigger"
	"github.com/danielpatrickdp/stress-dost/internal/update"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func seeded(t *testing.T) (*Tracker, *clock) {
	t.Helper()
	c := &clock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	tr := New("sess-1", DefaultConfig()).WithClock(c.now)
	tr.Seed(state.VectorRecord{
		VersionID: "v0",
		Vector: personality.Vector{
			personality.StressSensitivity:   0.9,
			personality.Resilience:          0.4,
			personality.IntrinsicMotivation: 0.5,
		},
	})
	return tr, c
}

func wrong() update.Record {
	rt := 12.0
	return update.Record{Correct: false, ResponseTime: &rt, Category: trigger.CategoryFear}
}

func TestSeedRefreshesTraits(t *testing.T) {
	tr, _ := seeded(t)
	require.True(t, tr.Seeded())
	assert.Equal(t, "sess-1", tr.Current().SessionID)
	assert.Contains(t, tr.Traits(), "needs_calm")
	assert.Equal(t, 0.5, tr.RecentAccuracy())
}

func TestRecomputeAfterTenObservations(t *testing.T) {
	tr, _ := seeded(t)
	for i := 0; i < 9; i++ {
		assert.Nil(t, tr.Observe(wrong()), "observation %d", i)
	}
	res := tr.Observe(wrong())
	require.NotNil(t, res)
	assert.Equal(t, "commit", res.Decision.Action)
	assert.Equal(t, "v0", res.NewState.ParentID)

	v := tr.Vector()
	assert.InDelta(t, 0.35, v.Get(personality.Resilience), 1e-9)
	assert.InDelta(t, 0.98, v.Get(personality.StressSensitivity), 1e-9)
	assert.InDelta(t, 0.45, v.Get(personality.DistractionResistance), 1e-9)
	assert.Equal(t, res.NewState.VersionID, tr.Current().VersionID)

	// counter restarts
	assert.Nil(t, tr.Observe(wrong()))
}

func TestRecomputeAfterInterval(t *testing.T) {
	tr, c := seeded(t)
	for i := 0; i < 3; i++ {
		assert.Nil(t, tr.Observe(wrong()))
	}
	c.t = c.t.Add(11 * time.Minute)
	res := tr.Observe(wrong())
	require.NotNil(t, res)
	assert.Equal(t, "commit", res.Decision.Action)
}

func TestRecomputeWithShortHistoryKeepsVector(t *testing.T) {
	tr, c := seeded(t)
	before := tr.Vector()
	c.t = c.t.Add(11 * time.Minute)
	res := tr.Observe(wrong())
	require.NotNil(t, res)
	assert.Equal(t, "no_op", res.Decision.Action)
	assert.Equal(t, before, tr.Vector())
	assert.Equal(t, "v0", tr.Current().VersionID)
}

func TestVectorIsACopy(t *testing.T) {
	tr, _ := seeded(t)
	v := tr.Vector()
	v.Set(personality.Resilience, 1)
	assert.Equal(t, 0.4, tr.Vector().Get(personality.Resilience))
}

func TestRecentAccuracyUsesLastFive(t *testing.T) {
	tr, _ := seeded(t)
	for i := 0; i < 3; i++ {
		tr.Observe(wrong())
	}
	for i := 0; i < 4; i++ {
		tr.Observe(update.Record{Correct: true, Category: trigger.CategoryThoughts})
	}
	assert.InDelta(t, 0.8, tr.RecentAccuracy(), 1e-9)

	snap := tr.Snapshot()
	assert.Equal(t, 7, snap.PopupCount)
	assert.Equal(t, 0.9, snap.Initial.Get(personality.StressSensitivity))
	assert.Len(t, tr.History(), 7)
}

func TestUnseededTrackerOnlyCountsObservations(t *testing.T) {
	tr := New("sess-2", DefaultConfig())
	assert.False(t, tr.Seeded())
	for i := 0; i < 9; i++ {
		assert.Nil(t, tr.Observe(wrong()))
	}
	assert.NotNil(t, tr.Observe(wrong()))
}
