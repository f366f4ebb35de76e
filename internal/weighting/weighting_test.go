package weighting

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/danielpatrickdp/stress-dost/internal/personality"
	"github.com/danielpatrickdp/stress-dost/internal/trigger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newWeighting(seed uint64) (*Weighting, *fakeClock) {
	clock := &fakeClock{t: epoch}
	w := New(DefaultConfig(), rand.New(rand.NewPCG(seed, seed))).WithClock(clock.now)
	return w, clock
}

func weightOf(ws []TagWeight, tag string) float64 {
	for _, tw := range ws {
		if tw.Tag == tag {
			return tw.Weight
		}
	}
	return -1
}

func TestUnusedTagOutweighsRecentlyRepeated(t *testing.T) {
	w, clock := newWeighting(1)
	for i := 0; i < 5; i++ {
		_, ok := w.SelectWeightedTag([]string{"beta"}, nil)
		require.True(t, ok)
		clock.advance(time.Minute)
	}
	require.Equal(t, 5, w.Uses("beta"))

	ws := w.Weights([]string{"alpha", "beta"}, nil)
	assert.GreaterOrEqual(t, weightOf(ws, "alpha"), weightOf(ws, "beta"))
	// alpha 1.2, beta 1/(1+2.5)
	assert.InDelta(t, 1.2/(1.2+1/3.5), weightOf(ws, "alpha"), 1e-9)
}

func TestRecencyExpires(t *testing.T) {
	w, clock := newWeighting(1)
	for i := 0; i < 3; i++ {
		w.SelectWeightedTag([]string{"beta"}, nil)
	}
	clock.advance(16 * time.Minute)
	ws := w.Weights([]string{"alpha", "beta"}, nil)
	// no recent uses left, only the novelty bonus separates them
	assert.InDelta(t, 1.2/2.2, weightOf(ws, "alpha"), 1e-9)
	assert.InDelta(t, 1.0/2.2, weightOf(ws, "beta"), 1e-9)
}

func TestWeightsRelevance(t *testing.T) {
	w, _ := newWeighting(1)
	v := personality.Vector{
		personality.AnalyticalThinking: 0.5,
		personality.SocialPreference:   1.0,
	}
	ws := w.Weights([]string{"structured", "flexible", "structured"}, v)
	require.Len(t, ws, 2)
	assert.Equal(t, "structured", ws[0].Tag)

	var sum float64
	for _, tw := range ws {
		sum += tw.Weight
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
	// flexible sits at the relevance floor
	assert.InDelta(t, 0.36/(1.2+0.36), weightOf(ws, "flexible"), 1e-9)
}

func TestWeightsEmpty(t *testing.T) {
	w, _ := newWeighting(1)
	assert.Nil(t, w.Weights(nil, nil))
	_, ok := w.SelectWeightedTag(nil, nil)
	assert.False(t, ok)
}

func TestSelectionIsSeedDeterministic(t *testing.T) {
	tags := []string{"a", "b", "c", "d", "e"}
	run := func() []string {
		w, _ := newWeighting(99)
		var out []string
		for i := 0; i < 20; i++ {
			tag, _ := w.SelectWeightedTag(tags, nil)
			out = append(out, tag)
		}
		return out
	}
	assert.Equal(t, run(), run())
}

func TestVarietyScoreAndForce(t *testing.T) {
	w, _ := newWeighting(3)
	assert.Equal(t, 1.0, w.VarietyScore())
	assert.False(t, w.ShouldForceVariety())

	for _, tag := range []string{"a", "b", "a", "b", "a"} {
		w.SelectWeightedTag([]string{tag}, nil)
	}
	assert.InDelta(t, 0.4, w.VarietyScore(), 1e-9)
	assert.True(t, w.ShouldForceVariety(), "five picks over two tags")

	w2, _ := newWeighting(3)
	for _, tag := range []string{"a", "b", "c", "d", "e"} {
		w2.SelectWeightedTag([]string{tag}, nil)
	}
	assert.False(t, w2.ShouldForceVariety())
}

func TestSelectPopupForcedPrefersRareTags(t *testing.T) {
	w, _ := newWeighting(5)
	for i := 0; i < 5; i++ {
		w.SelectWeightedTag([]string{"worn"}, nil)
	}
	require.True(t, w.ShouldForceVariety())

	pool := []trigger.Popup{
		{ID: "old", Text: "old", Tags: []string{"worn"}},
		{ID: "new", Text: "new", Tags: []string{"fresh"}},
	}
	got, ok := w.SelectPopup(pool, nil)
	require.True(t, ok)
	assert.Equal(t, "new", got.ID)
	assert.Equal(t, 1, w.Uses("fresh"))
}

func TestSelectPopupUntagged(t *testing.T) {
	w, _ := newWeighting(5)
	pool := []trigger.Popup{{ID: "x", Text: "x"}}
	got, ok := w.SelectPopup(pool, nil)
	require.True(t, ok)
	assert.Equal(t, "x", got.ID)

	_, ok = w.SelectPopup(nil, nil)
	assert.False(t, ok)
}

func TestRecentCategoryUses(t *testing.T) {
	w, clock := newWeighting(1)
	w.RecordCategoryUse(trigger.CategoryFear)
	clock.advance(5 * time.Minute)
	w.RecordCategoryUse(trigger.CategoryFear)
	clock.advance(6 * time.Minute)
	assert.Equal(t, 1, w.RecentCategoryUses(trigger.CategoryFear))
	assert.Equal(t, 0, w.RecentCategoryUses(trigger.CategoryThoughts))
}
