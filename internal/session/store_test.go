package session

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/danielpatrickdp/stress-dost/internal/apperr"
	"github.com/danielpatrickdp/stress-dost/internal/personality"
	"github.com/danielpatrickdp/stress-dost/internal/state"
	"github.com/danielpatrickdp/stress-dost/internal/trigger"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newStore(t *testing.T, capacity int) (*Store, *clock) {
	t.Helper()
	c := &clock{t: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)}
	opts := DefaultOptions()
	opts.Seed = 7
	opts.Now = c.now
	s, err := NewStore(capacity, opts, nil)
	require.NoError(t, err)
	return s, c
}

func TestCreateLookupDestroy(t *testing.T) {
	s, _ := newStore(t, 10)

	sess, err := s.Create("u1", 0, "")
	require.NoError(t, err)
	assert.Equal(t, 5, sess.TotalQuestions)
	assert.Equal(t, trigger.CategoryThoughts, sess.TestCategory)
	assert.Equal(t, 1.0, sess.CurrentDifficulty)
	assert.Equal(t, 1, s.Len())

	got, err := s.Lookup(sess.ID)
	require.NoError(t, err)
	assert.Same(t, sess, got)

	removed, err := s.Destroy(sess.ID)
	require.NoError(t, err)
	assert.Same(t, sess, removed)
	assert.Equal(t, 0, s.Len())

	_, err = s.Lookup(sess.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	_, err = s.Destroy(sess.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestCreateValidates(t *testing.T) {
	s, _ := newStore(t, 10)
	_, err := s.Create("", 5, trigger.CategoryFear)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	_, err = s.Create("u1", 5, "boredom")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestCreateRetriesOnCollision(t *testing.T) {
	s, _ := newStore(t, 10)
	ids := []string{"dup", "dup", "fresh"}
	s.newID = func() string {
		id := ids[0]
		ids = ids[1:]
		return id
	}
	a, err := s.Create("u1", 5, "")
	require.NoError(t, err)
	b, err := s.Create("u2", 5, "")
	require.NoError(t, err)
	assert.Equal(t, "dup", a.ID)
	assert.Equal(t, "fresh", b.ID)
}

func TestCapacityEvictsOldest(t *testing.T) {
	s, _ := newStore(t, 2)
	a, _ := s.Create("a", 5, "")
	b, _ := s.Create("b", 5, "")
	_, _ = s.Create("c", 5, "")

	_, err := s.Lookup(a.ID)
	assert.Error(t, err)
	_, err = s.Lookup(b.ID)
	assert.NoError(t, err)
}

func TestWithSerializesAccess(t *testing.T) {
	s, _ := newStore(t, 10)
	sess, err := s.Create("u1", 5, "")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.With(sess.ID, func(x *Session) error {
				x.PopupCounter++
				return nil
			})
		}()
	}
	wg.Wait()

	require.NoError(t, s.With(sess.ID, func(x *Session) error {
		assert.Equal(t, 50, x.PopupCounter)
		return nil
	}))
	assert.True(t, apperr.Is(s.With("nope", func(*Session) error { return nil }), apperr.KindNotFound))
}

func TestSweepAndJanitor(t *testing.T) {
	s, c := newStore(t, 10)
	old, _ := s.Create("old", 5, "")
	c.advance(20 * time.Minute)
	fresh, _ := s.Create("fresh", 5, "")

	assert.Equal(t, 1, s.Sweep(15*time.Minute))
	_, err := s.Lookup(old.ID)
	assert.Error(t, err)
	_, err = s.Lookup(fresh.ID)
	assert.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.RunJanitor(ctx, time.Millisecond, time.Hour)
		close(done)
	}()
	time.Sleep(5 * time.Millisecond)
	cancel()
	<-done
}

func TestRecordDeliveryAndView(t *testing.T) {
	s, _ := newStore(t, 10)
	sess, _ := s.Create("u1", 8, trigger.CategoryFear)

	sess.RecordDelivery("a", 1, SourceDataset)
	sess.RecordDelivery("b", 2, SourceGenerator)
	sess.RecordDelivery("a", 3, SourceDataset)
	assert.True(t, sess.WasTriggered("a"))
	assert.False(t, sess.WasTriggered("c"))
	assert.Equal(t, []string{"a", "b", "a"}, sess.Triggered())
	assert.Equal(t, 3, sess.PopupCounter)

	v := sess.View()
	assert.Equal(t, 2, v.TriggerSourceCounts[SourceDataset])
	assert.Nil(t, v.PersonalityVector)
	assert.Equal(t, []string{}, v.CurrentTraits)

	sess.Tracker.Seed(state.VectorRecord{Vector: personality.Vector{personality.Resilience: 0.9}})
	sess.Meters.Fear = 0.12345
	v = sess.View()
	assert.Equal(t, 0.9, v.PersonalityVector[personality.Resilience])
	assert.Equal(t, 0.123, v.FearMeter)
	assert.Equal(t, 0.12345, v.Meters.Fear)

	b, err := json.Marshal(v)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"trigger_source_counts":{"dataset":2,"generator":1}`)
}

func TestSessionsAreIndependent(t *testing.T) {
	s, _ := newStore(t, 10)
	a, _ := s.Create("a", 5, "")
	b, _ := s.Create("b", 5, "")
	a.Meters.Fear = 0.9
	a.Difficulty.Add(true, 1)
	assert.Equal(t, 0.0, b.Meters.Fear)
	assert.Empty(t, b.Difficulty.Window())
	assert.NotSame(t, a.Engine, b.Engine)
	assert.NotSame(t, a.Rand, b.Rand)
}
