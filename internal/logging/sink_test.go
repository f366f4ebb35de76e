package logging

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielpatrickdp/stress-dost/internal/apperr"
	"github.com/danielpatrickdp/stress-dost/internal/state"
)

func sampleRow(i int) ResponseRow {
	return ResponseRow{
		LoggedAt:         time.Date(2026, 3, 1, 10, 0, i, 0, time.UTC),
		UserID:           "u1",
		SessionID:        "s1",
		QuestionIndex:    i,
		TriggerText:      TriggerLogText("Worried about the cutoff?", []string{"Yes", "A bit", "No"}),
		TriggerType:      "option_based",
		SelectedOption:   "0",
		TimeTaken:        2.5,
		Correct:          i%2 == 0,
		FearMeter:        0.3,
		ThoughtMeter:     0.1,
		FrustrationMeter: 0.05,
	}
}

func TestSQLiteSinkRoundTrip(t *testing.T) {
	store, err := state.NewStore(filepath.Join(t.TempDir(), "sink.db"))
	require.NoError(t, err)
	defer store.Close()

	sink := NewSQLiteSink(store.DB())
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.NoError(t, sink.Write(ctx, sampleRow(i)))
	}
	other := sampleRow(9)
	other.SessionID = "s2"
	other.SelectedOption = ""
	require.NoError(t, sink.Write(ctx, other))

	rows, err := sink.Recent(ctx, "s1", 2)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 2, rows[0].QuestionIndex)
	assert.True(t, rows[0].Correct)
	assert.Equal(t, "0", rows[0].SelectedOption)

	all, err := sink.Recent(ctx, "", 0)
	require.NoError(t, err)
	assert.Len(t, all, 4)
	assert.Equal(t, "", all[0].SelectedOption)
	assert.Equal(t, sampleRow(0).LoggedAt, all[3].LoggedAt)
}

func TestRedisSinkCapsList(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	sink := NewRedisSink(client, "", 3)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, sink.Write(ctx, sampleRow(i)))
	}

	items, err := mr.List("stressdost:responses")
	require.NoError(t, err)
	assert.Len(t, items, 3)

	rows, err := sink.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, 2, rows[0].QuestionIndex)
	assert.Equal(t, 4, rows[2].QuestionIndex)
}

func TestRedisSinkUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	mr.Close()

	err := NewRedisSink(client, "k", 0).Write(context.Background(), sampleRow(0))
	assert.Error(t, err)
}

type failingSink struct{ calls int }

func (f *failingSink) Write(context.Context, ResponseRow) error {
	f.calls++
	return errors.New("sheet offline")
}

type recordingSink struct{ rows []ResponseRow }

func (r *recordingSink) Write(_ context.Context, row ResponseRow) error {
	r.rows = append(r.rows, row)
	return nil
}

func TestMultiSinkContinuesPastFailure(t *testing.T) {
	bad := &failingSink{}
	good := &recordingSink{}
	m := NewMultiSink(nil, bad, nil, good)
	assert.Equal(t, 2, m.Len())

	err := m.Write(context.Background(), sampleRow(1))
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindLogging))
	assert.Equal(t, 1, bad.calls)
	assert.Len(t, good.rows, 1)

	assert.NoError(t, NewMultiSink(nil, good).Write(context.Background(), sampleRow(2)))
}
