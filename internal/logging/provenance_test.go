package logging

import (
	"database/sql"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielpatrickdp/stress-dost/internal/personality"
	"github.com/danielpatrickdp/stress-dost/internal/state"
)

// #region helpers
// provenanceDB opens a migrated store and returns a committed version id
// for provenance rows to reference.
func provenanceDB(t *testing.T) (*sql.DB, string) {
	t.Helper()
	store, err := state.NewStore(filepath.Join(t.TempDir(), "prov.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	rec, err := store.CreateInitial("sess-1", personality.Vector{personality.Resilience: 0.5}, nil)
	require.NoError(t, err)
	return store.DB(), rec.VersionID
}

type provRow struct {
	versionID, sessionID, triggerType, decision string
	signals, reason                             sql.NullString
	createdAt                                   string
}

func readProvenance(t *testing.T, db *sql.DB) []provRow {
	t.Helper()
	rows, err := db.Query(`SELECT version_id, session_id, trigger_type, signals_json, decision, reason, created_at
		FROM provenance_log ORDER BY id`)
	require.NoError(t, err)
	defer rows.Close()
	var out []provRow
	for rows.Next() {
		var r provRow
		require.NoError(t, rows.Scan(&r.versionID, &r.sessionID, &r.triggerType, &r.signals, &r.decision, &r.reason, &r.createdAt))
		out = append(out, r)
	}
	require.NoError(t, rows.Err())
	return out
}

// #endregion helpers

// #region log-decision-tests
func TestLogDecisionWritesRow(t *testing.T) {
	db, ver := provenanceDB(t)
	at := time.Date(2026, 2, 14, 9, 30, 0, 0, time.UTC)

	require.NoError(t, LogDecision(db, ProvenanceEntry{
		VersionID:   ver,
		SessionID:   "sess-1",
		TriggerType: "assessment",
		SignalsJSON: `{"coverage":8}`,
		Decision:    "commit",
		Reason:      "personality assessment",
		CreatedAt:   at,
	}))

	got := readProvenance(t, db)
	require.Len(t, got, 1)
	assert.Equal(t, ver, got[0].versionID)
	assert.Equal(t, "sess-1", got[0].sessionID)
	assert.Equal(t, "assessment", got[0].triggerType)
	assert.Equal(t, "commit", got[0].decision)
	assert.Equal(t, `{"coverage":8}`, got[0].signals.String)
	assert.Equal(t, at.Format(time.RFC3339Nano), got[0].createdAt)
}

func TestLogDecisionDefaults(t *testing.T) {
	db, ver := provenanceDB(t)
	before := time.Now().UTC()

	require.NoError(t, LogDecision(db, ProvenanceEntry{
		VersionID: ver, SessionID: "sess-1", TriggerType: "performance", Decision: "no_op",
	}))

	got := readProvenance(t, db)
	require.Len(t, got, 1)
	assert.False(t, got[0].signals.Valid, "empty signals stored as NULL")
	assert.False(t, got[0].reason.Valid, "empty reason stored as NULL")

	created, err := time.Parse(time.RFC3339Nano, got[0].createdAt)
	require.NoError(t, err)
	assert.False(t, created.Before(before))
}

func TestLogDecisionClosedDB(t *testing.T) {
	store, err := state.NewStore(filepath.Join(t.TempDir(), "closed.db"))
	require.NoError(t, err)
	db := store.DB()
	store.Close()

	err = LogDecision(db, ProvenanceEntry{VersionID: "v", SessionID: "s", TriggerType: "performance", Decision: "commit"})
	assert.ErrorContains(t, err, "log decision")
}

func TestLogUpdate(t *testing.T) {
	rec := UpdateRecord{
		Window:          10,
		Accuracy:        0.2,
		AvgResponseTime: 6.4,
		Adjustments:     map[string]float64{"resilience": -0.05, "stress_sensitivity": 0.08},
		DeltaNorm:       0.094,
		Traits:          []string{"anxious"},
		Decision:        "commit",
		Reason:          "performance update",
	}

	t.Run("fills decision and reason from record", func(t *testing.T) {
		db, ver := provenanceDB(t)
		require.NoError(t, LogUpdate(db, ProvenanceEntry{VersionID: ver, SessionID: "sess-1", TriggerType: "performance"}, rec))

		got := readProvenance(t, db)
		require.Len(t, got, 1)
		assert.Equal(t, "commit", got[0].decision)
		assert.Equal(t, "performance update", got[0].reason.String)

		var back UpdateRecord
		require.NoError(t, json.Unmarshal([]byte(got[0].signals.String), &back))
		assert.Equal(t, rec, back)
	})

	t.Run("entry fields win", func(t *testing.T) {
		db, ver := provenanceDB(t)
		require.NoError(t, LogUpdate(db, ProvenanceEntry{
			VersionID: ver, SessionID: "sess-1", TriggerType: "performance",
			Decision: "no_op", Reason: "below threshold",
		}, rec))

		got := readProvenance(t, db)
		require.Len(t, got, 1)
		assert.Equal(t, "no_op", got[0].decision)
		assert.Equal(t, "below threshold", got[0].reason.String)
	})
}

// #endregion log-decision-tests

func TestNullIfEmpty(t *testing.T) {
	assert.Nil(t, nullIfEmpty(""))
	assert.Equal(t, "x", nullIfEmpty("x"))
}

func TestTriggerLogText(t *testing.T) {
	assert.Equal(t, "Ready?", TriggerLogText("Ready?", nil))
	assert.Equal(t, "Ready? | Options: Yes / No / Maybe", TriggerLogText("Ready?", []string{"Yes", "No", "Maybe"}))
}

func TestNewLogger(t *testing.T) {
	_, err := NewLogger("debug", true)
	require.NoError(t, err)
	_, err = NewLogger("", false)
	require.NoError(t, err)
	_, err = NewLogger("loud", false)
	assert.Error(t, err)
}
