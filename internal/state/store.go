package state

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/danielpatrickdp/stress-dost/internal/apperr"
	"github.com/danielpatrickdp/stress-dost/internal/personality"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS vector_versions (
	version_id    TEXT PRIMARY KEY,
	parent_id     TEXT,
	session_id    TEXT NOT NULL,
	vector_json   TEXT NOT NULL,
	traits_json   TEXT,
	created_at    TEXT NOT NULL,
	metrics_json  TEXT,
	FOREIGN KEY (parent_id) REFERENCES vector_versions(version_id)
);

CREATE INDEX IF NOT EXISTS idx_vector_versions_session ON vector_versions(session_id, created_at);

CREATE TABLE IF NOT EXISTS provenance_log (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	version_id    TEXT NOT NULL,
	session_id    TEXT NOT NULL,
	trigger_type  TEXT NOT NULL,
	signals_json  TEXT,
	decision      TEXT NOT NULL,
	reason        TEXT,
	created_at    TEXT NOT NULL,
	FOREIGN KEY (version_id) REFERENCES vector_versions(version_id)
);

CREATE TABLE IF NOT EXISTS active_vector (
	session_id    TEXT PRIMARY KEY,
	version_id    TEXT NOT NULL,
	FOREIGN KEY (version_id) REFERENCES vector_versions(version_id)
);

CREATE TABLE IF NOT EXISTS response_log (
	id                INTEGER PRIMARY KEY AUTOINCREMENT,
	logged_at         TEXT NOT NULL,
	user_id           TEXT NOT NULL,
	session_id        TEXT NOT NULL,
	question_index    INTEGER NOT NULL,
	trigger_text      TEXT NOT NULL,
	trigger_type      TEXT NOT NULL,
	selected_option   TEXT,
	time_taken        REAL NOT NULL,
	is_correct        INTEGER NOT NULL,
	fear_meter        REAL NOT NULL,
	thought_meter     REAL NOT NULL,
	frustration_meter REAL NOT NULL
);
`

// #endregion schema

// #region store-struct
// Store keeps the personality-vector audit trail and the response log in SQLite.
type Store struct {
	db *sql.DB
}

// #endregion store-struct

// #region constructor
// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// NewStoreWithDB wraps an already-migrated database.
func NewStoreWithDB(db *sql.DB) *Store {
	return &Store{db: db}
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for the logging sinks.
func (s *Store) DB() *sql.DB {
	return s.db
}

// #endregion constructor

// #region create-initial
// CreateInitial stores the assessment vector as the first version of a
// session and makes it active.
func (s *Store) CreateInitial(sessionID string, v personality.Vector, traits []string) (VectorRecord, error) {
	rec := VectorRecord{
		VersionID: uuid.New().String(),
		SessionID: sessionID,
		Vector:    v.Clone(),
		Traits:    append([]string(nil), traits...),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.CommitVersion(rec); err != nil {
		return VectorRecord{}, fmt.Errorf("create initial: %w", err)
	}
	return rec, nil
}

// #endregion create-initial

// #region commit
// CommitVersion inserts a version and moves the session's active pointer to it.
func (s *Store) CommitVersion(rec VectorRecord) error {
	vecJSON, err := json.Marshal(rec.Vector)
	if err != nil {
		return fmt.Errorf("marshal vector: %w", err)
	}
	traitsJSON, err := json.Marshal(rec.Traits)
	if err != nil {
		return fmt.Errorf("marshal traits: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO vector_versions (version_id, parent_id, session_id, vector_json, traits_json, created_at, metrics_json)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.VersionID, nullIfEmpty(rec.ParentID), rec.SessionID, string(vecJSON), string(traitsJSON),
		rec.CreatedAt.Format(time.RFC3339Nano), nullIfEmpty(rec.MetricsJSON),
	)
	if err != nil {
		return fmt.Errorf("insert version: %w", err)
	}

	_, err = tx.Exec(
		`INSERT INTO active_vector (session_id, version_id) VALUES (?, ?)
		 ON CONFLICT(session_id) DO UPDATE SET version_id = excluded.version_id`,
		rec.SessionID, rec.VersionID,
	)
	if err != nil {
		return fmt.Errorf("set active: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// #endregion commit

// #region get
// GetCurrent reads the active version of a session.
func (s *Store) GetCurrent(sessionID string) (VectorRecord, error) {
	var versionID string
	err := s.db.QueryRow(`SELECT version_id FROM active_vector WHERE session_id = ?`, sessionID).Scan(&versionID)
	if errors.Is(err, sql.ErrNoRows) {
		return VectorRecord{}, apperr.NotFound("no vector for session %s", sessionID)
	}
	if err != nil {
		return VectorRecord{}, fmt.Errorf("get active: %w", err)
	}
	return s.GetVersion(versionID)
}

// GetVersion retrieves a specific version by ID.
func (s *Store) GetVersion(id string) (VectorRecord, error) {
	row := s.db.QueryRow(
		`SELECT version_id, parent_id, session_id, vector_json, traits_json, created_at, metrics_json
		 FROM vector_versions WHERE version_id = ?`, id,
	)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return VectorRecord{}, apperr.NotFound("version %s not found", id)
	}
	if err != nil {
		return VectorRecord{}, fmt.Errorf("get version %s: %w", id, err)
	}
	return rec, nil
}

// #endregion get

// #region rollback
// Rollback points a session back at one of its earlier versions.
func (s *Store) Rollback(sessionID, targetVersionID string) error {
	var owner string
	err := s.db.QueryRow(
		`SELECT session_id FROM vector_versions WHERE version_id = ?`, targetVersionID,
	).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && owner != sessionID) {
		return apperr.NotFound("version %s not found for session %s", targetVersionID, sessionID)
	}
	if err != nil {
		return fmt.Errorf("check version: %w", err)
	}

	_, err = s.db.Exec(`UPDATE active_vector SET version_id = ? WHERE session_id = ?`, targetVersionID, sessionID)
	if err != nil {
		return fmt.Errorf("rollback: %w", err)
	}
	return nil
}

// #endregion rollback

// #region list-versions
// ListVersions returns the most recent versions, newest first. An empty
// sessionID lists every session.
func (s *Store) ListVersions(sessionID string, limit int) ([]VersionWithProvenance, error) {
	rows, err := s.db.Query(
		`SELECT v.version_id, v.parent_id, v.session_id, v.vector_json, v.traits_json, v.created_at, v.metrics_json,
		        COALESCE(p.trigger_type, ''), COALESCE(p.decision, ''), COALESCE(p.reason, '')
		 FROM vector_versions v
		 LEFT JOIN provenance_log p ON p.version_id = v.version_id
		 WHERE (? = '' OR v.session_id = ?)
		 ORDER BY v.created_at DESC LIMIT ?`, sessionID, sessionID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	defer rows.Close()

	var out []VersionWithProvenance
	for rows.Next() {
		var v VersionWithProvenance
		rec, err := scanRecord(rows, &v.TriggerType, &v.Decision, &v.Reason)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		v.VectorRecord = rec
		out = append(out, v)
	}
	return out, rows.Err()
}

// #endregion list-versions

// #region helpers
type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner, extra ...any) (VectorRecord, error) {
	var rec VectorRecord
	var parentID, traitsJSON, metricsJSON sql.NullString
	var vecJSON, createdStr string

	dest := append([]any{&rec.VersionID, &parentID, &rec.SessionID, &vecJSON, &traitsJSON, &createdStr, &metricsJSON}, extra...)
	if err := row.Scan(dest...); err != nil {
		return VectorRecord{}, err
	}
	rec.ParentID = parentID.String
	rec.MetricsJSON = metricsJSON.String
	if err := json.Unmarshal([]byte(vecJSON), &rec.Vector); err != nil {
		return VectorRecord{}, fmt.Errorf("unmarshal vector: %w", err)
	}
	if traitsJSON.Valid {
		if err := json.Unmarshal([]byte(traitsJSON.String), &rec.Traits); err != nil {
			return VectorRecord{}, fmt.Errorf("unmarshal traits: %w", err)
		}
	}
	rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
	return rec, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers
