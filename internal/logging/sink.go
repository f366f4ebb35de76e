package logging

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/stress-dost/internal/apperr"
)

// #region sink
// Sink receives one row per trigger response. Writes are best-effort: a
// failing sink never blocks the session.
type Sink interface {
	Write(ctx context.Context, row ResponseRow) error
}

// #endregion sink

// #region sqlite-sink
// SQLiteSink appends rows to the response_log table.
type SQLiteSink struct {
	db *sql.DB
}

// NewSQLiteSink writes into an already-migrated database (see state.NewStore).
func NewSQLiteSink(db *sql.DB) *SQLiteSink {
	return &SQLiteSink{db: db}
}

func (s *SQLiteSink) Write(ctx context.Context, row ResponseRow) error {
	if row.LoggedAt.IsZero() {
		row.LoggedAt = time.Now().UTC()
	}
	correct := 0
	if row.Correct {
		correct = 1
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO response_log (logged_at, user_id, session_id, question_index, trigger_text, trigger_type,
		 selected_option, time_taken, is_correct, fear_meter, thought_meter, frustration_meter)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		row.LoggedAt.Format(time.RFC3339Nano),
		row.UserID,
		row.SessionID,
		row.QuestionIndex,
		row.TriggerText,
		row.TriggerType,
		nullIfEmpty(row.SelectedOption),
		row.TimeTaken,
		correct,
		row.FearMeter,
		row.ThoughtMeter,
		row.FrustrationMeter,
	)
	if err != nil {
		return fmt.Errorf("insert response row: %w", err)
	}
	return nil
}

// Recent returns up to limit rows, newest first. An empty sessionID matches
// every session.
func (s *SQLiteSink) Recent(ctx context.Context, sessionID string, limit int) ([]ResponseRow, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT logged_at, user_id, session_id, question_index, trigger_text, trigger_type,
		        selected_option, time_taken, is_correct, fear_meter, thought_meter, frustration_meter
		 FROM response_log
		 WHERE (? = '' OR session_id = ?)
		 ORDER BY id DESC LIMIT ?`, sessionID, sessionID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query response rows: %w", err)
	}
	defer rows.Close()

	var out []ResponseRow
	for rows.Next() {
		var (
			r        ResponseRow
			loggedAt string
			option   sql.NullString
			correct  int
		)
		if err := rows.Scan(&loggedAt, &r.UserID, &r.SessionID, &r.QuestionIndex, &r.TriggerText, &r.TriggerType,
			&option, &r.TimeTaken, &correct, &r.FearMeter, &r.ThoughtMeter, &r.FrustrationMeter); err != nil {
			return nil, fmt.Errorf("scan response row: %w", err)
		}
		r.LoggedAt, err = time.Parse(time.RFC3339Nano, loggedAt)
		if err != nil {
			return nil, fmt.Errorf("parse logged_at: %w", err)
		}
		r.SelectedOption = option.String
		r.Correct = correct != 0
		out = append(out, r)
	}
	return out, rows.Err()
}

// #endregion sqlite-sink

// #region redis-sink
// RedisSink pushes JSON rows onto a capped Redis list.
type RedisSink struct {
	client  redis.Cmdable
	key     string
	maxSize int64
}

// NewRedisSink keeps at most maxSize rows under key; maxSize <= 0 disables trimming.
func NewRedisSink(client redis.Cmdable, key string, maxSize int) *RedisSink {
	if key == "" {
		key = "stressdost:responses"
	}
	return &RedisSink{client: client, key: key, maxSize: int64(maxSize)}
}

func (s *RedisSink) Write(ctx context.Context, row ResponseRow) error {
	if row.LoggedAt.IsZero() {
		row.LoggedAt = time.Now().UTC()
	}
	b, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("marshal response row: %w", err)
	}
	if err := s.client.RPush(ctx, s.key, b).Err(); err != nil {
		return fmt.Errorf("rpush %s: %w", s.key, err)
	}
	if s.maxSize > 0 {
		if err := s.client.LTrim(ctx, s.key, -s.maxSize, -1).Err(); err != nil {
			return fmt.Errorf("ltrim %s: %w", s.key, err)
		}
	}
	return nil
}

// Recent returns the last n rows in insertion order.
func (s *RedisSink) Recent(ctx context.Context, n int) ([]ResponseRow, error) {
	items, err := s.client.LRange(ctx, s.key, int64(-n), -1).Result()
	if err != nil {
		return nil, fmt.Errorf("lrange %s: %w", s.key, err)
	}
	out := make([]ResponseRow, 0, len(items))
	for _, item := range items {
		var r ResponseRow
		if err := json.Unmarshal([]byte(item), &r); err != nil {
			return nil, fmt.Errorf("decode response row: %w", err)
		}
		out = append(out, r)
	}
	return out, nil
}

// #endregion redis-sink

// #region multi-sink
// MultiSink fans a row out to every configured sink. Failures are logged and
// returned together as one logging error; the remaining sinks still run.
type MultiSink struct {
	sinks  []Sink
	logger *zap.Logger
}

// NewMultiSink drops nil sinks.
func NewMultiSink(logger *zap.Logger, sinks ...Sink) *MultiSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &MultiSink{logger: logger.Named("sink")}
	for _, s := range sinks {
		if s != nil {
			m.sinks = append(m.sinks, s)
		}
	}
	return m
}

// Len is the number of attached sinks.
func (m *MultiSink) Len() int { return len(m.sinks) }

func (m *MultiSink) Write(ctx context.Context, row ResponseRow) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Write(ctx, row); err != nil {
			m.logger.Warn("response sink write failed",
				zap.String("session_id", row.SessionID),
				zap.Int("question_index", row.QuestionIndex),
				zap.Error(err),
			)
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return apperr.Logging("write response row", errors.Join(errs...))
	}
	return nil
}

// #endregion multi-sink
