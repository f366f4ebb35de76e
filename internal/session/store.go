package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/stress-dost/internal/apperr"
	"github.com/danielpatrickdp/stress-dost/internal/trigger"
)

// #region store
// Store holds live sessions in a bounded LRU. When full, the least recently
// used session is evicted.
type Store struct {
	sessions *lru.Cache[string, *Session]
	opts     Options
	newID    func() string
	logger   *zap.Logger
}

// NewStore creates a store for at most capacity sessions.
func NewStore(capacity int, opts Options, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	s := &Store{opts: opts, newID: uuid.NewString, logger: logger.Named("session")}
	cache, err := lru.NewWithEvict[string, *Session](capacity, func(id string, _ *Session) {
		s.logger.Info("session evicted", zap.String("session_id", id))
	})
	if err != nil {
		return nil, fmt.Errorf("create session cache: %w", err)
	}
	s.sessions = cache
	return s, nil
}

// Create registers a new session. An empty category defaults to thoughts and
// a non-positive question count to five.
func (s *Store) Create(userID string, totalQuestions int, category trigger.Category) (*Session, error) {
	if userID == "" {
		return nil, apperr.Validation("user_id is required to start a session")
	}
	if category == "" {
		category = trigger.CategoryThoughts
	}
	if _, err := trigger.ParseCategory(string(category)); err != nil {
		return nil, err
	}

	id := s.newID()
	for s.sessions.Contains(id) {
		id = s.newID()
	}
	sess := New(id, userID, s.opts)
	if totalQuestions > 0 {
		sess.TotalQuestions = totalQuestions
	}
	sess.TestCategory = category
	s.sessions.Add(id, sess)
	s.logger.Debug("session created", zap.String("session_id", id), zap.String("user_id", userID))
	return sess, nil
}

// Lookup returns a session without locking it.
func (s *Store) Lookup(id string) (*Session, error) {
	sess, ok := s.sessions.Get(id)
	if !ok {
		return nil, apperr.NotFound("invalid session %q", id)
	}
	return sess, nil
}

// With runs fn with the session locked and marks it active.
func (s *Store) With(id string, fn func(*Session) error) error {
	sess, err := s.Lookup(id)
	if err != nil {
		return err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.LastActive = s.opts.Now()
	return fn(sess)
}

// Destroy removes a session and returns it.
func (s *Store) Destroy(id string) (*Session, error) {
	sess, ok := s.sessions.Peek(id)
	if !ok {
		return nil, apperr.NotFound("invalid session %q", id)
	}
	s.sessions.Remove(id)
	return sess, nil
}

// Len is the number of live sessions.
func (s *Store) Len() int { return s.sessions.Len() }

// #endregion store

// #region janitor
// Sweep drops sessions idle for longer than maxIdle and returns how many
// were removed.
func (s *Store) Sweep(maxIdle time.Duration) int {
	cutoff := s.opts.Now().Add(-maxIdle)
	removed := 0
	for _, id := range s.sessions.Keys() {
		sess, ok := s.sessions.Peek(id)
		if !ok {
			continue
		}
		sess.mu.Lock()
		idle := sess.LastActive.Before(cutoff)
		sess.mu.Unlock()
		if idle {
			s.sessions.Remove(id)
			removed++
		}
	}
	return removed
}

// RunJanitor sweeps every interval until ctx is done.
func (s *Store) RunJanitor(ctx context.Context, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(maxIdle); n > 0 {
				s.logger.Info("idle sessions swept", zap.Int("removed", n))
			}
		}
	}
}

// #endregion janitor
