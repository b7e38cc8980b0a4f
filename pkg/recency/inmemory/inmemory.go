// Package inmemory provides an in-memory recency.Store used for tests and
// single-process development runs.
package inmemory

import (
	"context"
	"sync"
	"time"

	"github.com/quietgrove/dossier/pkg/recency"
)

type session struct {
	// turns is kept newest-first, mirroring the list-push order of the
	// redis backend. Read reverses into chronological order.
	turns     []recency.Turn
	expiresAt time.Time
}

// Store implements recency.Store backed by a mutex-guarded map.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*session

	// now is swappable for expiry tests.
	now func() time.Time
}

// NewStore creates an empty in-memory recency store.
func NewStore() *Store {
	return &Store{
		sessions: make(map[string]*session),
		now:      time.Now,
	}
}

// SetNowFunc overrides the clock. Test hook only.
func (s *Store) SetNowFunc(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Store) Append(_ context.Context, sessionID, role, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.live(sessionID)
	if sess == nil {
		sess = &session{}
		s.sessions[sessionID] = sess
	}

	sess.turns = append([]recency.Turn{{Role: role, Content: content}}, sess.turns...)
	if len(sess.turns) > recency.MaxTurns {
		sess.turns = sess.turns[:recency.MaxTurns]
	}
	sess.expiresAt = s.now().Add(recency.TTL)

	return nil
}

func (s *Store) Read(_ context.Context, sessionID string, limit int) ([]recency.Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = recency.MaxTurns
	}

	sess := s.live(sessionID)
	if sess == nil {
		return nil, nil
	}

	n := min(limit, len(sess.turns))
	out := make([]recency.Turn, n)
	for i := 0; i < n; i++ {
		out[n-1-i] = sess.turns[i]
	}

	return out, nil
}

func (s *Store) Info(_ context.Context, sessionID string) (recency.Info, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.live(sessionID)
	if sess == nil {
		return recency.Info{}, nil
	}

	return recency.Info{
		Count:  len(sess.turns),
		TTL:    sess.expiresAt.Sub(s.now()),
		Exists: len(sess.turns) > 0,
	}, nil
}

func (s *Store) Clear(_ context.Context, sessionID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.live(sessionID)
	delete(s.sessions, sessionID)

	return sess != nil && len(sess.turns) > 0, nil
}

func (s *Store) Close() error {
	return nil
}

// live returns the session if present and unexpired, dropping it otherwise.
// Callers must hold the mutex.
func (s *Store) live(sessionID string) *session {
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil
	}
	if s.now().After(sess.expiresAt) {
		delete(s.sessions, sessionID)
		return nil
	}
	return sess
}
