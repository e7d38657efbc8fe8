package store

import (
	"context"
	"sync"
	"time"

	"auction-marketplace/backend/internal/session/domain"
)

// MemoryStore is the in-memory Store implementation. State is process-local:
// a restart invalidates all sessions, and horizontal scaling needs the Redis
// backend instead.
type MemoryStore struct {
	mu   sync.Mutex
	m    map[string]*domain.Session
	nowF func() time.Time
}

// NewMemoryStore returns a new in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		m:    make(map[string]*domain.Session),
		nowF: func() time.Time { return time.Now().UTC() },
	}
}

// Create stores a new session record and returns its id.
func (s *MemoryStore) Create(ctx context.Context, data domain.Data) (string, error) {
	id, err := NewSessionID()
	if err != nil {
		return "", err
	}
	now := s.nowF()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[id] = &domain.Session{
		ID:           id,
		Data:         data,
		CreatedAt:    now,
		LastAccessed: now,
	}
	return id, nil
}

// Get returns the session for id, touching LastAccessed, or nil if missing.
func (s *MemoryStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	now := s.nowF()
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.m[id]
	if !ok {
		return nil, nil
	}
	// LastAccessed is monotonically non-decreasing while the session lives.
	if now.After(sess.LastAccessed) {
		sess.LastAccessed = now
	}
	cp := *sess
	return &cp, nil
}

// Destroy removes the session for id. Returns false if it did not exist.
func (s *MemoryStore) Destroy(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.m[id]; !ok {
		return false, nil
	}
	delete(s.m, id)
	return true, nil
}

// DestroyAllForUser removes every session owned by userID.
func (s *MemoryStore) DestroyAllForUser(ctx context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, sess := range s.m {
		if sess.Data.UserID == userID {
			delete(s.m, id)
			n++
		}
	}
	return n, nil
}

// SweepExpired removes sessions idle longer than maxIdle.
func (s *MemoryStore) SweepExpired(ctx context.Context, maxIdle time.Duration) (int, error) {
	now := s.nowF()
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, sess := range s.m {
		if now.Sub(sess.LastAccessed) > maxIdle {
			delete(s.m, id)
			n++
		}
	}
	return n, nil
}

// Len returns the number of live sessions. Used by tests and health reporting.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.m)
}
