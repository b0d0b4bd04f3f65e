package session

import (
	"context"
	"sync"
	"time"

	"github.com/spec-kit/portal-gateway/internal/domain"
)

// MemoryStore is an in-process Store used in tests and single-node setups
// without Redis.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*domain.Session
	now      func() time.Time
}

// NewMemoryStore builds an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*domain.Session),
		now:      time.Now,
	}
}

// WithClock overrides the time source, used by tests to control expiry.
func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	s.now = now
	return s
}

func (s *MemoryStore) Create(_ context.Context, sess *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *sess
	s.sessions[sess.ID] = &copied
	return nil
}

func (s *MemoryStore) Get(_ context.Context, sessionID string) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok || s.expired(sess) {
		return nil, ErrNotFound
	}
	copied := *sess
	return &copied, nil
}

func (s *MemoryStore) Rotate(_ context.Context, sessionID, oldRefreshID, newRefreshID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok || s.expired(sess) {
		return ErrNotFound
	}
	if sess.Revoked {
		return ErrRevoked
	}
	if sess.RefreshTokenID != oldRefreshID {
		return ErrRefreshReplayed
	}
	sess.RefreshTokenID = newRefreshID
	sess.LastSeenAt = s.now()
	return nil
}

func (s *MemoryStore) Revoke(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[sessionID]; ok {
		sess.Revoked = true
	}
	return nil
}

func (s *MemoryStore) RevokeAllForUser(_ context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	revoked := 0
	for _, sess := range s.sessions {
		if sess.UserID == userID && !sess.Revoked {
			sess.Revoked = true
			revoked++
		}
	}
	return revoked, nil
}

func (s *MemoryStore) Active(_ context.Context) ([]domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	active := make([]domain.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		if !sess.Revoked && !s.expired(sess) {
			active = append(active, *sess)
		}
	}
	return active, nil
}

func (s *MemoryStore) expired(sess *domain.Session) bool {
	return !sess.ExpiresAt.IsZero() && !s.now().Before(sess.ExpiresAt)
}
