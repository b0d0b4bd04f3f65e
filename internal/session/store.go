// Package session tracks server-side session records: refresh-token rotation
// state, revocation, and the per-device counters derived from them.
package session

import (
	"context"
	"errors"

	"github.com/spec-kit/portal-gateway/internal/domain"
)

var (
	// ErrNotFound indicates the session id is unknown or expired.
	ErrNotFound = errors.New("session not found")
	// ErrRevoked indicates the session was revoked (logout).
	ErrRevoked = errors.New("session revoked")
	// ErrRefreshReplayed indicates a refresh token that rotation has already
	// superseded was presented again.
	ErrRefreshReplayed = errors.New("refresh token already rotated")
)

// Store persists session records.
type Store interface {
	Create(ctx context.Context, sess *domain.Session) error
	Get(ctx context.Context, sessionID string) (*domain.Session, error)
	// Rotate swaps the session's current refresh-token id. It fails with
	// ErrRevoked for revoked sessions and ErrRefreshReplayed when oldRefreshID
	// is no longer current.
	Rotate(ctx context.Context, sessionID, oldRefreshID, newRefreshID string) error
	// Revoke marks the session revoked. Revoking twice is not an error.
	Revoke(ctx context.Context, sessionID string) error
	// RevokeAllForUser revokes every session owned by the user and reports how
	// many were affected.
	RevokeAllForUser(ctx context.Context, userID string) (int, error)
	// Active lists sessions that are neither revoked nor expired. Ground truth
	// for counter reconciliation.
	Active(ctx context.Context) ([]domain.Session, error)
}
