package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/portal-gateway/internal/domain"
)

func newTestSession(id, userID, refreshID string, expiresAt time.Time) *domain.Session {
	return &domain.Session{
		ID:             id,
		UserID:         userID,
		DeviceType:     domain.DeviceDesktop,
		RefreshTokenID: refreshID,
		CreatedAt:      time.Now(),
		LastSeenAt:     time.Now(),
		ExpiresAt:      expiresAt,
	}
}

func TestMemoryStoreCreateGet(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	sess := newTestSession("s1", "u1", "r1", time.Now().Add(time.Hour))
	require.NoError(t, store.Create(ctx, sess))

	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, "r1", got.RefreshTokenID)

	_, err = store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreRotation(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, newTestSession("s1", "u1", "r1", time.Now().Add(time.Hour))))

	require.NoError(t, store.Rotate(ctx, "s1", "r1", "r2"))

	// The superseded id no longer rotates.
	err := store.Rotate(ctx, "s1", "r1", "r3")
	assert.ErrorIs(t, err, ErrRefreshReplayed)

	// The current id does.
	require.NoError(t, store.Rotate(ctx, "s1", "r2", "r3"))

	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "r3", got.RefreshTokenID)
}

func TestMemoryStoreRevoke(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, newTestSession("s1", "u1", "r1", time.Now().Add(time.Hour))))

	require.NoError(t, store.Revoke(ctx, "s1"))
	require.NoError(t, store.Revoke(ctx, "s1"), "revoke is idempotent")
	require.NoError(t, store.Revoke(ctx, "unknown"), "revoking unknown session is not an error")

	err := store.Rotate(ctx, "s1", "r1", "r2")
	assert.ErrorIs(t, err, ErrRevoked)
}

func TestMemoryStoreRevokeAllForUser(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	exp := time.Now().Add(time.Hour)
	require.NoError(t, store.Create(ctx, newTestSession("s1", "u1", "r1", exp)))
	require.NoError(t, store.Create(ctx, newTestSession("s2", "u1", "r2", exp)))
	require.NoError(t, store.Create(ctx, newTestSession("s3", "u2", "r3", exp)))

	revoked, err := store.RevokeAllForUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, revoked)

	active, err := store.Active(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "u2", active[0].UserID)

	revoked, err = store.RevokeAllForUser(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, revoked)
}

func TestMemoryStoreExpiry(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	store := NewMemoryStore().WithClock(func() time.Time { return now })
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, newTestSession("s1", "u1", "r1", now.Add(time.Minute))))

	now = now.Add(2 * time.Minute)

	_, err := store.Get(ctx, "s1")
	assert.ErrorIs(t, err, ErrNotFound)

	active, err := store.Active(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)
}
