package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/portal-gateway/internal/domain"
)

func seedSessions(t *testing.T, store *MemoryStore) {
	t.Helper()
	ctx := context.Background()
	exp := time.Now().Add(time.Hour)

	sessions := []*domain.Session{
		{ID: "s1", UserID: "u1", DeviceType: domain.DeviceDesktop, RefreshTokenID: "r1", ExpiresAt: exp},
		{ID: "s2", UserID: "u1", DeviceType: domain.DeviceMobile, RefreshTokenID: "r2", ExpiresAt: exp},
		{ID: "s3", UserID: "u2", DeviceType: domain.DeviceDesktop, RefreshTokenID: "r3", ExpiresAt: exp},
	}
	for _, sess := range sessions {
		require.NoError(t, store.Create(ctx, sess))
	}
}

func TestSyncerReconcilesDrift(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	counters := NewMemoryCounters()
	seedSessions(t, store)

	// Simulate drift from partial failures.
	require.NoError(t, counters.SetDevice(ctx, domain.DeviceDesktop, 40))
	require.NoError(t, counters.SetDevice(ctx, domain.DeviceTablet, 7))
	require.NoError(t, counters.AddActiveUser(ctx, "ghost-user"))

	syncer := NewSyncer(store, counters, nil)
	require.NoError(t, syncer.Run(ctx))

	counts, err := counters.DeviceCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts[domain.DeviceDesktop])
	assert.Equal(t, int64(1), counts[domain.DeviceMobile])
	assert.Zero(t, counts[domain.DeviceTablet])
	assert.Zero(t, counts[domain.DeviceUnknown])

	users, err := counters.ActiveUserCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, users)
}

func TestSyncerIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	counters := NewMemoryCounters()
	seedSessions(t, store)

	syncer := NewSyncer(store, counters, nil)
	require.NoError(t, syncer.Run(ctx))

	first, err := counters.DeviceCounts(ctx)
	require.NoError(t, err)

	require.NoError(t, syncer.Run(ctx))
	second, err := counters.DeviceCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	users, err := counters.ActiveUserCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, users)
}

func TestComputeStats(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	counters := NewMemoryCounters()
	seedSessions(t, store)

	require.NoError(t, NewSyncer(store, counters, nil).Run(ctx))

	stats, err := ComputeStats(ctx, counters)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.ActiveUsers)
	assert.Equal(t, 3, stats.TotalActiveSessions)
	assert.Equal(t, int64(2), stats.SessionsByDevice[domain.DeviceDesktop])
	assert.Equal(t, int64(1), stats.SessionsByDevice[domain.DeviceMobile])

	// Second read comes from the cache and matches.
	cached, err := ComputeStats(ctx, counters)
	require.NoError(t, err)
	assert.Equal(t, stats, cached)
}

func TestDetectDevice(t *testing.T) {
	cases := []struct {
		name      string
		userAgent string
		want      domain.DeviceType
	}{
		{"empty", "", domain.DeviceUnknown},
		{"iphone", "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) Mobile/15E148", domain.DeviceMobile},
		{"android phone", "Mozilla/5.0 (Linux; Android 14; Pixel 8) Mobile Safari/537.36", domain.DeviceMobile},
		{"ipad", "Mozilla/5.0 (iPad; CPU OS 17_0 like Mac OS X)", domain.DeviceTablet},
		{"android tablet", "Mozilla/5.0 (Linux; Android 14; SM-X910) Safari/537.36", domain.DeviceTablet},
		{"desktop", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) Chrome/120.0", domain.DeviceDesktop},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DetectDevice(tc.userAgent))
		})
	}
}
