package session

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/portal-gateway/internal/domain"
)

// Syncer reconciles the shared counter store against the session records.
// Increments and decrements issued on the request path can drift when one
// half of an update fails; the syncer rewrites every counter from ground
// truth, so running it repeatedly yields the same values.
type Syncer struct {
	sessions Store
	counters CounterStore
	logger   *zap.Logger
}

// NewSyncer builds a reconciliation job.
func NewSyncer(sessions Store, counters CounterStore, logger *zap.Logger) *Syncer {
	return &Syncer{sessions: sessions, counters: counters, logger: logger}
}

// Run recomputes device counters and the active user set from active
// sessions, then invalidates the cached stats read model.
func (s *Syncer) Run(ctx context.Context) error {
	active, err := s.sessions.Active(ctx)
	if err != nil {
		return err
	}

	deviceCounts := make(map[domain.DeviceType]int64, len(trackedDevices))
	users := make(map[string]struct{})
	for _, sess := range active {
		device := sess.DeviceType
		if device == "" {
			device = domain.DeviceUnknown
		}
		deviceCounts[device]++
		users[sess.UserID] = struct{}{}
	}

	for _, device := range trackedDevices {
		if err := s.counters.SetDevice(ctx, device, deviceCounts[device]); err != nil {
			return err
		}
	}

	userIDs := make([]string, 0, len(users))
	for id := range users {
		userIDs = append(userIDs, id)
	}
	if err := s.counters.ReplaceActiveUsers(ctx, userIDs); err != nil {
		return err
	}
	if err := s.counters.InvalidateStats(ctx); err != nil {
		return err
	}

	if s.logger != nil {
		s.logger.Info("session counters synced",
			zap.Int("active_sessions", len(active)),
			zap.Int("active_users", len(userIDs)))
	}
	return nil
}

// ComputeStats returns the stats read model, served from the short-lived
// cache when fresh.
func ComputeStats(ctx context.Context, counters CounterStore) (*Stats, error) {
	if cached, ok, err := counters.CachedStats(ctx); err == nil && ok {
		return cached, nil
	}

	deviceCounts, err := counters.DeviceCounts(ctx)
	if err != nil {
		return nil, err
	}
	activeUsers, err := counters.ActiveUserCount(ctx)
	if err != nil {
		return nil, err
	}

	total := int64(0)
	for _, count := range deviceCounts {
		total += count
	}

	stats := &Stats{
		ActiveUsers:         activeUsers,
		TotalActiveSessions: int(total),
		SessionsByDevice:    deviceCounts,
	}
	if err := counters.StoreStats(ctx, stats); err != nil {
		return nil, err
	}
	return stats, nil
}
