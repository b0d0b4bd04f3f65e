package session

import (
	"context"

	"github.com/spec-kit/portal-gateway/internal/domain"
)

// Stats is the session statistics read model.
type Stats struct {
	ActiveUsers         int                         `json:"activeUsers"`
	TotalActiveSessions int                         `json:"totalActiveSessions"`
	SessionsByDevice    map[domain.DeviceType]int64 `json:"sessionsByDevice"`
}

// CounterStore holds the shared per-device session counters and the active
// user set. Increments and decrements during normal operation can drift after
// partial failures; the Syncer periodically rewrites them from ground truth.
type CounterStore interface {
	IncrDevice(ctx context.Context, device domain.DeviceType) error
	DecrDevice(ctx context.Context, device domain.DeviceType) error
	SetDevice(ctx context.Context, device domain.DeviceType, count int64) error
	DeviceCounts(ctx context.Context) (map[domain.DeviceType]int64, error)

	AddActiveUser(ctx context.Context, userID string) error
	RemoveActiveUser(ctx context.Context, userID string) error
	ReplaceActiveUsers(ctx context.Context, userIDs []string) error
	ActiveUserCount(ctx context.Context) (int, error)

	CachedStats(ctx context.Context) (*Stats, bool, error)
	StoreStats(ctx context.Context, stats *Stats) error
	InvalidateStats(ctx context.Context) error
}

// trackedDevices lists the device buckets counters are kept for.
var trackedDevices = []domain.DeviceType{
	domain.DeviceMobile,
	domain.DeviceDesktop,
	domain.DeviceTablet,
	domain.DeviceUnknown,
}
