package session

import (
	"context"
	"sync"
	"time"

	"github.com/spec-kit/portal-gateway/internal/domain"
)

// MemoryCounters is an in-process CounterStore for tests and Redis-less runs.
type MemoryCounters struct {
	mu          sync.Mutex
	devices     map[domain.DeviceType]int64
	activeUsers map[string]struct{}
	stats       *Stats
	statsAt     time.Time
	now         func() time.Time
}

// NewMemoryCounters builds an empty counter store.
func NewMemoryCounters() *MemoryCounters {
	return &MemoryCounters{
		devices:     make(map[domain.DeviceType]int64),
		activeUsers: make(map[string]struct{}),
		now:         time.Now,
	}
}

// WithClock overrides the time source, used by tests.
func (c *MemoryCounters) WithClock(now func() time.Time) *MemoryCounters {
	c.now = now
	return c
}

func (c *MemoryCounters) IncrDevice(_ context.Context, device domain.DeviceType) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.devices[device]++
	return nil
}

func (c *MemoryCounters) DecrDevice(_ context.Context, device domain.DeviceType) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.devices[device] > 0 {
		c.devices[device]--
	}
	return nil
}

func (c *MemoryCounters) SetDevice(_ context.Context, device domain.DeviceType, count int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.devices[device] = count
	return nil
}

func (c *MemoryCounters) DeviceCounts(_ context.Context) (map[domain.DeviceType]int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	counts := make(map[domain.DeviceType]int64, len(trackedDevices))
	for _, device := range trackedDevices {
		counts[device] = c.devices[device]
	}
	return counts, nil
}

func (c *MemoryCounters) AddActiveUser(_ context.Context, userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.activeUsers[userID] = struct{}{}
	return nil
}

func (c *MemoryCounters) RemoveActiveUser(_ context.Context, userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.activeUsers, userID)
	return nil
}

func (c *MemoryCounters) ReplaceActiveUsers(_ context.Context, userIDs []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.activeUsers = make(map[string]struct{}, len(userIDs))
	for _, id := range userIDs {
		c.activeUsers[id] = struct{}{}
	}
	return nil
}

func (c *MemoryCounters) ActiveUserCount(_ context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.activeUsers), nil
}

func (c *MemoryCounters) CachedStats(_ context.Context) (*Stats, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stats == nil || c.now().Sub(c.statsAt) >= statsCacheTTL {
		return nil, false, nil
	}
	copied := *c.stats
	return &copied, true, nil
}

func (c *MemoryCounters) StoreStats(_ context.Context, stats *Stats) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	copied := *stats
	c.stats = &copied
	c.statsAt = c.now()
	return nil
}

func (c *MemoryCounters) InvalidateStats(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats = nil
	return nil
}
