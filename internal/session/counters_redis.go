package session

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/portal-gateway/internal/domain"
)

const (
	deviceCountPrefix = "session_count:"
	activeUsersSet    = "active_users"
	statsCacheKey     = "session_stats_cache"
	statsCacheTTL     = 30 * time.Second
)

// RedisCounters is the Redis-backed CounterStore.
type RedisCounters struct {
	client *redis.Client
}

// NewRedisCounters builds a counter store on the shared Redis client.
func NewRedisCounters(client *redis.Client) *RedisCounters {
	return &RedisCounters{client: client}
}

func (c *RedisCounters) IncrDevice(ctx context.Context, device domain.DeviceType) error {
	return c.client.Incr(ctx, deviceCountPrefix+string(device)).Err()
}

func (c *RedisCounters) DecrDevice(ctx context.Context, device domain.DeviceType) error {
	key := deviceCountPrefix + string(device)
	current, err := c.client.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) || current <= 0 {
		return nil // never drive a counter negative
	}
	if err != nil {
		return err
	}
	return c.client.Decr(ctx, key).Err()
}

func (c *RedisCounters) SetDevice(ctx context.Context, device domain.DeviceType, count int64) error {
	return c.client.Set(ctx, deviceCountPrefix+string(device), strconv.FormatInt(count, 10), 0).Err()
}

func (c *RedisCounters) DeviceCounts(ctx context.Context) (map[domain.DeviceType]int64, error) {
	counts := make(map[domain.DeviceType]int64, len(trackedDevices))
	for _, device := range trackedDevices {
		val, err := c.client.Get(ctx, deviceCountPrefix+string(device)).Int64()
		if errors.Is(err, redis.Nil) {
			val = 0
		} else if err != nil {
			return nil, err
		}
		counts[device] = val
	}
	return counts, nil
}

func (c *RedisCounters) AddActiveUser(ctx context.Context, userID string) error {
	return c.client.SAdd(ctx, activeUsersSet, userID).Err()
}

func (c *RedisCounters) RemoveActiveUser(ctx context.Context, userID string) error {
	return c.client.SRem(ctx, activeUsersSet, userID).Err()
}

func (c *RedisCounters) ReplaceActiveUsers(ctx context.Context, userIDs []string) error {
	pipe := c.client.TxPipeline()
	pipe.Del(ctx, activeUsersSet)
	if len(userIDs) > 0 {
		members := make([]interface{}, len(userIDs))
		for i, id := range userIDs {
			members[i] = id
		}
		pipe.SAdd(ctx, activeUsersSet, members...)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (c *RedisCounters) ActiveUserCount(ctx context.Context) (int, error) {
	count, err := c.client.SCard(ctx, activeUsersSet).Result()
	return int(count), err
}

func (c *RedisCounters) CachedStats(ctx context.Context) (*Stats, bool, error) {
	raw, err := c.client.Get(ctx, statsCacheKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var stats Stats
	if err := json.Unmarshal(raw, &stats); err != nil {
		return nil, false, nil // stale or corrupt cache reads as a miss
	}
	return &stats, true, nil
}

func (c *RedisCounters) StoreStats(ctx context.Context, stats *Stats) error {
	payload, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, statsCacheKey, payload, statsCacheTTL).Err()
}

func (c *RedisCounters) InvalidateStats(ctx context.Context) error {
	return c.client.Del(ctx, statsCacheKey).Err()
}
