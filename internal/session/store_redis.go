package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/portal-gateway/internal/domain"
)

const (
	sessionKeyPrefix  = "session:"
	userSessionsIndex = "user_sessions:"
)

// RedisStore persists session records in Redis with a TTL matching the
// refresh token lifetime.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore builds a Redis-backed store.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &RedisStore{client: client, ttl: ttl}
}

type sessionRecord struct {
	ID             string            `json:"id"`
	UserID         string            `json:"userId"`
	DeviceType     domain.DeviceType `json:"deviceType"`
	IPAddress      string            `json:"ipAddress,omitempty"`
	UserAgent      string            `json:"userAgent,omitempty"`
	RefreshTokenID string            `json:"refreshTokenId"`
	Revoked        bool              `json:"revoked"`
	CreatedAt      time.Time         `json:"createdAt"`
	LastSeenAt     time.Time         `json:"lastSeenAt"`
	ExpiresAt      time.Time         `json:"expiresAt"`
}

func toRecord(sess *domain.Session) sessionRecord {
	return sessionRecord{
		ID:             sess.ID,
		UserID:         sess.UserID,
		DeviceType:     sess.DeviceType,
		IPAddress:      sess.IPAddress,
		UserAgent:      sess.UserAgent,
		RefreshTokenID: sess.RefreshTokenID,
		Revoked:        sess.Revoked,
		CreatedAt:      sess.CreatedAt,
		LastSeenAt:     sess.LastSeenAt,
		ExpiresAt:      sess.ExpiresAt,
	}
}

func (r sessionRecord) toDomain() *domain.Session {
	return &domain.Session{
		ID:             r.ID,
		UserID:         r.UserID,
		DeviceType:     r.DeviceType,
		IPAddress:      r.IPAddress,
		UserAgent:      r.UserAgent,
		RefreshTokenID: r.RefreshTokenID,
		Revoked:        r.Revoked,
		CreatedAt:      r.CreatedAt,
		LastSeenAt:     r.LastSeenAt,
		ExpiresAt:      r.ExpiresAt,
	}
}

func (s *RedisStore) Create(ctx context.Context, sess *domain.Session) error {
	payload, err := json.Marshal(toRecord(sess))
	if err != nil {
		return err
	}
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, sessionKeyPrefix+sess.ID, payload, s.ttl)
	pipe.SAdd(ctx, userSessionsIndex+sess.UserID, sess.ID)
	pipe.Expire(ctx, userSessionsIndex+sess.UserID, s.ttl)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *RedisStore) Get(ctx context.Context, sessionID string) (*domain.Session, error) {
	raw, err := s.client.Get(ctx, sessionKeyPrefix+sessionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var rec sessionRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, err
	}
	return rec.toDomain(), nil
}

func (s *RedisStore) Rotate(ctx context.Context, sessionID, oldRefreshID, newRefreshID string) error {
	key := sessionKeyPrefix + sessionID

	// Watch guards against a concurrent rotation of the same session; losing
	// the race surfaces as a replay.
	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		var rec sessionRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return err
		}
		if rec.Revoked {
			return ErrRevoked
		}
		if rec.RefreshTokenID != oldRefreshID {
			return ErrRefreshReplayed
		}
		rec.RefreshTokenID = newRefreshID
		rec.LastSeenAt = time.Now()
		payload, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, s.ttl)
			return nil
		})
		return err
	}, key)
	if errors.Is(err, redis.TxFailedErr) {
		return ErrRefreshReplayed
	}
	return err
}

func (s *RedisStore) Revoke(ctx context.Context, sessionID string) error {
	key := sessionKeyPrefix + sessionID
	raw, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil // already gone, revoke is idempotent
	}
	if err != nil {
		return err
	}
	var rec sessionRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return err
	}
	if rec.Revoked {
		return nil
	}
	rec.Revoked = true
	payload, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, payload, s.ttl).Err()
}

func (s *RedisStore) RevokeAllForUser(ctx context.Context, userID string) (int, error) {
	ids, err := s.client.SMembers(ctx, userSessionsIndex+userID).Result()
	if err != nil {
		return 0, err
	}
	revoked := 0
	for _, id := range ids {
		sess, err := s.Get(ctx, id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return revoked, err
		}
		if sess.Revoked {
			continue
		}
		if err := s.Revoke(ctx, id); err != nil {
			return revoked, err
		}
		revoked++
	}
	return revoked, nil
}

func (s *RedisStore) Active(ctx context.Context) ([]domain.Session, error) {
	var active []domain.Session
	iter := s.client.Scan(ctx, 0, sessionKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		raw, err := s.client.Get(ctx, iter.Val()).Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, err
		}
		var rec sessionRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			continue
		}
		if rec.Revoked {
			continue
		}
		active = append(active, *rec.toDomain())
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return active, nil
}
