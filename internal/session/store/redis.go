package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"auction-marketplace/backend/internal/session/domain"
)

const (
	sessionKeyPrefix = "session:"
	userIndexPrefix  = "sessions:user:"
)

// RedisStore is a Store backed by Redis, for multi-instance deployments where
// process-local session state would break login stickiness. Idle expiry is
// delegated to Redis key TTLs, refreshed on every Get.
type RedisStore struct {
	client  *redis.Client
	maxIdle time.Duration
	nowF    func() time.Time
}

// NewRedisStore returns a Store backed by the given Redis client. maxIdle is
// applied as the key TTL and refreshed on each lookup.
func NewRedisStore(client *redis.Client, maxIdle time.Duration) *RedisStore {
	return &RedisStore{
		client:  client,
		maxIdle: maxIdle,
		nowF:    func() time.Time { return time.Now().UTC() },
	}
}

// Create stores a new session record under a fresh id and indexes it by user.
func (s *RedisStore) Create(ctx context.Context, data domain.Data) (string, error) {
	id, err := NewSessionID()
	if err != nil {
		return "", err
	}
	now := s.nowF()
	sess := &domain.Session{ID: id, Data: data, CreatedAt: now, LastAccessed: now}
	payload, err := json.Marshal(sess)
	if err != nil {
		return "", err
	}
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, sessionKeyPrefix+id, payload, s.maxIdle)
	pipe.SAdd(ctx, userIndexPrefix+data.UserID, id)
	pipe.Expire(ctx, userIndexPrefix+data.UserID, s.maxIdle)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", err
	}
	return id, nil
}

// Get returns the session for id or nil if missing, refreshing both
// LastAccessed and the key TTL.
func (s *RedisStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	raw, err := s.client.Get(ctx, sessionKeyPrefix+id).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var sess domain.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, err
	}
	now := s.nowF()
	if now.After(sess.LastAccessed) {
		sess.LastAccessed = now
	}
	payload, err := json.Marshal(&sess)
	if err != nil {
		return nil, err
	}
	if err := s.client.Set(ctx, sessionKeyPrefix+id, payload, s.maxIdle).Err(); err != nil {
		return nil, err
	}
	return &sess, nil
}

// Destroy removes the session for id. Returns false if it did not exist.
func (s *RedisStore) Destroy(ctx context.Context, id string) (bool, error) {
	raw, err := s.client.Get(ctx, sessionKeyPrefix+id).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	var sess domain.Session
	userID := ""
	if json.Unmarshal(raw, &sess) == nil {
		userID = sess.Data.UserID
	}
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, sessionKeyPrefix+id)
	if userID != "" {
		pipe.SRem(ctx, userIndexPrefix+userID, id)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// DestroyAllForUser removes every session indexed for userID.
func (s *RedisStore) DestroyAllForUser(ctx context.Context, userID string) (int, error) {
	ids, err := s.client.SMembers(ctx, userIndexPrefix+userID).Result()
	if err != nil && err != redis.Nil {
		return 0, err
	}
	n := 0
	for _, id := range ids {
		deleted, err := s.client.Del(ctx, sessionKeyPrefix+id).Result()
		if err != nil {
			return n, err
		}
		n += int(deleted)
	}
	if err := s.client.Del(ctx, userIndexPrefix+userID).Err(); err != nil {
		return n, err
	}
	return n, nil
}

// SweepExpired is a no-op for Redis: key TTLs already reap idle sessions.
func (s *RedisStore) SweepExpired(ctx context.Context, maxIdle time.Duration) (int, error) {
	return 0, nil
}
