package helpers

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient initializes a redis client
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

func sessionKey(userID string) string { return "session:" + userID }

// RedisSessions keeps one session hash per user under "session:<id>".
type RedisSessions struct {
	RDB *redis.Client
	TTL time.Duration
}

func NewRedisSessions(rdb *redis.Client, ttl time.Duration) *RedisSessions {
	return &RedisSessions{RDB: rdb, TTL: ttl}
}

// Save merges fields into the session hash and refreshes its expiry.
func (s *RedisSessions) Save(ctx context.Context, userID string, fields map[string]any) error {
	key := sessionKey(userID)
	pipe := s.RDB.TxPipeline()
	pipe.HSet(ctx, key, fields)
	if s.TTL > 0 {
		pipe.Expire(ctx, key, s.TTL)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// SessionID returns the current session id, or "" when none is stored.
func (s *RedisSessions) SessionID(ctx context.Context, userID string) (string, error) {
	sid, err := s.RDB.HGet(ctx, sessionKey(userID), "sid").Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return sid, err
}

func (s *RedisSessions) Delete(ctx context.Context, userID string) error {
	return s.RDB.Del(ctx, sessionKey(userID)).Err()
}
