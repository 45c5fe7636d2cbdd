package auth

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// LoginAttemptStore counts failed logins per username
type LoginAttemptStore interface {
	GetAttempts(ctx context.Context, username string) (int, error)

	// IncrementAttempts bumps the counter and restarts its ttl window
	IncrementAttempts(ctx context.Context, username string, ttl time.Duration) error

	ResetAttempts(ctx context.Context, username string) error
}

// RedisLoginAttemptStore Redis login attempt storage
type RedisLoginAttemptStore struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisLoginAttemptStore(client redis.UniversalClient, prefix string) *RedisLoginAttemptStore {
	return &RedisLoginAttemptStore{client: client, prefix: prefix}
}

// GetAttempts Get login attempt count
func (s *RedisLoginAttemptStore) GetAttempts(ctx context.Context, username string) (int, error) {
	val, err := s.client.Get(ctx, s.prefix+username).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(val)
}

func (s *RedisLoginAttemptStore) IncrementAttempts(ctx context.Context, username string, ttl time.Duration) error {
	key := s.prefix + username
	pipe := s.client.TxPipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, ttl)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisLoginAttemptStore) ResetAttempts(ctx context.Context, username string) error {
	return s.client.Del(ctx, s.prefix+username).Err()
}
