package revocation

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/KOMKZ/go-yogan-tokenauth/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// incrScript increments and attaches a TTL only when the key had none
var incrScript = redis.NewScript(`
local v = redis.call('INCR', KEYS[1])
if redis.call('PTTL', KEYS[1]) < 0 then
  redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return v
`)

// RedisStore Store backed by Redis
type RedisStore struct {
	client  redis.UniversalClient
	timeout time.Duration
	logger  *logger.CtxZapLogger
}

// NewRedisStore wraps client; every call is bounded by timeout (0 disables the bound)
func NewRedisStore(client redis.UniversalClient, timeout time.Duration, log *logger.CtxZapLogger) *RedisStore {
	return &RedisStore{client: client, timeout: timeout, logger: log}
}

func (s *RedisStore) PutWithTTL(ctx context.Context, key, value string, ttl time.Duration) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return s.fail(ctx, "set", key, err)
	}
	return nil
}

func (s *RedisStore) Exists(ctx context.Context, key string) (bool, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	n, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return false, s.fail(ctx, "exists", key, err)
	}
	return n > 0, nil
}

func (s *RedisStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	ctx, cancel := s.bound(ctx)
	defer cancel()

	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return s.fail(ctx, "del", keys[0], err)
	}
	return nil
}

func (s *RedisStore) Increment(ctx context.Context, key string, ttlIfCreated time.Duration) (int64, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	v, err := incrScript.Run(ctx, s.client, []string{key}, ttlIfCreated.Milliseconds()).Int64()
	if err != nil {
		return 0, s.fail(ctx, "incr", key, err)
	}
	return v, nil
}

func (s *RedisStore) GetInt(ctx context.Context, key string) (int64, bool, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	raw, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, s.fail(ctx, "get", key, err)
	}

	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false, s.fail(ctx, "get", key, err)
	}
	return v, true, nil
}

func (s *RedisStore) SetAdd(ctx context.Context, setKey string, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	ctx, cancel := s.bound(ctx)
	defer cancel()

	if err := s.client.SAdd(ctx, setKey, toAny(members)...).Err(); err != nil {
		return s.fail(ctx, "sadd", setKey, err)
	}
	return nil
}

func (s *RedisStore) SetRemove(ctx context.Context, setKey string, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	ctx, cancel := s.bound(ctx)
	defer cancel()

	if err := s.client.SRem(ctx, setKey, toAny(members)...).Err(); err != nil {
		return s.fail(ctx, "srem", setKey, err)
	}
	return nil
}

func (s *RedisStore) SetMembers(ctx context.Context, setKey string) ([]string, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	members, err := s.client.SMembers(ctx, setKey).Result()
	if err != nil {
		return nil, s.fail(ctx, "smembers", setKey, err)
	}
	return members, nil
}

func (s *RedisStore) Expire(ctx context.Context, key string, ttl time.Duration) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	if err := s.client.Expire(ctx, key, ttl).Err(); err != nil {
		return s.fail(ctx, "expire", key, err)
	}
	return nil
}

// Scan walks the keyspace in batches of 100. Each batch gets its own timeout.
func (s *RedisStore) Scan(ctx context.Context, pattern string, fn func(key string) error) error {
	var cursor uint64
	for {
		bctx, cancel := s.bound(ctx)
		keys, next, err := s.client.Scan(bctx, cursor, pattern, 100).Result()
		cancel()
		if err != nil {
			return s.fail(ctx, "scan", pattern, err)
		}

		for _, key := range keys {
			if err := fn(key); err != nil {
				return err
			}
		}

		if next == 0 {
			return nil
		}
		cursor = next
	}
}

func (s *RedisStore) Atomic(ctx context.Context, fn func(w Writer)) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		fn(&pipeWriter{ctx: ctx, p: p})
		return nil
	})
	if err != nil {
		return s.fail(ctx, "multi", "", err)
	}
	return nil
}

func (s *RedisStore) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

// fail logs the store incident and converts err to ErrStoreUnavailable
func (s *RedisStore) fail(ctx context.Context, op, key string, err error) error {
	s.logger.ErrorCtx(ctx, "revocation store call failed",
		zap.String("op", op),
		zap.String("key", key),
		zap.Error(err),
	)
	return ErrStoreUnavailable.Wrap(err)
}

type pipeWriter struct {
	ctx context.Context
	p   redis.Pipeliner
}

func (w *pipeWriter) PutWithTTL(key, value string, ttl time.Duration) {
	w.p.Set(w.ctx, key, value, ttl)
}

func (w *pipeWriter) SetAdd(setKey string, members ...string) {
	if len(members) > 0 {
		w.p.SAdd(w.ctx, setKey, toAny(members)...)
	}
}

func (w *pipeWriter) Expire(key string, ttl time.Duration) {
	w.p.Expire(w.ctx, key, ttl)
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
