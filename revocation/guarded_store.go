package revocation

import (
	"context"
	"errors"
	"time"

	"github.com/KOMKZ/go-yogan-tokenauth/breaker"
)

// GuardedStore runs every call through a circuit breaker. While the breaker is open
// calls fail immediately with ErrStoreUnavailable instead of waiting on the timeout.
type GuardedStore struct {
	inner Store
	cb    *breaker.Breaker
}

// NewGuardedStore cb should be built with breaker.WithIsFailure(IsOutage)
func NewGuardedStore(inner Store, cb *breaker.Breaker) *GuardedStore {
	return &GuardedStore{inner: inner, cb: cb}
}

// IsOutage 只有存储故障计入熔断；调用方取消、Scan 回调的错误不算
func IsOutage(err error) bool {
	return errors.Is(err, ErrStoreUnavailable) && !errors.Is(err, context.Canceled)
}

func (s *GuardedStore) Breaker() *breaker.Breaker {
	return s.cb
}

func (s *GuardedStore) run(ctx context.Context, fn func(ctx context.Context) error) error {
	err := s.cb.Execute(ctx, fn)
	if errors.Is(err, breaker.ErrCircuitOpen) {
		return ErrStoreUnavailable.Wrap(err)
	}
	return err
}

func (s *GuardedStore) PutWithTTL(ctx context.Context, key, value string, ttl time.Duration) error {
	return s.run(ctx, func(ctx context.Context) error {
		return s.inner.PutWithTTL(ctx, key, value, ttl)
	})
}

func (s *GuardedStore) Exists(ctx context.Context, key string) (bool, error) {
	var found bool
	err := s.run(ctx, func(ctx context.Context) error {
		var err error
		found, err = s.inner.Exists(ctx, key)
		return err
	})
	return found, err
}

func (s *GuardedStore) Delete(ctx context.Context, keys ...string) error {
	return s.run(ctx, func(ctx context.Context) error {
		return s.inner.Delete(ctx, keys...)
	})
}

func (s *GuardedStore) Increment(ctx context.Context, key string, ttlIfCreated time.Duration) (int64, error) {
	var n int64
	err := s.run(ctx, func(ctx context.Context) error {
		var err error
		n, err = s.inner.Increment(ctx, key, ttlIfCreated)
		return err
	})
	return n, err
}

func (s *GuardedStore) GetInt(ctx context.Context, key string) (int64, bool, error) {
	var (
		v     int64
		found bool
	)
	err := s.run(ctx, func(ctx context.Context) error {
		var err error
		v, found, err = s.inner.GetInt(ctx, key)
		return err
	})
	return v, found, err
}

func (s *GuardedStore) SetAdd(ctx context.Context, setKey string, members ...string) error {
	return s.run(ctx, func(ctx context.Context) error {
		return s.inner.SetAdd(ctx, setKey, members...)
	})
}

func (s *GuardedStore) SetRemove(ctx context.Context, setKey string, members ...string) error {
	return s.run(ctx, func(ctx context.Context) error {
		return s.inner.SetRemove(ctx, setKey, members...)
	})
}

func (s *GuardedStore) SetMembers(ctx context.Context, setKey string) ([]string, error) {
	var members []string
	err := s.run(ctx, func(ctx context.Context) error {
		var err error
		members, err = s.inner.SetMembers(ctx, setKey)
		return err
	})
	return members, err
}

func (s *GuardedStore) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return s.run(ctx, func(ctx context.Context) error {
		return s.inner.Expire(ctx, key, ttl)
	})
}

func (s *GuardedStore) Scan(ctx context.Context, pattern string, fn func(key string) error) error {
	return s.run(ctx, func(ctx context.Context) error {
		return s.inner.Scan(ctx, pattern, fn)
	})
}

func (s *GuardedStore) Atomic(ctx context.Context, fn func(w Writer)) error {
	return s.run(ctx, func(ctx context.Context) error {
		return s.inner.Atomic(ctx, fn)
	})
}
