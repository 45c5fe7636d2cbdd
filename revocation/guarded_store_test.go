package revocation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/KOMKZ/go-yogan-tokenauth/breaker"
	"github.com/KOMKZ/go-yogan-tokenauth/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGuardedStore(t *testing.T, cfg breaker.Config) (*GuardedStore, func(string)) {
	t.Helper()
	inner, mr := newTestStore(t)
	cfg.Enabled = true
	cb := breaker.New("revocation-store", cfg, logger.NewNopLogger(), breaker.WithIsFailure(IsOutage))
	return NewGuardedStore(inner, cb), mr.SetError
}

func TestGuardedStore_PassesThrough(t *testing.T) {
	s, _ := newGuardedStore(t, breaker.Config{})
	ctx := context.Background()

	require.NoError(t, s.PutWithTTL(ctx, "k", "v", time.Minute))
	ok, err := s.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	n, err := s.Increment(ctx, "c", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	v, found, err := s.GetInt(ctx, "c")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, int64(1), v)

	require.NoError(t, s.Atomic(ctx, func(w Writer) {
		w.SetAdd("set", "a", "b")
		w.Expire("set", time.Minute)
	}))
	members, err := s.SetMembers(ctx, "set")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, members)
	require.NoError(t, s.SetRemove(ctx, "set", "a"))
	require.NoError(t, s.SetAdd(ctx, "set", "c"))
	require.NoError(t, s.Expire(ctx, "set", time.Hour))

	var seen []string
	require.NoError(t, s.Scan(ctx, "se*", func(k string) error { seen = append(seen, k); return nil }))
	assert.Equal(t, []string{"set"}, seen)

	require.NoError(t, s.Delete(ctx, "k", "c", "set"))
	assert.Equal(t, breaker.StateClosed, s.Breaker().State())
}

func TestGuardedStore_OpensOnOutage(t *testing.T) {
	s, setError := newGuardedStore(t, breaker.Config{ConsecutiveFailures: 2, Timeout: time.Minute})
	ctx := context.Background()

	setError("LOADING Redis is loading the dataset in memory")
	for i := 0; i < 2; i++ {
		_, err := s.Exists(ctx, "k")
		assert.ErrorIs(t, err, ErrStoreUnavailable)
	}
	require.Equal(t, breaker.StateOpen, s.Breaker().State())

	// Redis 恢复后熔断仍然打开，直接失败
	setError("")
	_, err := s.Exists(ctx, "k")
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.ErrorIs(t, err, breaker.ErrCircuitOpen)
}

func TestGuardedStore_ScanCallbackErrorsDoNotTrip(t *testing.T) {
	s, _ := newGuardedStore(t, breaker.Config{ConsecutiveFailures: 1})
	ctx := context.Background()
	require.NoError(t, s.PutWithTTL(ctx, "k", "v", time.Minute))

	stop := errors.New("stop")
	for i := 0; i < 3; i++ {
		err := s.Scan(ctx, "*", func(string) error { return stop })
		assert.ErrorIs(t, err, stop)
	}
	assert.Equal(t, breaker.StateClosed, s.Breaker().State())
}

func TestIsOutage(t *testing.T) {
	assert.True(t, IsOutage(ErrStoreUnavailable.Wrap(errors.New("io timeout"))))
	assert.False(t, IsOutage(ErrStoreUnavailable.Wrap(context.Canceled)))
	assert.False(t, IsOutage(errors.New("other")))
}
