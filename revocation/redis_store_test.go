package revocation

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/KOMKZ/go-yogan-tokenauth/errcode"
	"github.com/KOMKZ/go-yogan-tokenauth/logger"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func newTestStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, 500*time.Millisecond, logger.NewNopLogger()), mr
}

func TestRedisStore_PutExistsDelete(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()
	keys := Keys{}

	require.NoError(t, s.PutWithTTL(ctx, keys.Liveness("j1"), "alice", time.Minute))

	ok, err := s.Exists(ctx, keys.Liveness("j1"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, time.Minute, mr.TTL("jti-liveness:j1"))

	v, err := mr.Get("jti-liveness:j1")
	require.NoError(t, err)
	assert.Equal(t, "alice", v)

	require.NoError(t, s.Delete(ctx, keys.Liveness("j1"), keys.Liveness("absent")))
	ok, err = s.Exists(ctx, keys.Liveness("j1"))
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, s.Delete(ctx))
}

func TestRedisStore_TTLExpiry(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutWithTTL(ctx, "k", "v", time.Minute))
	mr.FastForward(time.Minute)

	ok, err := s.Exists(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisStore_IncrementAndGetInt(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	_, found, err := s.GetInt(ctx, "refresh-usage:j")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.PutWithTTL(ctx, "refresh-usage:j", "0", time.Hour))
	v, found, err := s.GetInt(ctx, "refresh-usage:j")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Zero(t, v)

	n, err := s.Increment(ctx, "refresh-usage:j", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, time.Hour, mr.TTL("refresh-usage:j"), "existing TTL must be kept")

	v, _, err = s.GetInt(ctx, "refresh-usage:j")
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)
}

// TestRedisStore_IncrementCreatesWithTTL 计数器被新建时必须带 TTL
func TestRedisStore_IncrementCreatesWithTTL(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	n, err := s.Increment(ctx, "refresh-usage:new", 2*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, 2*time.Minute, mr.TTL("refresh-usage:new"))
}

func TestRedisStore_GetIntNotNumber(t *testing.T) {
	s, mr := newTestStore(t)
	require.NoError(t, mr.Set("k", "abc"))

	_, _, err := s.GetInt(context.Background(), "k")
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestRedisStore_Sets(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	set := Keys{}.AccessSessions(42)
	assert.Equal(t, "user-access-sessions:42", set)

	require.NoError(t, s.SetAdd(ctx, set, "a", "b", "c"))
	require.NoError(t, s.SetRemove(ctx, set, "b"))
	require.NoError(t, s.SetAdd(ctx, set))
	require.NoError(t, s.SetRemove(ctx, set))

	members, err := s.SetMembers(ctx, set)
	require.NoError(t, err)
	sort.Strings(members)
	assert.Equal(t, []string{"a", "c"}, members)

	members, err = s.SetMembers(ctx, "absent")
	require.NoError(t, err)
	assert.Empty(t, members)
}

func TestRedisStore_Expire(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SetAdd(ctx, "set", "x"))
	require.NoError(t, s.Expire(ctx, "set", time.Hour))
	assert.Equal(t, time.Hour, mr.TTL("set"))
}

func TestRedisStore_Atomic(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()
	keys := Keys{Prefix: "ta:"}

	err := s.Atomic(ctx, func(w Writer) {
		w.PutWithTTL(keys.Liveness("a"), "alice", time.Minute)
		w.PutWithTTL(keys.Usage("r"), "0", time.Hour)
		w.SetAdd(keys.AccessSessions(1), "a")
		w.SetAdd(keys.RefreshSessions(1))
		w.Expire(keys.AccessSessions(1), time.Hour)
	})
	require.NoError(t, err)

	assert.True(t, mr.Exists("ta:jti-liveness:a"))
	assert.True(t, mr.Exists("ta:refresh-usage:r"))
	assert.False(t, mr.Exists("ta:user-refresh-sessions:1"))
	assert.Equal(t, time.Hour, mr.TTL("ta:user-access-sessions:1"))
	ok, err := mr.SIsMember("ta:user-access-sessions:1", "a")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisStore_Scan(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	keys := Keys{}

	for i := int64(1); i <= 250; i++ {
		require.NoError(t, s.SetAdd(ctx, keys.AccessSessions(i), "x"))
	}
	require.NoError(t, s.SetAdd(ctx, keys.RefreshSessions(1), "y"))
	require.NoError(t, s.PutWithTTL(ctx, keys.Liveness("x"), "u", time.Minute))

	seen := map[string]bool{}
	for _, p := range keys.SessionSetPatterns() {
		require.NoError(t, s.Scan(ctx, p, func(key string) error {
			seen[key] = true
			return nil
		}))
	}
	assert.Len(t, seen, 251)
	assert.False(t, seen[keys.Liveness("x")])

	stop := assert.AnError
	err := s.Scan(ctx, "user-access-sessions:*", func(string) error { return stop })
	assert.ErrorIs(t, err, stop)
}

// TestRedisStore_Unavailable 存储故障统一转换为 ErrStoreUnavailable 并记录 error 日志
func TestRedisStore_Unavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	log, logs := logger.NewObservedLogger("revocation")
	s := NewRedisStore(client, 200*time.Millisecond, log)
	ctx := context.Background()

	mr.SetError("LOADING Redis is loading the dataset in memory")

	calls := map[string]func() error{
		"put":     func() error { return s.PutWithTTL(ctx, "k", "v", time.Minute) },
		"exists":  func() error { _, err := s.Exists(ctx, "k"); return err },
		"delete":  func() error { return s.Delete(ctx, "k") },
		"incr":    func() error { _, err := s.Increment(ctx, "k", time.Minute); return err },
		"getint":  func() error { _, _, err := s.GetInt(ctx, "k"); return err },
		"sadd":    func() error { return s.SetAdd(ctx, "s", "m") },
		"srem":    func() error { return s.SetRemove(ctx, "s", "m") },
		"members": func() error { _, err := s.SetMembers(ctx, "s"); return err },
		"expire":  func() error { return s.Expire(ctx, "s", time.Minute) },
		"scan":    func() error { return s.Scan(ctx, "*", func(string) error { return nil }) },
		"atomic": func() error {
			return s.Atomic(ctx, func(w Writer) { w.PutWithTTL("k", "v", time.Minute) })
		},
	}

	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			err := call()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrStoreUnavailable)

			le, ok := errcode.As(err)
			require.True(t, ok)
			assert.Equal(t, 503, le.HTTPStatus())
		})
	}

	require.NotZero(t, logs.Len())
	for _, e := range logs.All() {
		assert.Equal(t, zapcore.ErrorLevel, e.Level)
	}
}

func TestRedisStore_Timeout(t *testing.T) {
	s, mr := newTestStore(t)
	mr.Close()

	_, err := s.Exists(context.Background(), "k")
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}
