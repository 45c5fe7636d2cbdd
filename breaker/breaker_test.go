package breaker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/KOMKZ/go-yogan-tokenauth/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

var errBoom = errors.New("boom")

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func fail(context.Context) error { return errBoom }
func ok(context.Context) error { return nil }

func newTestBreaker(t *testing.T, cfg Config, opts ...Option) (*Breaker, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	cfg.Enabled = true
	opts = append([]Option{WithClock(clock.Now)}, opts...)
	return New("test", cfg, logger.NewNopLogger(), opts...), clock
}

func TestBreaker_ConsecutiveFailuresOpen(t *testing.T) {
	log, logs := logger.NewObservedLogger("breaker")
	clock := newFakeClock()
	b := New("redis", Config{Enabled: true, ConsecutiveFailures: 3}, log, WithClock(clock.Now))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		assert.ErrorIs(t, b.Execute(ctx, fail), errBoom)
	}
	// 成功一次清零
	require.NoError(t, b.Execute(ctx, ok))
	for i := 0; i < 2; i++ {
		_ = b.Execute(ctx, fail)
	}
	assert.Equal(t, StateClosed, b.State())

	_ = b.Execute(ctx, fail)
	assert.Equal(t, StateOpen, b.State())
	assert.Equal(t, 1, logs.FilterMessage("circuit breaker opened").Len())

	called := false
	err := b.Execute(ctx, func(context.Context) error { called = true; return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
}

func TestBreaker_HalfOpenRecovery(t *testing.T) {
	b, clock := newTestBreaker(t, Config{ConsecutiveFailures: 1, Timeout: time.Second, HalfOpenRequests: 2})
	ctx := context.Background()

	_ = b.Execute(ctx, fail)
	require.Equal(t, StateOpen, b.State())

	clock.Advance(999 * time.Millisecond)
	assert.ErrorIs(t, b.Execute(ctx, ok), ErrCircuitOpen)

	clock.Advance(time.Millisecond)
	require.NoError(t, b.Execute(ctx, ok))
	assert.Equal(t, StateHalfOpen, b.State())

	require.NoError(t, b.Execute(ctx, ok))
	assert.Equal(t, StateClosed, b.State())
}

func TestBreaker_HalfOpenProbeFailureReopens(t *testing.T) {
	b, clock := newTestBreaker(t, Config{ConsecutiveFailures: 1, Timeout: time.Second})
	ctx := context.Background()

	_ = b.Execute(ctx, fail)
	clock.Advance(time.Second)

	assert.ErrorIs(t, b.Execute(ctx, fail), errBoom)
	assert.Equal(t, StateOpen, b.State())

	// Open 计时重新开始
	clock.Advance(500 * time.Millisecond)
	assert.ErrorIs(t, b.Execute(ctx, ok), ErrCircuitOpen)
}

func TestBreaker_HalfOpenLimitsProbes(t *testing.T) {
	b, clock := newTestBreaker(t, Config{ConsecutiveFailures: 1, Timeout: time.Second, HalfOpenRequests: 1})
	ctx := context.Background()

	_ = b.Execute(ctx, fail)
	clock.Advance(time.Second)

	probing := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- b.Execute(ctx, func(context.Context) error {
			close(probing)
			<-release
			return nil
		})
	}()
	<-probing

	assert.ErrorIs(t, b.Execute(ctx, ok), ErrCircuitOpen)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, StateClosed, b.State())
}

func TestBreaker_IgnoredErrors(t *testing.T) {
	b, clock := newTestBreaker(t, Config{ConsecutiveFailures: 2, Timeout: time.Second})
	ctx := context.Background()
	cancelled := func(context.Context) error { return context.Canceled }

	for i := 0; i < 5; i++ {
		assert.ErrorIs(t, b.Execute(ctx, cancelled), context.Canceled)
	}
	assert.Equal(t, StateClosed, b.State())

	_ = b.Execute(ctx, fail)
	_ = b.Execute(ctx, fail)
	require.Equal(t, StateOpen, b.State())
	clock.Advance(time.Second)

	// 被忽略的探测归还名额
	assert.ErrorIs(t, b.Execute(ctx, cancelled), context.Canceled)
	assert.Equal(t, StateHalfOpen, b.State())
	require.NoError(t, b.Execute(ctx, ok))
	assert.Equal(t, StateClosed, b.State())
}

func TestBreaker_CustomFailurePredicate(t *testing.T) {
	errNotFound := errors.New("not found")
	b, _ := newTestBreaker(t, Config{ConsecutiveFailures: 1},
		WithIsFailure(func(err error) bool { return !errors.Is(err, errNotFound) }))

	_ = b.Execute(context.Background(), func(context.Context) error { return errNotFound })
	assert.Equal(t, StateClosed, b.State())

	_ = b.Execute(context.Background(), fail)
	assert.Equal(t, StateOpen, b.State())
}

func TestBreaker_ErrorRate(t *testing.T) {
	b, clock := newTestBreaker(t, Config{
		Strategy:           StrategyErrorRate,
		MinRequests:        4,
		ErrorRateThreshold: 0.5,
		WindowSize:         10 * time.Second,
		BucketSize:         time.Second,
	})
	ctx := context.Background()

	_ = b.Execute(ctx, fail)
	_ = b.Execute(ctx, fail)
	_ = b.Execute(ctx, ok)
	assert.Equal(t, StateClosed, b.State(), "below MinRequests")

	// 旧结果滑出窗口
	clock.Advance(11 * time.Second)
	_ = b.Execute(ctx, ok)
	_ = b.Execute(ctx, ok)
	_ = b.Execute(ctx, ok)
	_ = b.Execute(ctx, fail)
	assert.Equal(t, StateClosed, b.State(), "25% error rate")

	_ = b.Execute(ctx, fail)
	_ = b.Execute(ctx, fail)
	assert.Equal(t, StateOpen, b.State(), "50% error rate")
}

func TestBreaker_DisabledPassesThrough(t *testing.T) {
	b := New("off", Config{ConsecutiveFailures: 1}, logger.NewNopLogger())
	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, b.Execute(context.Background(), fail), errBoom)
	}
	assert.Equal(t, StateClosed, b.State())
}

func TestBreaker_Reset(t *testing.T) {
	b, _ := newTestBreaker(t, Config{ConsecutiveFailures: 1})
	_ = b.Execute(context.Background(), fail)
	require.Equal(t, StateOpen, b.State())

	b.Reset()
	assert.Equal(t, StateClosed, b.State())
	assert.NoError(t, b.Execute(context.Background(), ok))
}

func TestBreaker_Metrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	metrics := NewMetrics()
	require.NoError(t, metrics.RegisterMetrics(provider.Meter("breaker")))
	require.NoError(t, metrics.RegisterMetrics(provider.Meter("breaker")))

	b, _ := newTestBreaker(t, Config{ConsecutiveFailures: 1}, WithMetrics(metrics))
	ctx := context.Background()
	_ = b.Execute(ctx, fail)
	_ = b.Execute(ctx, ok)
	_ = b.Execute(ctx, ok)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	values := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					values[m.Name] += dp.Value
				}
			case metricdata.Gauge[int64]:
				for _, dp := range data.DataPoints {
					values[m.Name] = dp.Value
				}
			}
		}
	}
	assert.Equal(t, int64(2), values["breaker_rejections_total"])
	assert.Equal(t, int64(1), values["breaker_state_transitions_total"])
	assert.Equal(t, int64(StateOpen), values["breaker_state"])
}

func TestConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	cfg.Strategy = "adaptive"
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.ErrorRateThreshold = 1.5
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.WindowSize = 100 * time.Millisecond
	assert.Error(t, cfg.Validate(), "window smaller than bucket")
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "half-open", StateHalfOpen.String())
	assert.Equal(t, "unknown", State(9).String())
	assert.True(t, StateOpen.IsOpen())
}
