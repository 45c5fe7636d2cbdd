package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockChecker struct {
	name string
	err  error
}

func (m *mockChecker) Name() string { return m.name }
func (m *mockChecker) Check(ctx context.Context) error { return m.err }

// blockingChecker waits for the aggregator deadline
type blockingChecker struct{}

func (blockingChecker) Name() string { return "slow" }
func (blockingChecker) Check(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

type redisChecker struct{ client *redis.Client }

func (r redisChecker) Name() string { return "redis" }
func (r redisChecker) Check(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func TestAggregator_Check(t *testing.T) {
	tests := []struct {
		name     string
		checkers []Checker
		want     Status
	}{
		{"无检查项", nil, StatusHealthy},
		{"所有检查项健康", []Checker{&mockChecker{name: "db"}, &mockChecker{name: "redis"}}, StatusHealthy},
		{"部分检查项不健康", []Checker{&mockChecker{name: "db"}, &mockChecker{name: "redis", err: errors.New("connection refused")}}, StatusUnhealthy},
		{"全部不健康", []Checker{&mockChecker{name: "db", err: errors.New("down")}, &mockChecker{name: "redis", err: errors.New("down")}}, StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agg := NewAggregator(time.Second)
			agg.Register(tt.checkers...)

			resp := agg.Check(context.Background())
			assert.Equal(t, tt.want, resp.Status)
			assert.Len(t, resp.Checks, len(tt.checkers))
		})
	}
}

func TestAggregator_ReportsError(t *testing.T) {
	agg := NewAggregator(time.Second)
	agg.Register(&mockChecker{name: "redis", err: errors.New("connection refused")}, nil)

	resp := agg.Check(context.Background())
	require.Contains(t, resp.Checks, "redis")
	assert.Equal(t, "connection refused", resp.Checks["redis"].Error)
	assert.False(t, resp.IsHealthy())
}

func TestAggregator_Timeout(t *testing.T) {
	agg := NewAggregator(50 * time.Millisecond)
	agg.Register(blockingChecker{}, &mockChecker{name: "db"})

	resp := agg.Check(context.Background())
	assert.Equal(t, StatusUnhealthy, resp.Status)
	assert.Equal(t, StatusHealthy, resp.Checks["db"].Status)
	assert.Equal(t, context.DeadlineExceeded.Error(), resp.Checks["slow"].Error)
}

func TestAggregator_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	agg := NewAggregator(time.Second)
	agg.Register(redisChecker{client: client})
	assert.True(t, agg.Check(context.Background()).IsHealthy())

	mr.SetError("LOADING")
	assert.False(t, agg.Check(context.Background()).IsHealthy())
}

func TestAggregator_Metadata(t *testing.T) {
	agg := NewAggregator(0)
	agg.SetMetadata("service", "tokenauthd")

	resp := agg.Check(context.Background())
	assert.Equal(t, "tokenauthd", resp.Metadata["service"])
}

func TestConfig(t *testing.T) {
	cfg := Config{Enabled: true}
	cfg.ApplyDefaults()
	assert.Equal(t, 3*time.Second, cfg.Timeout)
	assert.NoError(t, cfg.Validate())

	cfg.Timeout = time.Millisecond
	assert.Error(t, cfg.Validate())
}
