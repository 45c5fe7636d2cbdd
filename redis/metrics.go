package redis

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records per-command counters and latency
type Metrics struct {
	registered bool
	mu         sync.RWMutex

	commandsTotal   metric.Int64Counter
	commandDuration metric.Float64Histogram
	errorsTotal     metric.Int64Counter
}

func NewMetrics() *Metrics {
	return &Metrics{}
}

// MetricsName returns the metrics group name
func (m *Metrics) MetricsName() string {
	return "redis"
}

// RegisterMetrics creates the instruments; repeated calls are no-ops
func (m *Metrics) RegisterMetrics(meter metric.Meter) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.registered {
		return nil
	}

	var err error
	m.commandsTotal, err = meter.Int64Counter(
		"redis_commands_total",
		metric.WithDescription("Total number of Redis commands executed"),
		metric.WithUnit("{command}"),
	)
	if err != nil {
		return err
	}

	m.commandDuration, err = meter.Float64Histogram(
		"redis_command_duration_seconds",
		metric.WithDescription("Redis command duration distribution"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return err
	}

	m.errorsTotal, err = meter.Int64Counter(
		"redis_errors_total",
		metric.WithDescription("Total number of failed Redis commands, redis.Nil excluded"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return err
	}

	m.registered = true
	return nil
}

// RecordCommand records one command; redis.Nil is not counted as an error
func (m *Metrics) RecordCommand(ctx context.Context, instance, command string, duration time.Duration, err error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.registered {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("instance", instance),
		attribute.String("command", command),
	)
	m.commandsTotal.Add(ctx, 1, attrs)
	m.commandDuration.Record(ctx, duration.Seconds(), attrs)

	if err != nil && !isNil(err) {
		m.errorsTotal.Add(ctx, 1, attrs)
	}
}

// IsRegistered returns whether metrics have been registered
func (m *Metrics) IsRegistered() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.registered
}
