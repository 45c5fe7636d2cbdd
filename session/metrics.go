package session

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics token lifecycle instrumentation. Unregistered metrics record nothing.
type Metrics struct {
	registered bool
	mu         sync.RWMutex

	tokensIssued       metric.Int64Counter
	validations        metric.Int64Counter
	validationDuration metric.Float64Histogram
	rotations          metric.Int64Counter
	revocations        metric.Int64Counter
	storeFailures      metric.Int64Counter
	indexSwept         metric.Int64Counter
}

func NewMetrics() *Metrics {
	return &Metrics{}
}

// MetricsName returns the metrics group name
func (m *Metrics) MetricsName() string {
	return "session"
}

// RegisterMetrics creates the instruments on meter; repeated calls are no-ops
func (m *Metrics) RegisterMetrics(meter metric.Meter) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.registered {
		return nil
	}

	var err error
	if m.tokensIssued, err = meter.Int64Counter(
		"session_tokens_issued_total",
		metric.WithDescription("Tokens signed and recorded, by type"),
		metric.WithUnit("{token}"),
	); err != nil {
		return err
	}

	if m.validations, err = meter.Int64Counter(
		"session_validations_total",
		metric.WithDescription("Access token validations, by result"),
		metric.WithUnit("{token}"),
	); err != nil {
		return err
	}

	if m.validationDuration, err = meter.Float64Histogram(
		"session_validation_duration_seconds",
		metric.WithDescription("Access token validation latency"),
		metric.WithUnit("s"),
	); err != nil {
		return err
	}

	if m.rotations, err = meter.Int64Counter(
		"session_rotations_total",
		metric.WithDescription("Refresh token exchanges, by result"),
		metric.WithUnit("{token}"),
	); err != nil {
		return err
	}

	if m.revocations, err = meter.Int64Counter(
		"session_revocations_total",
		metric.WithDescription("Tokens revoked, by kind"),
		metric.WithUnit("{token}"),
	); err != nil {
		return err
	}

	if m.storeFailures, err = meter.Int64Counter(
		"session_store_failures_total",
		metric.WithDescription("Revocation store calls that failed, by operation"),
		metric.WithUnit("{error}"),
	); err != nil {
		return err
	}

	if m.indexSwept, err = meter.Int64Counter(
		"session_index_swept_total",
		metric.WithDescription("Stale session index members removed"),
		metric.WithUnit("{member}"),
	); err != nil {
		return err
	}

	m.registered = true
	return nil
}

func (m *Metrics) active() bool {
	if m == nil {
		return false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.registered
}

func (m *Metrics) RecordIssued(ctx context.Context, tokenType string) {
	if !m.active() {
		return
	}
	m.tokensIssued.Add(ctx, 1, metric.WithAttributes(attribute.String("type", tokenType)))
}

func (m *Metrics) RecordValidation(ctx context.Context, result string, duration time.Duration) {
	if !m.active() {
		return
	}
	m.validations.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
	m.validationDuration.Record(ctx, duration.Seconds())
}

func (m *Metrics) RecordRotation(ctx context.Context, result string) {
	if !m.active() {
		return
	}
	m.rotations.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

func (m *Metrics) RecordRevoked(ctx context.Context, kind string, n int) {
	if !m.active() || n <= 0 {
		return
	}
	m.revocations.Add(ctx, int64(n), metric.WithAttributes(attribute.String("kind", kind)))
}

func (m *Metrics) RecordStoreFailure(ctx context.Context, op string) {
	if !m.active() {
		return
	}
	m.storeFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("op", op)))
}

func (m *Metrics) RecordSwept(ctx context.Context, n int) {
	if !m.active() || n <= 0 {
		return
	}
	m.indexSwept.Add(ctx, int64(n))
}
