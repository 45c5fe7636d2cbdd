package breaker

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics breaker instrumentation shared by every Breaker built WithMetrics.
// A nil or unregistered Metrics records nothing.
type Metrics struct {
	registered bool
	mu         sync.RWMutex

	rejections  metric.Int64Counter
	transitions metric.Int64Counter
	state       metric.Int64ObservableGauge

	breakersMu sync.Mutex
	breakers   []*Breaker
}

func NewMetrics() *Metrics {
	return &Metrics{}
}

func (m *Metrics) MetricsName() string {
	return "breaker"
}

func (m *Metrics) RegisterMetrics(meter metric.Meter) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.registered {
		return nil
	}

	var err error
	if m.rejections, err = meter.Int64Counter(
		"breaker_rejections_total",
		metric.WithDescription("Calls rejected while the circuit was open"),
		metric.WithUnit("{request}"),
	); err != nil {
		return err
	}

	if m.transitions, err = meter.Int64Counter(
		"breaker_state_transitions_total",
		metric.WithDescription("State changes, by target state"),
	); err != nil {
		return err
	}

	// 0=closed, 1=open, 2=half-open
	if m.state, err = meter.Int64ObservableGauge(
		"breaker_state",
		metric.WithDescription("Current circuit state (0=closed, 1=open, 2=half-open)"),
		metric.WithInt64Callback(m.observeState),
	); err != nil {
		return err
	}

	m.registered = true
	return nil
}

func (m *Metrics) observeState(_ context.Context, o metric.Int64Observer) error {
	m.breakersMu.Lock()
	breakers := append([]*Breaker(nil), m.breakers...)
	m.breakersMu.Unlock()

	for _, b := range breakers {
		o.Observe(int64(b.State()), metric.WithAttributes(attribute.String("resource", b.Name())))
	}
	return nil
}

func (m *Metrics) track(b *Breaker) {
	if m == nil {
		return
	}
	m.breakersMu.Lock()
	m.breakers = append(m.breakers, b)
	m.breakersMu.Unlock()
}

func (m *Metrics) recordRejection(ctx context.Context, resource string) {
	if m == nil {
		return
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.registered {
		return
	}
	m.rejections.Add(ctx, 1, metric.WithAttributes(attribute.String("resource", resource)))
}

func (m *Metrics) recordTransition(ctx context.Context, resource string, to State) {
	if m == nil {
		return
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.registered {
		return
	}
	m.transitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("resource", resource),
		attribute.String("state", to.String()),
	))
}
