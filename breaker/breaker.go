// Package breaker is a small circuit breaker for calls into shared infrastructure.
package breaker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/KOMKZ/go-yogan-tokenauth/logger"
	"go.uber.org/zap"
)

// ErrCircuitOpen 熔断打开，调用未执行
var ErrCircuitOpen = errors.New("circuit breaker is open")

// Breaker guards a single resource.
//
// Closed: every call runs and its outcome is recorded.
// Open: calls are rejected with ErrCircuitOpen until Timeout has passed.
// HalfOpen: HalfOpenRequests probes run; any failure reopens, all succeeding closes.
type Breaker struct {
	name      string
	cfg       Config
	logger    *logger.CtxZapLogger
	metrics   *Metrics
	now       func() time.Time
	isFailure func(error) bool

	mu          sync.Mutex
	state       State
	changedAt   time.Time
	consecutive int
	window      *window
	probes      int
	probeOK     int
}

type Option func(*Breaker)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(b *Breaker) { b.now = now }
}

func WithMetrics(m *Metrics) Option {
	return func(b *Breaker) { b.metrics = m }
}

// WithIsFailure decides which errors count against the resource.
// Errors it rejects are returned to the caller but not recorded.
func WithIsFailure(fn func(error) bool) Option {
	return func(b *Breaker) { b.isFailure = fn }
}

func New(name string, cfg Config, log *logger.CtxZapLogger, opts ...Option) *Breaker {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.GetLogger("breaker")
	}
	b := &Breaker{
		name:      name,
		cfg:       cfg,
		logger:    log,
		now:       time.Now,
		isFailure: defaultIsFailure,
		window:    newWindow(cfg.WindowSize, cfg.BucketSize),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.changedAt = b.now()
	b.metrics.track(b)
	return b
}

// 调用方主动取消不算资源故障
func defaultIsFailure(err error) bool {
	return !errors.Is(err, context.Canceled)
}

func (b *Breaker) Name() string {
	return b.name
}

// State reports the current state; an expired Open reads as HalfOpen only after the next call
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Execute runs fn unless the circuit is open
func (b *Breaker) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	if !b.cfg.Enabled {
		return fn(ctx)
	}
	if !b.allow(ctx) {
		b.metrics.recordRejection(ctx, b.name)
		return ErrCircuitOpen
	}

	err := fn(ctx)
	b.record(ctx, err)
	return err
}

// Reset forces the breaker closed
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != StateClosed {
		b.transition(context.Background(), StateClosed, "manual reset")
	}
}

func (b *Breaker) allow(ctx context.Context) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return true
	case StateOpen:
		if b.now().Sub(b.changedAt) < b.cfg.Timeout {
			return false
		}
		b.transition(ctx, StateHalfOpen, "timeout expired")
		b.probes = 1
		return true
	case StateHalfOpen:
		if b.probes < b.cfg.HalfOpenRequests {
			b.probes++
			return true
		}
		return false
	}
	return false
}

func (b *Breaker) record(ctx context.Context, err error) {
	failed := err != nil && b.isFailure(err)
	ignored := err != nil && !failed

	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		if ignored {
			return
		}
		b.window.add(b.now(), failed)
		if failed {
			b.consecutive++
		} else {
			b.consecutive = 0
		}
		if b.shouldTrip() {
			b.transition(ctx, StateOpen, b.cfg.Strategy+" threshold exceeded")
		}

	case StateHalfOpen:
		switch {
		case ignored:
			// 让出探测名额
			b.probes--
		case failed:
			b.transition(ctx, StateOpen, "probe failed")
		default:
			b.probeOK++
			if b.probeOK >= b.cfg.HalfOpenRequests {
				b.transition(ctx, StateClosed, "probes succeeded")
			}
		}
	}
	// Open: 熔断前已放行的调用，结果丢弃
}

func (b *Breaker) shouldTrip() bool {
	if b.cfg.Strategy == StrategyErrorRate {
		total, failures := b.window.counts(b.now())
		if total < int64(b.cfg.MinRequests) {
			return false
		}
		return float64(failures)/float64(total) >= b.cfg.ErrorRateThreshold
	}
	return b.consecutive >= b.cfg.ConsecutiveFailures
}

// transition requires b.mu
func (b *Breaker) transition(ctx context.Context, to State, reason string) {
	from := b.state
	b.state = to
	b.changedAt = b.now()
	b.consecutive = 0
	b.probes = 0
	b.probeOK = 0
	if to == StateClosed {
		b.window.reset()
	}

	fields := []zap.Field{
		zap.String("resource", b.name),
		zap.String("from", from.String()),
		zap.String("to", to.String()),
		zap.String("reason", reason),
	}
	if to == StateOpen {
		b.logger.WarnCtx(ctx, "circuit breaker opened", fields...)
	} else {
		b.logger.InfoCtx(ctx, "circuit breaker state changed", fields...)
	}
	b.metrics.recordTransition(ctx, b.name, to)
}
