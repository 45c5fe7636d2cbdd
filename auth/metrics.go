package auth

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// AuthMetrics account flow instrumentation; nil and unregistered values record nothing
type AuthMetrics struct {
	registered bool
	mu         sync.RWMutex

	loginsTotal         metric.Int64Counter
	loginDuration       metric.Float64Histogram
	passwordValidations metric.Int64Counter
	accountActions      metric.Int64Counter
}

func NewAuthMetrics() *AuthMetrics {
	return &AuthMetrics{}
}

// MetricsName returns the metrics group name
func (m *AuthMetrics) MetricsName() string {
	return "auth"
}

// RegisterMetrics registers all Auth metrics with the provided Meter
func (m *AuthMetrics) RegisterMetrics(meter metric.Meter) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.registered {
		return nil
	}

	var err error
	if m.loginsTotal, err = meter.Int64Counter(
		"auth_logins_total",
		metric.WithDescription("Total number of login attempts"),
		metric.WithUnit("{login}"),
	); err != nil {
		return err
	}

	if m.loginDuration, err = meter.Float64Histogram(
		"auth_login_duration_seconds",
		metric.WithDescription("Login duration distribution"),
		metric.WithUnit("s"),
	); err != nil {
		return err
	}

	if m.passwordValidations, err = meter.Int64Counter(
		"auth_password_validations_total",
		metric.WithDescription("Total number of password policy checks"),
		metric.WithUnit("{validation}"),
	); err != nil {
		return err
	}

	if m.accountActions, err = meter.Int64Counter(
		"auth_account_actions_total",
		metric.WithDescription("Account state changes: register, ban, unban, password change"),
		metric.WithUnit("{action}"),
	); err != nil {
		return err
	}

	m.registered = true
	return nil
}

// IsRegistered returns whether metrics have been registered
func (m *AuthMetrics) IsRegistered() bool {
	if m == nil {
		return false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.registered
}

// RecordLogin records a login attempt
func (m *AuthMetrics) RecordLogin(ctx context.Context, result string, duration time.Duration) {
	if !m.IsRegistered() {
		return
	}
	m.loginsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
	m.loginDuration.Record(ctx, duration.Seconds())
}

func (m *AuthMetrics) RecordPasswordValidation(ctx context.Context, result string) {
	if !m.IsRegistered() {
		return
	}
	m.passwordValidations.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

func (m *AuthMetrics) RecordAccountAction(ctx context.Context, action string) {
	if !m.IsRegistered() {
		return
	}
	m.accountActions.Add(ctx, 1, metric.WithAttributes(attribute.String("action", action)))
}
