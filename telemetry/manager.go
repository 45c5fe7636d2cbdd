// Package telemetry installs the global OpenTelemetry tracer and meter providers.
// otelgin, the gorm tracing plugin and every *Metrics type pick them up through otel globals.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/KOMKZ/go-yogan-tokenauth/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Manager owns the SDK providers for the process lifetime
type Manager struct {
	config         Config
	logger         *logger.CtxZapLogger
	writer         io.Writer // stdout exporter target
	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
}

func NewManager(cfg Config, log *logger.CtxZapLogger) *Manager {
	cfg.ApplyDefaults()
	return &Manager{config: cfg, logger: log, writer: os.Stdout}
}

// Start builds the providers and installs them globally. A disabled manager is a no-op.
func (m *Manager) Start(ctx context.Context) error {
	if !m.config.Enabled {
		m.logger.InfoCtx(ctx, "telemetry disabled")
		return nil
	}
	if err := m.config.Validate(); err != nil {
		return fmt.Errorf("invalid telemetry config: %w", err)
	}

	res, err := m.createResource(ctx)
	if err != nil {
		return fmt.Errorf("create resource failed: %w", err)
	}

	spanExporter, err := m.createSpanExporter(ctx)
	if err != nil {
		return fmt.Errorf("create span exporter failed: %w", err)
	}
	m.tracerProvider = sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSampler(m.createSampler()),
		sdktrace.WithBatcher(spanExporter),
	)
	otel.SetTracerProvider(m.tracerProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{},
	))

	if m.config.Metrics.Enabled {
		metricExporter, err := m.createMetricExporter(ctx)
		if err != nil {
			return fmt.Errorf("create metric exporter failed: %w", err)
		}
		m.meterProvider = sdkmetric.NewMeterProvider(
			sdkmetric.WithResource(res),
			sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter,
				sdkmetric.WithInterval(m.config.Metrics.ExportInterval))),
		)
		otel.SetMeterProvider(m.meterProvider)
	}

	m.logger.InfoCtx(ctx, "telemetry started",
		zap.String("service_name", m.config.ServiceName),
		zap.String("exporter", m.config.Exporter.Type),
		zap.Bool("metrics", m.meterProvider != nil))
	return nil
}

// IsEnabled reports whether Start installed SDK providers
func (m *Manager) IsEnabled() bool {
	return m.tracerProvider != nil
}

func (m *Manager) ServiceName() string {
	return m.config.ServiceName
}

// Meter returns a meter from the installed provider, or the global one when disabled
func (m *Manager) Meter(name string) metric.Meter {
	if m.meterProvider != nil {
		return m.meterProvider.Meter(name)
	}
	return otel.Meter(name)
}

// TracerProvider returns the SDK provider, or the global one when disabled
func (m *Manager) TracerProvider() trace.TracerProvider {
	if m.tracerProvider != nil {
		return m.tracerProvider
	}
	return otel.GetTracerProvider()
}

// Shutdown flushes and stops both providers
func (m *Manager) Shutdown(ctx context.Context) error {
	var errs []error
	if m.tracerProvider != nil {
		if err := m.tracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown tracer provider failed: %w", err))
		}
	}
	if m.meterProvider != nil {
		if err := m.meterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown meter provider failed: %w", err))
		}
	}
	return errors.Join(errs...)
}
