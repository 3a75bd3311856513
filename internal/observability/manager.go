// Package observability installs the otel tracer and meter providers. The
// store, gateway and worker record through the otel globals and never see
// this package directly.
package observability

import (
	"context"
	"errors"
	"net/http"
	"runtime/debug"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/sketchbook/internal/config"
)

const shutdownTimeout = 10 * time.Second

// Manager owns the providers built from configuration.
type Manager struct {
	cfg    config.Observability
	logger *zap.Logger

	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
	metricsHandler http.Handler
}

var Module = fx.Provide(NewManager)

// NewManager builds the providers and installs them as otel globals when the
// app starts.
func NewManager(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) (*Manager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx := context.Background()
	obs := cfg.Observability

	res, err := newResource(ctx, obs)
	if err != nil {
		return nil, err
	}

	m := &Manager{cfg: obs, logger: logger}
	if obs.EnableTracing {
		if m.tracerProvider, err = newTracerProvider(ctx, obs, res, logger); err != nil {
			return nil, err
		}
	}
	if obs.EnableMetrics {
		if m.meterProvider, m.metricsHandler, err = newMeterProvider(obs, res, logger); err != nil {
			return nil, err
		}
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			m.install()
			return nil
		},
		OnStop: m.shutdown,
	})
	return m, nil
}

func (m *Manager) install() {
	if m.tracerProvider != nil {
		otel.SetTracerProvider(m.tracerProvider)
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		))
	}
	if m.meterProvider != nil {
		otel.SetMeterProvider(m.meterProvider)
	}
	m.logger.Info("observability ready",
		zap.Bool("tracing", m.TracingEnabled()),
		zap.Float64("sample_ratio", m.cfg.TraceSampleRatio),
		zap.Bool("metrics", m.MetricsEnabled()),
		zap.String("metrics_exporter", m.cfg.MetricsExporter))
}

func (m *Manager) shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	var err error
	if m.tracerProvider != nil {
		err = errors.Join(err, m.tracerProvider.Shutdown(ctx))
	}
	if m.meterProvider != nil {
		err = errors.Join(err, m.meterProvider.Shutdown(ctx))
	}
	return err
}

func (m *Manager) TracingEnabled() bool { return m.tracerProvider != nil }

func (m *Manager) MetricsEnabled() bool { return m.meterProvider != nil }

// MetricsHandler serves the prometheus registry, or nil unless the
// prometheus exporter is active.
func (m *Manager) MetricsHandler() http.Handler { return m.metricsHandler }

func (m *Manager) PrometheusPath() string { return m.cfg.PrometheusPath }

// MeterProvider returns the SDK meter provider, or nil when metrics are off.
func (m *Manager) MeterProvider() *sdkmetric.MeterProvider { return m.meterProvider }

func newResource(ctx context.Context, obs config.Observability) (*sdkresource.Resource, error) {
	return sdkresource.New(ctx,
		sdkresource.WithFromEnv(),
		sdkresource.WithHost(),
		sdkresource.WithAttributes(
			semconv.ServiceName(obs.ServiceName),
			semconv.ServiceVersion(buildVersion()),
			semconv.DeploymentEnvironment(obs.Environment),
		),
	)
}

// buildVersion is the main module version stamped by the go tool, or
// "devel" for local builds.
func buildVersion() string {
	info, ok := debug.ReadBuildInfo()
	if !ok || info.Main.Version == "" || info.Main.Version == "(devel)" {
		return "devel"
	}
	return info.Main.Version
}
