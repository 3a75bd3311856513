package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"

	"github.com/Additional-Code/sketchbook/internal/config"
)

func TestNewManager_Disabled(t *testing.T) {
	lc := fxtest.NewLifecycle(t)
	mgr, err := NewManager(lc, config.Config{Observability: config.Observability{ServiceName: "sketchbook"}}, zap.NewNop())
	require.NoError(t, err)

	assert.False(t, mgr.TracingEnabled())
	assert.False(t, mgr.MetricsEnabled())
	assert.Nil(t, mgr.MetricsHandler())
}

func TestNewManager_PrometheusExportsMeterData(t *testing.T) {
	lc := fxtest.NewLifecycle(t)
	cfg := config.Config{Observability: config.Observability{
		ServiceName:     "sketchbook",
		EnableMetrics:   true,
		MetricsExporter: "prometheus",
		PrometheusPath:  "/metrics",
	}}
	mgr, err := NewManager(lc, cfg, zap.NewNop())
	require.NoError(t, err)
	require.True(t, mgr.MetricsEnabled())

	counter, err := mgr.MeterProvider().Meter("test").Int64Counter("sketch_writes_total")
	require.NoError(t, err)
	counter.Add(context.Background(), 2)

	rec := httptest.NewRecorder()
	mgr.MetricsHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "sketch_writes")
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestNewManager_UnknownExportersDisable(t *testing.T) {
	lc := fxtest.NewLifecycle(t)
	cfg := config.Config{Observability: config.Observability{
		ServiceName:     "sketchbook",
		EnableTracing:   true,
		TraceExporter:   "zipkin",
		EnableMetrics:   true,
		MetricsExporter: "statsd",
	}}
	mgr, err := NewManager(lc, cfg, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, mgr.TracingEnabled())
	assert.False(t, mgr.MetricsEnabled())
}

func TestNewManager_StdoutTracingStartsAndStops(t *testing.T) {
	lc := fxtest.NewLifecycle(t)
	cfg := config.Config{Observability: config.Observability{
		ServiceName:      "sketchbook",
		EnableTracing:    true,
		TraceExporter:    "stdout",
		TraceSampleRatio: 0,
	}}
	mgr, err := NewManager(lc, cfg, zap.NewNop())
	require.NoError(t, err)
	assert.True(t, mgr.TracingEnabled())

	lc.RequireStart()
	lc.RequireStop()
}

func TestNewManager_OTLPRequiresEndpoint(t *testing.T) {
	lc := fxtest.NewLifecycle(t)
	cfg := config.Config{Observability: config.Observability{
		EnableTracing: true,
		TraceExporter: "otlp",
	}}
	_, err := NewManager(lc, cfg, zap.NewNop())
	assert.Error(t, err)
}
