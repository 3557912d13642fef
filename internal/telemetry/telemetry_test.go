package telemetry_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airlog/airlog/internal/telemetry"
)

func TestInit_Disabled(t *testing.T) {
	ctx := context.Background()

	provider, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    "airlog-test",
		ServiceVersion: "1.0.0",
		Environment:    "test",
		OTLPEndpoint:   "localhost:4317",
		Enabled:        false,
	})

	require.NoError(t, err)
	assert.NotNil(t, provider.Tracer)
	assert.NotNil(t, provider.Meter)
	assert.Nil(t, provider.TracerProvider)
	assert.Nil(t, provider.MeterProvider)
	assert.NoError(t, provider.Shutdown(ctx))
}

func TestProvider_Shutdown_NilProviders(t *testing.T) {
	provider := &telemetry.Provider{}
	assert.NoError(t, provider.Shutdown(context.Background()))
}

func TestConfigFromEnv(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		t.Setenv("OTEL_ENABLED", "")
		t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
		t.Setenv("OTEL_TRACES_SAMPLER_ARG", "")
		t.Setenv("APP_ENV", "")

		cfg := telemetry.ConfigFromEnv("airlog-api", "1.2.3")

		assert.Equal(t, "airlog-api", cfg.ServiceName)
		assert.Equal(t, "1.2.3", cfg.ServiceVersion)
		assert.Equal(t, "development", cfg.Environment)
		assert.Equal(t, "localhost:4317", cfg.OTLPEndpoint)
		assert.False(t, cfg.Enabled)
		assert.InDelta(t, 1.0, cfg.SampleRatio, 1e-9)
	})

	t.Run("overrides", func(t *testing.T) {
		t.Setenv("OTEL_ENABLED", "true")
		t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "collector:4317")
		t.Setenv("OTEL_TRACES_SAMPLER_ARG", "0.25")
		t.Setenv("APP_ENV", "production")

		cfg := telemetry.ConfigFromEnv("airlog-worker", "dev")

		assert.True(t, cfg.Enabled)
		assert.Equal(t, "collector:4317", cfg.OTLPEndpoint)
		assert.Equal(t, "production", cfg.Environment)
		assert.InDelta(t, 0.25, cfg.SampleRatio, 1e-9)
	})
}

func TestSampler(t *testing.T) {
	tests := []struct {
		ratio float64
		want  string
	}{
		{0, "AlwaysOnSampler"},
		{1, "AlwaysOnSampler"},
		{0.5, "TraceIDRatioBased{0.5}"},
	}

	for _, tt := range tests {
		desc := telemetry.Sampler(telemetry.Config{SampleRatio: tt.ratio}).Description()
		assert.Contains(t, desc, tt.want)
		assert.Contains(t, desc, "ParentBased")
	}
}

func TestTracerAndMeter(t *testing.T) {
	assert.NotNil(t, telemetry.Tracer("airlog-test"))
	assert.NotNil(t, telemetry.Meter("airlog-test"))
}
