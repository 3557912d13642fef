package resilience_test

import (
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airlog/airlog/internal/resilience"
)

func newRegisteredGuard(registry *resilience.Registry, name string) *resilience.Guard {
	cfg := resilience.DefaultGuardConfig(name)
	cfg.Registry = registry
	return resilience.NewGuard(cfg)
}

func TestRegistry_RegisterAndGetHealth(t *testing.T) {
	registry := resilience.NewRegistry()
	guard := newRegisteredGuard(registry, "station-store")

	require.Len(t, registry.GetAllHealth(), 1)

	health := registry.GetHealth("station-store")
	require.NotNil(t, health)
	assert.Equal(t, "station-store", health.Name)
	assert.Equal(t, gobreaker.StateClosed, health.CircuitState)
	assert.True(t, health.IsHealthy())
	assert.False(t, health.IsDegraded())
	assert.False(t, health.IsUnhealthy())

	assert.Equal(t, "station-store", guard.Name())
}

func TestRegistry_RecordSuccess(t *testing.T) {
	registry := resilience.NewRegistry()
	_ = newRegisteredGuard(registry, "station-store")

	health := registry.GetHealth("station-store")
	require.NotNil(t, health)
	assert.Nil(t, health.LastSuccessAt)

	registry.RecordSuccess("station-store")

	health = registry.GetHealth("station-store")
	require.NotNil(t, health)
	require.NotNil(t, health.LastSuccessAt)
	assert.WithinDuration(t, time.Now(), *health.LastSuccessAt, time.Second)
}

func TestRegistry_RecordFailure(t *testing.T) {
	registry := resilience.NewRegistry()
	_ = newRegisteredGuard(registry, "station-store")

	registry.RecordFailure("station-store", assert.AnError)

	health := registry.GetHealth("station-store")
	require.NotNil(t, health)
	require.NotNil(t, health.LastFailureAt)
	assert.WithinDuration(t, time.Now(), *health.LastFailureAt, time.Second)
	assert.Equal(t, assert.AnError.Error(), health.LastError)
}

func TestRegistry_GetAllHealthSorted(t *testing.T) {
	registry := resilience.NewRegistry()
	for _, name := range []string{"user-store", "station-store", "ingest"} {
		_ = newRegisteredGuard(registry, name)
	}

	healthList := registry.GetAllHealth()
	require.Len(t, healthList, 3)
	assert.Equal(t, "ingest", healthList[0].Name)
	assert.Equal(t, "station-store", healthList[1].Name)
	assert.Equal(t, "user-store", healthList[2].Name)
}

func TestRegistry_UnknownNames(t *testing.T) {
	registry := resilience.NewRegistry()

	assert.Nil(t, registry.GetHealth("nonexistent"))
	assert.NotPanics(t, func() {
		registry.RecordSuccess("nonexistent")
		registry.RecordFailure("nonexistent", assert.AnError)
	})
}

func TestHealth_States(t *testing.T) {
	tests := []struct {
		state       gobreaker.State
		isHealthy   bool
		isDegraded  bool
		isUnhealthy bool
	}{
		{gobreaker.StateClosed, true, false, false},
		{gobreaker.StateHalfOpen, false, true, false},
		{gobreaker.StateOpen, false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			h := &resilience.Health{CircuitState: tt.state}
			assert.Equal(t, tt.isHealthy, h.IsHealthy())
			assert.Equal(t, tt.isDegraded, h.IsDegraded())
			assert.Equal(t, tt.isUnhealthy, h.IsUnhealthy())
		})
	}
}
