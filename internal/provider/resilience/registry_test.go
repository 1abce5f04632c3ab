package resilience_test

import (
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nutrilog/nutrilog/internal/provider/resilience"
)

func TestRegistry_RecordOutcomes(t *testing.T) {
	registry := resilience.NewRegistry()
	cfg := resilience.DefaultClientConfig("usda")
	cfg.Registry = registry
	_ = resilience.NewClient(cfg)

	health, ok := registry.Health("usda")
	require.True(t, ok)
	assert.Nil(t, health.LastSuccessAt)
	assert.Nil(t, health.LastFailureAt)

	registry.RecordSuccess("usda")
	registry.RecordFailure("usda", assert.AnError)

	health, ok = registry.Health("usda")
	require.True(t, ok)
	require.NotNil(t, health.LastSuccessAt)
	require.NotNil(t, health.LastFailureAt)
	assert.WithinDuration(t, time.Now(), *health.LastFailureAt, time.Second)
	assert.Equal(t, assert.AnError.Error(), health.LastError)
}

func TestRegistry_UnknownProvider(t *testing.T) {
	registry := resilience.NewRegistry()

	registry.RecordSuccess("missing")
	registry.RecordFailure("missing", assert.AnError)

	_, ok := registry.Health("missing")
	assert.False(t, ok)
	assert.Empty(t, registry.Snapshot())
}

func TestRegistry_SnapshotSorted(t *testing.T) {
	registry := resilience.NewRegistry()
	for _, name := range []string{"usda", "openfoodfacts", "nutritionix"} {
		cfg := resilience.DefaultClientConfig(name)
		cfg.Registry = registry
		_ = resilience.NewClient(cfg)
	}

	snap := registry.Snapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, "nutritionix", snap[0].Name)
	assert.Equal(t, "openfoodfacts", snap[1].Name)
	assert.Equal(t, "usda", snap[2].Name)
	for _, h := range snap {
		assert.Equal(t, gobreaker.StateClosed, h.State)
	}
}

func TestProviderHealth_States(t *testing.T) {
	tests := []struct {
		state    gobreaker.State
		healthy  bool
		degraded bool
	}{
		{gobreaker.StateClosed, true, false},
		{gobreaker.StateHalfOpen, false, true},
		{gobreaker.StateOpen, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			h := resilience.ProviderHealth{State: tt.state}
			assert.Equal(t, tt.healthy, h.Healthy())
			assert.Equal(t, tt.degraded, h.Degraded())
		})
	}
}
