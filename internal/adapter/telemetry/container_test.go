package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"simpletodo/internal/core/telemetry"
	"simpletodo/pkg/config"
)

func TestNewContainer_Disabled(t *testing.T) {
	cfg := config.GetDefaultConfig()
	logger := config.NewNopLogger()

	container, err := NewContainer(context.Background(), cfg, logger)

	require.NoError(t, err)
	assert.False(t, container.Enabled())
	assert.NotNil(t, container.AppMetrics)
	assert.Nil(t, container.MetricsServer)
	assert.IsType(t, &telemetry.NoOpProbe{}, container.NewTelemetryProbe(logger))
	assert.NoError(t, container.Shutdown(context.Background()))
}

func TestNewContainer_RegistryServesAppMetrics(t *testing.T) {
	container, err := NewContainer(context.Background(), config.GetDefaultConfig(), config.NewNopLogger())
	require.NoError(t, err)

	container.AppMetrics.RecordSessionOperation(context.Background(), "open")

	families, err := container.PrometheusRegistry.Gather()
	require.NoError(t, err)

	names := make([]string, 0, len(families))
	for _, family := range families {
		names = append(names, family.GetName())
	}

	assert.Contains(t, names, "db_session_operations_total")
}
