package observability_test

import (
	"context"
	"testing"
	"time"

	"github.com/aelexs/timesync/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitMetrics_LocalOnly(t *testing.T) {
	mp, err := observability.InitMetrics(context.Background(), observability.MetricsConfig{
		ServiceName:    "timesyncd",
		ServiceVersion: "dev",
		Environment:    "test",
		ExportInterval: time.Second,
	})
	require.NoError(t, err)

	// Instruments resolve against the installed provider.
	syncs, err := observability.Meter("timesync/app").Int64Counter("timesync.sync.attempts")
	require.NoError(t, err)
	syncs.Add(context.Background(), 1)

	assert.NoError(t, mp.Shutdown(context.Background()))
}

func TestMetricsProvider_ShutdownZeroValue(t *testing.T) {
	var mp observability.MetricsProvider

	assert.NoError(t, mp.Shutdown(context.Background()))
}
