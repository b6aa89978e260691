package adapter_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	redisclient "github.com/aelexs/timesync/internal/redis"
	"github.com/aelexs/timesync/internal/timesync/adapter"
)

func newTestCacheInvalidator(t *testing.T) (*adapter.CacheInvalidator, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redisclient.NewClient(redisclient.Config{Addr: mr.Addr(), Timeout: 5 * time.Second})
	t.Cleanup(func() {
		require.NoError(t, client.Close())
	})

	return adapter.NewCacheInvalidator(client.RDB), mr
}

func TestCacheInvalidator_InvalidatePattern(t *testing.T) {
	t.Run("deletes only matching keys", func(t *testing.T) {
		inv, mr := newTestCacheInvalidator(t)
		for _, k := range []string{"calendar:2025-03-01:week", "calendar:2025-03-01:month", "calendar:2025-03-02:week", "stats:user:1"} {
			require.NoError(t, mr.Set(k, "x"))
		}

		n, err := inv.InvalidatePattern(context.Background(), "calendar:2025-03-01*")

		require.NoError(t, err)
		assert.Equal(t, 2, n)
		assert.False(t, mr.Exists("calendar:2025-03-01:week"))
		assert.False(t, mr.Exists("calendar:2025-03-01:month"))
		assert.True(t, mr.Exists("calendar:2025-03-02:week"))
		assert.True(t, mr.Exists("stats:user:1"))
	})

	t.Run("walks every scan page", func(t *testing.T) {
		inv, mr := newTestCacheInvalidator(t)
		for i := range 450 {
			require.NoError(t, mr.Set(fmt.Sprintf("streaks:%d", i), "x"))
		}

		n, err := inv.InvalidatePattern(context.Background(), "streaks:*")

		require.NoError(t, err)
		assert.Equal(t, 450, n)
		assert.Empty(t, mr.Keys())
	})

	t.Run("no matches is not an error", func(t *testing.T) {
		inv, _ := newTestCacheInvalidator(t)

		n, err := inv.InvalidatePattern(context.Background(), "gratitude:*")

		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("redis failure is returned", func(t *testing.T) {
		inv, mr := newTestCacheInvalidator(t)
		mr.SetError("LOADING")

		_, err := inv.InvalidatePattern(context.Background(), "stats:*")

		assert.Error(t, err)
	})
}
