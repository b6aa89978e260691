package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aelexs/timesync/internal/domain"
	iredis "github.com/aelexs/timesync/internal/redis"
)

func TestNewClient_Ping(t *testing.T) {
	mr := miniredis.RunT(t)

	client := iredis.NewClient(iredis.Config{Addr: mr.Addr(), Timeout: time.Second})
	t.Cleanup(func() {
		require.NoError(t, client.Close())
	})

	require.NoError(t, client.Ping(context.Background()))

	var _ iredis.Cmdable = client.RDB
}

func TestPing_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	client := iredis.NewClient(iredis.Config{Addr: addr, Timeout: 200 * time.Millisecond})
	t.Cleanup(func() { _ = client.Close() })

	err := client.Ping(context.Background())

	assert.ErrorIs(t, err, domain.ErrUnavailable)
}
