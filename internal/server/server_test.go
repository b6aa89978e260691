package server_test

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/aelexs/timesync/internal/config"
	"github.com/aelexs/timesync/internal/domain"
	"github.com/aelexs/timesync/internal/server"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testParams() server.Params {
	return server.Params{
		Name:           "testservice",
		PortFromConfig: func(_ *config.Config) int { return 0 },
		DrainDelay:     200 * time.Millisecond,
	}
}

// startServer runs server.Run on an ephemeral port and waits until /healthz
// answers 200.
func startServer(t *testing.T, ctx context.Context, p server.Params) (string, <-chan error) {
	t.Helper()
	ln := newTestListener(t)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Run(ctx, p, server.Listeners{HTTP: ln})
	}()

	addr := ln.Addr().String()
	waitForHealthy(t, addr)
	return addr, errCh
}

func TestRunGracefulShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	_, errCh := startServer(t, ctx, testParams())

	start := time.Now()
	cancel()

	select {
	case err := <-errCh:
		require.NoError(t, err)
		assert.Less(t, time.Since(start), domain.GracefulShutdownTimeout)
	case <-time.After(domain.GracefulShutdownTimeout + 5*time.Second):
		t.Fatal("shutdown did not complete within budget")
	}
}

func TestHealthCheckReturns503DuringShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	addr, errCh := startServer(t, ctx, testParams())

	cancel()

	// /healthz flips to 503 for the drain delay, before the listener closes.
	assert.Eventually(t, func() bool {
		resp, err := httpGet(t, fmt.Sprintf("http://%s/healthz", addr))
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		return resp.StatusCode == http.StatusServiceUnavailable
	}, 2*time.Second, 20*time.Millisecond)

	require.NoError(t, <-errCh)
}

func TestRunSetupHook(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	cleaned := make(chan struct{})
	p := testParams()
	p.Setup = func(_ context.Context, deps server.SetupDeps) (func(context.Context) error, error) {
		require.NotNil(t, deps.Config)
		require.NotNil(t, deps.Logger)
		deps.Router.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("pong"))
		})
		return func(context.Context) error {
			close(cleaned)
			return nil
		}, nil
	}

	addr, errCh := startServer(t, ctx, p)

	resp, err := httpGet(t, fmt.Sprintf("http://%s/ping", addr))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	require.NoError(t, <-errCh)

	select {
	case <-cleaned:
	default:
		t.Fatal("cleanup was not called on shutdown")
	}
}

func TestRunSetupError(t *testing.T) {
	ln := newTestListener(t)
	defer ln.Close()

	p := testParams()
	p.Setup = func(context.Context, server.SetupDeps) (func(context.Context) error, error) {
		return nil, domain.ErrConfigRequired
	}

	err := server.Run(context.Background(), p, server.Listeners{HTTP: ln})
	require.ErrorIs(t, err, domain.ErrConfigRequired)
}

func TestRunConfigError(t *testing.T) {
	t.Setenv("TIMESYNC_CONNECTIVITY__MODE", "smoke-signals")

	err := server.Run(context.Background(), testParams(), server.Listeners{})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

// newTestListener creates a TCP listener on an OS-assigned port.
func newTestListener(t *testing.T) net.Listener {
	t.Helper()
	ln, err := (&net.ListenConfig{}).Listen(context.Background(), "tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to create test listener: %v", err)
	}
	return ln
}

// waitForHealthy polls the health endpoint until it returns 200.
func waitForHealthy(t *testing.T, addr string) {
	t.Helper()
	require.Eventually(t, func() bool {
		resp, err := httpGet(t, fmt.Sprintf("http://%s/healthz", addr))
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 50*time.Millisecond, "server at %s not healthy", addr)
}

func httpGet(t *testing.T, url string) (*http.Response, error) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	return http.DefaultClient.Do(req)
}
