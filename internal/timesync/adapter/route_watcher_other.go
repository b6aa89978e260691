//go:build !linux

package adapter

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"github.com/aelexs/timesync/internal/domain"
)

// RouteWatcher is only available on Linux; use Prober elsewhere.
type RouteWatcher struct{}

func NewRouteWatcher(*slog.Logger) *RouteWatcher {
	return &RouteWatcher{}
}

func (*RouteWatcher) Watch(context.Context) (<-chan bool, error) {
	return nil, fmt.Errorf("%w: netlink route watching on %s", domain.ErrUnavailable, runtime.GOOS)
}
