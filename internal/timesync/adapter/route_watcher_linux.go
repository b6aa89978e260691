//go:build linux

package adapter

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vishvananda/netlink"

	"github.com/aelexs/timesync/internal/timesync/app"
)

// Compile-time check: RouteWatcher satisfies app.ConnectivitySource.
var _ app.ConnectivitySource = (*RouteWatcher)(nil)

// RouteWatcher reports connectivity as the presence of a default route,
// following kernel route changes over netlink.
type RouteWatcher struct {
	logger *slog.Logger

	// Overridable for tests.
	listRoutes func() ([]netlink.Route, error)
	subscribe  func(ch chan<- netlink.RouteUpdate, done <-chan struct{}) error
}

// NewRouteWatcher creates a RouteWatcher over the host's routing tables.
func NewRouteWatcher(logger *slog.Logger) *RouteWatcher {
	return &RouteWatcher{
		logger: logger,
		listRoutes: func() ([]netlink.Route, error) {
			return netlink.RouteList(nil, netlink.FAMILY_ALL)
		},
		subscribe: func(ch chan<- netlink.RouteUpdate, done <-chan struct{}) error {
			return netlink.RouteSubscribe(ch, done)
		},
	}
}

// Watch emits the current state, then every change of it, until ctx is done.
func (w *RouteWatcher) Watch(ctx context.Context) (<-chan bool, error) {
	routes, err := w.listRoutes()
	if err != nil {
		return nil, fmt.Errorf("list routes: %w", err)
	}

	updates := make(chan netlink.RouteUpdate)
	if err := w.subscribe(updates, ctx.Done()); err != nil {
		return nil, fmt.Errorf("subscribe to route updates: %w", err)
	}

	out := make(chan bool, 1)
	online := hasDefaultRoute(routes)
	out <- online

	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-updates:
				if !ok {
					return
				}
				routes, err := w.listRoutes()
				if err != nil {
					w.logger.Warn("route list failed", "error", err)
					continue
				}
				now := hasDefaultRoute(routes)
				if now == online {
					continue
				}
				online = now
				select {
				case out <- online:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// hasDefaultRoute reports whether any route has an unspecified destination.
func hasDefaultRoute(routes []netlink.Route) bool {
	for _, r := range routes {
		if r.Dst == nil {
			return true
		}
		if ones, _ := r.Dst.Mask.Size(); ones == 0 && r.Dst.IP.IsUnspecified() {
			return true
		}
	}
	return false
}
