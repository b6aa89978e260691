package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"

	"github.com/aelexs/timesync/internal/auth"
	"github.com/aelexs/timesync/internal/config"
	"github.com/aelexs/timesync/internal/domain"
	"github.com/aelexs/timesync/internal/redis"
	"github.com/aelexs/timesync/internal/server"
	"github.com/aelexs/timesync/internal/timesync/adapter"
	"github.com/aelexs/timesync/internal/timesync/app"
	"github.com/aelexs/timesync/internal/timesync/port"
)

// components is everything the composition root builds. close releases
// infrastructure clients; it does not destroy the service.
type components struct {
	svc     *app.Service
	session *auth.Session
	redis   *redis.Client // nil when cache invalidation is disabled
}

func (c *components) close() error {
	if c.redis == nil {
		return nil
	}
	return c.redis.Close()
}

// build creates the adapters and the time service from cfg.
func build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*components, error) {
	clock := domain.RealClock{}

	session := auth.NewSession(clock)
	if !cfg.Authority.Token.IsEmpty() {
		ok, err := session.SetToken(cfg.Authority.Token.Expose())
		if err != nil {
			return nil, fmt.Errorf("authority.token: %w", err)
		}
		if !ok {
			logger.WarnContext(ctx, "configured authority token is expired, starting anonymous")
		}
	}

	authority, err := adapter.NewHTTPAuthority(cfg.Authority.BaseURL, session, cfg.Authority.Timeout)
	if err != nil {
		return nil, err
	}

	c := &components{session: session}

	svcCfg := app.ServiceConfig{
		Authority:          authority,
		Clock:              clock,
		Logger:             logger,
		Freshness:          cfg.Sync.Freshness,
		Interval:           cfg.Sync.Interval,
		RequestTimeout:     cfg.Authority.Timeout,
		MaxErrors:          cfg.Sync.MaxErrors,
		DriftThreshold:     cfg.NTP.Threshold,
		InvalidatePatterns: cfg.Cache.InvalidatePatterns,
		WeekStart:          cfg.WeekStartDay(),
		Locale:             cfg.Locale,
	}
	if cfg.NTP.Server != "" {
		svcCfg.Drift = adapter.NewNTPDriftChecker(cfg.NTP.Server, cfg.NTP.Timeout)
	}
	if cfg.Redis.Addr != "" {
		c.redis = redis.NewClient(redis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password.Expose(),
			DB:       cfg.Redis.DB,
			Timeout:  cfg.Redis.Timeout,
		})
		if err := c.redis.Ping(ctx); err != nil {
			// Invalidation is best effort; a later day change may find it up.
			logger.WarnContext(ctx, "redis unreachable at startup", "addr", cfg.Redis.Addr, "error", err)
		}
		svcCfg.Cache = adapter.NewCacheInvalidator(c.redis.RDB)
	}

	c.svc = app.NewService(svcCfg)
	return c, nil
}

// connectivitySource picks the online/offline source for cfg. A nil source
// means the service assumes it is always online.
func connectivitySource(cfg *config.Config, logger *slog.Logger) (app.ConnectivitySource, error) {
	switch cfg.Connectivity.Mode {
	case config.ConnectivityNetlink:
		return adapter.NewRouteWatcher(logger), nil
	case config.ConnectivityProbe:
		addr := cfg.Connectivity.ProbeAddress
		if addr == "" {
			var err error
			if addr, err = hostPort(cfg.Authority.BaseURL); err != nil {
				return nil, err
			}
		}
		return adapter.NewProber(adapter.ProberConfig{
			Address:  addr,
			Interval: cfg.Connectivity.ProbeInterval,
			Logger:   logger,
		}), nil
	default:
		return nil, nil
	}
}

// hostPort derives a dialable address from an http(s) URL.
func hostPort(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return "", fmt.Errorf("%w: authority base url %q", domain.ErrInvalidInput, raw)
	}
	if p := u.Port(); p != "" {
		return net.JoinHostPort(u.Hostname(), p), nil
	}
	if u.Scheme == "https" {
		return net.JoinHostPort(u.Hostname(), "443"), nil
	}
	return net.JoinHostPort(u.Hostname(), "80"), nil
}

// setup is the daemon composition root. It builds the service, starts
// connectivity monitoring and mounts the developer HTTP surface.
func setup(ctx context.Context, deps server.SetupDeps) (func(context.Context) error, error) {
	cfg := deps.Config
	logger := deps.Logger

	c, err := build(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("timesyncd setup: %w", err)
	}

	c.svc.Initialize(ctx, c.session.Authenticated())

	src, err := connectivitySource(cfg, logger)
	if err != nil {
		c.svc.Destroy(ctx)
		_ = c.close()
		return nil, fmt.Errorf("timesyncd setup: %w", err)
	}
	if src != nil {
		if err := c.svc.WatchConnectivity(ctx, src); err != nil {
			if !errors.Is(err, domain.ErrUnavailable) {
				c.svc.Destroy(ctx)
				_ = c.close()
				return nil, fmt.Errorf("timesyncd setup: %w", err)
			}
			logger.WarnContext(ctx, "connectivity monitoring unavailable, assuming online",
				"mode", cfg.Connectivity.Mode, "error", err)
		}
	}

	handler := port.NewHandler(c.svc, c.session, logger)
	handler.Routes(deps.Router)

	logger.InfoContext(ctx, "time service ready",
		"authority", cfg.Authority.BaseURL,
		"authenticated", c.session.Authenticated(),
		"connectivity", cfg.Connectivity.Mode,
		"locale", cfg.Locale,
	)

	cleanup := func(ctx context.Context) error {
		if err := handler.Events().Close(ctx); err != nil {
			logger.WarnContext(ctx, "event stream close", "error", err)
		}
		c.svc.Destroy(ctx)
		return c.close()
	}
	return cleanup, nil
}
