// Package server provides the daemon lifecycle runner: signal handling,
// config loading, observability init, the HTTP router with health checks,
// and ordered graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"

	"github.com/aelexs/timesync/internal/config"
	"github.com/aelexs/timesync/internal/domain"
	"github.com/aelexs/timesync/internal/observability"
)

// Version is reported in telemetry resources.
var Version = "0.1.0"

// SetupDeps carries what a composition root needs to wire its handlers.
type SetupDeps struct {
	Config *config.Config
	Logger *slog.Logger
	Router chi.Router
}

// SetupFunc wires the service onto deps.Router. The returned cleanup runs
// after the HTTP server has drained, before telemetry is flushed.
type SetupFunc func(ctx context.Context, deps SetupDeps) (cleanup func(context.Context) error, err error)

// Params configures a service's lifecycle runner.
type Params struct {
	// Name identifies the service in logs and telemetry.
	Name string

	// ConfigFile is an optional YAML file; see config.Load.
	ConfigFile string

	// PortFromConfig extracts the HTTP port for this service from config.
	PortFromConfig func(cfg *config.Config) int

	Setup SetupFunc

	// DrainDelay overrides domain.ShutdownDrainDelay when positive.
	DrainDelay time.Duration
}

// Listeners lets tests inject pre-bound listeners (port 0).
type Listeners struct {
	HTTP net.Listener
}

// Run executes the full service lifecycle and blocks until ctx is cancelled
// or a termination signal arrives.
func Run(ctx context.Context, p Params, ls Listeners) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	cfg, err := config.Load(ctx, p.ConfigFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := observability.InitLogger(observability.LogConfig{
		Level:       cfg.LogLevel,
		Format:      cfg.LogFormat,
		ServiceName: p.Name,
		Environment: cfg.Environment,
	})

	// --- Startup order: tracer -> metrics -> setup -> HTTP server ---

	serviceName := cfg.OTEL.ServiceName
	if serviceName == "" {
		serviceName = p.Name
	}
	tracerProvider, err := observability.InitTracer(ctx, observability.TracerConfig{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTEL.Endpoint,
	})
	if err != nil {
		return fmt.Errorf("initialize tracer: %w", err)
	}

	metricsProvider, err := observability.InitMetrics(ctx, observability.MetricsConfig{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTEL.Endpoint,
	})
	if err != nil {
		return fmt.Errorf("initialize metrics: %w", err)
	}

	var shuttingDown atomic.Bool

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(requestLogger(logger))
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if shuttingDown.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprintf(w, `{"status":"shutting_down","service":%q}`, p.Name)
			return
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"healthy","service":%q}`, p.Name)
	})

	cleanup := func(context.Context) error { return nil }
	if p.Setup != nil {
		c, setupErr := p.Setup(ctx, SetupDeps{Config: cfg, Logger: logger, Router: router})
		if setupErr != nil {
			flushTelemetry(logger, metricsProvider, tracerProvider)
			return fmt.Errorf("setup %s: %w", p.Name, setupErr)
		}
		if c != nil {
			cleanup = c
		}
	}

	ln := ls.HTTP
	if ln == nil {
		port := cfg.HTTP.Port
		if p.PortFromConfig != nil {
			port = p.PortFromConfig(cfg)
		}
		ln, err = (&net.ListenConfig{}).Listen(ctx, "tcp", fmt.Sprintf(":%d", port))
		if err != nil {
			_ = cleanup(context.Background())
			flushTelemetry(logger, metricsProvider, tracerProvider)
			return fmt.Errorf("listen: %w", err)
		}
	}

	server := &http.Server{
		Handler:      otelhttp.NewHandler(router, p.Name),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	drainDelay := domain.ShutdownDrainDelay
	if p.DrainDelay > 0 {
		drainDelay = p.DrainDelay
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting HTTP server",
			slog.String("addr", ln.Addr().String()),
			slog.String("environment", cfg.Environment),
		)
		if serveErr := server.Serve(ln); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			return serveErr
		}
		return nil
	})

	// Shutdown order is the reverse of startup: HTTP -> service cleanup -> metrics -> tracer.
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("received shutdown signal, starting graceful shutdown")

		shuttingDown.Store(true)
		time.Sleep(drainDelay)

		httpCtx, httpCancel := context.WithTimeout(context.Background(), domain.ShutdownHTTPTimeout)
		defer httpCancel()
		if shutdownErr := server.Shutdown(httpCtx); shutdownErr != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", shutdownErr.Error()))
		}

		cleanupCtx, cleanupCancel := context.WithTimeout(context.Background(), domain.ShutdownHTTPTimeout)
		defer cleanupCancel()
		if cleanupErr := cleanup(cleanupCtx); cleanupErr != nil {
			logger.Error("service cleanup error", slog.String("error", cleanupErr.Error()))
		}

		flushTelemetry(logger, metricsProvider, tracerProvider)
		logger.Info("shutdown complete")
		return nil
	})

	return g.Wait()
}

func flushTelemetry(logger *slog.Logger, mp *observability.MetricsProvider, tp *observability.TracerProvider) {
	ctx, cancel := context.WithTimeout(context.Background(), domain.ShutdownOTELTimeout)
	defer cancel()
	if err := mp.Shutdown(ctx); err != nil {
		logger.Error("failed to shutdown metrics", slog.String("error", err.Error()))
	}
	if err := tp.Shutdown(ctx); err != nil {
		logger.Error("failed to shutdown tracer", slog.String("error", err.Error()))
	}
}

// requestLogger logs one line per request at debug level, warn for 5xx.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			level := slog.LevelDebug
			if ww.Status() >= http.StatusInternalServerError {
				level = slog.LevelWarn
			}
			observability.WithTraceID(r.Context(), logger).Log(r.Context(), level, "http request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.Duration("duration", time.Since(start)),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
