package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/liveglobe/liveglobe/internal/api"
	"github.com/liveglobe/liveglobe/internal/config"
	"github.com/liveglobe/liveglobe/internal/metrics"
	"github.com/liveglobe/liveglobe/internal/warehouse"
	"github.com/liveglobe/liveglobe/internal/ws"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	level := new(slog.LevelVar)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	slog.Info("liveglobe-server starting", "config", *configPath)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	level.Set(cfg.Log.SlogLevel())

	slog.Info("config loaded",
		"http_port", cfg.Server.HTTPPort,
		"driver", cfg.Warehouse.Driver,
		"host", cfg.Warehouse.Host,
		"allowed_origin", cfg.CORS.AllowedOrigin,
		"live_interval", cfg.Live.Interval,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	m := metrics.New()

	gw, err := warehouse.New(cfg.Warehouse, warehouse.WithHooks(m))
	if err != nil {
		slog.Error("failed to build warehouse gateway", "err", err)
		os.Exit(1)
	}
	defer gw.Close() //nolint:errcheck

	router := api.New(gw,
		api.WithAllowedOrigin(cfg.CORS.AllowedOrigin),
		api.WithObserver(m),
	)

	// WebSocket hub pushes /stats to dashboards every live.interval.
	hub := ws.New(router, cfg.Live.Interval, router.Formatter().AllowedOrigin)
	m.TrackClients(hub.Count)
	go hub.Run(ctx)

	// Hot-reload applies the CORS origin and log level; everything else
	// needs a restart.
	go func() {
		if err := config.Watch(ctx, *configPath, func(updated *config.Config) {
			router.SetAllowedOrigin(updated.CORS.AllowedOrigin)
			level.Set(updated.Log.SlogLevel())
			slog.Info("config hot-reloaded",
				"allowed_origin", updated.CORS.AllowedOrigin,
				"log_level", updated.Log.SlogLevel().String(),
			)
		}); err != nil {
			slog.Error("config watcher stopped", "err", err)
		}
	}()

	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	mux.Handle("/ws/stream", hub)
	mux.Handle("/healthz", api.Health(gw.Ping))
	mux.Handle("/", withTimeout(router, cfg.Server.RequestTimeout))

	httpSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		slog.Info("HTTP server listening", "port", cfg.Server.HTTPPort)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server stopped", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()
	slog.Info("liveglobe-server shutting down")

	shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
	defer done()
	httpSrv.Shutdown(shutdownCtx) //nolint:errcheck
}

// withTimeout bounds each request's context. Zero leaves it unbounded.
func withTimeout(h http.Handler, d time.Duration) http.Handler {
	if d <= 0 {
		return h
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), d)
		defer cancel()
		h.ServeHTTP(w, r.WithContext(ctx))
	})
}
