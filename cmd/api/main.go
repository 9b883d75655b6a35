// Package main is the entry point for the snowtracker API server.
//
// It loads configuration, connects the database pool, wires the NWS and
// geocoder clients, the detection engine, and the webhook channel, then
// serves the HTTP API until a shutdown signal arrives.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"snowtracker/internal/api"
	"snowtracker/internal/config"
	"snowtracker/internal/db"
	"snowtracker/internal/detect"
	"snowtracker/internal/notifications/webhook"
	"snowtracker/internal/nws"
	"snowtracker/internal/scheduler"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := newLogger(cfg.LogLevel)
	logger.Info("snowtracker API starting",
		"environment", cfg.Environment,
		"version", cfg.Build.Version,
		"commit", cfg.Build.Commit,
		"port", cfg.Server.Port,
	)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	pool, err := db.NewPool(ctx, db.PoolConfig{
		URL:               cfg.Database.URL.Unmask(),
		MaxConns:          cfg.Database.MaxConns,
		MinConns:          cfg.Database.MinConns,
		MaxConnLifetime:   cfg.Database.MaxConnLifetime,
		HealthCheckPeriod: cfg.Database.HealthCheckPeriod,
	})
	cancel()
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()

	ctx, cancel = context.WithTimeout(context.Background(), 30*time.Second)
	err = db.Migrate(ctx, pool)
	cancel()
	if err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}

	locationRepo := db.NewLocationRepository(pool)
	forecastRepo, err := db.NewForecastRepository(pool)
	if err != nil {
		return fmt.Errorf("creating forecast repository: %w", err)
	}
	eventRepo := db.NewEventSnapshotRepository(pool)
	alertRepo := db.NewAlertRepository(pool)

	nwsClient := nws.NewClient(nws.ClientConfig{
		BaseURL:   cfg.NWS.BaseURL,
		UserAgent: cfg.NWS.UserAgent,
		Timeout:   cfg.NWS.Timeout,
		Logger:    logger,
	})
	geocoder := nws.NewGeocoder(nws.GeocoderConfig{
		BaseURL: cfg.Geocoder.BaseURL,
		Timeout: cfg.Geocoder.Timeout,
		Logger:  logger,
	})

	detector := detect.NewDetector(detect.DetectorConfig{
		Store:      eventRepo,
		Thresholds: cfg.Detect.Thresholds(),
		Logger:     logger,
	})

	channel := webhook.NewChannel(webhook.ChannelConfig{
		URL:           cfg.Webhook.URL,
		Format:        webhook.Platform(cfg.Webhook.Format),
		SigningSecret: cfg.Webhook.SigningSecret,
		UserAgent:     cfg.Webhook.UserAgent,
		Timeout:       cfg.Webhook.Timeout,
		Logger:        logger,
	})

	// The API reuses the fetch runner for the on-demand refresh endpoint, so
	// manual refreshes share the per-location concurrency guard with the
	// background worker.
	runner := scheduler.NewFetchRunner(scheduler.FetchRunnerConfig{
		Locations:   locationRepo,
		Forecasts:   forecastRepo,
		Alerts:      alertRepo,
		Source:      nwsClient,
		Engine:      detector,
		Notifier:    channel,
		Concurrency: cfg.Fetch.Concurrency,
		Logger:      logger,
	})

	validator := api.NewValidator()
	locationHandler := api.NewLocationHandler(locationRepo, geocoder, nwsClient, runner, validator, logger)
	eventHandler := api.NewEventHandler(locationRepo, eventRepo, detector, logger)
	forecastHandler := api.NewForecastHandler(locationRepo, forecastRepo, alertRepo, logger)

	srv, err := api.NewServer(api.ServerConfig{
		Logger: logger,
		Health: api.NewHealthHandler(pool, cfg.Build, logger),
		Registrars: []api.RouteRegistrar{
			func(r chi.Router) { locationHandler.RegisterRoutes(r) },
			func(r chi.Router) { eventHandler.RegisterRoutes(r) },
			func(r chi.Router) { forecastHandler.RegisterRoutes(r) },
		},
	})
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	return serveHTTP(srv.Handler(), cfg, logger)
}

// serveHTTP runs the HTTP server until a shutdown signal or fatal error.
func serveHTTP(handler http.Handler, cfg *config.Config, logger *slog.Logger) error {
	httpServer := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-shutdown:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("server stopped cleanly")
	return nil
}

// newLogger creates a structured JSON slog.Logger for the given level.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
