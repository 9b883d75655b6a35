// Package main is the entry point for the snowtracker fetch worker.
//
// The worker periodically fetches forecasts for every tracked location, runs
// snow-event detection, diffs consecutive forecasts, delivers webhook alerts,
// and purges forecast data past its retention window.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

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
	logger.Info("snowtracker fetch worker starting",
		"environment", cfg.Environment,
		"version", cfg.Build.Version,
		"fetch_interval", cfg.Fetch.Interval.String(),
		"concurrency", cfg.Fetch.Concurrency,
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
	if !channel.Enabled() {
		logger.Warn("no webhook URL configured, alerts will not be delivered")
	}

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

	service := scheduler.NewService(scheduler.ServiceConfig{
		Runner:   runner,
		Purger:   forecastRepo,
		Interval: cfg.Fetch.Interval,
		Logger:   logger,
	})
	if err := service.Start(); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	sig := <-shutdown

	logger.Info("shutdown signal received", "signal", sig.String())
	service.Stop()
	logger.Info("fetch worker stopped cleanly")
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
