package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
)

// forecastRetention is how long raw forecast fetches and discussions are kept
// before the nightly purge removes them. Event snapshots are never purged;
// they are the longitudinal record.
const forecastRetention = 30 * 24 * time.Hour

// jobTimeout bounds a single scheduled invocation.
const jobTimeout = 10 * time.Minute

// ForecastPurger removes forecast rows older than a cutoff.
type ForecastPurger interface {
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Service owns the background job schedule: the periodic fetch cycle and the
// nightly forecast purge.
type Service struct {
	scheduler *gocron.Scheduler
	runner    *FetchRunner
	purger    ForecastPurger
	interval  time.Duration
	logger    *slog.Logger
}

// ServiceConfig holds the configuration for creating a Service.
type ServiceConfig struct {
	Runner   *FetchRunner
	Purger   ForecastPurger
	Interval time.Duration
	Logger   *slog.Logger
}

// NewService creates the background job service.
func NewService(cfg ServiceConfig) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = time.Hour
	}
	return &Service{
		scheduler: gocron.NewScheduler(time.UTC),
		runner:    cfg.Runner,
		purger:    cfg.Purger,
		interval:  interval,
		logger:    logger,
	}
}

// Start registers the jobs and starts the scheduler in the background. The
// fetch cycle also runs once immediately so a fresh deployment does not wait
// a full interval for its first data.
func (s *Service) Start() error {
	if _, err := s.scheduler.Every(s.interval).StartImmediately().Do(s.runFetchCycle); err != nil {
		return err
	}
	if s.purger != nil {
		if _, err := s.scheduler.Every(1).Day().At("03:30").Do(s.runPurge); err != nil {
			return err
		}
	}

	s.scheduler.StartAsync()
	s.logger.Info("scheduler started",
		"fetch_interval", s.interval.String(),
	)
	return nil
}

// Stop stops the scheduler and waits for running jobs to finish.
func (s *Service) Stop() {
	s.scheduler.Stop()
	s.logger.Info("scheduler stopped")
}

func (s *Service) runFetchCycle() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if _, err := s.runner.RunAll(ctx); err != nil {
		s.logger.ErrorContext(ctx, "fetch cycle failed", "error", err)
	}
}

func (s *Service) runPurge() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	cutoff := time.Now().UTC().Add(-forecastRetention)
	purged, err := s.purger.PurgeOlderThan(ctx, cutoff)
	if err != nil {
		s.logger.ErrorContext(ctx, "forecast purge failed", "error", err)
		return
	}
	s.logger.InfoContext(ctx, "forecast purge complete",
		"purged", purged,
		"cutoff", cutoff.Format(time.RFC3339),
	)
}
