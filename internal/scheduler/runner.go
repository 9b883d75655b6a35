// Package scheduler implements the periodic fetch-and-detect pipeline. A pass
// over one location fetches the current forecast, persists it, diffs it
// against the previous fetch, runs snow-event detection, and delivers webhook
// alerts for anything noteworthy.
//
// The runner guarantees at most one concurrent pass per location. Identity
// resolution in the detection engine is read-then-append, so two racing
// passes over the same location could mint duplicate event identities.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"snowtracker/internal/diff"
	"snowtracker/internal/notifications/webhook"
	"snowtracker/internal/nws"
	"snowtracker/internal/types"
)

// LocationStore lists the locations to fetch.
type LocationStore interface {
	List(ctx context.Context) ([]types.Location, error)
}

// ForecastStore persists forecast fetches and discussions.
type ForecastStore interface {
	Save(ctx context.Context, rec *types.ForecastRecord) error
	Latest(ctx context.Context, locationID int64) (*types.ForecastRecord, error)
	SaveDiscussion(ctx context.Context, d *types.Discussion) error
}

// AlertStore records delivered notifications.
type AlertStore interface {
	Create(ctx context.Context, alert *types.AlertRecord) error
}

// ForecastSource fetches forecast data for a location. Satisfied by
// *nws.Client.
type ForecastSource interface {
	FetchBundle(ctx context.Context, loc types.Location) (types.ForecastBundle, error)
	Discussion(ctx context.Context, office string) (*nws.DiscussionProduct, error)
}

// EventEngine runs detection passes and trend queries. Satisfied by
// *detect.Detector.
type EventEngine interface {
	Detect(ctx context.Context, locationID int64, bundle types.ForecastBundle, asOf time.Time) ([]types.SnowEvent, error)
	Trend(ctx context.Context, locationID int64, eventID string, asOf time.Time) (types.TrendReport, error)
}

// Notifier delivers alerts. Satisfied by *webhook.Channel.
type Notifier interface {
	Enabled() bool
	Deliver(ctx context.Context, n *webhook.Notification) error
}

// ErrPassInProgress is returned when a pass for a location is skipped because
// another pass for the same location is still running.
var ErrPassInProgress = errors.New("fetch pass already in progress for location")

// RunSummary reports the outcome of one full fetch cycle.
type RunSummary struct {
	Locations     int
	Fetched       int
	Events        int
	Notifications int
	Failures      int
}

// FetchRunner executes fetch-and-detect passes across all tracked locations.
type FetchRunner struct {
	locations   LocationStore
	forecasts   ForecastStore
	alerts      AlertStore
	source      ForecastSource
	engine      EventEngine
	notifier    Notifier
	concurrency int
	logger      *slog.Logger
	nowFn       func() time.Time

	mu       sync.Mutex
	inFlight map[int64]struct{}
}

// FetchRunnerConfig holds the configuration for creating a FetchRunner.
type FetchRunnerConfig struct {
	Locations   LocationStore
	Forecasts   ForecastStore
	Alerts      AlertStore
	Source      ForecastSource
	Engine      EventEngine
	Notifier    Notifier
	Concurrency int
	Logger      *slog.Logger
}

// NewFetchRunner creates a FetchRunner.
func NewFetchRunner(cfg FetchRunnerConfig) *FetchRunner {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	return &FetchRunner{
		locations:   cfg.Locations,
		forecasts:   cfg.Forecasts,
		alerts:      cfg.Alerts,
		source:      cfg.Source,
		engine:      cfg.Engine,
		notifier:    cfg.Notifier,
		concurrency: concurrency,
		logger:      logger,
		nowFn:       time.Now,
		inFlight:    make(map[int64]struct{}),
	}
}

// RunAll executes one fetch pass for every tracked location, fanning out up
// to the configured concurrency. Individual location failures are logged and
// counted; they never abort the cycle.
func (r *FetchRunner) RunAll(ctx context.Context) (RunSummary, error) {
	locations, err := r.locations.List(ctx)
	if err != nil {
		return RunSummary{}, fmt.Errorf("listing locations: %w", err)
	}

	summary := RunSummary{Locations: len(locations)}
	if len(locations) == 0 {
		r.logger.InfoContext(ctx, "no locations to fetch")
		return summary, nil
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for _, loc := range locations {
		loc := loc
		g.Go(func() error {
			result, err := r.RunLocation(gctx, loc)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case errors.Is(err, ErrPassInProgress):
				r.logger.WarnContext(gctx, "skipping location, pass already running",
					"location_id", loc.ID,
					"zip_code", loc.ZipCode,
				)
			case err != nil:
				summary.Failures++
				r.logger.ErrorContext(gctx, "fetch pass failed",
					"location_id", loc.ID,
					"zip_code", loc.ZipCode,
					"error", err,
				)
			default:
				summary.Fetched++
				summary.Events += result.Events
				summary.Notifications += result.Notifications
			}
			return nil
		})
	}

	_ = g.Wait()

	r.logger.InfoContext(ctx, "fetch cycle complete",
		"locations", summary.Locations,
		"fetched", summary.Fetched,
		"events", summary.Events,
		"notifications", summary.Notifications,
		"failures", summary.Failures,
	)
	return summary, nil
}

// LocationResult reports the outcome of one location's pass.
type LocationResult struct {
	Events        int `json:"events"`
	Notifications int `json:"notifications"`
	Changes       int `json:"changes"`
}

// RunLocation executes one fetch-and-detect pass for a single location.
func (r *FetchRunner) RunLocation(ctx context.Context, loc types.Location) (LocationResult, error) {
	if !r.acquire(loc.ID) {
		return LocationResult{}, ErrPassInProgress
	}
	defer r.release(loc.ID)

	asOf := r.nowFn().UTC()
	var result LocationResult

	previous, err := r.latestForecast(ctx, loc.ID)
	if err != nil {
		return result, err
	}

	bundle, err := r.source.FetchBundle(ctx, loc)
	if err != nil {
		return result, fmt.Errorf("fetching forecast: %w", err)
	}

	record := &types.ForecastRecord{
		LocationID: loc.ID,
		FetchedAt:  asOf,
		Bundle:     bundle,
	}
	if err := r.forecasts.Save(ctx, record); err != nil {
		return result, fmt.Errorf("saving forecast: %w", err)
	}

	r.saveDiscussion(ctx, loc, asOf)

	var changes []types.ForecastChange
	if previous != nil {
		changes = diff.Compare(previous.Bundle, bundle)
		result.Changes = len(changes)
	}

	events, err := r.engine.Detect(ctx, loc.ID, bundle, asOf)
	if err != nil {
		return result, fmt.Errorf("detecting events: %w", err)
	}
	result.Events = len(events)

	result.Notifications = r.notifyAll(ctx, loc, events, changes, asOf)
	return result, nil
}

// latestForecast loads the previous fetch, treating "no forecast yet" as a
// nil record rather than an error.
func (r *FetchRunner) latestForecast(ctx context.Context, locationID int64) (*types.ForecastRecord, error) {
	previous, err := r.forecasts.Latest(ctx, locationID)
	if err != nil {
		var appErr *types.AppError
		if errors.As(err, &appErr) && appErr.Code == types.ErrCodeNotFoundForecast {
			return nil, nil
		}
		return nil, fmt.Errorf("loading previous forecast: %w", err)
	}
	return previous, nil
}

// saveDiscussion fetches and stores the current Area Forecast Discussion.
// Discussions are supplementary context; failures never fail the pass.
func (r *FetchRunner) saveDiscussion(ctx context.Context, loc types.Location, asOf time.Time) {
	product, err := r.source.Discussion(ctx, loc.ForecastOffice)
	if err != nil {
		r.logger.WarnContext(ctx, "discussion fetch failed",
			"location_id", loc.ID,
			"office", loc.ForecastOffice,
			"error", err,
		)
		return
	}

	d := &types.Discussion{
		LocationID: loc.ID,
		FetchedAt:  asOf,
		IssuedAt:   product.IssuedAt,
		Text:       product.Text,
	}
	if err := r.forecasts.SaveDiscussion(ctx, d); err != nil {
		r.logger.WarnContext(ctx, "discussion save failed",
			"location_id", loc.ID,
			"office", loc.ForecastOffice,
			"error", err,
		)
	}
}

// notifyAll sends the alerts one pass can produce: a new-event alert for each
// first-time detection, a trend alert for events that moved past the noise
// floor, and one forecast-change alert when the diff found anything. Returns
// the number of alerts delivered.
func (r *FetchRunner) notifyAll(
	ctx context.Context,
	loc types.Location,
	events []types.SnowEvent,
	changes []types.ForecastChange,
	asOf time.Time,
) int {
	delivered := 0

	for _, event := range events {
		report, err := r.engine.Trend(ctx, loc.ID, event.EventID, asOf)
		if err != nil {
			r.logger.WarnContext(ctx, "trend query failed",
				"location_id", loc.ID,
				"event_id", event.EventID,
				"error", err,
			)
			continue
		}

		// A single detection means the identity was minted this pass.
		if report.Detections <= 1 {
			if r.deliver(ctx, loc, webhook.NewEventNotification(loc, event, asOf)) {
				delivered++
			}
			continue
		}

		if report.Direction == types.TrendIncreasing || report.Direction == types.TrendDecreasing {
			if r.deliver(ctx, loc, webhook.NewTrendNotification(loc, event, report, asOf)) {
				delivered++
			}
		}
	}

	if len(changes) > 0 {
		if r.deliver(ctx, loc, webhook.NewChangesNotification(loc, changes, asOf)) {
			delivered++
		}
	}

	return delivered
}

// deliver sends one notification and records it in the alert history.
// Reports whether delivery succeeded.
func (r *FetchRunner) deliver(ctx context.Context, loc types.Location, n *webhook.Notification) bool {
	if r.notifier == nil || !r.notifier.Enabled() {
		return false
	}

	if err := r.notifier.Deliver(ctx, n); err != nil {
		r.logger.ErrorContext(ctx, "notification delivery failed",
			"location_id", loc.ID,
			"event_type", string(n.EventType),
			"error", err,
		)
		return false
	}

	alert := &types.AlertRecord{
		LocationID: loc.ID,
		EventType:  n.EventType,
		Summary:    n.Summary,
		Details:    strings.Join(n.Lines, "\n"),
	}
	if err := r.alerts.Create(ctx, alert); err != nil {
		r.logger.WarnContext(ctx, "alert history write failed",
			"location_id", loc.ID,
			"event_type", string(n.EventType),
			"error", err,
		)
	}
	return true
}

// acquire marks a location's pass as in flight. Reports false when a pass is
// already running for the location.
func (r *FetchRunner) acquire(locationID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, busy := r.inFlight[locationID]; busy {
		return false
	}
	r.inFlight[locationID] = struct{}{}
	return true
}

func (r *FetchRunner) release(locationID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.inFlight, locationID)
}
