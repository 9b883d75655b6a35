// Package detect implements the snow-event identification and longitudinal
// tracking engine. One detection pass consumes a deserialized forecast bundle
// and an injected as-of instant, segments the per-day snow signal into
// discrete events, resolves each event to a stable identity against recent
// history, and appends one snapshot per event so amount trends can be
// computed across repeated fetches.
//
// The pass itself is pure computation; the only I/O is through the
// SnapshotStore. Callers must guarantee at most one concurrent pass per
// location: the read-then-append identity resolution is not atomic, and two
// racing passes could mint duplicate identities for the same storm.
package detect

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"snowtracker/internal/types"
)

// SnapshotStore is the persistence surface the engine needs. Implementations
// are append-only: existing snapshot rows are never updated or deleted by the
// engine.
type SnapshotStore interface {
	// RecentIdentities returns the distinct event identities detected for a
	// location since the given instant, with the date range from each
	// identity's most recent detection, ordered most recent first.
	RecentIdentities(ctx context.Context, locationID int64, since time.Time) ([]types.StoredEventRange, error)
	// AppendSnapshot records one detection of an event.
	AppendSnapshot(ctx context.Context, locationID int64, event types.SnowEvent, asOf time.Time) error
	// History returns all snapshots for one identity since the given
	// instant, ordered by detection time ascending.
	History(ctx context.Context, locationID int64, eventID string, since time.Time) ([]types.EventSnapshot, error)
}

// Detector runs detection passes and trend queries against a SnapshotStore.
type Detector struct {
	store      SnapshotStore
	thresholds Thresholds
	logger     *slog.Logger
}

// DetectorConfig holds the configuration for creating a Detector.
type DetectorConfig struct {
	Store      SnapshotStore
	Thresholds Thresholds
	Logger     *slog.Logger
}

// NewDetector creates a Detector. A zero Thresholds is replaced with the
// defaults.
func NewDetector(cfg DetectorConfig) *Detector {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	thresholds := cfg.Thresholds
	if thresholds == (Thresholds{}) {
		thresholds = DefaultThresholds()
	}
	return &Detector{
		store:      cfg.Store,
		thresholds: thresholds,
		logger:     logger,
	}
}

// Thresholds returns the noise-floor configuration the detector runs with.
func (d *Detector) Thresholds() Thresholds {
	return d.thresholds
}

// Detect runs one detection pass over a forecast bundle for a location.
//
// The as-of instant is always supplied by the caller, never read from the
// system clock, so passes are reproducible. An empty result means no winter
// weather in the forecast horizon; it is not an error. A store failure aborts
// the pass before any identity is minted, so a flaky store can never cause
// duplicate identities for the same storm.
func (d *Detector) Detect(
	ctx context.Context,
	locationID int64,
	bundle types.ForecastBundle,
	asOf time.Time,
) ([]types.SnowEvent, error) {
	grid := GridpointTotals(bundle.Gridpoint)
	text := NarrativeSignals(bundle.Periods, DateOf(asOf))
	days := MergeDaily(grid, text, asOf, d.thresholds)
	events := SegmentEvents(days, asOf, d.thresholds)

	if len(events) == 0 {
		d.logger.InfoContext(ctx, "no snow events in forecast",
			"location_id", locationID,
			"as_of", asOf.Format(time.RFC3339),
		)
		return nil, nil
	}

	since := asOf.AddDate(0, 0, -d.thresholds.LookbackDays)
	stored, err := d.store.RecentIdentities(ctx, locationID, since)
	if err != nil {
		return nil, fmt.Errorf("querying recent event identities: %w", err)
	}

	for i := range events {
		ev := &events[i]
		id, conflicts, matched := MatchIdentity(stored, ev.StartDate, ev.EndDate)
		if matched {
			ev.EventID = id
			if len(conflicts) > 0 {
				d.logger.WarnContext(ctx, "candidate event overlaps multiple stored identities",
					"location_id", locationID,
					"matched_event_id", id,
					"conflicting_event_ids", conflicts,
					"start_date", ev.StartDate.Format(isoDate),
					"end_date", ev.EndDate.Format(isoDate),
				)
			}
		} else {
			ev.EventID = MintEventID(locationID, ev.StartDate, ev.EndDate)
		}

		if err := d.store.AppendSnapshot(ctx, locationID, *ev, asOf); err != nil {
			return nil, fmt.Errorf("appending snapshot for event %s: %w", ev.EventID, err)
		}
	}

	d.logger.InfoContext(ctx, "detection pass complete",
		"location_id", locationID,
		"events", len(events),
		"as_of", asOf.Format(time.RFC3339),
	)

	return events, nil
}

// Trend reads back an event's snapshot history and computes its trend. The
// lookback window matches the identity resolver's.
func (d *Detector) Trend(
	ctx context.Context,
	locationID int64,
	eventID string,
	asOf time.Time,
) (types.TrendReport, error) {
	since := asOf.AddDate(0, 0, -d.thresholds.LookbackDays)
	history, err := d.store.History(ctx, locationID, eventID, since)
	if err != nil {
		return types.TrendReport{}, fmt.Errorf("querying history for event %s: %w", eventID, err)
	}
	return AnalyzeTrend(history, d.thresholds.TrendNoiseInches), nil
}
