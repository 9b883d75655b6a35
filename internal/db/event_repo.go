package db

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"

	"snowtracker/internal/types"
)

// EventSnapshotRepository provides append-only access to the event_snapshots
// table. It satisfies the detection engine's SnapshotStore interface and adds
// the listing queries the API layer needs.
type EventSnapshotRepository struct {
	db DBTX
}

// NewEventSnapshotRepository creates an EventSnapshotRepository backed by the
// given database connection.
func NewEventSnapshotRepository(db DBTX) *EventSnapshotRepository {
	return &EventSnapshotRepository{db: db}
}

const snapshotColumns = `s.id, s.location_id, s.event_id, s.detected_at,
	s.start_date, s.end_date, s.snow_low, s.snow_best, s.snow_high,
	s.snow_by_date, s.confidence, s.lead_time_hours, s.has_ice, s.has_wind,
	s.sources, s.key_details`

func scanSnapshot(row pgx.Row) (*types.EventSnapshot, error) {
	var snap types.EventSnapshot
	var byDate, sources []byte
	var keyDetails *string

	err := row.Scan(
		&snap.ID,
		&snap.LocationID,
		&snap.EventID,
		&snap.DetectedAt,
		&snap.StartDate,
		&snap.EndDate,
		&snap.SnowLow,
		&snap.SnowBest,
		&snap.SnowHigh,
		&byDate,
		&snap.Confidence,
		&snap.LeadTimeHours,
		&snap.HasIce,
		&snap.HasWind,
		&sources,
		&keyDetails,
	)
	if err != nil {
		return nil, err
	}
	if len(byDate) > 0 {
		if err := json.Unmarshal(byDate, &snap.SnowByDate); err != nil {
			return nil, err
		}
	}
	if len(sources) > 0 {
		if err := json.Unmarshal(sources, &snap.Sources); err != nil {
			return nil, err
		}
	}
	if keyDetails != nil {
		snap.KeyDetails = *keyDetails
	}
	return &snap, nil
}

// AppendSnapshot records one detection of an event. Rows are never updated or
// deleted; the full history is what the trend analyzer consumes.
func (r *EventSnapshotRepository) AppendSnapshot(ctx context.Context, locationID int64, event types.SnowEvent, asOf time.Time) error {
	byDate, err := json.Marshal(event.SnowByDate)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalUnexpected, "failed to encode daily amounts", err)
	}
	sources, err := json.Marshal(event.Sources)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalUnexpected, "failed to encode signal sources", err)
	}

	_, err = r.db.Exec(ctx,
		`INSERT INTO event_snapshots
		 (location_id, event_id, detected_at, start_date, end_date,
		  snow_low, snow_best, snow_high, snow_by_date, confidence,
		  lead_time_hours, has_ice, has_wind, sources, key_details)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		locationID,
		event.EventID,
		asOf,
		event.StartDate,
		event.EndDate,
		event.SnowTotalLow,
		event.SnowTotalBest,
		event.SnowTotalHigh,
		byDate,
		event.Confidence,
		event.LeadTimeHours,
		event.HasIce,
		event.HasWind,
		sources,
		nilIfEmpty(event.KeyDetails),
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to append event snapshot", err)
	}
	return nil
}

// RecentIdentities returns the distinct event identities detected for a
// location since the given instant. Each identity carries the date range from
// its most recent detection, and identities are ordered most recent first —
// the order the resolver breaks overlap ties in.
func (r *EventSnapshotRepository) RecentIdentities(ctx context.Context, locationID int64, since time.Time) ([]types.StoredEventRange, error) {
	rows, err := r.db.Query(ctx,
		`SELECT DISTINCT ON (event_id) event_id, start_date, end_date, detected_at
		 FROM event_snapshots
		 WHERE location_id = $1 AND detected_at >= $2
		 ORDER BY event_id, detected_at DESC`,
		locationID,
		since,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to query recent event identities", err)
	}
	defer rows.Close()

	type rangeRow struct {
		r  types.StoredEventRange
		at time.Time
	}
	var collected []rangeRow
	for rows.Next() {
		var rr rangeRow
		if err := rows.Scan(&rr.r.EventID, &rr.r.StartDate, &rr.r.EndDate, &rr.at); err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan identity row", err)
		}
		collected = append(collected, rr)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to iterate identity rows", err)
	}

	// DISTINCT ON forces event_id ordering; re-sort by detection recency.
	sort.Slice(collected, func(i, j int) bool {
		return collected[i].at.After(collected[j].at)
	})
	out := make([]types.StoredEventRange, 0, len(collected))
	for _, rr := range collected {
		out = append(out, rr.r)
	}
	return out, nil
}

// History returns all snapshots for one identity since the given instant,
// ordered by detection time ascending.
func (r *EventSnapshotRepository) History(ctx context.Context, locationID int64, eventID string, since time.Time) ([]types.EventSnapshot, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+snapshotColumns+`
		 FROM event_snapshots s
		 WHERE s.location_id = $1 AND s.event_id = $2 AND s.detected_at >= $3
		 ORDER BY s.detected_at ASC`,
		locationID,
		eventID,
		since,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to query event history", err)
	}
	defer rows.Close()

	var out []types.EventSnapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan snapshot row", err)
		}
		out = append(out, *snap)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to iterate snapshot rows", err)
	}
	return out, nil
}

// LatestPerEvent returns the most recent snapshot of each event identity
// detected for a location since the given instant, most recent first. This is
// the shape the events listing endpoint serves.
func (r *EventSnapshotRepository) LatestPerEvent(ctx context.Context, locationID int64, since time.Time) ([]types.EventSnapshot, error) {
	rows, err := r.db.Query(ctx,
		`SELECT DISTINCT ON (s.event_id) `+snapshotColumns+`
		 FROM event_snapshots s
		 WHERE s.location_id = $1 AND s.detected_at >= $2
		 ORDER BY s.event_id, s.detected_at DESC`,
		locationID,
		since,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to query latest events", err)
	}
	defer rows.Close()

	var out []types.EventSnapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan snapshot row", err)
		}
		out = append(out, *snap)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to iterate snapshot rows", err)
	}
	return out, nil
}
