package db

import (
	"context"

	"snowtracker/internal/types"
)

// AlertRepository records delivered notifications so operators can audit what
// was sent and when.
type AlertRepository struct {
	db DBTX
}

// NewAlertRepository creates an AlertRepository backed by the given database
// connection.
func NewAlertRepository(db DBTX) *AlertRepository {
	return &AlertRepository{db: db}
}

// Create inserts one alert history row and populates its ID and CreatedAt.
func (r *AlertRepository) Create(ctx context.Context, alert *types.AlertRecord) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO alerts (location_id, event_type, summary, details, created_at)
		 VALUES ($1, $2, $3, $4, NOW())
		 RETURNING id, created_at`,
		alert.LocationID,
		alert.EventType,
		alert.Summary,
		nilIfEmpty(alert.Details),
	).Scan(&alert.ID, &alert.CreatedAt)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to record alert", err)
	}
	return nil
}

// ListByLocation returns the alert history for a location, most recent first,
// capped at limit rows.
func (r *AlertRepository) ListByLocation(ctx context.Context, locationID int64, limit int) ([]types.AlertRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.Query(ctx,
		`SELECT id, location_id, event_type, summary, COALESCE(details, ''), created_at
		 FROM alerts
		 WHERE location_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		locationID,
		limit,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to list alerts", err)
	}
	defer rows.Close()

	var out []types.AlertRecord
	for rows.Next() {
		var a types.AlertRecord
		if err := rows.Scan(&a.ID, &a.LocationID, &a.EventType, &a.Summary, &a.Details, &a.CreatedAt); err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan alert row", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to iterate alert rows", err)
	}
	return out, nil
}
