package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/klauspost/compress/zstd"

	"snowtracker/internal/types"
)

// ForecastRepository stores raw forecast fetches and Area Forecast
// Discussions. Forecast bundles are JSON-encoded and zstd-compressed before
// hitting the payload column; a full NWS bundle compresses roughly 10:1.
type ForecastRepository struct {
	db      DBTX
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// NewForecastRepository creates a ForecastRepository backed by the given
// database connection.
func NewForecastRepository(db DBTX) (*ForecastRepository, error) {
	encoder, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("creating zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, fmt.Errorf("creating zstd decoder: %w", err)
	}
	return &ForecastRepository{db: db, encoder: encoder, decoder: decoder}, nil
}

func (r *ForecastRepository) compressBundle(bundle types.ForecastBundle) ([]byte, error) {
	raw, err := json.Marshal(bundle)
	if err != nil {
		return nil, fmt.Errorf("encoding forecast bundle: %w", err)
	}
	return r.encoder.EncodeAll(raw, nil), nil
}

func (r *ForecastRepository) decompressBundle(blob []byte) (types.ForecastBundle, error) {
	var bundle types.ForecastBundle
	raw, err := r.decoder.DecodeAll(blob, nil)
	if err != nil {
		return bundle, fmt.Errorf("decompressing forecast bundle: %w", err)
	}
	if err := json.Unmarshal(raw, &bundle); err != nil {
		return bundle, fmt.Errorf("decoding forecast bundle: %w", err)
	}
	return bundle, nil
}

// Save stores one forecast fetch and populates the record's ID.
func (r *ForecastRepository) Save(ctx context.Context, rec *types.ForecastRecord) error {
	blob, err := r.compressBundle(rec.Bundle)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalUnexpected, "failed to encode forecast payload", err)
	}

	err = r.db.QueryRow(ctx,
		`INSERT INTO forecasts (location_id, fetched_at, payload)
		 VALUES ($1, $2, $3)
		 RETURNING id`,
		rec.LocationID,
		rec.FetchedAt,
		blob,
	).Scan(&rec.ID)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to save forecast", err)
	}
	return nil
}

// Latest returns the most recent stored forecast for a location, or
// ErrCodeNotFoundForecast if none exists.
func (r *ForecastRepository) Latest(ctx context.Context, locationID int64) (*types.ForecastRecord, error) {
	var rec types.ForecastRecord
	var blob []byte

	err := r.db.QueryRow(ctx,
		`SELECT id, location_id, fetched_at, payload
		 FROM forecasts
		 WHERE location_id = $1
		 ORDER BY fetched_at DESC
		 LIMIT 1`,
		locationID,
	).Scan(&rec.ID, &rec.LocationID, &rec.FetchedAt, &blob)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.NewAppError(types.ErrCodeNotFoundForecast, "no forecast stored for location", nil)
		}
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to retrieve forecast", err)
	}

	bundle, err := r.decompressBundle(blob)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalUnexpected, "failed to decode forecast payload", err)
	}
	rec.Bundle = bundle
	return &rec, nil
}

// SaveDiscussion stores one Area Forecast Discussion issuance. The unique
// index on (location_id, issued_at) makes repeated fetches of the same
// issuance a no-op.
func (r *ForecastRepository) SaveDiscussion(ctx context.Context, d *types.Discussion) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO discussions (location_id, fetched_at, issued_at, discussion_text)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (location_id, issued_at) DO UPDATE SET fetched_at = EXCLUDED.fetched_at
		 RETURNING id`,
		d.LocationID,
		d.FetchedAt,
		d.IssuedAt,
		d.Text,
	).Scan(&d.ID)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to save discussion", err)
	}
	return nil
}

// LatestDiscussion returns the most recent stored discussion for a location.
func (r *ForecastRepository) LatestDiscussion(ctx context.Context, locationID int64) (*types.Discussion, error) {
	var d types.Discussion
	err := r.db.QueryRow(ctx,
		`SELECT id, location_id, fetched_at, issued_at, discussion_text
		 FROM discussions
		 WHERE location_id = $1
		 ORDER BY fetched_at DESC
		 LIMIT 1`,
		locationID,
	).Scan(&d.ID, &d.LocationID, &d.FetchedAt, &d.IssuedAt, &d.Text)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.NewAppError(types.ErrCodeNotFoundForecast, "no discussion stored for location", nil)
		}
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to retrieve discussion", err)
	}
	return &d, nil
}

// PurgeOlderThan deletes forecast and discussion rows fetched before the
// cutoff and returns the number of forecast rows removed. Event snapshots are
// never purged here; they carry the longitudinal history.
func (r *ForecastRepository) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM forecasts WHERE fetched_at < $1`, cutoff)
	if err != nil {
		return 0, types.NewAppError(types.ErrCodeInternalDB, "failed to purge forecasts", err)
	}
	if _, err := r.db.Exec(ctx, `DELETE FROM discussions WHERE fetched_at < $1`, cutoff); err != nil {
		return 0, types.NewAppError(types.ErrCodeInternalDB, "failed to purge discussions", err)
	}
	return tag.RowsAffected(), nil
}
