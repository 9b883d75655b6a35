package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"snowtracker/internal/types"
)

// LocationRepository provides data access for the locations table.
type LocationRepository struct {
	db DBTX
}

// NewLocationRepository creates a LocationRepository backed by the given
// database connection (pool or transaction).
func NewLocationRepository(db DBTX) *LocationRepository {
	return &LocationRepository{db: db}
}

// locationColumns is the standard column set for location queries. Used
// consistently across all query methods to avoid column drift.
const locationColumns = `l.id, l.zip_code, l.lat, l.lon, l.city, l.state,
	l.forecast_office, l.grid_x, l.grid_y, l.created_at`

func scanLocation(row pgx.Row) (*types.Location, error) {
	var loc types.Location
	var city, state *string

	err := row.Scan(
		&loc.ID,
		&loc.ZipCode,
		&loc.Lat,
		&loc.Lon,
		&city,
		&state,
		&loc.ForecastOffice,
		&loc.GridX,
		&loc.GridY,
		&loc.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if city != nil {
		loc.City = *city
	}
	if state != nil {
		loc.State = *state
	}
	return &loc, nil
}

// Create inserts a new location and populates its ID and CreatedAt from the
// database. A duplicate ZIP code maps to ErrCodeConflictLocation.
func (r *LocationRepository) Create(ctx context.Context, loc *types.Location) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO locations (zip_code, lat, lon, city, state, forecast_office, grid_x, grid_y, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		 RETURNING id, created_at`,
		loc.ZipCode,
		loc.Lat,
		loc.Lon,
		nilIfEmpty(loc.City),
		nilIfEmpty(loc.State),
		loc.ForecastOffice,
		loc.GridX,
		loc.GridY,
	).Scan(&loc.ID, &loc.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return types.NewAppError(types.ErrCodeConflictLocation, "location already tracked for this zip code", err)
		}
		return types.NewAppError(types.ErrCodeInternalDB, "failed to create location", err)
	}
	return nil
}

// GetByID retrieves a location by its ID. Returns ErrCodeNotFoundLocation if
// no location exists.
func (r *LocationRepository) GetByID(ctx context.Context, id int64) (*types.Location, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+locationColumns+` FROM locations l WHERE l.id = $1`,
		id,
	)

	loc, err := scanLocation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.NewAppError(types.ErrCodeNotFoundLocation, "location not found", nil)
		}
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to retrieve location", err)
	}
	return loc, nil
}

// GetByZip retrieves a location by ZIP code.
func (r *LocationRepository) GetByZip(ctx context.Context, zip string) (*types.Location, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+locationColumns+` FROM locations l WHERE l.zip_code = $1`,
		zip,
	)

	loc, err := scanLocation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.NewAppError(types.ErrCodeNotFoundLocation, "location not found", nil)
		}
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to retrieve location", err)
	}
	return loc, nil
}

// List returns all tracked locations ordered by creation time.
func (r *LocationRepository) List(ctx context.Context) ([]types.Location, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+locationColumns+` FROM locations l ORDER BY l.created_at`,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to list locations", err)
	}
	defer rows.Close()

	var out []types.Location
	for rows.Next() {
		loc, err := scanLocation(rows)
		if err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan location row", err)
		}
		out = append(out, *loc)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to iterate location rows", err)
	}
	return out, nil
}

// Delete removes a location and, via foreign keys, its dependent forecast and
// event history. Returns ErrCodeNotFoundLocation when nothing was deleted.
func (r *LocationRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM locations WHERE id = $1`, id)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to delete location", err)
	}
	if tag.RowsAffected() == 0 {
		return types.NewAppError(types.ErrCodeNotFoundLocation, "location not found", nil)
	}
	return nil
}

// nilIfEmpty converts an empty string to a nil pointer so optional columns
// store NULL instead of "".
func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
