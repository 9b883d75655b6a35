package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"snowtracker/internal/types"
)

func testBundle() types.ForecastBundle {
	v := 50.8
	return types.ForecastBundle{
		Periods: []types.NarrativePeriod{
			{Name: "Thursday", DetailedForecast: "Snow likely, 3 to 5 inches possible."},
		},
		Gridpoint: []types.GridpointValue{
			{ValidTime: "2026-01-15T06:00:00+00:00/PT6H", ValueMM: &v},
		},
	}
}

func TestForecastRepository_Save(t *testing.T) {
	db := new(mockDBTX)
	repo, err := NewForecastRepository(db)
	require.NoError(t, err)
	ctx := context.Background()

	var savedBlob []byte
	row := &mockRow{
		scanFn: func(dest ...any) error {
			*dest[0].(*int64) = 11
			return nil
		},
	}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).
		Run(func(args mock.Arguments) {
			queryArgs := args.Get(2).([]any)
			savedBlob = queryArgs[2].([]byte)
		}).
		Return(row)

	rec := &types.ForecastRecord{
		LocationID: 1,
		FetchedAt:  time.Date(2026, 1, 13, 6, 0, 0, 0, time.UTC),
		Bundle:     testBundle(),
	}
	require.NoError(t, repo.Save(ctx, rec))
	assert.Equal(t, int64(11), rec.ID)

	// The stored payload is compressed, not raw JSON.
	require.NotEmpty(t, savedBlob)
	assert.NotContains(t, string(savedBlob), "Snow likely")

	// And it decodes back to the original bundle.
	decoded, err := repo.decompressBundle(savedBlob)
	require.NoError(t, err)
	require.Len(t, decoded.Periods, 1)
	assert.Equal(t, "Snow likely, 3 to 5 inches possible.", decoded.Periods[0].DetailedForecast)
	require.Len(t, decoded.Gridpoint, 1)
	require.NotNil(t, decoded.Gridpoint[0].ValueMM)
	assert.Equal(t, 50.8, *decoded.Gridpoint[0].ValueMM)
}

func TestForecastRepository_Latest(t *testing.T) {
	db := new(mockDBTX)
	repo, err := NewForecastRepository(db)
	require.NoError(t, err)
	ctx := context.Background()

	blob, err := repo.compressBundle(testBundle())
	require.NoError(t, err)

	fetchedAt := time.Date(2026, 1, 13, 6, 0, 0, 0, time.UTC)
	row := &mockRow{
		scanFn: func(dest ...any) error {
			*dest[0].(*int64) = 11
			*dest[1].(*int64) = 1
			*dest[2].(*time.Time) = fetchedAt
			*dest[3].(*[]byte) = blob
			return nil
		},
	}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), []any{int64(1)}).Return(row)

	rec, err := repo.Latest(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, fetchedAt, rec.FetchedAt)
	require.Len(t, rec.Bundle.Periods, 1)
	assert.Equal(t, "Thursday", rec.Bundle.Periods[0].Name)
}

func TestForecastRepository_Latest_NotFound(t *testing.T) {
	db := new(mockDBTX)
	repo, err := NewForecastRepository(db)
	require.NoError(t, err)
	ctx := context.Background()

	row := &mockRow{scanErr: pgx.ErrNoRows}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(row)

	_, err = repo.Latest(ctx, 99)
	require.Error(t, err)

	var appErr *types.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, types.ErrCodeNotFoundForecast, appErr.Code)
}

func TestForecastRepository_PurgeOlderThan(t *testing.T) {
	db := new(mockDBTX)
	repo, err := NewForecastRepository(db)
	require.NoError(t, err)
	ctx := context.Background()

	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).
		Return(pgconn.NewCommandTag("DELETE 12"), nil).Twice()

	purged, err := repo.PurgeOlderThan(ctx, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, int64(12), purged)
	db.AssertExpectations(t)
}
