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

// --- Mock DBTX ---

type mockDBTX struct {
	mock.Mock
}

func (m *mockDBTX) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	args := m.Called(ctx, sql, arguments)
	return args.Get(0).(pgconn.CommandTag), args.Error(1)
}

func (m *mockDBTX) Query(ctx context.Context, sql string, arguments ...any) (pgx.Rows, error) {
	args := m.Called(ctx, sql, arguments)
	if r := args.Get(0); r != nil {
		return r.(pgx.Rows), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockDBTX) QueryRow(ctx context.Context, sql string, arguments ...any) pgx.Row {
	args := m.Called(ctx, sql, arguments)
	return args.Get(0).(pgx.Row)
}

// --- Mock Row ---

type mockRow struct {
	scanErr error
	scanFn  func(dest ...any) error
}

func (r *mockRow) Scan(dest ...any) error {
	if r.scanFn != nil {
		return r.scanFn(dest...)
	}
	return r.scanErr
}

// --- Mock Rows ---

type mockRows struct {
	data    [][]any
	idx     int
	closed  bool
	scanErr error
	errVal  error
}

func newMockRows(data [][]any) *mockRows {
	return &mockRows{data: data, idx: -1}
}

func (r *mockRows) Next() bool {
	if r.closed {
		return false
	}
	r.idx++
	return r.idx < len(r.data)
}

func (r *mockRows) Scan(dest ...any) error {
	if r.scanErr != nil {
		return r.scanErr
	}
	row := r.data[r.idx]
	for i, d := range dest {
		if row[i] == nil {
			continue
		}
		switch v := d.(type) {
		case *string:
			*v = row[i].(string)
		case **string:
			s := row[i].(string)
			*v = &s
		case *int:
			*v = row[i].(int)
		case *int64:
			*v = row[i].(int64)
		case *float64:
			*v = row[i].(float64)
		case *bool:
			*v = row[i].(bool)
		case *time.Time:
			*v = row[i].(time.Time)
		case **time.Time:
			t := row[i].(time.Time)
			*v = &t
		case *[]byte:
			*v = row[i].([]byte)
		case *types.Confidence:
			*v = row[i].(types.Confidence)
		case *types.EventType:
			*v = row[i].(types.EventType)
		}
	}
	return nil
}

func (r *mockRows) Close()                                       { r.closed = true }
func (r *mockRows) Err() error                                   { return r.errVal }
func (r *mockRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *mockRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *mockRows) RawValues() [][]byte                          { return nil }
func (r *mockRows) Values() ([]any, error)                       { return nil, nil }
func (r *mockRows) Conn() *pgx.Conn                              { return nil }

// --- LocationRepository Tests ---

func TestLocationRepository_Create_Success(t *testing.T) {
	db := new(mockDBTX)
	repo := NewLocationRepository(db)
	ctx := context.Background()

	now := time.Date(2026, 1, 13, 12, 0, 0, 0, time.UTC)
	row := &mockRow{
		scanFn: func(dest ...any) error {
			*dest[0].(*int64) = 42
			*dest[1].(*time.Time) = now
			return nil
		},
	}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(row)

	loc := &types.Location{
		ZipCode:        "80443",
		Lat:            39.58,
		Lon:            -106.09,
		City:           "Frisco",
		State:          "CO",
		ForecastOffice: "BOU",
		GridX:          29,
		GridY:          62,
	}
	err := repo.Create(ctx, loc)
	require.NoError(t, err)
	assert.Equal(t, int64(42), loc.ID)
	assert.Equal(t, now, loc.CreatedAt)
	db.AssertExpectations(t)
}

func TestLocationRepository_Create_DuplicateZip(t *testing.T) {
	db := new(mockDBTX)
	repo := NewLocationRepository(db)
	ctx := context.Background()

	row := &mockRow{scanErr: &pgconn.PgError{Code: "23505"}}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(row)

	err := repo.Create(ctx, &types.Location{ZipCode: "80443"})
	require.Error(t, err)

	var appErr *types.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, types.ErrCodeConflictLocation, appErr.Code)
}

func TestLocationRepository_GetByID_Success(t *testing.T) {
	db := new(mockDBTX)
	repo := NewLocationRepository(db)
	ctx := context.Background()

	now := time.Date(2026, 1, 13, 12, 0, 0, 0, time.UTC)
	row := &mockRow{
		scanFn: func(dest ...any) error {
			*dest[0].(*int64) = 7
			*dest[1].(*string) = "03801"
			*dest[2].(*float64) = 43.07
			*dest[3].(*float64) = -70.76
			city := "Portsmouth"
			*dest[4].(**string) = &city
			state := "NH"
			*dest[5].(**string) = &state
			*dest[6].(*string) = "GYX"
			*dest[7].(*int) = 78
			*dest[8].(*int) = 31
			*dest[9].(*time.Time) = now
			return nil
		},
	}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), []any{int64(7)}).Return(row)

	loc, err := repo.GetByID(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "03801", loc.ZipCode)
	assert.Equal(t, "Portsmouth", loc.City)
	assert.Equal(t, "GYX", loc.ForecastOffice)
	assert.Equal(t, 78, loc.GridX)
}

func TestLocationRepository_GetByID_NotFound(t *testing.T) {
	db := new(mockDBTX)
	repo := NewLocationRepository(db)
	ctx := context.Background()

	row := &mockRow{scanErr: pgx.ErrNoRows}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(row)

	_, err := repo.GetByID(ctx, 99)
	require.Error(t, err)

	var appErr *types.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, types.ErrCodeNotFoundLocation, appErr.Code)
}

func TestLocationRepository_List(t *testing.T) {
	db := new(mockDBTX)
	repo := NewLocationRepository(db)
	ctx := context.Background()

	now := time.Date(2026, 1, 13, 12, 0, 0, 0, time.UTC)
	rows := newMockRows([][]any{
		{int64(1), "80443", 39.58, -106.09, "Frisco", "CO", "BOU", 29, 62, now},
		{int64(2), "03801", 43.07, -70.76, "Portsmouth", "NH", "GYX", 78, 31, now},
	})
	db.On("Query", ctx, mock.AnythingOfType("string"), mock.Anything).Return(rows, nil)

	locs, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, locs, 2)
	assert.Equal(t, "80443", locs[0].ZipCode)
	assert.Equal(t, "Portsmouth", locs[1].City)
}

func TestLocationRepository_Delete_NotFound(t *testing.T) {
	db := new(mockDBTX)
	repo := NewLocationRepository(db)
	ctx := context.Background()

	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).
		Return(pgconn.NewCommandTag("DELETE 0"), nil)

	err := repo.Delete(ctx, 99)
	require.Error(t, err)

	var appErr *types.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, types.ErrCodeNotFoundLocation, appErr.Code)
}
