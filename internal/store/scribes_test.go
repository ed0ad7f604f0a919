// internal/store/scribes_test.go
package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scribematch/internal/common/errors"
	"scribematch/internal/common/logger"
)

var scribeColumns = []string{
	"id", "name", "gender", "address", "lat", "lon", "subjects", "languages",
	"experience_years", "exams_scribed", "ratings", "weekly_slots",
	"blackout_dates", "max_travel_km", "remote_capable", "verified",
}

func setupStore(t *testing.T) (*ScribeStore, sqlmock.Sqlmock, *miniredis.Miniredis) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewScribeStore(db, rdb, 30*time.Second, logger.NewNoOpLogger()), mock, mr
}

func addScribeRow(rows *sqlmock.Rows, id, name string) *sqlmock.Rows {
	return rows.AddRow(
		id, name, "female", "12 MG Road, Delhi", 28.62, 77.21,
		[]byte(`["Mathematics","Physics"]`), []byte(`["Hindi","English"]`),
		4, 11,
		[]byte(`[4.5,4.8]`),
		[]byte(`[{"weekday":1,"startTime":"09:00","endTime":"17:00"}]`),
		[]byte(`[]`),
		25.0, false, true,
	)
}

func TestVerifiedPool_LoadsAllRows(t *testing.T) {
	store, mock, _ := setupStore(t)

	rows := sqlmock.NewRows(scribeColumns)
	addScribeRow(rows, "s1", "Asha Verma")
	addScribeRow(rows, "s2", "Ravi Kumar")
	mock.ExpectQuery("SELECT (.+) FROM scribes").WillReturnRows(rows)

	pool, err := store.VerifiedPool(context.Background())

	require.NoError(t, err)
	require.Len(t, pool, 2)
	assert.Equal(t, "Asha Verma", pool[0].Name)
	assert.Equal(t, []string{"Mathematics", "Physics"}, pool[0].Subjects)
	assert.Equal(t, []float64{4.5, 4.8}, pool[0].Ratings)
	require.Len(t, pool[0].WeeklySlots, 1)
	assert.Equal(t, time.Monday, pool[0].WeeklySlots[0].Weekday)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVerifiedPool_EmptyTable(t *testing.T) {
	store, mock, _ := setupStore(t)

	mock.ExpectQuery("SELECT (.+) FROM scribes").
		WillReturnRows(sqlmock.NewRows(scribeColumns))

	pool, err := store.VerifiedPool(context.Background())

	require.NoError(t, err)
	assert.Empty(t, pool)
}

func TestVerifiedPool_QueryFailure(t *testing.T) {
	store, mock, _ := setupStore(t)

	mock.ExpectQuery("SELECT (.+) FROM scribes").
		WillReturnError(fmt.Errorf("connection refused"))

	_, err := store.VerifiedPool(context.Background())

	require.Error(t, err)
	assert.Equal(t, errors.ErrCodePoolQueryFailed, errors.AsStandard(err).Code)
}

func TestGetProfile_CachesInRedis(t *testing.T) {
	store, mock, mr := setupStore(t)

	rows := sqlmock.NewRows(scribeColumns)
	addScribeRow(rows, "s1", "Asha Verma")
	// One DB expectation serves two calls: the second hits the cache.
	mock.ExpectQuery("SELECT (.+) FROM scribes").
		WithArgs("s1").
		WillReturnRows(rows)

	first, err := store.GetProfile(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "Asha Verma", first.Name)
	assert.True(t, mr.Exists("scribe:profile:s1"))

	second, err := store.GetProfile(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetProfile_UnknownScribe(t *testing.T) {
	store, mock, _ := setupStore(t)

	mock.ExpectQuery("SELECT (.+) FROM scribes").
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows(scribeColumns))

	_, err := store.GetProfile(context.Background(), "ghost")

	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeProfileFetchFailed, errors.AsStandard(err).Code)
}

func TestGetProfile_CorruptCacheFallsThrough(t *testing.T) {
	store, mock, mr := setupStore(t)

	require.NoError(t, mr.Set("scribe:profile:s1", "{not json"))

	rows := sqlmock.NewRows(scribeColumns)
	addScribeRow(rows, "s1", "Asha Verma")
	mock.ExpectQuery("SELECT (.+) FROM scribes").
		WithArgs("s1").
		WillReturnRows(rows)

	profile, err := store.GetProfile(context.Background(), "s1")

	require.NoError(t, err)
	assert.Equal(t, "Asha Verma", profile.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}
