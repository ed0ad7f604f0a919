// internal/matching/availability/calendar_test.go
package availability

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scribematch/internal/common/logger"
	"scribematch/internal/models"
)

func setupProbe(t *testing.T) (*CalendarProbe, sqlmock.Sqlmock, *miniredis.Miniredis) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewCalendarProbe(db, rdb, 30*time.Second, logger.NewNoOpLogger()), mock, mr
}

func testScribe() models.ScribeProfile {
	return models.ScribeProfile{
		ID:   "scribe-1",
		Name: "Asha",
		WeeklySlots: []models.AvailabilitySlot{
			{Weekday: time.Monday, StartTime: "09:00", EndTime: "17:00"},
		},
	}
}

// 2026-03-02 is a Monday.
var monday = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

func TestCalendarProbe_IsAvailable_FreeSlot(t *testing.T) {
	probe, mock, _ := setupProbe(t)

	mock.ExpectQuery("SELECT COUNT").
		WithArgs("scribe-1", "2026-03-02", "10:00").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	ok, err := probe.IsAvailable(context.Background(), testScribe(), monday, "10:00")
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCalendarProbe_IsAvailable_BookingConflict(t *testing.T) {
	probe, mock, _ := setupProbe(t)

	mock.ExpectQuery("SELECT COUNT").
		WithArgs("scribe-1", "2026-03-02", "10:00").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	ok, err := probe.IsAvailable(context.Background(), testScribe(), monday, "10:00")
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestCalendarProbe_IsAvailable_OutsideDeclaredWindow(t *testing.T) {
	probe, _, _ := setupProbe(t)

	// Tuesday has no declared slot, so no booking lookup happens.
	tuesday := monday.AddDate(0, 0, 1)
	ok, err := probe.IsAvailable(context.Background(), testScribe(), tuesday, "10:00")
	assert.NoError(t, err)
	assert.False(t, ok)

	// Declared day, but before the window opens.
	ok, err = probe.IsAvailable(context.Background(), testScribe(), monday, "07:00")
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestCalendarProbe_IsAvailable_BlackoutDate(t *testing.T) {
	probe, _, _ := setupProbe(t)

	scribe := testScribe()
	scribe.BlackoutDates = []time.Time{monday}

	ok, err := probe.IsAvailable(context.Background(), scribe, monday, "10:00")
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestCalendarProbe_IsAvailable_CachesAnswer(t *testing.T) {
	probe, mock, _ := setupProbe(t)

	// A single DB expectation covers both calls; the second is served
	// from Redis.
	mock.ExpectQuery("SELECT COUNT").
		WithArgs("scribe-1", "2026-03-02", "10:00").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	ctx := context.Background()
	ok, err := probe.IsAvailable(ctx, testScribe(), monday, "10:00")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = probe.IsAvailable(ctx, testScribe(), monday, "10:00")
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCalendarProbe_NextAvailableSlot(t *testing.T) {
	probe, mock, _ := setupProbe(t)

	mock.ExpectQuery("SELECT COUNT").
		WithArgs("scribe-1", "2026-03-09", "09:00").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	// Scanning forward from Monday finds the following Monday's window.
	next, err := probe.NextAvailableSlot(context.Background(), testScribe(), monday)
	assert.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC), *next)
}

func TestCalendarProbe_NextAvailableSlot_NoDeclaredSlots(t *testing.T) {
	probe, _, _ := setupProbe(t)

	scribe := testScribe()
	scribe.WeeklySlots = nil

	next, err := probe.NextAvailableSlot(context.Background(), scribe, monday)
	assert.NoError(t, err)
	assert.Nil(t, next)
}
