// internal/matching/availability/calendar.go
package availability

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"scribematch/internal/common/logger"
	"scribematch/internal/models"
)

const (
	// searchHorizonDays bounds how far ahead NextAvailableSlot scans.
	searchHorizonDays = 30

	defaultCacheTTL = 30 * time.Second
)

// bookingConflictQuery counts committed bookings occupying the exact
// slot. Cancelled bookings free the slot again.
const bookingConflictQuery = `
	SELECT COUNT(*) FROM bookings
	WHERE scribe_id = $1 AND exam_date = $2 AND start_time = $3
	  AND status IN ('pending', 'confirmed')`

// CalendarProbe is the production availability check: blackout dates,
// the scribe's declared weekly windows, and committed bookings in the
// booking store. Answers are cached briefly in Redis so the periodic
// re-evaluation loop does not hammer Postgres.
type CalendarProbe struct {
	db       *sql.DB
	redis    *redis.Client
	cacheTTL time.Duration
	logger   logger.Logger
}

func NewCalendarProbe(db *sql.DB, rdb *redis.Client, cacheTTL time.Duration, log logger.Logger) *CalendarProbe {
	if cacheTTL <= 0 {
		cacheTTL = defaultCacheTTL
	}
	return &CalendarProbe{
		db:       db,
		redis:    rdb,
		cacheTTL: cacheTTL,
		logger:   log.WithFields(map[string]interface{}{"component": "calendar-probe"}),
	}
}

func (p *CalendarProbe) IsAvailable(ctx context.Context, scribe models.ScribeProfile, date time.Time, startTime string) (bool, error) {
	cacheKey := fmt.Sprintf("scribe:avail:%s:%s:%s", scribe.ID, date.Format("2006-01-02"), startTime)
	if p.redis != nil {
		if val, err := p.redis.Get(ctx, cacheKey).Result(); err == nil {
			return val == "1", nil
		}
	}

	available, err := p.checkCalendar(ctx, scribe, date, startTime)
	if err != nil {
		return false, err
	}

	if p.redis != nil {
		val := "0"
		if available {
			val = "1"
		}
		if err := p.redis.Set(ctx, cacheKey, val, p.cacheTTL).Err(); err != nil {
			p.logger.Warn("availability cache write failed", map[string]interface{}{
				"scribeId": scribe.ID,
				"error":    err,
			})
		}
	}

	return available, nil
}

func (p *CalendarProbe) checkCalendar(ctx context.Context, scribe models.ScribeProfile, date time.Time, startTime string) (bool, error) {
	if isBlackedOut(scribe, date) {
		return false, nil
	}

	// A scribe with declared windows is only reachable inside them. No
	// declared windows means the profile leaves scheduling to bookings.
	if len(scribe.WeeklySlots) > 0 && !slotCovers(scribe.WeeklySlots, date.Weekday(), startTime) {
		return false, nil
	}

	var conflicts int
	err := p.db.QueryRowContext(ctx, bookingConflictQuery,
		scribe.ID, date.Format("2006-01-02"), startTime).Scan(&conflicts)
	if err != nil {
		return false, fmt.Errorf("booking lookup for scribe %s: %w", scribe.ID, err)
	}

	return conflicts == 0, nil
}

func (p *CalendarProbe) NextAvailableSlot(ctx context.Context, scribe models.ScribeProfile, from time.Time) (*time.Time, error) {
	if len(scribe.WeeklySlots) == 0 {
		return nil, nil
	}

	day := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, from.Location())
	for i := 1; i <= searchHorizonDays; i++ {
		candidate := day.AddDate(0, 0, i)
		if isBlackedOut(scribe, candidate) {
			continue
		}

		for _, slot := range scribe.WeeklySlots {
			if slot.Weekday != candidate.Weekday() {
				continue
			}

			free, err := p.checkCalendar(ctx, scribe, candidate, slot.StartTime)
			if err != nil {
				return nil, err
			}
			if !free {
				continue
			}

			h, m, ok := parseClock(slot.StartTime)
			if !ok {
				continue
			}
			at := candidate.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute)
			return &at, nil
		}
	}

	return nil, nil
}

func isBlackedOut(scribe models.ScribeProfile, date time.Time) bool {
	y, m, d := date.Date()
	for _, b := range scribe.BlackoutDates {
		by, bm, bd := b.Date()
		if by == y && bm == m && bd == d {
			return true
		}
	}
	return false
}

func slotCovers(slots []models.AvailabilitySlot, weekday time.Weekday, startTime string) bool {
	want, wantMin, ok := parseClock(startTime)
	if !ok {
		return false
	}
	wantTotal := want*60 + wantMin

	for _, slot := range slots {
		if slot.Weekday != weekday {
			continue
		}
		sh, sm, ok1 := parseClock(slot.StartTime)
		eh, em, ok2 := parseClock(slot.EndTime)
		if !ok1 || !ok2 {
			continue
		}
		if wantTotal >= sh*60+sm && wantTotal < eh*60+em {
			return true
		}
	}
	return false
}

func parseClock(s string) (hour, minute int, ok bool) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, 0, false
	}
	return t.Hour(), t.Minute(), true
}
