// internal/store/scribes.go

// Package store loads scribe profiles for the matching engine. The
// engine itself never talks to a database; it is handed a pool and an
// availability probe and works from those.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"scribematch/internal/common/errors"
	"scribematch/internal/common/logger"
	"scribematch/internal/models"
)

const profileCacheKeyPrefix = "scribe:profile:"

// ScribeStore reads verified scribe profiles from Postgres with a
// short-TTL Redis cache in front of single-profile lookups.
type ScribeStore struct {
	db       *sql.DB
	redis    *redis.Client
	cacheTTL time.Duration
	logger   logger.Logger
}

func NewScribeStore(db *sql.DB, rdb *redis.Client, cacheTTL time.Duration, log logger.Logger) *ScribeStore {
	return &ScribeStore{
		db:       db,
		redis:    rdb,
		cacheTTL: cacheTTL,
		logger:   log.WithFields(map[string]interface{}{"component": "scribe_store"}),
	}
}

const poolQuery = `
	SELECT id, name, gender, address, lat, lon, subjects, languages,
	       experience_years, exams_scribed, ratings, weekly_slots,
	       blackout_dates, max_travel_km, remote_capable, verified
	FROM scribes
	WHERE verified = true`

// VerifiedPool returns every verified scribe. The pool is re-fetched
// per run, so verification changes take effect on the next refresh
// without invalidation plumbing.
func (s *ScribeStore) VerifiedPool(ctx context.Context) ([]models.ScribeProfile, error) {
	rows, err := s.db.QueryContext(ctx, poolQuery)
	if err != nil {
		return nil, errors.NewPoolQueryFailedError(err)
	}
	defer rows.Close()

	var pool []models.ScribeProfile
	for rows.Next() {
		profile, err := scanScribe(rows)
		if err != nil {
			return nil, errors.NewPoolQueryFailedError(err)
		}
		pool = append(pool, *profile)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewPoolQueryFailedError(err)
	}

	s.logger.Debug("verified pool loaded", map[string]interface{}{"size": len(pool)})
	return pool, nil
}

// GetProfile fetches one scribe, serving from Redis when the cached
// copy is still fresh. A cache round-trip failure falls through to
// Postgres.
func (s *ScribeStore) GetProfile(ctx context.Context, scribeID string) (*models.ScribeProfile, error) {
	cacheKey := profileCacheKeyPrefix + scribeID
	if val, err := s.redis.Get(ctx, cacheKey).Result(); err == nil {
		var profile models.ScribeProfile
		if err := json.Unmarshal([]byte(val), &profile); err == nil {
			return &profile, nil
		}
	}

	row := s.db.QueryRowContext(ctx, poolQuery+` AND id = $1`, scribeID)
	profile, err := scanScribe(row)
	if err != nil {
		return nil, errors.NewProfileFetchFailedError(scribeID, err)
	}

	if data, err := json.Marshal(profile); err == nil {
		s.redis.Set(ctx, cacheKey, data, s.cacheTTL)
	}

	return profile, nil
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanScribe(row rowScanner) (*models.ScribeProfile, error) {
	var profile models.ScribeProfile
	var subjects, languages, ratings, weeklySlots, blackoutDates []byte

	err := row.Scan(
		&profile.ID, &profile.Name, &profile.Gender, &profile.Address,
		&profile.Location.Lat, &profile.Location.Lon,
		&subjects, &languages,
		&profile.ExperienceYears, &profile.ExamsScribed,
		&ratings, &weeklySlots, &blackoutDates,
		&profile.MaxTravelKm, &profile.RemoteCapable, &profile.Verified,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(subjects, &profile.Subjects); err != nil {
		profile.Subjects = []string{}
	}
	if err := json.Unmarshal(languages, &profile.Languages); err != nil {
		profile.Languages = []string{}
	}
	if err := json.Unmarshal(ratings, &profile.Ratings); err != nil {
		profile.Ratings = nil
	}
	if err := json.Unmarshal(weeklySlots, &profile.WeeklySlots); err != nil {
		profile.WeeklySlots = nil
	}
	if err := json.Unmarshal(blackoutDates, &profile.BlackoutDates); err != nil {
		profile.BlackoutDates = nil
	}

	return &profile, nil
}
