// test/e2e/e2e_test.go

// End-to-end checks against real local services. Requires Postgres,
// Redis and (optionally) Elasticsearch on their default local ports;
// set E2E_TESTS=1 to run.
package e2e

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scribematch/internal/common/config"
	"scribematch/internal/common/database"
	"scribematch/internal/common/logger"
	"scribematch/internal/matching/availability"
	"scribematch/internal/matching/evaluate"
	"scribematch/internal/matching/orchestrator"
	"scribematch/internal/matching/score"
	"scribematch/internal/models"
	"scribematch/internal/store"

	csa "scribematch/internal/workers/matching/check-scribe-availability"
	fsm "scribematch/internal/workers/matching/find-scribe-matches"
)

func requireE2E(t *testing.T) {
	if os.Getenv("E2E_TESTS") == "" {
		t.Skip("set E2E_TESTS=1 to run end-to-end tests against local services")
	}
}

func loadLocalConfig(t *testing.T) *config.Config {
	cfg, err := config.Load()
	require.NoError(t, err)

	cfg.Database.Postgres.Host = "localhost"
	cfg.Database.Redis.Address = "localhost:6379"
	return cfg
}

func TestFullMatchingE2E(t *testing.T) {
	requireE2E(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	cfg := loadLocalConfig(t)
	log := logger.NewTestLogger(t)

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	require.NoError(t, err, "PostgreSQL connection failed")
	defer pg.Close()
	require.NoError(t, pg.Ping(ctx), "PostgreSQL ping failed")

	rdb, err := database.NewRedis(cfg.Database.Redis)
	require.NoError(t, err, "Redis client creation failed")
	defer rdb.Close()
	require.NoError(t, rdb.Ping(ctx), "Redis ping failed")

	setupTables(t, ctx, pg)
	seedScribes(t, ctx, pg)

	probe := availability.NewCalendarProbe(pg.DB, rdb.Client, 30*time.Second, log)
	evaluator := evaluate.NewEvaluator(probe, score.DefaultWeights(), 3*time.Second, log)
	orch := orchestrator.NewOrchestrator(evaluator, nil, nil, 20*time.Second, models.RankByScore, log)
	scribes := store.NewScribeStore(pg.DB, rdb.Client, 30*time.Second, log)
	poolBuilder := store.NewPoolBuilder(scribes, nil, 100, log)

	student := models.StudentProfile{
		ID:                "e2e-student",
		Name:              "Meera Iyer",
		Location:          models.Coordinate{Lat: 28.6139, Lon: 77.2090},
		PreferredSubjects: []string{"Mathematics"},
		Languages:         []string{"Hindi"},
		MaxTravelKm:       25,
	}
	exam := models.ExamRequest{
		Subject:   "Mathematics",
		Date:      nextMonday(),
		StartTime: "10:00",
	}

	t.Run("find-scribe-matches", func(t *testing.T) {
		handler := fsm.NewHandler(fsm.LoadConfig(), orch, poolBuilder.PoolFor, log)

		output, err := handler.Execute(ctx, &fsm.Input{Student: student, Exam: exam})

		require.NoError(t, err)
		require.GreaterOrEqual(t, output.MatchCount, 1)
		assert.Equal(t, "e2e-scribe-1", output.Matches[0].Scribe.ID)
		assert.Greater(t, output.TopScore, 50.0)
	})

	t.Run("check-scribe-availability", func(t *testing.T) {
		handler := csa.NewHandler(csa.LoadConfig(), probe, scribes.GetProfile, log)

		output, err := handler.Execute(ctx, &csa.Input{
			ScribeID:  "e2e-scribe-1",
			ExamDate:  nextMonday().Format("2006-01-02"),
			StartTime: "10:00",
		})

		require.NoError(t, err)
		assert.True(t, output.Available)
	})

	t.Run("booking conflict flips availability", func(t *testing.T) {
		monday := nextMonday().Format("2006-01-02")
		_, err := pg.DB.ExecContext(ctx, `
			INSERT INTO bookings (scribe_id, exam_date, start_time, status)
			VALUES ('e2e-scribe-1', $1, '10:00', 'confirmed')`, monday)
		require.NoError(t, err)

		// Bypass the cached answer from the previous subtest.
		require.NoError(t, rdb.Client.FlushDB(ctx).Err())

		handler := csa.NewHandler(csa.LoadConfig(), probe, scribes.GetProfile, log)
		output, err := handler.Execute(ctx, &csa.Input{
			ScribeID:  "e2e-scribe-1",
			ExamDate:  monday,
			StartTime: "10:00",
		})

		require.NoError(t, err)
		assert.False(t, output.Available)
		assert.NotEmpty(t, output.NextAvailable)
	})
}

func setupTables(t *testing.T, ctx context.Context, pg *database.PostgresClient) {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS scribes (
			id VARCHAR(255) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			gender VARCHAR(20) DEFAULT '',
			address TEXT DEFAULT '',
			lat DOUBLE PRECISION,
			lon DOUBLE PRECISION,
			subjects JSONB DEFAULT '[]',
			languages JSONB DEFAULT '[]',
			experience_years INTEGER DEFAULT 0,
			exams_scribed INTEGER DEFAULT 0,
			ratings JSONB DEFAULT '[]',
			weekly_slots JSONB DEFAULT '[]',
			blackout_dates JSONB DEFAULT '[]',
			max_travel_km DOUBLE PRECISION DEFAULT 0,
			remote_capable BOOLEAN DEFAULT FALSE,
			verified BOOLEAN DEFAULT FALSE,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS bookings (
			id SERIAL PRIMARY KEY,
			scribe_id VARCHAR(255) REFERENCES scribes(id),
			exam_date DATE NOT NULL,
			start_time VARCHAR(5) NOT NULL,
			status VARCHAR(20) DEFAULT 'pending',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`DELETE FROM bookings WHERE scribe_id LIKE 'e2e-%'`,
		`DELETE FROM scribes WHERE id LIKE 'e2e-%'`,
	}

	for _, q := range queries {
		_, err := pg.DB.ExecContext(ctx, q)
		require.NoError(t, err, "setup query failed: %s", q)
	}
}

func seedScribes(t *testing.T, ctx context.Context, pg *database.PostgresClient) {
	scribes := []struct {
		id, name  string
		lat       float64
		subjects  string
		languages string
		years     int
		ratings   string
	}{
		{"e2e-scribe-1", "Asha Verma", 28.62, `["Mathematics","Physics"]`, `["Hindi","English"]`, 6, `[4.8,4.9]`},
		{"e2e-scribe-2", "Ravi Kumar", 28.70, `["History"]`, `["Tamil"]`, 1, `[3.5]`},
	}

	for _, s := range scribes {
		_, err := pg.DB.ExecContext(ctx, fmt.Sprintf(`
			INSERT INTO scribes (id, name, lat, lon, subjects, languages,
				experience_years, ratings, weekly_slots, max_travel_km, verified)
			VALUES ('%s', '%s', %f, 77.21, '%s', '%s', %d, '%s',
				'[{"weekday":1,"startTime":"09:00","endTime":"17:00"}]', 30, TRUE)`,
			s.id, s.name, s.lat, s.subjects, s.languages, s.years, s.ratings))
		require.NoError(t, err)
	}
}

func nextMonday() time.Time {
	d := time.Now().AddDate(0, 0, 1)
	for d.Weekday() != time.Monday {
		d = d.AddDate(0, 0, 1)
	}
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
}
