// internal/workers/matching/find-scribe-matches/handler_test.go
package findscribematches

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scribematch/internal/common/errors"
	"scribematch/internal/common/logger"
	"scribematch/internal/matching/evaluate"
	"scribematch/internal/matching/orchestrator"
	"scribematch/internal/matching/score"
	"scribematch/internal/models"
)

type alwaysFreeProbe struct{}

func (alwaysFreeProbe) IsAvailable(ctx context.Context, scribe models.ScribeProfile, date time.Time, startTime string) (bool, error) {
	return true, nil
}

func (alwaysFreeProbe) NextAvailableSlot(ctx context.Context, scribe models.ScribeProfile, from time.Time) (*time.Time, error) {
	return nil, nil
}

func newTestHandler(t *testing.T, pool PoolSource) *Handler {
	t.Helper()
	log := logger.NewTestLogger(t)
	eval := evaluate.NewEvaluator(alwaysFreeProbe{}, score.DefaultWeights(), 0, log)
	orch := orchestrator.NewOrchestrator(eval, nil, nil, 0, models.RankByScore, log)
	return NewHandler(LoadConfig(), orch, pool, log)
}

func testInput() *Input {
	return &Input{
		Student: models.StudentProfile{
			ID:                "student-1",
			Location:          models.Coordinate{Lat: 28.6139, Lon: 77.2090},
			PreferredSubjects: []string{"Mathematics"},
			Languages:         []string{"Hindi"},
			MaxTravelKm:       20,
		},
		Exam: models.ExamRequest{
			Subject:   "Mathematics",
			Date:      time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC),
			StartTime: "09:00",
		},
		Pool: []models.ScribeProfile{
			{
				ID: "near", Name: "Asha",
				Location:  models.Coordinate{Lat: 28.62, Lon: 77.21},
				Subjects:  []string{"Mathematics"},
				Languages: []string{"Hindi"}, ExperienceYears: 5,
				Ratings: []float64{4.8},
			},
			{
				ID: "far", Name: "Ravi",
				Location:  models.Coordinate{Lat: 28.80, Lon: 77.21},
				Subjects:  []string{"History"},
				Languages: []string{"Tamil"}, ExperienceYears: 1,
			},
		},
	}
}

func TestExecute_RanksInlinePool(t *testing.T) {
	h := newTestHandler(t, nil)

	output, err := h.Execute(context.Background(), testInput())

	require.NoError(t, err)
	assert.Equal(t, 2, output.MatchCount)
	assert.Equal(t, "near", output.Matches[0].Scribe.ID)
	assert.Equal(t, output.Matches[0].Score, output.TopScore)
	assert.False(t, output.Partial)
	assert.NotEmpty(t, output.RunAt)
}

func TestExecute_FetchesPoolWhenAbsent(t *testing.T) {
	fetched := false
	poolSource := func(ctx context.Context, student models.StudentProfile) ([]models.ScribeProfile, error) {
		fetched = true
		assert.Equal(t, "student-1", student.ID)
		return testInput().Pool, nil
	}
	h := newTestHandler(t, poolSource)

	input := testInput()
	input.Pool = nil
	output, err := h.Execute(context.Background(), input)

	require.NoError(t, err)
	assert.True(t, fetched)
	assert.Equal(t, 2, output.MatchCount)
}

func TestExecute_PoolFetchFailure(t *testing.T) {
	poolSource := func(ctx context.Context, student models.StudentProfile) ([]models.ScribeProfile, error) {
		return nil, errors.NewPoolQueryFailedError(fmt.Errorf("postgres down"))
	}
	h := newTestHandler(t, poolSource)

	input := testInput()
	input.Pool = nil
	_, err := h.Execute(context.Background(), input)

	require.Error(t, err)
	assert.Equal(t, errors.ErrCodePoolQueryFailed, errors.AsStandard(err).Code)
}

func TestExecute_AppliesFilterAndRanking(t *testing.T) {
	h := newTestHandler(t, nil)

	input := testInput()
	input.Filter = &models.FilterCriteria{Subjects: []string{"Mathematics"}}
	input.RankBy = models.RankByDistance

	output, err := h.Execute(context.Background(), input)

	require.NoError(t, err)
	require.Equal(t, 1, output.MatchCount)
	assert.Equal(t, "near", output.Matches[0].Scribe.ID)
}

func TestExecute_TruncatesToMaxResults(t *testing.T) {
	h := newTestHandler(t, nil)
	h.config.MaxResults = 1

	output, err := h.Execute(context.Background(), testInput())

	require.NoError(t, err)
	assert.Equal(t, 1, output.MatchCount)
	assert.Equal(t, "near", output.Matches[0].Scribe.ID)
}

func TestParseInput_ValidPayload(t *testing.T) {
	payload := `{
		"student": {"id": "student-1"},
		"exam": {"date": "2026-09-10T00:00:00Z", "startTime": "09:00"},
		"rankBy": "distance"
	}`

	input, err := parseInput(payload)

	require.NoError(t, err)
	assert.Equal(t, "student-1", input.Student.ID)
	assert.Equal(t, models.RankByDistance, input.RankBy)
}

func TestParseInput_RejectsMissingFields(t *testing.T) {
	cases := []struct {
		name    string
		payload string
	}{
		{"no student", `{"exam": {"date": "2026-09-10T00:00:00Z", "startTime": "09:00"}}`},
		{"no exam", `{"student": {"id": "s"}}`},
		{"student without id", `{"student": {}, "exam": {"date": "2026-09-10T00:00:00Z", "startTime": "09:00"}}`},
		{"bad rankBy", `{"student": {"id": "s"}, "exam": {"date": "2026-09-10T00:00:00Z", "startTime": "09:00"}, "rankBy": "alphabetical"}`},
		{"not json", `{{{`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := parseInput(tc.payload)
			require.Error(t, err)
			assert.Equal(t, errors.ErrCodeInvalidMatchRequest, errors.AsStandard(err).Code)
		})
	}
}
