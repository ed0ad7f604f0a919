// internal/workers/matching/check-scribe-availability/handler_test.go
package checkscribeavailability

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scribematch/internal/common/errors"
	"scribematch/internal/common/logger"
	"scribematch/internal/models"
)

type stubProbe struct {
	available bool
	next      *time.Time
	probeErr  error
	nextErr   error
}

func (p *stubProbe) IsAvailable(ctx context.Context, scribe models.ScribeProfile, date time.Time, startTime string) (bool, error) {
	return p.available, p.probeErr
}

func (p *stubProbe) NextAvailableSlot(ctx context.Context, scribe models.ScribeProfile, from time.Time) (*time.Time, error) {
	return p.next, p.nextErr
}

func staticProfile(ctx context.Context, scribeID string) (*models.ScribeProfile, error) {
	return &models.ScribeProfile{ID: scribeID, Name: "Asha"}, nil
}

func newTestHandler(t *testing.T, probe *stubProbe, profiles ProfileFetcher) *Handler {
	t.Helper()
	if profiles == nil {
		profiles = staticProfile
	}
	return NewHandler(LoadConfig(), probe, profiles, logger.NewTestLogger(t))
}

func validInput() *Input {
	return &Input{ScribeID: "scribe-1", ExamDate: "2026-09-10", StartTime: "09:00"}
}

func TestExecute_Available(t *testing.T) {
	h := newTestHandler(t, &stubProbe{available: true}, nil)

	output, err := h.Execute(context.Background(), validInput())

	require.NoError(t, err)
	assert.True(t, output.Available)
	assert.Equal(t, "scribe-1", output.ScribeID)
	assert.Empty(t, output.NextAvailable)
	assert.NotEmpty(t, output.CheckedAt)
}

func TestExecute_UnavailableReportsNextSlot(t *testing.T) {
	next := time.Date(2026, 9, 14, 9, 0, 0, 0, time.UTC)
	h := newTestHandler(t, &stubProbe{next: &next}, nil)

	output, err := h.Execute(context.Background(), validInput())

	require.NoError(t, err)
	assert.False(t, output.Available)
	assert.Equal(t, "2026-09-14T09:00:00Z", output.NextAvailable)
}

func TestExecute_NextSlotFailureIsTolerated(t *testing.T) {
	h := newTestHandler(t, &stubProbe{nextErr: fmt.Errorf("calendar timeout")}, nil)

	output, err := h.Execute(context.Background(), validInput())

	require.NoError(t, err)
	assert.False(t, output.Available)
	assert.Empty(t, output.NextAvailable)
}

func TestExecute_ProbeFailure(t *testing.T) {
	h := newTestHandler(t, &stubProbe{probeErr: fmt.Errorf("redis down")}, nil)

	_, err := h.Execute(context.Background(), validInput())

	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeAvailabilityProbeFailed, errors.AsStandard(err).Code)
}

func TestExecute_ProfileFetchFailure(t *testing.T) {
	fetcher := func(ctx context.Context, scribeID string) (*models.ScribeProfile, error) {
		return nil, errors.NewProfileFetchFailedError(scribeID, fmt.Errorf("no such scribe"))
	}
	h := newTestHandler(t, &stubProbe{available: true}, fetcher)

	_, err := h.Execute(context.Background(), validInput())

	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeProfileFetchFailed, errors.AsStandard(err).Code)
}

func TestExecute_BadDate(t *testing.T) {
	h := newTestHandler(t, &stubProbe{available: true}, nil)

	input := validInput()
	input.ExamDate = "10-09-2026"
	_, err := h.Execute(context.Background(), input)

	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInvalidMatchRequest, errors.AsStandard(err).Code)
}

func TestParseInput(t *testing.T) {
	input, err := parseInput(`{"scribeId": "s1", "examDate": "2026-09-10", "startTime": "09:00"}`)
	require.NoError(t, err)
	assert.Equal(t, "s1", input.ScribeID)

	cases := []struct {
		name    string
		payload string
	}{
		{"missing scribeId", `{"examDate": "2026-09-10", "startTime": "09:00"}`},
		{"empty scribeId", `{"scribeId": "", "examDate": "2026-09-10", "startTime": "09:00"}`},
		{"bad date format", `{"scribeId": "s1", "examDate": "tomorrow", "startTime": "09:00"}`},
		{"bad time format", `{"scribeId": "s1", "examDate": "2026-09-10", "startTime": "9am"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := parseInput(tc.payload)
			require.Error(t, err)
			assert.Equal(t, errors.ErrCodeInvalidMatchRequest, errors.AsStandard(err).Code)
		})
	}
}
