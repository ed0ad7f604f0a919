// internal/matching/evaluate/evaluator.go
package evaluate

import (
	"context"
	"time"

	"scribematch/internal/common/errors"
	"scribematch/internal/common/logger"
	"scribematch/internal/matching/availability"
	"scribematch/internal/matching/geo"
	"scribematch/internal/matching/score"
	"scribematch/internal/models"
)

// defaultMaxTravelKm backstops students whose profile carries no
// travel ceiling, so proximity scoring still differentiates.
const defaultMaxTravelKm = 25.0

// Evaluator scores a single candidate against a student and exam
// request. It is the one authoritative scoring path: the factor
// breakdown and the composite score come from the same vector.
type Evaluator struct {
	probe            availability.Probe
	weights          score.Weights
	candidateTimeout time.Duration
	logger           logger.Logger
}

func NewEvaluator(probe availability.Probe, weights score.Weights, candidateTimeout time.Duration, log logger.Logger) *Evaluator {
	return &Evaluator{
		probe:            probe,
		weights:          weights.Normalize(),
		candidateTimeout: candidateTimeout,
		logger:           log.WithFields(map[string]interface{}{"component": "evaluator"}),
	}
}

// Evaluate produces one MatchResult for the candidate, or an error the
// orchestrator converts into a per-candidate skip. One slow or broken
// candidate never takes the batch down: availability calls run under
// the per-candidate timeout.
func (e *Evaluator) Evaluate(ctx context.Context, student models.StudentProfile, exam models.ExamRequest, scribe models.ScribeProfile) (*models.MatchResult, error) {
	if e.candidateTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.candidateTimeout)
		defer cancel()
	}

	distanceKm := geo.DistanceKm(student.Location, scribe.Location)

	maxKm := student.MaxTravelKm
	if maxKm <= 0 {
		maxKm = defaultMaxTravelKm
	}

	available, err := e.probe.IsAvailable(ctx, scribe, exam.Date, exam.StartTime)
	if err != nil {
		return nil, errors.NewAvailabilityProbeError(scribe.ID, err)
	}

	var nextAvailable *time.Time
	if !available {
		nextAvailable, err = e.probe.NextAvailableSlot(ctx, scribe, exam.Date)
		if err != nil {
			// The headline answer is already known; a failed look-ahead
			// only costs the nextAvailableDate hint.
			e.logger.Warn("next-slot lookup failed", map[string]interface{}{
				"scribeId": scribe.ID,
				"error":    err,
			})
			nextAvailable = nil
		}
	}

	factors := models.MatchFactors{
		Subject:      score.SubjectMatch(student.PreferredSubjects, scribe.Subjects),
		Language:     score.LanguageMatch(student.Languages, scribe.Languages),
		Experience:   score.ExperienceMatch(scribe.ExperienceYears),
		Availability: score.AvailabilityScore(available, nextAvailable, exam.Date),
		Location:     score.LocationMatch(distanceKm, maxKm),
		Rating:       score.RatingMatch(scribe.Ratings),
	}

	return &models.MatchResult{
		Scribe:            scribe,
		Score:             score.Composite(factors, e.weights),
		DistanceKm:        distanceKm,
		Factors:           factors,
		TravelTimeMinutes: geo.TravelTimeMinutes(distanceKm),
		Available:         available,
		NextAvailable:     nextAvailable,
	}, nil
}
