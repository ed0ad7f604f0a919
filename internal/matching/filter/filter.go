// internal/matching/filter/filter.go
package filter

import (
	"strings"
	"time"

	"scribematch/internal/models"
)

const (
	minRatingFloor   = 0.0
	maxRatingCeiling = 5.0
	weekWindowDays   = 7
)

// Clamp pulls out-of-range criteria values back into their valid
// domain. Filter state is advisory UI input, so bad values are
// corrected rather than rejected.
func Clamp(criteria models.FilterCriteria) models.FilterCriteria {
	if criteria.MaxDistanceKm < 0 {
		criteria.MaxDistanceKm = 0
	}
	if criteria.MinRating < minRatingFloor {
		criteria.MinRating = minRatingFloor
	}
	if criteria.MinRating > maxRatingCeiling {
		criteria.MinRating = maxRatingCeiling
	}
	if criteria.Availability == "" {
		criteria.Availability = models.AvailabilityAny
	}
	if criteria.Experience == "" {
		criteria.Experience = models.ExperienceAny
	}
	return criteria
}

// Apply narrows a result set to the entries satisfying every criterion.
// It is a pure conjunction over an already scored set: no re-scoring,
// no probing, no mutation of the input slice. examDate anchors the
// relative availability windows.
func Apply(results []models.MatchResult, criteria models.FilterCriteria, examDate time.Time) []models.MatchResult {
	criteria = Clamp(criteria)

	filtered := make([]models.MatchResult, 0, len(results))
	for _, r := range results {
		if !matches(r, criteria, examDate) {
			continue
		}
		filtered = append(filtered, r)
	}
	return filtered
}

func matches(r models.MatchResult, c models.FilterCriteria, examDate time.Time) bool {
	if c.MaxDistanceKm > 0 && r.DistanceKm > c.MaxDistanceKm {
		return false
	}
	if c.MinRating > 0 && r.Scribe.MeanRating() < c.MinRating {
		return false
	}
	if len(c.Subjects) > 0 && !intersects(r.Scribe.Subjects, c.Subjects) {
		return false
	}
	if len(c.Languages) > 0 && !intersects(r.Scribe.Languages, c.Languages) {
		return false
	}
	if !availabilityOK(r, c.Availability, examDate) {
		return false
	}
	if !experienceOK(r.Scribe.ExperienceYears, c.Experience) {
		return false
	}
	if c.Gender != "" && !strings.EqualFold(r.Scribe.Gender, c.Gender) {
		return false
	}
	if c.RemoteOnly && !r.Scribe.RemoteCapable {
		return false
	}
	if c.Query != "" && !queryOK(r.Scribe, c.Query) {
		return false
	}
	return true
}

func availabilityOK(r models.MatchResult, mode models.AvailabilityMode, examDate time.Time) bool {
	switch mode {
	case models.AvailabilityNow:
		return r.Available
	case models.AvailabilityToday:
		if r.Available {
			return true
		}
		return r.NextAvailable != nil && r.NextAvailable.Before(endOfDay(examDate))
	case models.AvailabilityThisWeek:
		if r.Available {
			return true
		}
		return r.NextAvailable != nil && r.NextAvailable.Before(endOfDay(examDate.AddDate(0, 0, weekWindowDays)))
	default:
		return true
	}
}

// experienceOK applies the presentation bands. Beginner and
// intermediate overlap at 1-2 years on purpose: the tiers are labels
// users pick, not a partition of the years axis.
func experienceOK(years int, tier models.ExperienceTier) bool {
	switch tier {
	case models.ExperienceBeginner:
		return years <= 2
	case models.ExperienceIntermediate:
		return years >= 1 && years <= 5
	case models.ExperienceExpert:
		return years >= 5
	default:
		return true
	}
}

func queryOK(scribe models.ScribeProfile, query string) bool {
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return true
	}
	if strings.Contains(strings.ToLower(scribe.Name), needle) {
		return true
	}
	for _, s := range scribe.Subjects {
		if strings.Contains(strings.ToLower(s), needle) {
			return true
		}
	}
	for _, l := range scribe.Languages {
		if strings.Contains(strings.ToLower(l), needle) {
			return true
		}
	}
	return false
}

func intersects(have, want []string) bool {
	for _, w := range want {
		for _, h := range have {
			if strings.EqualFold(h, w) {
				return true
			}
		}
	}
	return false
}

func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, 0, t.Location())
}
