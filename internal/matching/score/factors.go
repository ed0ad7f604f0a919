// internal/matching/score/factors.go
package score

import (
	"strings"
	"time"
)

// SubjectMatch scores the overlap between the subjects a student needs
// and the subjects a scribe covers: |intersection| / |wanted| * 100.
// An empty wanted set scores 0, never NaN.
func SubjectMatch(studentSubjects, scribeSubjects []string) float64 {
	return overlap(studentSubjects, scribeSubjects)
}

// LanguageMatch applies the same overlap formula over languages.
func LanguageMatch(studentLanguages, scribeLanguages []string) float64 {
	return overlap(studentLanguages, scribeLanguages)
}

func overlap(wanted, offered []string) float64 {
	if len(wanted) == 0 {
		return 0
	}

	offer := make(map[string]struct{}, len(offered))
	for _, o := range offered {
		offer[strings.ToLower(strings.TrimSpace(o))] = struct{}{}
	}

	matched := 0
	for _, w := range wanted {
		if _, ok := offer[strings.ToLower(strings.TrimSpace(w))]; ok {
			matched++
		}
	}

	return float64(matched) / float64(len(wanted)) * 100
}

// ExperienceMatch maps years of scribing experience onto discrete
// tiers. Differences below one year are treated as noise.
func ExperienceMatch(years int) float64 {
	switch {
	case years >= 5:
		return 100
	case years >= 3:
		return 80
	case years >= 1:
		return 60
	default:
		return 40
	}
}

// RatingMatch normalizes the mean historical rating onto 0-100. A
// scribe with no ratings scores 0: new scribes are neither penalized
// below the baseline nor rewarded.
func RatingMatch(ratings []float64) float64 {
	if len(ratings) == 0 {
		return 0
	}
	var sum float64
	for _, r := range ratings {
		sum += r
	}
	return sum / float64(len(ratings)) / 5.0 * 100
}

// LocationMatch decays linearly with distance and floors at 0 once the
// candidate sits beyond the caller's distance ceiling.
func LocationMatch(distanceKm, maxDistanceKm float64) float64 {
	if maxDistanceKm <= 0 {
		return 0
	}
	s := 100 - distanceKm/maxDistanceKm*100
	if s < 0 {
		return 0
	}
	return s
}

// nextSlotGraceDays is how far out a next available slot still earns
// partial availability credit.
const nextSlotGraceDays = 7

// AvailabilityScore folds the probe answer into the factor vector:
// full credit when the scribe is free at the requested slot, partial
// credit when the next opening is within a week of the exam date.
func AvailabilityScore(available bool, nextAvailable *time.Time, examDate time.Time) float64 {
	if available {
		return 100
	}
	if nextAvailable != nil && !nextAvailable.After(examDate.AddDate(0, 0, nextSlotGraceDays)) {
		return 40
	}
	return 0
}
