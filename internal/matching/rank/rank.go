// internal/matching/rank/rank.go
package rank

import (
	"sort"

	"scribematch/internal/models"
)

// Sort orders results under the selected policy. The sort is stable,
// so ties keep the evaluator's insertion order and repeated runs stay
// visually consistent. The input slice is not modified.
func Sort(results []models.MatchResult, policy models.RankingPolicy) []models.MatchResult {
	sorted := make([]models.MatchResult, len(results))
	copy(sorted, results)

	switch policy {
	case models.RankByDistance:
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].DistanceKm < sorted[j].DistanceKm
		})
	case models.RankByRating:
		sort.SliceStable(sorted, func(i, j int) bool {
			ri, rj := sorted[i].Scribe.MeanRating(), sorted[j].Scribe.MeanRating()
			iHas, jHas := len(sorted[i].Scribe.Ratings) > 0, len(sorted[j].Scribe.Ratings) > 0
			// Unrated scribes sort after every rated one.
			if iHas != jHas {
				return iHas
			}
			return ri > rj
		})
	case models.RankByExperience:
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].Scribe.ExperienceYears > sorted[j].Scribe.ExperienceYears
		})
	default: // models.RankByScore
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].Score > sorted[j].Score
		})
	}

	return sorted
}
