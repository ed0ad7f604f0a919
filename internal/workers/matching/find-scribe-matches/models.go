// internal/workers/matching/find-scribe-matches/models.go
package findscribematches

import "scribematch/internal/models"

type Input struct {
	Student models.StudentProfile  `json:"student"`
	Exam    models.ExamRequest     `json:"exam"`
	Pool    []models.ScribeProfile `json:"pool,omitempty"`
	Filter  *models.FilterCriteria `json:"filter,omitempty"`
	RankBy  models.RankingPolicy   `json:"rankBy,omitempty"`
}

type Output struct {
	Matches    []models.MatchResult `json:"matches"`
	MatchCount int                  `json:"matchCount"`
	TopScore   float64              `json:"topScore"`
	Partial    bool                 `json:"partial"`
	RunAt      string               `json:"runAt"`
}
