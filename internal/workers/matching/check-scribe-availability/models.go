// internal/workers/matching/check-scribe-availability/models.go
package checkscribeavailability

type Input struct {
	ScribeID  string `json:"scribeId"`
	ExamDate  string `json:"examDate"`  // "2006-01-02"
	StartTime string `json:"startTime"` // "HH:MM", 24h
}

type Output struct {
	ScribeID      string `json:"scribeId"`
	Available     bool   `json:"isAvailable"`
	NextAvailable string `json:"nextAvailableDate,omitempty"`
	CheckedAt     string `json:"checkedAt"`
}
