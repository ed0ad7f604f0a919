// internal/models/match.go
package models

import "time"

// AvailabilityMode selects how strictly the availability filter is applied.
type AvailabilityMode string

const (
	AvailabilityAny      AvailabilityMode = "any"
	AvailabilityNow      AvailabilityMode = "available_now"
	AvailabilityToday    AvailabilityMode = "today"
	AvailabilityThisWeek AvailabilityMode = "this_week"
)

// ExperienceTier is a user-selectable experience band. The bands
// deliberately overlap: they are presentation categories, not a
// partition of the years axis.
type ExperienceTier string

const (
	ExperienceAny          ExperienceTier = "any"
	ExperienceBeginner     ExperienceTier = "beginner"     // <= 2 years
	ExperienceIntermediate ExperienceTier = "intermediate" // 1-5 years
	ExperienceExpert       ExperienceTier = "expert"       // >= 5 years
)

// RankingPolicy is the total order applied to a result set.
type RankingPolicy string

const (
	RankByScore      RankingPolicy = "score"
	RankByDistance   RankingPolicy = "distance"
	RankByRating     RankingPolicy = "rating"
	RankByExperience RankingPolicy = "experience"
)

// FilterCriteria is UI-owned filter state. It is advisory input: the
// engine clamps out-of-range values instead of rejecting them.
type FilterCriteria struct {
	MaxDistanceKm float64          `json:"maxDistanceKm"`
	MinRating     float64          `json:"minRating"`
	Subjects      []string         `json:"subjects,omitempty"`
	Languages     []string         `json:"languages,omitempty"`
	Availability  AvailabilityMode `json:"availability,omitempty"`
	Experience    ExperienceTier   `json:"experience,omitempty"`
	Gender        string           `json:"gender,omitempty"`
	RemoteOnly    bool             `json:"remoteOnly"`
	Query         string           `json:"query,omitempty"`
}

// MatchFactors is the per-axis compatibility breakdown, each axis 0-100.
// The composite score is derived from this vector and nothing else.
type MatchFactors struct {
	Subject      float64 `json:"subject"`
	Language     float64 `json:"language"`
	Experience   float64 `json:"experience"`
	Availability float64 `json:"availability"`
	Location     float64 `json:"location"`
	Rating       float64 `json:"rating"`
}

// MatchResult is one scored candidate for one exam request. Results are
// value objects: a new run replaces the whole set, nothing mutates one
// in place.
type MatchResult struct {
	Scribe            ScribeProfile `json:"scribe"`
	Score             float64       `json:"score"`
	DistanceKm        float64       `json:"distanceKm"`
	Factors           MatchFactors  `json:"matchFactors"`
	TravelTimeMinutes int           `json:"estimatedTravelTimeMinutes"`
	Available         bool          `json:"isAvailable"`
	NextAvailable     *time.Time    `json:"nextAvailableDate,omitempty"`
}

// RunStatus distinguishes "the run failed" from "the run found nothing".
type RunStatus string

const (
	RunStatusIdle    RunStatus = "idle"
	RunStatusLoading RunStatus = "loading"
	RunStatusReady   RunStatus = "ready"
	RunStatusFailed  RunStatus = "failed"
)
