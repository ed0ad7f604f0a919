// internal/models/profile.go
package models

import "time"

// Coordinate is a WGS84 latitude/longitude pair.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// StudentProfile carries the academic preferences used for matching.
// It is produced and validated by the registration subsystem; the
// engine only reads it.
type StudentProfile struct {
	ID                string     `json:"id"`
	Name              string     `json:"name"`
	Address           string     `json:"address"`
	Location          Coordinate `json:"location"`
	PreferredSubjects []string   `json:"preferredSubjects"`
	Languages         []string   `json:"languages"`
	MaxTravelKm       float64    `json:"maxTravelKm"`
	GenderPreference  string     `json:"genderPreference,omitempty"`
}

// AvailabilitySlot is one recurring weekly window a scribe has declared.
type AvailabilitySlot struct {
	Weekday   time.Weekday `json:"weekday"`
	StartTime string       `json:"startTime"` // "HH:MM", 24h
	EndTime   string       `json:"endTime"`
}

// ScribeProfile is one candidate in the matching pool. Owned by the
// registration/verification subsystem.
type ScribeProfile struct {
	ID              string             `json:"id"`
	Name            string             `json:"name"`
	Gender          string             `json:"gender,omitempty"`
	Address         string             `json:"address"`
	Location        Coordinate         `json:"location"`
	Subjects        []string           `json:"subjects"`
	Languages       []string           `json:"languages"`
	ExperienceYears int                `json:"experienceYears"`
	ExamsScribed    int                `json:"examsScribed"`
	Ratings         []float64          `json:"ratings,omitempty"`
	WeeklySlots     []AvailabilitySlot `json:"weeklySlots,omitempty"`
	BlackoutDates   []time.Time        `json:"blackoutDates,omitempty"`
	MaxTravelKm     float64            `json:"maxTravelKm"`
	RemoteCapable   bool               `json:"remoteCapable"`
	Verified        bool               `json:"verified"`
}

// MeanRating returns the average of the recorded ratings, 0 when the
// scribe has no history yet.
func (s ScribeProfile) MeanRating() float64 {
	if len(s.Ratings) == 0 {
		return 0
	}
	var sum float64
	for _, r := range s.Ratings {
		sum += r
	}
	return sum / float64(len(s.Ratings))
}

// ExamRequest describes the exam a student needs a scribe for. It is
// constructed per matching session and never persisted by the engine.
type ExamRequest struct {
	Subject             string    `json:"subject"`
	Date                time.Time `json:"date"`
	StartTime           string    `json:"startTime"` // "HH:MM", 24h
	DurationMinutes     int       `json:"durationMinutes"`
	ExamType            string    `json:"examType,omitempty"`
	Venue               string    `json:"venue,omitempty"`
	SpecialRequirements []string  `json:"specialRequirements,omitempty"`
}
