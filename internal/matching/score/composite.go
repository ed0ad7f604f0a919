// internal/matching/score/composite.go
package score

import (
	"math"

	"scribematch/internal/models"
)

// Weights assigns each factor its share of the composite score. The
// shares are expected to sum to 1; Normalize rescales when they don't.
type Weights struct {
	Subject      float64 `mapstructure:"subject"`
	Language     float64 `mapstructure:"language"`
	Experience   float64 `mapstructure:"experience"`
	Rating       float64 `mapstructure:"rating"`
	Location     float64 `mapstructure:"location"`
	Availability float64 `mapstructure:"availability"`
}

// DefaultWeights favors subject coverage and proximity, with
// availability as a smaller nudge since it is filtered on separately.
func DefaultWeights() Weights {
	return Weights{
		Subject:      0.25,
		Language:     0.15,
		Experience:   0.15,
		Rating:       0.15,
		Location:     0.20,
		Availability: 0.10,
	}
}

func (w Weights) sum() float64 {
	return w.Subject + w.Language + w.Experience + w.Rating + w.Location + w.Availability
}

// Normalize returns weights rescaled to sum to 1. Non-positive sums
// fall back to the defaults so a bad config cannot zero out scoring.
func (w Weights) Normalize() Weights {
	s := w.sum()
	if s <= 0 {
		return DefaultWeights()
	}
	return Weights{
		Subject:      w.Subject / s,
		Language:     w.Language / s,
		Experience:   w.Experience / s,
		Rating:       w.Rating / s,
		Location:     w.Location / s,
		Availability: w.Availability / s,
	}
}

// Composite collapses a factor vector into the single headline score.
// It is the only scoring path: the breakdown shown to users and the
// score they are ranked by always come from the same vector.
func Composite(f models.MatchFactors, w Weights) float64 {
	w = w.Normalize()
	s := f.Subject*w.Subject +
		f.Language*w.Language +
		f.Experience*w.Experience +
		f.Rating*w.Rating +
		f.Location*w.Location +
		f.Availability*w.Availability
	return math.Min(math.Max(s, 0), 100)
}
