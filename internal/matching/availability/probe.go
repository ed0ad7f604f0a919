// internal/matching/availability/probe.go
package availability

import (
	"context"
	"time"

	"scribematch/internal/models"
)

// Probe answers whether a scribe is free for a given exam slot and,
// when not, when they next open up. Implementations sit on the booking
// calendar; the matching engine only depends on this contract.
type Probe interface {
	IsAvailable(ctx context.Context, scribe models.ScribeProfile, date time.Time, startTime string) (bool, error)
	// NextAvailableSlot is consulted only after IsAvailable returned
	// false. A nil time with nil error means no opening was found
	// within the probe's horizon.
	NextAvailableSlot(ctx context.Context, scribe models.ScribeProfile, from time.Time) (*time.Time, error)
}
