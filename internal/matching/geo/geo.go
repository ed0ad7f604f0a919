// internal/matching/geo/geo.go
package geo

import (
	"math"

	"scribematch/internal/models"
)

const (
	earthRadiusKm = 6371.0

	// averageSpeedKmh is a fixed urban travel estimate. Travel time
	// here is a display approximation, not a traffic-aware ETA.
	averageSpeedKmh = 30.0
)

// DistanceKm returns the haversine great-circle distance between two
// coordinates in kilometers. Symmetric and total over valid lat/lon.
func DistanceKm(a, b models.Coordinate) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)

	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// TravelTimeMinutes estimates door-to-door travel time for a distance
// at the fixed urban speed, rounded to the nearest minute.
func TravelTimeMinutes(distanceKm float64) int {
	return int(math.Round(distanceKm / averageSpeedKmh * 60))
}
