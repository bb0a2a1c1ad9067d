package distance

import (
	"github.com/paulmach/orb/geo"

	"staff-ride-router/internal/models"
)

// MetersPerKilometer converts orb's metre output to the kilometres used for costing
const MetersPerKilometer = 1000.0

// GeodesicKm returns the great-circle distance between two points in kilometres
func GeodesicKm(a, b models.Coordinates) float64 {
	return geo.DistanceHaversine(a.Point(), b.Point()) / MetersPerKilometer
}
