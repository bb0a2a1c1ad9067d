package routing

import (
	"math"

	"staff-ride-router/internal/distance"
	"staff-ride-router/internal/models"
)

// Score returns the total great-circle distance of visiting stops in order and then the
// destination, and its cost at costPerKm. An empty route scores zero.
func Score(stops []models.StaffLocation, destination models.Coordinates, costPerKm float64) (float64, float64, error) {
	if len(stops) == 0 {
		return 0, 0, nil
	}
	if !finite(destination) {
		return 0, 0, ErrInvalidCoordinates
	}

	var total float64
	for i := range stops {
		if !finite(stops[i].GetCoords()) {
			return 0, 0, ErrInvalidCoordinates
		}
		if i > 0 {
			total += distance.GeodesicKm(stops[i-1].GetCoords(), stops[i].GetCoords())
		}
	}
	total += distance.GeodesicKm(stops[len(stops)-1].GetCoords(), destination)

	return total, total * costPerKm, nil
}

// scoreRoute fills leg distances, totals and cost on a route
func scoreRoute(route *models.Route, destination models.Coordinates, costPerKm float64) error {
	staff := make([]models.StaffLocation, len(route.Stops))
	for i := range route.Stops {
		staff[i] = route.Stops[i].Staff
	}

	total, cost, err := Score(staff, destination, costPerKm)
	if err != nil {
		return err
	}

	var cumulative float64
	for i := range route.Stops {
		var leg float64
		if i > 0 {
			leg = distance.GeodesicKm(staff[i-1].GetCoords(), staff[i].GetCoords())
		}
		cumulative += leg
		route.Stops[i].Order = i
		route.Stops[i].DistanceFromPrevKm = leg
		route.Stops[i].CumulativeKm = cumulative
	}

	route.FinalLegKm = 0
	if len(staff) > 0 {
		route.FinalLegKm = distance.GeodesicKm(staff[len(staff)-1].GetCoords(), destination)
	}
	route.DistanceKm = total
	route.Cost = cost
	return nil
}

func finite(c models.Coordinates) bool {
	return !math.IsNaN(c.Lat) && !math.IsNaN(c.Lng) && !math.IsInf(c.Lat, 0) && !math.IsInf(c.Lng, 0)
}
