package routing

import (
	"staff-ride-router/internal/distance"
	"staff-ride-router/internal/models"
)

// BuildRoutes partitions one cluster into routes of minPassengers..maxPassengers stops.
// Each route is seeded with the member farthest from the destination and grown by
// nearest neighbour from the last stop. Ties go to the member earliest in the pool.
// Members that cannot fill another route are returned as leftovers in input order.
func BuildRoutes(clusterID int, members []models.StaffLocation, destination models.Coordinates, minPassengers, maxPassengers int) ([]models.Route, []models.StaffLocation) {
	pool := append([]models.StaffLocation(nil), members...)
	var routes []models.Route

	for len(pool) >= minPassengers && len(pool) > 0 {
		seed := 0
		seedDist := -1.0
		for i := range pool {
			d := distance.GeodesicKm(pool[i].GetCoords(), destination)
			if d > seedDist {
				seed = i
				seedDist = d
			}
		}

		stops := []models.StaffLocation{pool[seed]}
		pool = removeAt(pool, seed)

		for len(stops) < maxPassengers && len(pool) > 0 {
			last := stops[len(stops)-1].GetCoords()
			next := 0
			nextDist := distance.GeodesicKm(last, pool[0].GetCoords())
			for i := 1; i < len(pool); i++ {
				d := distance.GeodesicKm(last, pool[i].GetCoords())
				if d < nextDist {
					next = i
					nextDist = d
				}
			}
			stops = append(stops, pool[next])
			pool = removeAt(pool, next)
		}

		if len(stops) < minPassengers {
			pool = restore(members, pool, stops)
			break
		}

		route := models.Route{ClusterID: clusterID, Stops: make([]models.RouteStop, len(stops))}
		for i := range stops {
			route.Stops[i] = models.RouteStop{Order: i, Staff: stops[i]}
		}
		routes = append(routes, route)
	}

	return routes, pool
}

func removeAt(s []models.StaffLocation, i int) []models.StaffLocation {
	out := make([]models.StaffLocation, 0, len(s)-1)
	out = append(out, s[:i]...)
	return append(out, s[i+1:]...)
}

// restore returns pool plus the abandoned stops, in the original member order
func restore(members, pool, abandoned []models.StaffLocation) []models.StaffLocation {
	keep := make(map[int64]bool, len(pool)+len(abandoned))
	for _, s := range pool {
		keep[s.ID] = true
	}
	for _, s := range abandoned {
		keep[s.ID] = true
	}
	out := make([]models.StaffLocation, 0, len(keep))
	for _, s := range members {
		if keep[s.ID] {
			out = append(out, s)
		}
	}
	return out
}
