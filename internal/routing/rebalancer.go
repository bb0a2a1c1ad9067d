package routing

import (
	"fmt"
	"math"

	"staff-ride-router/internal/models"
)

// Leftover is a staff member the builder could not place, with the cluster it came from
type Leftover struct {
	Staff     models.StaffLocation
	ClusterID int
	// Undersized marks members of a cluster that stayed below the minimum after balancing
	Undersized bool
}

// Rebalance appends each leftover, in order, to the route whose total distance grows the
// least, among routes with fewer than maxPassengers stops. The first route wins ties.
// Leftovers with no capacity anywhere are returned as unassigned. Routes are modified in
// place; the added stops are counted in Route.Rebalanced.
func Rebalance(routes []models.Route, leftovers []Leftover, destination models.Coordinates, maxPassengers int) ([]models.UnassignedStaff, error) {
	var unassigned []models.UnassignedStaff

	for _, lo := range leftovers {
		best := -1
		bestDelta := math.Inf(1)

		for i := range routes {
			if len(routes[i].Stops) >= maxPassengers {
				continue
			}
			stops := routeStaff(&routes[i])
			before, _, err := Score(stops, destination, 0)
			if err != nil {
				return nil, fmt.Errorf("failed to score route %d: %w", i, err)
			}
			after, _, err := Score(append(stops, lo.Staff), destination, 0)
			if err != nil {
				return nil, fmt.Errorf("failed to score staff %d: %w", lo.Staff.ID, err)
			}
			if delta := after - before; delta < bestDelta {
				best = i
				bestDelta = delta
			}
		}

		if best < 0 {
			reason := models.ReasonNoRouteCapacity
			if lo.Undersized {
				reason = models.ReasonUndersizedCluster
			}
			unassigned = append(unassigned, models.UnassignedStaff{
				StaffID:   lo.Staff.ID,
				Name:      lo.Staff.Name,
				ClusterID: lo.ClusterID,
				Reason:    reason,
			})
			continue
		}

		r := &routes[best]
		r.Stops = append(r.Stops, models.RouteStop{Order: len(r.Stops), Staff: lo.Staff})
		r.Rebalanced++
	}

	return unassigned, nil
}

func routeStaff(r *models.Route) []models.StaffLocation {
	staff := make([]models.StaffLocation, len(r.Stops), len(r.Stops)+1)
	for i := range r.Stops {
		staff[i] = r.Stops[i].Staff
	}
	return staff
}
