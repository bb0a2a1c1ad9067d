package clustering

import (
	"math"
	"sort"

	"github.com/rs/zerolog/log"

	"staff-ride-router/internal/distance"
	"staff-ride-router/internal/models"
)

// Balance moves every member of a cluster smaller than minPassengers into the non-small
// cluster with the lowest mean great-circle distance to that member. Cluster sizes and
// memberships are taken from assign, so each member is decided independently of the
// others being moved. Ties go to the smallest cluster id. When no non-small cluster
// exists the member keeps its cluster. The input assignment is not modified.
func Balance(staff []models.StaffLocation, assign Assignment, minPassengers int) Assignment {
	out := make(Assignment, len(assign))
	for id, c := range assign {
		out[id] = c
	}

	clusters := Group(staff, assign)

	var targets, small []models.Cluster
	for _, c := range clusters {
		if len(c.Members) < minPassengers {
			small = append(small, c)
		} else {
			targets = append(targets, c)
		}
	}

	if len(small) == 0 {
		return out
	}
	if len(targets) == 0 {
		log.Debug().Str("component", "balancer").Int("small_clusters", len(small)).Msg("no cluster large enough to merge into")
		return out
	}

	moved := 0
	for _, c := range small {
		for i := range c.Members {
			m := &c.Members[i]
			best := -1
			bestMean := math.Inf(1)
			for _, t := range targets {
				mean := meanDistanceKm(m.GetCoords(), t.Members)
				if mean < bestMean {
					best = t.ID
					bestMean = mean
				}
			}
			if best >= 0 {
				out[m.ID] = best
				moved++
			}
		}
	}

	log.Debug().Str("component", "balancer").Int("small_clusters", len(small)).Int("moved", moved).Msg("clusters balanced")
	return out
}

// Group returns clusters in ascending id order with members in input order. Staff missing
// from assign are skipped.
func Group(staff []models.StaffLocation, assign Assignment) []models.Cluster {
	byID := make(map[int]*models.Cluster)
	var ids []int
	for _, s := range staff {
		cid, ok := assign[s.ID]
		if !ok {
			continue
		}
		c, ok := byID[cid]
		if !ok {
			c = &models.Cluster{ID: cid}
			byID[cid] = c
			ids = append(ids, cid)
		}
		c.Members = append(c.Members, s)
	}

	sort.Ints(ids)
	out := make([]models.Cluster, len(ids))
	for i, id := range ids {
		out[i] = *byID[id]
	}
	return out
}

func meanDistanceKm(p models.Coordinates, members []models.StaffLocation) float64 {
	if len(members) == 0 {
		return math.Inf(1)
	}
	var sum float64
	for i := range members {
		sum += distance.GeodesicKm(p, members[i].GetCoords())
	}
	return sum / float64(len(members))
}
