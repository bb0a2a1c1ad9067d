package routing

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"staff-ride-router/internal/distance"
	"staff-ride-router/internal/models"
)

// EnrichWithDirections attaches road directions to every route of a finished result.
// Lookups that fail leave Directions nil and add a warning; the geodesic distances and
// costs are never changed. Returns the number of routes enriched.
func EnrichWithDirections(ctx context.Context, provider distance.DirectionsProvider, result *models.OptimizationResult) int {
	if provider == nil || result == nil {
		return 0
	}

	enriched := 0
	for i := range result.Routes {
		r := &result.Routes[i]
		if len(r.Stops) == 0 {
			continue
		}

		waypoints := make([]models.Coordinates, 0, len(r.Stops)+1)
		for _, s := range r.Stops {
			waypoints = append(waypoints, s.Staff.GetCoords())
		}
		waypoints = append(waypoints, result.Destination)

		dir, err := provider.GetRoute(ctx, waypoints)
		if err != nil {
			log.Warn().Str("component", "routing").Str("route", r.Name).Err(err).Msg("directions unavailable")
			result.Warnings = append(result.Warnings, fmt.Sprintf("directions unavailable for %s", r.Name))
			continue
		}
		r.Directions = dir
		enriched++
	}

	log.Debug().Str("component", "routing").Int("routes", len(result.Routes)).Int("enriched", enriched).Msg("directions applied")
	return enriched
}
