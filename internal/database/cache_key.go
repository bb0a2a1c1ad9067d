package database

import (
	"fmt"
	"strings"

	"staff-ride-router/internal/models"
)

// DirectionsCacheKey builds the lookup key for an ordered waypoint list. Coordinates are
// rounded to 5 decimal places (~1m) so tiny float differences share an entry.
func DirectionsCacheKey(waypoints []models.Coordinates) string {
	parts := make([]string, len(waypoints))
	for i, w := range waypoints {
		parts[i] = fmt.Sprintf("%.5f,%.5f", models.RoundCoordinate(w.Lat), models.RoundCoordinate(w.Lng))
	}
	return strings.Join(parts, ";")
}
