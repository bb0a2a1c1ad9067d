package clustering

import (
	"github.com/paulmach/orb"

	"staff-ride-router/internal/models"
)

// Vector is a normalized (lat, lng) pair in [0,1]
type Vector [2]float64

// Normalize rescales each axis to [0,1] using the batch's own bounds. An axis with no
// spread maps to 0 for every point.
func Normalize(points []models.Coordinates) []Vector {
	if len(points) == 0 {
		return nil
	}

	mp := make(orb.MultiPoint, len(points))
	for i, p := range points {
		mp[i] = p.Point()
	}
	bound := mp.Bound()

	latSpan := bound.Max.Lat() - bound.Min.Lat()
	lngSpan := bound.Max.Lon() - bound.Min.Lon()

	out := make([]Vector, len(points))
	for i, p := range points {
		var v Vector
		if latSpan > 0 {
			v[0] = (p.Lat - bound.Min.Lat()) / latSpan
		}
		if lngSpan > 0 {
			v[1] = (p.Lng - bound.Min.Lon()) / lngSpan
		}
		out[i] = v
	}
	return out
}
