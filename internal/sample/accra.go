// Package sample generates demonstration rosters
package sample

import (
	"fmt"
	"math/rand/v2"

	"staff-ride-router/internal/models"
)

// Accra bounding box used for generated staff
const (
	MinLat = 5.5526
	MaxLat = 5.6126
	MinLng = -0.1735
	MaxLng = -0.1135
)

// Neighbourhoods are assigned to generated staff in order, wrapping around
var Neighbourhoods = []string{
	"Adabraka", "Osu", "Cantonments", "Airport Residential",
	"East Legon", "Spintex", "Tema", "Teshie", "Labadi",
	"Labone", "Ridge", "Roman Ridge", "Dzorwulu", "Abelemkpe",
	"North Kaneshie", "Dansoman", "Mamprobi", "Chorkor",
	"Abeka", "Achimota",
}

// DefaultSize is the roster size used when none is given
const DefaultSize = 20

// Accra returns n staff records uniformly placed in the Accra box. Ids run from 1 to n
// and the same seed always gives the same roster.
func Accra(n int, seed uint64) []models.StaffRecord {
	if n <= 0 {
		return []models.StaffRecord{}
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x5bd1e995))
	records := make([]models.StaffRecord, n)
	for i := range records {
		records[i] = models.StaffRecord{
			ID:        int64(i + 1),
			Name:      fmt.Sprintf("Employee %d", i+1),
			Address:   Neighbourhoods[i%len(Neighbourhoods)],
			Latitude:  models.Coordinate(MinLat + rng.Float64()*(MaxLat-MinLat)),
			Longitude: models.Coordinate(MinLng + rng.Float64()*(MaxLng-MinLng)),
		}
	}
	return records
}
