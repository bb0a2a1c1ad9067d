package testutil

import (
	"fmt"
	"math/rand/v2"

	"staff-ride-router/internal/models"
)

// Office is the default destination used across tests
var Office = models.Coordinates{Lat: 5.582636441579255, Lng: -0.143551646497661}

// StaffLine returns n staff spaced step degrees apart along a meridian north of origin.
// Ids start at 1 and names are "Staff N".
func StaffLine(origin models.Coordinates, n int, step float64) []models.StaffLocation {
	staff := make([]models.StaffLocation, n)
	for i := 0; i < n; i++ {
		staff[i] = models.StaffLocation{
			ID:   int64(i + 1),
			Name: fmt.Sprintf("Staff %d", i+1),
			Lat:  origin.Lat + float64(i+1)*step,
			Lng:  origin.Lng,
		}
	}
	return staff
}

// StaffGrid returns rows×cols staff on a regular grid starting at origin
func StaffGrid(origin models.Coordinates, rows, cols int, step float64) []models.StaffLocation {
	staff := make([]models.StaffLocation, 0, rows*cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			id := int64(len(staff) + 1)
			staff = append(staff, models.StaffLocation{
				ID:   id,
				Name: fmt.Sprintf("Staff %d", id),
				Lat:  origin.Lat + float64(r)*step,
				Lng:  origin.Lng + float64(c)*step,
			})
		}
	}
	return staff
}

// Records converts validated locations into raw input records
func Records(staff []models.StaffLocation) []models.StaffRecord {
	records := make([]models.StaffRecord, len(staff))
	for i := range staff {
		records[i] = staff[i].Record()
	}
	return records
}

// RandomStaff returns n staff scattered uniformly in a box of +/- spread degrees around
// center. The same seed always yields the same roster.
func RandomStaff(center models.Coordinates, n int, spread float64, seed uint64) []models.StaffLocation {
	rng := rand.New(rand.NewPCG(seed, seed+1))
	staff := make([]models.StaffLocation, n)
	for i := range staff {
		staff[i] = models.StaffLocation{
			ID:   int64(i + 1),
			Name: fmt.Sprintf("Staff %d", i+1),
			Lat:  center.Lat + (rng.Float64()*2-1)*spread,
			Lng:  center.Lng + (rng.Float64()*2-1)*spread,
		}
	}
	return staff
}
