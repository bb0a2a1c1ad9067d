package routing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staff-ride-router/internal/models"
)

// one degree of arc on orb's sphere (radius 6378137m), in km
var degreeKm = 6378.137 * math.Pi / 180

func TestScoreEmptyRoute(t *testing.T) {
	d, c, err := Score(nil, models.Coordinates{}, 2.5)

	require.NoError(t, err)
	assert.Equal(t, 0.0, d)
	assert.Equal(t, 0.0, c)
}

func TestScoreTwoStopsPlusFinalLeg(t *testing.T) {
	stops := []models.StaffLocation{
		{ID: 1, Lat: 0, Lng: 0},
		{ID: 2, Lat: 0, Lng: 1},
	}
	dest := models.Coordinates{Lat: 0, Lng: 2}

	d, c, err := Score(stops, dest, 2.5)

	require.NoError(t, err)
	assert.InDelta(t, 2*degreeKm, d, 1e-9)
	assert.InDelta(t, 2*degreeKm*2.5, c, 1e-9)
}

func TestScoreSingleStopIsFinalLegOnly(t *testing.T) {
	d, _, err := Score([]models.StaffLocation{{Lat: 1, Lng: 0}}, models.Coordinates{}, 1)

	require.NoError(t, err)
	assert.InDelta(t, degreeKm, d, 1e-9)
}

func TestScoreDependsOnOrderThroughDestination(t *testing.T) {
	a := models.StaffLocation{ID: 1, Lat: 0, Lng: 0}
	b := models.StaffLocation{ID: 2, Lat: 0, Lng: 1}
	dest := models.Coordinates{Lat: 0, Lng: 2}

	fwd, _, err := Score([]models.StaffLocation{a, b}, dest, 1)
	require.NoError(t, err)
	rev, _, err := Score([]models.StaffLocation{b, a}, dest, 1)
	require.NoError(t, err)

	assert.InDelta(t, 2*degreeKm, fwd, 1e-9)
	assert.InDelta(t, 3*degreeKm, rev, 1e-9)
}

func TestScoreZeroRate(t *testing.T) {
	d, c, err := Score([]models.StaffLocation{{Lat: 0, Lng: 1}}, models.Coordinates{}, 0)

	require.NoError(t, err)
	assert.Greater(t, d, 0.0)
	assert.Equal(t, 0.0, c)
}

func TestScoreRejectsNonFiniteCoordinates(t *testing.T) {
	_, _, err := Score([]models.StaffLocation{{Lat: math.NaN(), Lng: 0}}, models.Coordinates{}, 1)
	assert.ErrorIs(t, err, ErrInvalidCoordinates)

	_, _, err = Score([]models.StaffLocation{{Lat: 0, Lng: 0}}, models.Coordinates{Lat: math.Inf(1)}, 1)
	assert.ErrorIs(t, err, ErrInvalidCoordinates)
}

func TestScoreRouteFillsLegs(t *testing.T) {
	route := models.Route{Stops: []models.RouteStop{
		{Staff: models.StaffLocation{ID: 1, Lat: 0, Lng: 0}},
		{Staff: models.StaffLocation{ID: 2, Lat: 0, Lng: 1}},
	}}

	require.NoError(t, scoreRoute(&route, models.Coordinates{Lat: 0, Lng: 2}, 2))

	assert.Equal(t, 0.0, route.Stops[0].DistanceFromPrevKm)
	assert.InDelta(t, degreeKm, route.Stops[1].DistanceFromPrevKm, 1e-9)
	assert.InDelta(t, degreeKm, route.Stops[1].CumulativeKm, 1e-9)
	assert.Equal(t, 1, route.Stops[1].Order)
	assert.InDelta(t, degreeKm, route.FinalLegKm, 1e-9)
	assert.InDelta(t, 2*degreeKm, route.DistanceKm, 1e-9)
	assert.InDelta(t, route.DistanceKm*2, route.Cost, 1e-9)
}
