package clustering

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staff-ride-router/internal/models"
)

func TestNormalizeScalesEachAxis(t *testing.T) {
	points := []models.Coordinates{
		{Lat: 5.5, Lng: -0.2},
		{Lat: 5.6, Lng: -0.1},
		{Lat: 5.55, Lng: -0.15},
	}

	out := Normalize(points)

	require.Len(t, out, 3)
	assert.Equal(t, Vector{0, 0}, out[0])
	assert.Equal(t, Vector{1, 1}, out[1])
	assert.InDelta(t, 0.5, out[2][0], 1e-9)
	assert.InDelta(t, 0.5, out[2][1], 1e-9)
}

func TestNormalizeConstantAxisIsZero(t *testing.T) {
	points := []models.Coordinates{
		{Lat: 5.5, Lng: -0.2},
		{Lat: 5.5, Lng: -0.1},
	}

	out := Normalize(points)

	assert.Equal(t, 0.0, out[0][0])
	assert.Equal(t, 0.0, out[1][0])
	assert.Equal(t, 1.0, out[1][1])
}

func TestNormalizeSinglePoint(t *testing.T) {
	out := Normalize([]models.Coordinates{{Lat: 1, Lng: 2}})

	assert.Equal(t, []Vector{{0, 0}}, out)
}

func TestNormalizeEmpty(t *testing.T) {
	assert.Nil(t, Normalize(nil))
}
