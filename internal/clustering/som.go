package clustering

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/rs/zerolog/log"

	"staff-ride-router/internal/models"
)

// MaxGridSize bounds the map side; larger grids cannot be allocated sensibly
const MaxGridSize = 1000

// TopologyConfig configures a self-organizing map
type TopologyConfig struct {
	GridSize     int
	Sigma        float64
	LearningRate float64
	Epochs       int
	Seed         uint64
}

// Assignment maps staff id to cluster id
type Assignment map[int64]int

// TopologyMap is a square self-organizing map over normalized 2-D points. A map is
// trained once and then discarded; it is not safe for concurrent use.
type TopologyMap struct {
	cfg     TopologyConfig
	weights []Vector // row-major, GridSize*GridSize
}

// NewTopologyMap validates cfg and seeds the prototype grid uniformly in [0,1)
func NewTopologyMap(cfg TopologyConfig) (*TopologyMap, error) {
	switch {
	case cfg.GridSize < 1:
		return nil, &ErrInvalidTopology{Field: "grid_size", Reason: "must be at least 1"}
	case cfg.GridSize > MaxGridSize:
		return nil, &ErrInvalidTopology{Field: "grid_size", Reason: fmt.Sprintf("must not exceed %d", MaxGridSize)}
	case !(cfg.Sigma > 0) || math.IsInf(cfg.Sigma, 0):
		return nil, &ErrInvalidTopology{Field: "sigma", Reason: "must be a positive number"}
	case !(cfg.LearningRate > 0 && cfg.LearningRate <= 1):
		return nil, &ErrInvalidTopology{Field: "learning_rate", Reason: "must be in (0, 1]"}
	case cfg.Epochs < 0:
		return nil, &ErrInvalidTopology{Field: "epochs", Reason: "must not be negative"}
	}

	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))
	weights := make([]Vector, cfg.GridSize*cfg.GridSize)
	for i := range weights {
		weights[i] = Vector{rng.Float64(), rng.Float64()}
	}

	return &TopologyMap{cfg: cfg, weights: weights}, nil
}

// Train runs the configured number of epochs over points. Radius and learning rate decay
// linearly towards zero.
func (m *TopologyMap) Train(ctx context.Context, points []Vector) error {
	if len(points) == 0 {
		return ErrEmptyInput
	}

	n := m.cfg.GridSize
	epochs := float64(m.cfg.Epochs)
	for e := 0; e < m.cfg.Epochs; e++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		decay := 1 - float64(e)/epochs
		sigma := m.cfg.Sigma * decay
		eta := m.cfg.LearningRate * decay
		twoSigmaSq := 2 * sigma * sigma

		for _, x := range points {
			w := m.Winner(x)
			wr, wc := w/n, w%n
			for i := 0; i < n; i++ {
				for j := 0; j < n; j++ {
					di, dj := float64(i-wr), float64(j-wc)
					h := math.Exp(-(di*di + dj*dj) / twoSigmaSq)
					p := &m.weights[i*n+j]
					p[0] += eta * h * (x[0] - p[0])
					p[1] += eta * h * (x[1] - p[1])
				}
			}
		}
	}

	log.Debug().Str("component", "som").Int("grid", n).Int("epochs", m.cfg.Epochs).Int("points", len(points)).Msg("training complete")
	return nil
}

// Winner returns the flattened index (row*GridSize+col) of the prototype nearest to x.
// The row-major scan keeps the first minimum.
func (m *TopologyMap) Winner(x Vector) int {
	best := 0
	bestDist := math.Inf(1)
	for i, w := range m.weights {
		d0, d1 := x[0]-w[0], x[1]-w[1]
		d := d0*d0 + d1*d1
		if d < bestDist {
			best = i
			bestDist = d
		}
	}
	return best
}

// Weights returns a copy of the prototype grid
func (m *TopologyMap) Weights() []Vector {
	return append([]Vector(nil), m.weights...)
}

// Assign normalizes the staff coordinates, trains the map and returns a fresh staff id to
// cluster id mapping. Staff are never modified.
func (m *TopologyMap) Assign(ctx context.Context, staff []models.StaffLocation) (Assignment, error) {
	if len(staff) == 0 {
		return nil, ErrEmptyInput
	}

	coords := make([]models.Coordinates, len(staff))
	for i := range staff {
		coords[i] = staff[i].GetCoords()
	}
	points := Normalize(coords)

	if err := m.Train(ctx, points); err != nil {
		return nil, err
	}

	assignment := make(Assignment, len(staff))
	for i, p := range points {
		assignment[staff[i].ID] = m.Winner(p)
	}
	return assignment, nil
}
