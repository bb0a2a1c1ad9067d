package routing

import (
	"fmt"
	"math"

	"staff-ride-router/internal/clustering"
	"staff-ride-router/internal/models"
)

// Config holds the parameters of one optimizer run. It is read-only during the run.
type Config struct {
	GridSize      int                `json:"grid_size" yaml:"grid_size"`
	Sigma         float64            `json:"sigma" yaml:"sigma"`
	LearningRate  float64            `json:"learning_rate" yaml:"learning_rate"`
	Epochs        int                `json:"epochs" yaml:"epochs"`
	MinPassengers int                `json:"min_passengers" yaml:"min_passengers"`
	MaxPassengers int                `json:"max_passengers" yaml:"max_passengers"`
	CostPerKm     float64            `json:"cost_per_km" yaml:"cost_per_km"`
	Destination   models.Coordinates `json:"destination" yaml:"destination"`
	Seed          uint64             `json:"seed" yaml:"seed"`
	// Workers > 1 builds clusters concurrently; output is identical to a sequential run
	Workers int `json:"workers" yaml:"workers"`
}

// DefaultConfig returns the stock parameters
func DefaultConfig() Config {
	s := models.DefaultSettings()
	return ConfigFromSettings(&s)
}

// ConfigFromSettings builds a run config from stored settings
func ConfigFromSettings(s *models.Settings) Config {
	return Config{
		GridSize:      s.GridSize,
		Sigma:         s.Sigma,
		LearningRate:  s.LearningRate,
		Epochs:        s.Epochs,
		MinPassengers: s.MinPassengers,
		MaxPassengers: s.MaxPassengers,
		CostPerKm:     s.CostPerKm,
		Destination:   s.GetCoords(),
		Seed:          s.Seed,
	}
}

// ApplyTo copies the run parameters onto settings, keeping the destination name
func (c Config) ApplyTo(s *models.Settings) {
	s.GridSize = c.GridSize
	s.Sigma = c.Sigma
	s.LearningRate = c.LearningRate
	s.Epochs = c.Epochs
	s.MinPassengers = c.MinPassengers
	s.MaxPassengers = c.MaxPassengers
	s.CostPerKm = c.CostPerKm
	s.DestinationLat = c.Destination.Lat
	s.DestinationLng = c.Destination.Lng
	s.Seed = c.Seed
}

// Validate returns a *ConfigurationError naming the first invalid field
func (c Config) Validate() error {
	switch {
	case c.GridSize < 1:
		return &ConfigurationError{Field: "grid_size", Reason: "must be at least 1"}
	case c.GridSize > clustering.MaxGridSize:
		return &ConfigurationError{Field: "grid_size", Reason: fmt.Sprintf("must not exceed %d", clustering.MaxGridSize)}
	case !(c.Sigma > 0) || math.IsInf(c.Sigma, 0):
		return &ConfigurationError{Field: "sigma", Reason: "must be a positive number"}
	case !(c.LearningRate > 0 && c.LearningRate <= 1):
		return &ConfigurationError{Field: "learning_rate", Reason: "must be in (0, 1]"}
	case c.Epochs < 0:
		return &ConfigurationError{Field: "epochs", Reason: "must not be negative"}
	case c.MinPassengers < 1:
		return &ConfigurationError{Field: "min_passengers", Reason: "must be at least 1"}
	case c.MaxPassengers < c.MinPassengers:
		return &ConfigurationError{Field: "max_passengers", Reason: "must not be less than min_passengers"}
	case !(c.CostPerKm >= 0) || math.IsInf(c.CostPerKm, 0):
		return &ConfigurationError{Field: "cost_per_km", Reason: "must be a non-negative number"}
	case !c.Destination.Valid():
		return &ConfigurationError{Field: "destination", Reason: "must be a valid latitude/longitude"}
	case c.Workers < 0:
		return &ConfigurationError{Field: "workers", Reason: "must not be negative"}
	}
	return nil
}
