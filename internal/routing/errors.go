package routing

import (
	"errors"
	"fmt"
)

// ErrInvalidCoordinates is returned by the scorer when a stop or the destination is not a
// finite coordinate
var ErrInvalidCoordinates = errors.New("invalid coordinates")

// ConfigurationError is returned for an invalid optimizer parameter or an empty roster.
// It is fatal to the run and no partial result is produced.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s %s", e.Field, e.Reason)
}

// DataQualityError describes an input record excluded before clustering
type DataQualityError struct {
	StaffID int64
	Name    string
	Reason  string
}

func (e *DataQualityError) Error() string {
	return fmt.Sprintf("staff %d excluded: %s", e.StaffID, e.Reason)
}

// ErrRoutingFailed is returned when routes for one cluster could not be built
type ErrRoutingFailed struct {
	ClusterID int
	Members   int
	Reason    string
}

func (e *ErrRoutingFailed) Error() string {
	return fmt.Sprintf("routing failed for cluster %d: %s", e.ClusterID, e.Reason)
}
