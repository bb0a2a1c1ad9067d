package clustering

import (
	"errors"
	"fmt"
)

// ErrEmptyInput is returned when there is nothing to cluster
var ErrEmptyInput = errors.New("no points to cluster")

// ErrInvalidTopology is returned for an unusable map configuration
type ErrInvalidTopology struct {
	Field  string
	Reason string
}

func (e *ErrInvalidTopology) Error() string {
	return fmt.Sprintf("invalid topology config: %s %s", e.Field, e.Reason)
}
