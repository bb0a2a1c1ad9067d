package models

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// CoordinateValue is a latitude or longitude read from loosely typed input. Decoding never
// fails on a bad value; Valid is false instead so the record can be filtered and counted.
type CoordinateValue struct {
	Value float64
	Valid bool
}

// Coordinate returns a valid CoordinateValue
func Coordinate(v float64) CoordinateValue {
	return CoordinateValue{Value: v, Valid: isFinite(v)}
}

// ParseCoordinate parses a textual coordinate. Empty and non-numeric input is invalid.
func ParseCoordinate(s string) CoordinateValue {
	s = strings.TrimSpace(s)
	if s == "" {
		return CoordinateValue{}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return CoordinateValue{}
	}
	return Coordinate(v)
}

func (c *CoordinateValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*c = CoordinateValue{}
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			*c = CoordinateValue{}
			return nil
		}
		*c = ParseCoordinate(s)
		return nil
	}
	*c = ParseCoordinate(string(data))
	return nil
}

func (c CoordinateValue) MarshalJSON() ([]byte, error) {
	if !c.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(c.Value)
}

func (c *CoordinateValue) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode || node.Tag == "!!null" {
		*c = CoordinateValue{}
		return nil
	}
	*c = ParseCoordinate(node.Value)
	return nil
}

func (c CoordinateValue) MarshalYAML() (interface{}, error) {
	if !c.Valid {
		return nil, nil
	}
	return c.Value, nil
}

// RoundCoordinate rounds to 5 decimal places (~1m), the precision used for cache keys
func RoundCoordinate(v float64) float64 {
	return math.Round(v*100000) / 100000
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func validLatitude(v float64) bool {
	return isFinite(v) && v >= -90 && v <= 90
}

func validLongitude(v float64) bool {
	return isFinite(v) && v >= -180 && v <= 180
}
