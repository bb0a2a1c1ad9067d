package models

import (
	"time"

	"github.com/paulmach/orb"
)

// Coordinates represents a geographic point
type Coordinates struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lng float64 `json:"lng" yaml:"lng"`
}

// Point returns the coordinates as an orb point (lng, lat order)
func (c Coordinates) Point() orb.Point {
	return orb.Point{c.Lng, c.Lat}
}

// Valid reports whether both components are finite and within WGS84 range
func (c Coordinates) Valid() bool {
	return validLatitude(c.Lat) && validLongitude(c.Lng)
}

// StaffRecord is a raw roster entry as received from a caller. Coordinates may be
// missing or malformed; the optimizer filters those records out.
type StaffRecord struct {
	ID        int64           `json:"staff_id" yaml:"staff_id"`
	Name      string          `json:"name" yaml:"name"`
	Address   string          `json:"address" yaml:"address"`
	Latitude  CoordinateValue `json:"latitude" yaml:"latitude"`
	Longitude CoordinateValue `json:"longitude" yaml:"longitude"`
}

// Location validates the record and returns the staff location. ok is false when either
// coordinate is missing, non-numeric or out of range.
func (r StaffRecord) Location() (StaffLocation, bool) {
	if !r.Latitude.Valid || !r.Longitude.Valid {
		return StaffLocation{}, false
	}
	loc := StaffLocation{
		ID:      r.ID,
		Name:    r.Name,
		Address: r.Address,
		Lat:     r.Latitude.Value,
		Lng:     r.Longitude.Value,
	}
	if !loc.GetCoords().Valid() {
		return StaffLocation{}, false
	}
	return loc, true
}

// StaffLocation is a validated staff member position
type StaffLocation struct {
	ID      int64   `json:"staff_id"`
	Name    string  `json:"name"`
	Address string  `json:"address"`
	Lat     float64 `json:"latitude"`
	Lng     float64 `json:"longitude"`
}

// GetCoords returns the coordinates of the staff member
func (s *StaffLocation) GetCoords() Coordinates {
	return Coordinates{Lat: s.Lat, Lng: s.Lng}
}

// Record converts the location back into a roster record
func (s *StaffLocation) Record() StaffRecord {
	return StaffRecord{
		ID:        s.ID,
		Name:      s.Name,
		Address:   s.Address,
		Latitude:  Coordinate(s.Lat),
		Longitude: Coordinate(s.Lng),
	}
}

// StaffMember is a persisted roster entry
type StaffMember struct {
	ID        int64     `json:"staff_id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	Lat       float64   `json:"latitude"`
	Lng       float64   `json:"longitude"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GetCoords returns the coordinates of the staff member
func (m *StaffMember) GetCoords() Coordinates {
	return Coordinates{Lat: m.Lat, Lng: m.Lng}
}

// Record converts the stored member into an optimizer input record
func (m *StaffMember) Record() StaffRecord {
	return StaffRecord{
		ID:        m.ID,
		Name:      m.Name,
		Address:   m.Address,
		Latitude:  Coordinate(m.Lat),
		Longitude: Coordinate(m.Lng),
	}
}

// Settings holds the stored destination and default optimizer parameters
type Settings struct {
	DestinationName string  `json:"destination_name"`
	DestinationLat  float64 `json:"destination_lat"`
	DestinationLng  float64 `json:"destination_lng"`
	GridSize        int     `json:"grid_size"`
	Sigma           float64 `json:"sigma"`
	LearningRate    float64 `json:"learning_rate"`
	Epochs          int     `json:"epochs"`
	MinPassengers   int     `json:"min_passengers"`
	MaxPassengers   int     `json:"max_passengers"`
	CostPerKm       float64 `json:"cost_per_km"`
	Seed            uint64  `json:"seed"`
}

// GetCoords returns the destination coordinates
func (s *Settings) GetCoords() Coordinates {
	return Coordinates{Lat: s.DestinationLat, Lng: s.DestinationLng}
}

// Cluster groups staff sharing a cluster id. Members keep input order.
type Cluster struct {
	ID      int             `json:"id"`
	Members []StaffLocation `json:"members"`
}

// RouteStop represents a single pickup in a route
type RouteStop struct {
	Order              int           `json:"order"`
	Staff              StaffLocation `json:"staff"`
	DistanceFromPrevKm float64       `json:"distance_from_prev_km"`
	CumulativeKm       float64       `json:"cumulative_km"`
}

// RouteDirections is road-network data supplied by a directions provider
type RouteDirections struct {
	DistanceMeters float64        `json:"distance_meters"`
	DurationSecs   float64        `json:"duration_secs"`
	Geometry       orb.LineString `json:"geometry,omitempty"`
}

// Route is an ordered pickup sequence ending at the destination
type Route struct {
	Name       string           `json:"name"`
	ClusterID  int              `json:"cluster_id"`
	Stops      []RouteStop      `json:"stops"`
	DistanceKm float64          `json:"distance_km"`
	FinalLegKm float64          `json:"final_leg_km"`
	Cost       float64          `json:"cost"`
	Rebalanced int              `json:"rebalanced"`
	Directions *RouteDirections `json:"directions,omitempty"`
}

// StaffIDs returns the stop staff ids in order
func (r *Route) StaffIDs() []int64 {
	ids := make([]int64, len(r.Stops))
	for i, s := range r.Stops {
		ids[i] = s.Staff.ID
	}
	return ids
}

// Unassigned reasons
const (
	ReasonUndersizedCluster = "undersized_cluster"
	ReasonNoRouteCapacity   = "no_route_capacity"
	ReasonClusterFailed     = "cluster_failed"
)

// Filter reasons
const (
	ReasonInvalidCoordinates = "invalid_coordinates"
	ReasonDuplicateID        = "duplicate_id"
)

// UnassignedStaff is a staff member that could not be placed on any route
type UnassignedStaff struct {
	StaffID   int64  `json:"staff_id"`
	Name      string `json:"name"`
	ClusterID int    `json:"cluster_id"`
	Reason    string `json:"reason"`
}

// FilteredRecord is an input record excluded before clustering
type FilteredRecord struct {
	StaffID int64  `json:"staff_id"`
	Name    string `json:"name"`
	Reason  string `json:"reason"`
}

// OptimizationSummary contains aggregate stats for one run
type OptimizationSummary struct {
	TotalRecords        int     `json:"total_records"`
	ValidStaff          int     `json:"valid_staff"`
	FilteredCount       int     `json:"filtered_count"`
	RoutedStaff         int     `json:"routed_staff"`
	UnassignedCount     int     `json:"unassigned_count"`
	ClusterCount        int     `json:"cluster_count"`
	RouteCount          int     `json:"route_count"`
	TotalDistanceKm     float64 `json:"total_distance_km"`
	TotalCost           float64 `json:"total_cost"`
	AverageCostPerRoute float64 `json:"average_cost_per_route"`
}

// OptimizationResult is the full output of one optimizer run
type OptimizationResult struct {
	RunID       string              `json:"run_id"`
	Destination Coordinates         `json:"destination"`
	Routes      []Route             `json:"routes"`
	Unassigned  []UnassignedStaff   `json:"unassigned"`
	Filtered    []FilteredRecord    `json:"filtered"`
	Clusters    map[int64]int       `json:"clusters"`
	Summary     OptimizationSummary `json:"summary"`
	Warnings    []string            `json:"warnings"`
}

// Run is a persisted optimizer result
type Run struct {
	ID          int64               `json:"id"`
	RunID       string              `json:"run_id"`
	Destination Coordinates         `json:"destination"`
	Params      Settings            `json:"params"`
	Notes       string              `json:"notes"`
	CreatedAt   time.Time           `json:"created_at"`
	Summary     OptimizationSummary `json:"summary"`
}

// RunAssignment is a snapshot of one staff member's place in a run
type RunAssignment struct {
	ID                 int64   `json:"id"`
	RunID              int64   `json:"run_id"`
	RouteName          string  `json:"route_name"`
	ClusterID          int     `json:"cluster_id"`
	StopOrder          int     `json:"stop_order"`
	StaffID            int64   `json:"staff_id"`
	StaffName          string  `json:"staff_name"`
	StaffAddress       string  `json:"staff_address"`
	Lat                float64 `json:"latitude"`
	Lng                float64 `json:"longitude"`
	DistanceFromPrevKm float64 `json:"distance_from_prev_km"`
	Unassigned         bool    `json:"unassigned"`
	Reason             string  `json:"reason,omitempty"`
}

// DirectionsCacheEntry represents a cached directions lookup
type DirectionsCacheEntry struct {
	Waypoints  []Coordinates   `json:"waypoints"`
	Directions RouteDirections `json:"directions"`
}
