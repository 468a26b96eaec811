// Package timetable holds the immutable transit schedule snapshot the
// journey planner runs against: stops, trips, footpath transfers, and the
// derived stop-to-trips and spatial indexes.
package timetable

// Stop is a named, geolocated boarding point. Stops are immutable for the
// lifetime of a snapshot.
type Stop struct {
	ID   int
	Code string
	Name string
	Lat  float64
	Lon  float64
}

// StopTime is a single visit of a trip to a stop. Arrival never exceeds
// Departure.
type StopTime struct {
	TripID    string
	StopID    int
	Sequence  int
	Arrival   Time
	Departure Time
}

// Transfer is a directed footpath between two stops with a fixed walking
// duration in seconds. No transitive closure is assumed.
type Transfer struct {
	FromStopID      int
	ToStopID        int
	DurationSeconds int
}
