package timetable

import (
	"fmt"
	"sort"

	"github.com/tidwall/rtree"

	"raptor.opentransit.org/internal/utils"
)

// Snapshot is the immutable timetable bundle consumed by query runs. It is
// safe for concurrent readers; nothing mutates it after construction.
type Snapshot struct {
	stops        map[int]Stop
	trips        map[string][]StopTime
	transfers    map[int][]Transfer
	routesAtStop map[int][]string

	nameToID map[string]int
	tree     rtree.RTreeG[int]
}

// NearbyStop is a stop returned by a radius query, along with its
// great-circle distance from the query point.
type NearbyStop struct {
	ID     int
	Meters float64
}

// NewSnapshot validates and indexes raw timetable records. Trips with
// fewer than two stop times are dropped; a stop time whose arrival is
// after its departure, or that references an unknown stop, rejects the
// whole trip. Transfers between unknown stops are dropped.
func NewSnapshot(stops []Stop, stopTimes []StopTime, transfers []Transfer) (*Snapshot, error) {
	s := &Snapshot{
		stops:        make(map[int]Stop, len(stops)),
		trips:        make(map[string][]StopTime),
		transfers:    make(map[int][]Transfer),
		routesAtStop: make(map[int][]string),
		nameToID:     make(map[string]int, len(stops)),
	}

	for _, stop := range stops {
		if _, exists := s.stops[stop.ID]; exists {
			return nil, fmt.Errorf("duplicate stop id %d", stop.ID)
		}
		s.stops[stop.ID] = stop
		s.nameToID[stop.Name] = stop.ID
		point := [2]float64{stop.Lon, stop.Lat}
		s.tree.Insert(point, point, stop.ID)
	}

	for _, st := range stopTimes {
		s.trips[st.TripID] = append(s.trips[st.TripID], st)
	}

	for tripID, schedule := range s.trips {
		sort.SliceStable(schedule, func(i, j int) bool {
			return schedule[i].Sequence < schedule[j].Sequence
		})

		if err := validateSchedule(s.stops, schedule); err != nil {
			delete(s.trips, tripID)
			continue
		}
		s.trips[tripID] = schedule

		for _, st := range schedule {
			if !containsTrip(s.routesAtStop[st.StopID], tripID) {
				s.routesAtStop[st.StopID] = append(s.routesAtStop[st.StopID], tripID)
			}
		}
	}

	// Keep trip lists in a stable order so query runs are reproducible.
	for stopID := range s.routesAtStop {
		sort.Strings(s.routesAtStop[stopID])
	}

	for _, tr := range transfers {
		if _, ok := s.stops[tr.FromStopID]; !ok {
			continue
		}
		if _, ok := s.stops[tr.ToStopID]; !ok {
			continue
		}
		s.transfers[tr.FromStopID] = append(s.transfers[tr.FromStopID], tr)
	}

	return s, nil
}

func validateSchedule(stops map[int]Stop, schedule []StopTime) error {
	if len(schedule) < 2 {
		return fmt.Errorf("trip has %d stop times, need at least 2", len(schedule))
	}
	prevSeq := -1
	prevDeparture := Time(-1)
	for _, st := range schedule {
		if _, ok := stops[st.StopID]; !ok {
			return fmt.Errorf("stop time references unknown stop %d", st.StopID)
		}
		if st.Arrival > st.Departure {
			return fmt.Errorf("arrival after departure at stop %d", st.StopID)
		}
		if st.Sequence <= prevSeq {
			return fmt.Errorf("non-increasing sequence %d", st.Sequence)
		}
		if st.Departure < prevDeparture {
			return fmt.Errorf("departure moves backwards at stop %d", st.StopID)
		}
		prevSeq = st.Sequence
		prevDeparture = st.Departure
	}
	return nil
}

func containsTrip(trips []string, tripID string) bool {
	for _, id := range trips {
		if id == tripID {
			return true
		}
	}
	return false
}

// Stop looks up a stop by id.
func (s *Snapshot) Stop(id int) (Stop, bool) {
	stop, ok := s.stops[id]
	return stop, ok
}

// StopIDByName resolves a stop's display name to its id.
func (s *Snapshot) StopIDByName(name string) (int, bool) {
	id, ok := s.nameToID[name]
	return id, ok
}

// Stops returns all stops in the snapshot. The slice is freshly allocated
// on each call; the Stop values themselves are immutable.
func (s *Snapshot) Stops() []Stop {
	out := make([]Stop, 0, len(s.stops))
	for _, stop := range s.stops {
		out = append(out, stop)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// TripSchedule returns a trip's stop times ordered by sequence. Callers
// must not mutate the returned slice.
func (s *Snapshot) TripSchedule(tripID string) []StopTime {
	return s.trips[tripID]
}

// TripsAtStop returns the ids of trips whose schedule visits the stop.
func (s *Snapshot) TripsAtStop(stopID int) []string {
	return s.routesAtStop[stopID]
}

// TransfersFrom returns the directed footpaths leaving a stop.
func (s *Snapshot) TransfersFrom(stopID int) []Transfer {
	return s.transfers[stopID]
}

// StopsWithin returns all stops within radius meters of a point, with
// exact haversine distances. The spatial index narrows candidates to a
// bounding box before the exact filter.
func (s *Snapshot) StopsWithin(lat, lon, radius float64) []NearbyStop {
	bounds := utils.CalculateBounds(lat, lon, radius)

	var nearby []NearbyStop
	s.tree.Search(
		[2]float64{bounds.MinLon, bounds.MinLat},
		[2]float64{bounds.MaxLon, bounds.MaxLat},
		func(_, _ [2]float64, id int) bool {
			stop := s.stops[id]
			d := utils.Haversine(lat, lon, stop.Lat, stop.Lon)
			if d <= radius {
				nearby = append(nearby, NearbyStop{ID: id, Meters: d})
			}
			return true
		},
	)

	sort.Slice(nearby, func(i, j int) bool { return nearby[i].ID < nearby[j].ID })
	return nearby
}

// NumStops returns the number of stops in the snapshot.
func (s *Snapshot) NumStops() int {
	return len(s.stops)
}

// NumTrips returns the number of trips that survived validation.
func (s *Snapshot) NumTrips() int {
	return len(s.trips)
}
