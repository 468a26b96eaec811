// Package raptor implements the multi-criteria round-based journey
// planner. Each query expands up to MaxLegs rounds over an immutable
// timetable snapshot, maintaining per-stop Pareto profiles over
// (arrival time, transit legs) and a predecessor index for path
// reconstruction.
package raptor

import (
	"sort"
	"strings"

	"raptor.opentransit.org/internal/timetable"
)

const (
	// WalkSpeedMPS is the assumed pedestrian speed.
	WalkSpeedMPS = 1.4
	// MaxWalkMeters bounds straight-line walks at the start and end of a
	// journey.
	MaxWalkMeters = 1500.0
	// MaxLegs is the maximum number of transit boardings per journey.
	MaxLegs = 5
)

// NoStop marks a journey with no predecessor (the origin seed).
const NoStop = -1

const (
	MethodStart      = "Start"
	MethodWalk       = "Walk"
	methodTripPrefix = "Trip:"
)

// TripMethod renders the method tag for a boarding of the given trip.
func TripMethod(tripID string) string {
	return methodTripPrefix + tripID
}

// Journey is a label attached to a stop: the earliest known arrival
// there for a given number of transit legs, along with enough context to
// walk the journey backwards. Labels are plain values and may be copied
// freely; predecessors are referenced by (stop, legs), never by pointer.
type Journey struct {
	// Arrival is when the traveler reaches the stop this label is
	// attached to.
	Arrival timetable.Time
	// Departure is the journey's original departure from the origin.
	Departure timetable.Time
	// Legs counts transit boardings so far. Walking never increments it.
	Legs int
	// From is the preceding stop, or NoStop for the origin seed.
	From int
	// Method is MethodStart, MethodWalk, or TripMethod(id).
	Method string
}

// IsWalk reports whether this label was produced by a walking segment.
func (j Journey) IsWalk() bool {
	return strings.Contains(j.Method, MethodWalk)
}

// TripID returns the trip a transit label boarded, or "" for walks and
// the origin seed.
func (j Journey) TripID() string {
	if !strings.HasPrefix(j.Method, methodTripPrefix) {
		return ""
	}
	return j.Method[len(methodTripPrefix):]
}

// dominates reports whether j is at least as good as other on both
// criteria.
func (j Journey) dominates(other Journey) bool {
	return j.Arrival <= other.Arrival && j.Legs <= other.Legs
}

// Profile is the set of non-dominated journeys known at one stop,
// ordered by ascending arrival, ties broken by ascending legs. Pareto
// fronts stay short (at most MaxLegs+1 entries in practice), so a
// compact slice beats any linked structure.
type Profile []Journey

// Merge inserts j unless an existing label weakly dominates it, removing
// any labels j dominates. It returns the updated profile and whether j
// was accepted.
func (p Profile) Merge(j Journey) (Profile, bool) {
	for _, existing := range p {
		if existing.dominates(j) {
			return p, false
		}
	}

	kept := p[:0]
	for _, existing := range p {
		if j.dominates(existing) {
			continue
		}
		kept = append(kept, existing)
	}

	idx := sort.Search(len(kept), func(i int) bool {
		if kept[i].Arrival != j.Arrival {
			return kept[i].Arrival > j.Arrival
		}
		return kept[i].Legs > j.Legs
	})

	kept = append(kept, Journey{})
	copy(kept[idx+1:], kept[idx:])
	kept[idx] = j
	return kept, true
}
