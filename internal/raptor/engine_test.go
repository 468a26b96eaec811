package raptor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"raptor.opentransit.org/internal/timetable"
	"raptor.opentransit.org/internal/utils"
)

// Stops on the prime meridian, placed by latitude alone; a hundredth of a
// degree of latitude is ~1112m.
func stopAt(id int, name string, lat float64) timetable.Stop {
	return timetable.Stop{ID: id, Name: name, Lat: lat, Lon: 0}
}

func mustSnapshot(t *testing.T, stops []timetable.Stop, stopTimes []timetable.StopTime, transfers []timetable.Transfer) *timetable.Snapshot {
	t.Helper()
	snapshot, err := timetable.NewSnapshot(stops, stopTimes, transfers)
	require.NoError(t, err)
	return snapshot
}

func visit(tripID string, stopID, seq int, at timetable.Time) timetable.StopTime {
	return timetable.StopTime{TripID: tripID, StopID: stopID, Sequence: seq, Arrival: at, Departure: at}
}

func walkSeconds(fromLat, toLat float64) int {
	return int(utils.Haversine(fromLat, 0, toLat, 0) / WalkSpeedMPS)
}

func TestRunUnknownStop(t *testing.T) {
	snapshot := mustSnapshot(t, []timetable.Stop{stopAt(1, "A", 0)}, nil, nil)
	engine := New(snapshot, 1)

	_, err := engine.Run(99, 1, timetable.NewTime(8, 0, 0))
	assert.ErrorIs(t, err, ErrUnknownStop)

	_, err = engine.Run(1, 99, timetable.NewTime(8, 0, 0))
	assert.ErrorIs(t, err, ErrUnknownStop)
}

// A single trip with a walkable alternative: both journeys are
// Pareto-optimal and both are reported.
func TestRunSingleTripWithWalkAlternative(t *testing.T) {
	stops := []timetable.Stop{stopAt(1, "A", 0), stopAt(2, "B", 0.01)}
	stopTimes := []timetable.StopTime{
		visit("T1", 1, 1, timetable.NewTime(8, 0, 0)),
		visit("T1", 2, 2, timetable.NewTime(8, 10, 0)),
	}
	engine := New(mustSnapshot(t, stops, stopTimes, nil), 1)

	start := timetable.NewTime(8, 0, 0)
	result, err := engine.Run(1, 2, start)
	require.NoError(t, err)

	journeys := result.Journeys()
	require.Len(t, journeys, 2)

	assert.Equal(t, timetable.NewTime(8, 10, 0), journeys[0].Arrival)
	assert.Equal(t, 1, journeys[0].Legs)
	assert.Equal(t, "T1", journeys[0].TripID())

	assert.Equal(t, start.Add(walkSeconds(0, 0.01)), journeys[1].Arrival)
	assert.Equal(t, 0, journeys[1].Legs)
	assert.Equal(t, MethodWalk, journeys[1].Method)
}

// A slower second trip is strictly dominated and pruned.
func TestRunDominatedTripPruned(t *testing.T) {
	stops := []timetable.Stop{stopAt(1, "A", 0), stopAt(2, "B", 0.01)}
	stopTimes := []timetable.StopTime{
		visit("T1", 1, 1, timetable.NewTime(8, 0, 0)),
		visit("T1", 2, 2, timetable.NewTime(8, 10, 0)),
		visit("T2", 1, 1, timetable.NewTime(8, 2, 0)),
		visit("T2", 2, 2, timetable.NewTime(8, 15, 0)),
	}
	engine := New(mustSnapshot(t, stops, stopTimes, nil), 1)

	result, err := engine.Run(1, 2, timetable.NewTime(8, 0, 0))
	require.NoError(t, err)

	journeys := result.Journeys()
	require.Len(t, journeys, 2)
	assert.Equal(t, "T1", journeys[0].TripID())
	assert.Equal(t, timetable.NewTime(8, 10, 0), journeys[0].Arrival)
	assert.Equal(t, 0, journeys[1].Legs)
}

// Two trips joined at an interchange: the only journey uses two legs.
func TestRunOneTransferRequired(t *testing.T) {
	stops := []timetable.Stop{
		stopAt(1, "A", 0),
		stopAt(2, "B", 0.02),
		stopAt(3, "C", 0.04),
	}
	stopTimes := []timetable.StopTime{
		visit("T1", 1, 1, timetable.NewTime(9, 0, 0)),
		visit("T1", 2, 2, timetable.NewTime(9, 20, 0)),
		visit("T2", 2, 1, timetable.NewTime(9, 25, 0)),
		visit("T2", 3, 2, timetable.NewTime(9, 45, 0)),
	}
	engine := New(mustSnapshot(t, stops, stopTimes, nil), 1)

	result, err := engine.Run(1, 3, timetable.NewTime(9, 0, 0))
	require.NoError(t, err)

	journeys := result.Journeys()
	require.Len(t, journeys, 1)
	assert.Equal(t, timetable.NewTime(9, 45, 0), journeys[0].Arrival)
	assert.Equal(t, 2, journeys[0].Legs)

	path := result.Path(3, journeys[0])
	require.Len(t, path, 3)
	assert.Equal(t, PathStep{StopID: 1, Method: MethodStart}, path[0])
	assert.Equal(t, PathStep{StopID: 2, Method: TripMethod("T1")}, path[1])
	assert.Equal(t, PathStep{StopID: 3, Method: TripMethod("T2")}, path[2])
}

// An explicit footpath covers a gap wider than the walking radius.
func TestRunFootpathBeatsWalkingRadius(t *testing.T) {
	stops := []timetable.Stop{stopAt(1, "A", 0), stopAt(2, "B", 0.018)}
	transfers := []timetable.Transfer{
		{FromStopID: 1, ToStopID: 2, DurationSeconds: 600},
	}
	engine := New(mustSnapshot(t, stops, nil, transfers), 1)

	result, err := engine.Run(1, 2, timetable.NewTime(10, 0, 0))
	require.NoError(t, err)

	journeys := result.Journeys()
	require.Len(t, journeys, 1)
	assert.Equal(t, timetable.NewTime(10, 10, 0), journeys[0].Arrival)
	assert.Equal(t, 0, journeys[0].Legs)
	assert.Equal(t, MethodWalk, journeys[0].Method)
}

// The destination is off-network; the journey ends with a trailing walk.
func TestRunFinalWalkToDestination(t *testing.T) {
	stops := []timetable.Stop{
		stopAt(1, "A", 0),
		stopAt(2, "B", 0.05),
		stopAt(3, "D", 0.0563),
	}
	stopTimes := []timetable.StopTime{
		visit("T1", 1, 1, timetable.NewTime(7, 0, 0)),
		visit("T1", 2, 2, timetable.NewTime(7, 30, 0)),
	}
	engine := New(mustSnapshot(t, stops, stopTimes, nil), 1)

	result, err := engine.Run(1, 3, timetable.NewTime(7, 0, 0))
	require.NoError(t, err)

	journeys := result.Journeys()
	require.Len(t, journeys, 1)

	wantArrival := timetable.NewTime(7, 30, 0).Add(walkSeconds(0.05, 0.0563))
	assert.Equal(t, wantArrival, journeys[0].Arrival)
	assert.Equal(t, 1, journeys[0].Legs)
	assert.Equal(t, MethodWalk, journeys[0].Method)
	assert.Equal(t, 2, journeys[0].From)

	path := result.Path(3, journeys[0])
	require.Len(t, path, 3)
	assert.Equal(t, PathStep{StopID: 1, Method: MethodStart}, path[0])
	assert.Equal(t, PathStep{StopID: 2, Method: TripMethod("T1")}, path[1])
	assert.Equal(t, PathStep{StopID: 3, Method: MethodWalk}, path[2])
}

// No connection at all: an empty journey list, not an error.
func TestRunNoRoute(t *testing.T) {
	stops := []timetable.Stop{stopAt(1, "A", 0), stopAt(2, "B", 3.0)}
	engine := New(mustSnapshot(t, stops, nil, nil), 1)

	result, err := engine.Run(1, 2, timetable.NewTime(8, 0, 0))
	require.NoError(t, err)
	assert.Empty(t, result.Journeys())
}

// A dense little network for property checks: three parallel routes, a
// footpath shortcut, and a loop trip.
func propertySnapshot(t *testing.T) *timetable.Snapshot {
	stops := []timetable.Stop{
		stopAt(1, "A", 0),
		stopAt(2, "B", 0.02),
		stopAt(3, "C", 0.04),
		stopAt(4, "D", 0.06),
		stopAt(5, "E", 0.065),
	}
	stopTimes := []timetable.StopTime{
		// Slow direct service.
		visit("SLOW", 1, 1, timetable.NewTime(8, 0, 0)),
		visit("SLOW", 4, 2, timetable.NewTime(9, 30, 0)),
		// Two-leg faster path.
		visit("HOP1", 1, 1, timetable.NewTime(8, 5, 0)),
		visit("HOP1", 2, 2, timetable.NewTime(8, 20, 0)),
		visit("HOP2", 2, 1, timetable.NewTime(8, 25, 0)),
		visit("HOP2", 4, 2, timetable.NewTime(8, 55, 0)),
		// Feeder to the footpath shortcut.
		visit("FEED", 1, 1, timetable.NewTime(8, 10, 0)),
		visit("FEED", 3, 2, timetable.NewTime(8, 40, 0)),
		// Loop trip visiting B twice.
		visit("LOOP", 2, 1, timetable.NewTime(8, 30, 0)),
		visit("LOOP", 3, 2, timetable.NewTime(8, 45, 0)),
		visit("LOOP", 2, 3, timetable.NewTime(9, 0, 0)),
		visit("LOOP", 4, 4, timetable.NewTime(9, 15, 0)),
	}
	transfers := []timetable.Transfer{
		{FromStopID: 3, ToStopID: 4, DurationSeconds: 900},
		{FromStopID: 4, ToStopID: 5, DurationSeconds: 300},
	}
	return mustSnapshot(t, stops, stopTimes, transfers)
}

func TestRunInvariants(t *testing.T) {
	engine := New(propertySnapshot(t), 2)
	start := timetable.NewTime(8, 0, 0)

	result, err := engine.Run(1, 4, start)
	require.NoError(t, err)
	require.NotEmpty(t, result.Journeys())

	for stopID, profile := range result.Profiles {
		// Pareto minimality: no label weakly dominates another.
		for i, a := range profile {
			for k, b := range profile {
				if i == k {
					continue
				}
				assert.False(t, a.Arrival <= b.Arrival && a.Legs <= b.Legs,
					"stop %d: label %d dominates label %d", stopID, i, k)
			}
		}

		for i, j := range profile {
			// Ordering: strictly increasing arrival, decreasing legs.
			if i > 0 {
				assert.True(t, profile[i-1].Arrival < j.Arrival, "stop %d not ordered", stopID)
			}
			// Leg bound.
			assert.GreaterOrEqual(t, j.Legs, 0)
			assert.LessOrEqual(t, j.Legs, MaxLegs)
			// Departure monotonicity.
			assert.GreaterOrEqual(t, j.Departure, start)
			assert.LessOrEqual(t, j.Departure, j.Arrival)
		}
	}
}

func TestRunCausality(t *testing.T) {
	engine := New(propertySnapshot(t), 2)
	start := timetable.NewTime(8, 0, 0)

	result, err := engine.Run(1, 4, start)
	require.NoError(t, err)

	for stopID := range result.Profiles {
		for _, j := range result.Profiles[stopID] {
			if j.From == NoStop {
				continue
			}
			path := result.Path(stopID, j)
			require.NotEmpty(t, path)
			assert.Equal(t, result.Origin, path[0].StopID)
			assert.Equal(t, MethodStart, path[0].Method)
			assert.Equal(t, stopID, path[len(path)-1].StopID)
		}
	}
}

// The fold order is fixed, so repeated runs with different worker counts
// agree exactly.
func TestRunDeterministicAcrossWorkerCounts(t *testing.T) {
	snapshot := propertySnapshot(t)
	start := timetable.NewTime(8, 0, 0)

	base, err := New(snapshot, 1).Run(1, 4, start)
	require.NoError(t, err)

	for _, workers := range []int{2, 4, 8} {
		result, err := New(snapshot, workers).Run(1, 4, start)
		require.NoError(t, err)
		assert.Equal(t, base.Profiles, result.Profiles, "workers=%d", workers)
		assert.Equal(t, base.Predecessors, result.Predecessors, "workers=%d", workers)
	}
}

func TestRunLoopTripBoardsFirstOccurrence(t *testing.T) {
	engine := New(propertySnapshot(t), 1)

	result, err := engine.Run(1, 4, timetable.NewTime(8, 0, 0))
	require.NoError(t, err)

	journeys := result.Journeys()
	require.NotEmpty(t, journeys)

	// Best is the feeder plus the footpath shortcut; the loop trip's
	// second visit to B and the slow direct service are dominated.
	assert.Equal(t, timetable.NewTime(8, 55, 0), journeys[0].Arrival)
}

func TestRunMarkedPerRound(t *testing.T) {
	engine := New(propertySnapshot(t), 1)

	result, err := engine.Run(1, 4, timetable.NewTime(8, 0, 0))
	require.NoError(t, err)

	require.Len(t, result.MarkedPerRound, MaxLegs)
	// Round 1 expands from the origin seed plus its walk radius.
	assert.Greater(t, result.MarkedPerRound[0], 0)
}
