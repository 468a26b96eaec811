package raptor

import (
	"errors"
	"fmt"
	"runtime"
	"sort"

	"github.com/sourcegraph/conc"

	"raptor.opentransit.org/internal/timetable"
)

// ErrUnknownStop is returned when a query references a stop id the
// timetable does not contain.
var ErrUnknownStop = errors.New("unknown stop")

// Engine runs journey queries against one immutable snapshot. It holds
// no per-query state; concurrent Run calls are independent.
type Engine struct {
	snapshot *timetable.Snapshot
	workers  int
}

// New creates an engine over the given snapshot. workers bounds the
// per-round fan-out; zero or negative means one worker per CPU.
func New(snapshot *timetable.Snapshot, workers int) *Engine {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Engine{snapshot: snapshot, workers: workers}
}

// Result is the output of one query run: the Pareto profile at every
// reached stop (the destination's includes any trailing walk) and the
// predecessor index used for path reconstruction.
type Result struct {
	Origin      int
	Destination int
	StartTime   timetable.Time

	Profiles     map[int]Profile
	Predecessors map[int]map[int]Journey

	// MarkedPerRound records how many stops were marked going into each
	// round, rounds 1..MaxLegs.
	MarkedPerRound []int
}

// Journeys returns the non-dominated journeys that reach the
// destination. An empty slice means no route was found; that is not an
// error.
func (r *Result) Journeys() []Journey {
	return r.Profiles[r.Destination]
}

// Run computes all Pareto-optimal journeys from origin to dest leaving
// at or after start.
func (e *Engine) Run(origin, dest int, start timetable.Time) (*Result, error) {
	originStop, ok := e.snapshot.Stop(origin)
	if !ok {
		return nil, fmt.Errorf("origin stop %d: %w", origin, ErrUnknownStop)
	}
	destStop, ok := e.snapshot.Stop(dest)
	if !ok {
		return nil, fmt.Errorf("destination stop %d: %w", dest, ErrUnknownStop)
	}

	rounds := make([]map[int]Profile, MaxLegs+1)
	for i := range rounds {
		rounds[i] = make(map[int]Profile)
	}

	e.seedInitialWalks(rounds[0], originStop, start)

	result := &Result{
		Origin:      origin,
		Destination: dest,
		StartTime:   start,
	}

	for k := 1; k <= MaxLegs; k++ {
		marked := sortedStopIDs(rounds[k-1])
		result.MarkedPerRound = append(result.MarkedPerRound, len(marked))
		if len(marked) == 0 {
			continue
		}

		queues := e.scanRound(marked, rounds[k-1], k)
		e.foldRound(rounds[k], queues)
	}

	union := e.unionRounds(rounds)
	result.Profiles = e.finishWithDestinationWalk(union, destStop)
	result.Predecessors = buildPredecessorIndex(result.Profiles)

	return result, nil
}

// seedInitialWalks populates round 0: the origin seed, a radius-bounded
// straight-line walk to every nearby stop, and the origin's explicit
// footpaths. The Pareto merge keeps whichever of the two walk variants
// is faster when both reach a stop.
func (e *Engine) seedInitialWalks(round0 map[int]Profile, origin timetable.Stop, start timetable.Time) {
	round0[origin.ID], _ = round0[origin.ID].Merge(Journey{
		Arrival:   start,
		Departure: start,
		Legs:      0,
		From:      NoStop,
		Method:    MethodStart,
	})

	for _, near := range e.snapshot.StopsWithin(origin.Lat, origin.Lon, MaxWalkMeters) {
		if near.ID == origin.ID {
			continue
		}
		walkSecs := int(near.Meters / WalkSpeedMPS)
		round0[near.ID], _ = round0[near.ID].Merge(Journey{
			Arrival:   start.Add(walkSecs),
			Departure: start,
			Legs:      0,
			From:      origin.ID,
			Method:    MethodWalk,
		})
	}

	for _, tr := range e.snapshot.TransfersFrom(origin.ID) {
		round0[tr.ToStopID], _ = round0[tr.ToStopID].Merge(Journey{
			Arrival:   start.Add(tr.DurationSeconds),
			Departure: start,
			Legs:      0,
			From:      origin.ID,
			Method:    MethodWalk,
		})
	}
}

// localQueue stages trip-relaxation proposals for one worker. Keys keep
// their insertion order so the serial fold is deterministic.
type localQueue struct {
	order  []int
	labels map[int]Profile
}

func newLocalQueue() *localQueue {
	return &localQueue{labels: make(map[int]Profile)}
}

func (q *localQueue) merge(stopID int, j Journey) {
	profile, seen := q.labels[stopID]
	merged, accepted := profile.Merge(j)
	if !seen && accepted {
		q.order = append(q.order, stopID)
	}
	q.labels[stopID] = merged
}

// scanRound fans the trip scan out across workers, each covering a
// contiguous chunk of the marked stops and staging proposals in its own
// queue. The snapshot and the previous round's profiles are shared
// read-only; nothing here touches the current round.
func (e *Engine) scanRound(marked []int, prev map[int]Profile, round int) []*localQueue {
	workers := e.workers
	if workers > len(marked) {
		workers = len(marked)
	}

	queues := make([]*localQueue, workers)
	if workers <= 1 {
		queues[0] = newLocalQueue()
		e.scanChunk(marked, prev, round, queues[0])
		return queues
	}

	chunkSize := (len(marked) + workers - 1) / workers
	var wg conc.WaitGroup
	for w := 0; w < workers; w++ {
		queues[w] = newLocalQueue()

		lo := w * chunkSize
		if lo > len(marked) {
			lo = len(marked)
		}
		hi := lo + chunkSize
		if hi > len(marked) {
			hi = len(marked)
		}
		chunk := marked[lo:hi]
		queue := queues[w]
		wg.Go(func() {
			e.scanChunk(chunk, prev, round, queue)
		})
	}
	wg.Wait()

	return queues
}

// scanChunk relaxes every trip reachable from the given marked stops.
// For each trip the boarding index is the first schedule entry at the
// marked stop; the boarding label is the previous-round label with the
// earliest arrival among those that can still catch the departure, so
// downstream arrivals are never worsened by boarding later than needed.
func (e *Engine) scanChunk(stops []int, prev map[int]Profile, round int, q *localQueue) {
	for _, stopID := range stops {
		for _, tripID := range e.snapshot.TripsAtStop(stopID) {
			schedule := e.snapshot.TripSchedule(tripID)

			boardIdx := -1
			for i := range schedule {
				if schedule[i].StopID == stopID {
					boardIdx = i
					break
				}
			}
			if boardIdx == -1 {
				continue
			}

			var board Journey
			boarded := false
			for i := boardIdx; i < len(schedule); i++ {
				st := schedule[i]
				for _, pj := range prev[st.StopID] {
					if pj.Arrival <= st.Departure && (!boarded || pj.Arrival < board.Arrival) {
						board = pj
						boarded = true
					}
				}
				if !boarded {
					continue
				}

				from := board.From
				if i > boardIdx {
					from = schedule[i-1].StopID
				}
				q.merge(st.StopID, Journey{
					Arrival:   st.Arrival,
					Departure: board.Departure,
					Legs:      round,
					From:      from,
					Method:    TripMethod(tripID),
				})
			}
		}
	}
}

// foldRound merges the staged proposals into the round's profiles,
// iterating workers in index order and stops in insertion order. Each
// newly accepted label fans out over its stop's footpaths; footpaths are
// not chained within a round.
func (e *Engine) foldRound(current map[int]Profile, queues []*localQueue) {
	for _, q := range queues {
		for _, stopID := range q.order {
			for _, j := range q.labels[stopID] {
				merged, accepted := current[stopID].Merge(j)
				current[stopID] = merged
				if !accepted {
					continue
				}

				for _, tr := range e.snapshot.TransfersFrom(stopID) {
					walk := Journey{
						Arrival:   j.Arrival.Add(tr.DurationSeconds),
						Departure: j.Departure,
						Legs:      j.Legs,
						From:      stopID,
						Method:    MethodWalk,
					}
					current[tr.ToStopID], _ = current[tr.ToStopID].Merge(walk)
				}
			}
		}
	}
}

// unionRounds collapses all rounds into one Pareto profile per stop.
func (e *Engine) unionRounds(rounds []map[int]Profile) map[int]Profile {
	union := make(map[int]Profile)
	for k := range rounds {
		for _, stopID := range sortedStopIDs(rounds[k]) {
			for _, j := range rounds[k][stopID] {
				union[stopID], _ = union[stopID].Merge(j)
			}
		}
	}
	return union
}

// finishWithDestinationWalk extends every reached stop near the
// destination by one trailing walk segment. The walk is terminal: it is
// applied exactly once after the last round and never feeds another
// transit leg.
func (e *Engine) finishWithDestinationWalk(union map[int]Profile, dest timetable.Stop) map[int]Profile {
	walkMeters := make(map[int]float64)
	for _, near := range e.snapshot.StopsWithin(dest.Lat, dest.Lon, MaxWalkMeters) {
		walkMeters[near.ID] = near.Meters
	}

	out := make(map[int]Profile, len(union))
	for _, stopID := range sortedStopIDs(union) {
		if stopID == dest.ID {
			continue
		}
		meters, reachable := walkMeters[stopID]
		if !reachable {
			continue
		}
		walkSecs := int(meters / WalkSpeedMPS)
		for _, j := range union[stopID] {
			out[dest.ID], _ = out[dest.ID].Merge(Journey{
				Arrival:   j.Arrival.Add(walkSecs),
				Departure: j.Departure,
				Legs:      j.Legs,
				From:      stopID,
				Method:    MethodWalk,
			})
		}
	}

	for _, stopID := range sortedStopIDs(union) {
		for _, j := range union[stopID] {
			out[stopID], _ = out[stopID].Merge(j)
		}
	}

	return out
}

// buildPredecessorIndex maps (stop, legs) to the last journey seen at
// that cell. Profiles are ordered by ascending arrival, so among labels
// sharing a leg count the latest arrival wins.
func buildPredecessorIndex(profiles map[int]Profile) map[int]map[int]Journey {
	preds := make(map[int]map[int]Journey, len(profiles))
	for stopID, profile := range profiles {
		byLegs := make(map[int]Journey, len(profile))
		for _, j := range profile {
			byLegs[j.Legs] = j
		}
		preds[stopID] = byLegs
	}
	return preds
}

func sortedStopIDs(profiles map[int]Profile) []int {
	ids := make([]int, 0, len(profiles))
	for id := range profiles {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
