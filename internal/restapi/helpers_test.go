// helpers_test.go wires a fully functional API instance over a small
// fixture timetable for integration tests.
package restapi

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"raptor.opentransit.org/internal/app"
	"raptor.opentransit.org/internal/appconf"
	"raptor.opentransit.org/internal/clock"
	"raptor.opentransit.org/internal/metrics"
	"raptor.opentransit.org/internal/raptor"
	"raptor.opentransit.org/internal/stopsdb"
	"raptor.opentransit.org/internal/timetable"
)

// fixtureSnapshot builds a small network: Central and Harbour ~1112m
// apart joined by trip T1, Airport reachable only via trip T2 from
// Harbour (T2 departs before a walker from Central could reach it), and
// a footpath from Central to the far-off Depot stop.
func fixtureSnapshot(t testing.TB) *timetable.Snapshot {
	t.Helper()

	stops := []timetable.Stop{
		{ID: 1, Name: "Central", Lat: 0, Lon: 0},
		{ID: 2, Name: "Harbour", Lat: 0.01, Lon: 0},
		{ID: 3, Name: "Airport", Lat: 0.04, Lon: 0},
		{ID: 4, Name: "Depot", Lat: 0.07, Lon: 0},
	}
	stopTimes := []timetable.StopTime{
		{TripID: "T1", StopID: 1, Sequence: 1, Arrival: timetable.NewTime(8, 0, 0), Departure: timetable.NewTime(8, 0, 0)},
		{TripID: "T1", StopID: 2, Sequence: 2, Arrival: timetable.NewTime(8, 10, 0), Departure: timetable.NewTime(8, 10, 0)},
		{TripID: "T2", StopID: 2, Sequence: 1, Arrival: timetable.NewTime(8, 12, 0), Departure: timetable.NewTime(8, 12, 0)},
		{TripID: "T2", StopID: 3, Sequence: 2, Arrival: timetable.NewTime(8, 40, 0), Departure: timetable.NewTime(8, 40, 0)},
	}
	transfers := []timetable.Transfer{
		{FromStopID: 1, ToStopID: 4, DurationSeconds: 1200},
	}

	snapshot, err := timetable.NewSnapshot(stops, stopTimes, transfers)
	require.NoError(t, err)
	return snapshot
}

func createTestApi(t testing.TB) *RestAPI {
	t.Helper()

	snapshot := fixtureSnapshot(t)

	stopsDB, err := stopsdb.NewClient(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = stopsDB.Close() })
	require.NoError(t, stopsDB.Populate(context.Background(), snapshot))

	application := &app.Application{
		Config:   appconf.Config{Env: appconf.Test},
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Snapshot: snapshot,
		Engine:   raptor.New(snapshot, 2),
		StopsDB:  stopsDB,
		Clock:    clock.NewMockClock(time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)),
		Metrics:  metrics.New(),
	}

	return New(application)
}

func testMux(t testing.TB) *http.ServeMux {
	t.Helper()
	mux := http.NewServeMux()
	createTestApi(t).SetRoutes(mux)
	return mux
}
