// Package app wires the application's long-lived dependencies together
// for the HTTP handlers, helpers, and middleware.
package app

import (
	"log/slog"

	"raptor.opentransit.org/internal/appconf"
	"raptor.opentransit.org/internal/clock"
	"raptor.opentransit.org/internal/metrics"
	"raptor.opentransit.org/internal/raptor"
	"raptor.opentransit.org/internal/stopsdb"
	"raptor.opentransit.org/internal/timetable"
)

// Application holds the dependencies for the HTTP handlers, helpers,
// and middleware: configuration, the immutable timetable snapshot, the
// journey engine running over it, and the supporting services.
type Application struct {
	Config   appconf.Config
	Logger   *slog.Logger
	Snapshot *timetable.Snapshot
	Engine   *raptor.Engine
	StopsDB  *stopsdb.Client
	Clock    clock.Clock
	Metrics  *metrics.Metrics
}
