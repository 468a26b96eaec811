// Package webui serves the static journey-planner front end and a
// non-production debug view of the loaded timetable.
package webui

import (
	"net/http"

	"raptor.opentransit.org/internal/appconf"
	"raptor.opentransit.org/internal/timetable"
)

// WebUI holds the dependencies for the static and debug handlers.
type WebUI struct {
	Config   appconf.Config
	Snapshot *timetable.Snapshot
}

// New creates a WebUI over the given configuration and snapshot.
func New(config appconf.Config, snapshot *timetable.Snapshot) *WebUI {
	return &WebUI{Config: config, Snapshot: snapshot}
}

// SetRoutes registers the web UI routes on the mux.
func (webUI *WebUI) SetRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", webUI.indexHandler)
	mux.HandleFunc("GET /web/", webUI.staticHandler)
	mux.HandleFunc("GET /debug", webUI.debugIndexHandler)
}
