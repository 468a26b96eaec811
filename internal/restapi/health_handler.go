package restapi

import (
	"net/http"
)

// healthHandler reports liveness plus basic snapshot statistics.
func (api *RestAPI) healthHandler(w http.ResponseWriter, r *http.Request) {
	api.sendJSON(w, r, http.StatusOK, map[string]any{
		"status":      "ok",
		"currentTime": api.Clock.NowUnixMilli(),
		"stops":       api.Snapshot.NumStops(),
		"trips":       api.Snapshot.NumTrips(),
	})
}
