// Package restapi exposes the journey planner over HTTP: the /calculate
// planning endpoint, stop-name search, health, and Prometheus metrics,
// behind the shared middleware chain.
package restapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"raptor.opentransit.org/internal/app"
)

// RestAPI bundles the application dependencies with the HTTP handlers.
type RestAPI struct {
	*app.Application
	validate *validator.Validate
}

// New creates a RestAPI over an already-wired application.
func New(application *app.Application) *RestAPI {
	return &RestAPI{
		Application: application,
		validate:    validator.New(),
	}
}

// SetRoutes registers all API routes on the mux.
func (api *RestAPI) SetRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /calculate", api.calculateHandler)
	mux.HandleFunc("GET /stops/search", api.stopSearchHandler)
	mux.HandleFunc("GET /healthz", api.healthHandler)
	mux.Handle("GET /metrics", promhttp.HandlerFor(api.Metrics.Registry, promhttp.HandlerOpts{}))
}
