package restapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/twpayne/go-polyline"

	"raptor.opentransit.org/internal/raptor"
	"raptor.opentransit.org/internal/timetable"
)

type calculateRequest struct {
	Start string `validate:"required"`
	End   string `validate:"required"`
	Time  string `validate:"required"`
}

type pathStepResponse struct {
	StopName string  `json:"stop_name"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	Method   string  `json:"method"`
}

type journeyResponse struct {
	Arrival  string             `json:"arrival"`
	Trips    int                `json:"trips"`
	Path     []pathStepResponse `json:"path"`
	Polyline string             `json:"polyline"`
}

type calculateResponse struct {
	Journeys []journeyResponse `json:"journeys"`
}

// calculateHandler plans journeys between two named stops. Unknown stop
// names are reported in-band with an error field, matching the journey
// surface's contract; an empty journey list means no route, which is not
// an error.
func (api *RestAPI) calculateHandler(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	req := calculateRequest{
		Start: r.FormValue("start"),
		End:   r.FormValue("end"),
		Time:  r.FormValue("time"),
	}

	if err := api.validate.Struct(req); err != nil {
		fieldErrors := make(map[string][]string)
		var invalid validator.ValidationErrors
		if errors.As(err, &invalid) {
			for _, fe := range invalid {
				fieldErrors[fe.Field()] = append(fieldErrors[fe.Field()], "is required")
			}
		}
		api.Metrics.ObservePlan("invalid_request", time.Since(started), 0)
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}

	startTime, err := timetable.ParseHourMinute(req.Time)
	if err != nil {
		api.Metrics.ObservePlan("invalid_request", time.Since(started), 0)
		api.validationErrorResponse(w, r, map[string][]string{
			"Time": {"must be H:M"},
		})
		return
	}

	originID, originOK := api.Snapshot.StopIDByName(req.Start)
	destID, destOK := api.Snapshot.StopIDByName(req.End)
	if !originOK || !destOK {
		api.Metrics.ObservePlan("invalid_stop", time.Since(started), 0)
		api.sendErrorObject(w, r, http.StatusOK, "Invalid stop name")
		return
	}

	result, err := api.Engine.Run(originID, destID, startTime)
	if err != nil {
		if errors.Is(err, raptor.ErrUnknownStop) {
			api.Metrics.ObservePlan("invalid_stop", time.Since(started), 0)
			api.sendErrorObject(w, r, http.StatusOK, "Invalid stop name")
			return
		}
		api.Metrics.ObservePlan("error", time.Since(started), 0)
		api.serverErrorResponse(w, r, err)
		return
	}

	response := calculateResponse{Journeys: []journeyResponse{}}
	for _, journey := range result.Journeys() {
		response.Journeys = append(response.Journeys, api.renderJourney(result, journey))
	}

	api.Metrics.ObservePlan("ok", time.Since(started), len(response.Journeys))
	api.sendJSON(w, r, http.StatusOK, response)
}

func (api *RestAPI) renderJourney(result *raptor.Result, journey raptor.Journey) journeyResponse {
	steps := result.Path(result.Destination, journey)

	path := make([]pathStepResponse, 0, len(steps))
	coords := make([][]float64, 0, len(steps))
	for _, step := range steps {
		stop, ok := api.Snapshot.Stop(step.StopID)
		if !ok {
			continue
		}
		path = append(path, pathStepResponse{
			StopName: stop.Name,
			Lat:      stop.Lat,
			Lon:      stop.Lon,
			Method:   step.Method,
		})
		coords = append(coords, []float64{stop.Lat, stop.Lon})
	}

	return journeyResponse{
		Arrival:  journey.Arrival.HourMinute(),
		Trips:    journey.Legs,
		Path:     path,
		Polyline: string(polyline.EncodeCoords(coords)),
	}
}
