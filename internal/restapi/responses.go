package restapi

import (
	"encoding/json"
	"net/http"
)

func (api *RestAPI) sendJSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	setJSONResponseType(&w)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		api.serverErrorResponse(w, r, err)
	}
}

// sendErrorObject emits the planner's flat error shape. The journey
// surface reports bad stop names with HTTP 200 and an error field, so
// the status is the caller's choice.
func (api *RestAPI) sendErrorObject(w http.ResponseWriter, r *http.Request, status int, message string) {
	api.sendJSON(w, r, status, map[string]string{"error": message})
}

func (api *RestAPI) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	api.Logger.Error("internal server error",
		"error", err,
		"method", r.Method,
		"path", r.URL.Path)

	setJSONResponseType(&w)
	w.WriteHeader(http.StatusInternalServerError)
	_, _ = w.Write([]byte(`{"error":"internal server error"}`))
}

func (api *RestAPI) validationErrorResponse(w http.ResponseWriter, r *http.Request, fieldErrors map[string][]string) {
	api.sendJSON(w, r, http.StatusBadRequest, map[string]any{
		"error":  "validation failed",
		"fields": fieldErrors,
	})
}

func setJSONResponseType(w *http.ResponseWriter) {
	(*w).Header().Set("Content-Type", "application/json")
}
