package restapi

import (
	"net/http"
	"strconv"
)

type stopSearchResult struct {
	ID   int     `json:"id"`
	Code string  `json:"code,omitempty"`
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

// stopSearchHandler resolves partial stop names to stops via the FTS
// index, so clients can offer completion for the /calculate form.
func (api *RestAPI) stopSearchHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		api.validationErrorResponse(w, r, map[string][]string{
			"q": {"is required"},
		})
		return
	}

	maxCount := 0
	if raw := r.URL.Query().Get("maxCount"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			api.validationErrorResponse(w, r, map[string][]string{
				"maxCount": {"must be a non-negative integer"},
			})
			return
		}
		maxCount = parsed
	}

	rows, err := api.StopsDB.SearchStopsByName(r.Context(), query, maxCount)
	if err != nil {
		api.serverErrorResponse(w, r, err)
		return
	}

	results := make([]stopSearchResult, 0, len(rows))
	for _, row := range rows {
		results = append(results, stopSearchResult{
			ID:   row.ID,
			Code: row.Code,
			Name: row.Name,
			Lat:  row.Lat,
			Lon:  row.Lon,
		})
	}

	api.sendJSON(w, r, http.StatusOK, map[string]any{"stops": results})
}
