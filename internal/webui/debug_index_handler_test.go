package webui

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"raptor.opentransit.org/internal/appconf"
	"raptor.opentransit.org/internal/timetable"
)

func debugSnapshot(t *testing.T) *timetable.Snapshot {
	t.Helper()
	snapshot, err := timetable.NewSnapshot([]timetable.Stop{
		{ID: 1, Name: "Central", Lat: 0, Lon: 0},
	}, nil, nil)
	require.NoError(t, err)
	return snapshot
}

func TestDebugIndexHandler_ProductionReturns404(t *testing.T) {
	webUI := New(appconf.Config{Env: appconf.Production}, debugSnapshot(t))

	req, _ := http.NewRequest("GET", "/debug?dataType=stops", nil)
	rr := httptest.NewRecorder()

	webUI.debugIndexHandler(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code, "Should return 404 in Production")
}

func TestDebugIndexHandler_DevelopmentReturns200(t *testing.T) {
	webUI := New(appconf.Config{Env: appconf.Development}, debugSnapshot(t))

	req, _ := http.NewRequest("GET", "/debug?dataType=stops", nil)
	rr := httptest.NewRecorder()

	webUI.debugIndexHandler(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Central")
}

func TestDebugIndexHandler_UnknownDataType(t *testing.T) {
	webUI := New(appconf.Config{Env: appconf.Development}, debugSnapshot(t))

	req, _ := http.NewRequest("GET", "/debug?dataType=nope", nil)
	rr := httptest.NewRecorder()

	webUI.debugIndexHandler(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Choose a data type")
}
