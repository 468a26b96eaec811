package stopsdb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"raptor.opentransit.org/internal/timetable"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	client, err := NewClient(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	snapshot, err := timetable.NewSnapshot([]timetable.Stop{
		{ID: 1, Code: "CEN", Name: "Central Station", Lat: 48.2, Lon: 16.37},
		{ID: 2, Code: "HBR", Name: "Harbour Square", Lat: 48.21, Lon: 16.38},
		{ID: 3, Code: "CPK", Name: "Central Park North", Lat: 48.22, Lon: 16.39},
	}, nil, nil)
	require.NoError(t, err)

	require.NoError(t, client.Populate(context.Background(), snapshot))
	return client
}

func TestBuildStopSearchQuery(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "single term", input: "central", expected: `"central"*`},
		{name: "multiple terms", input: "central station", expected: `"central"* AND "station"*`},
		{name: "uppercase folded", input: "CENTRAL", expected: `"central"*`},
		{name: "embedded quotes escaped", input: `cen"tral`, expected: `"cen""tral"*`},
		{name: "whitespace only", input: "   ", expected: ""},
		{name: "empty", input: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, buildStopSearchQuery(tt.input))
		})
	}
}

func TestSearchStopsByName(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	rows, err := client.SearchStopsByName(ctx, "central", 10)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	names := []string{rows[0].Name, rows[1].Name}
	assert.Contains(t, names, "Central Station")
	assert.Contains(t, names, "Central Park North")

	rows, err = client.SearchStopsByName(ctx, "central station", 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 1, rows[0].ID)
	assert.Equal(t, "CEN", rows[0].Code)
	assert.InDelta(t, 48.2, rows[0].Lat, 1e-9)

	rows, err = client.SearchStopsByName(ctx, "harb", 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Harbour Square", rows[0].Name)
}

func TestSearchStopsByNameEmptyQuery(t *testing.T) {
	client := newTestClient(t)

	rows, err := client.SearchStopsByName(context.Background(), "   ", 10)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestSearchStopsByNameLimit(t *testing.T) {
	client := newTestClient(t)

	rows, err := client.SearchStopsByName(context.Background(), "central", 1)
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	// Non-positive limits fall back to the default.
	rows, err = client.SearchStopsByName(context.Background(), "central", 0)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestPopulateReplacesExistingRows(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	snapshot, err := timetable.NewSnapshot([]timetable.Stop{
		{ID: 9, Name: "Only Stop", Lat: 1, Lon: 1},
	}, nil, nil)
	require.NoError(t, err)

	require.NoError(t, client.Populate(ctx, snapshot))

	rows, err := client.SearchStopsByName(ctx, "central", 10)
	require.NoError(t, err)
	assert.Empty(t, rows)

	rows, err = client.SearchStopsByName(ctx, "only", 10)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
