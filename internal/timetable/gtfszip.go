package timetable

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/OneBusAway/go-gtfs"

	"raptor.opentransit.org/internal/logging"
)

// LoadGTFSZip builds a snapshot from a standard GTFS feed archive. Stop
// ids are assigned densely in the order the feed lists its stops, so a
// snapshot built twice from the same feed is identical.
func LoadGTFSZip(path string) (*Snapshot, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading GTFS file: %w", err)
	}

	staticData, err := gtfs.ParseStatic(b, gtfs.ParseStaticOptions{})
	if err != nil {
		return nil, fmt.Errorf("parsing GTFS data: %w", err)
	}

	return snapshotFromStatic(staticData)
}

func snapshotFromStatic(staticData *gtfs.Static) (*Snapshot, error) {
	logger := slog.Default().With(slog.String("component", "gtfs_loader"))

	idByGtfsID := make(map[string]int, len(staticData.Stops))
	stops := make([]Stop, 0, len(staticData.Stops))
	for _, stop := range staticData.Stops {
		if stop.Latitude == nil || stop.Longitude == nil {
			logger.Warn("skipping stop without coordinates", slog.String("stop_id", stop.Id))
			continue
		}
		id := len(stops)
		idByGtfsID[stop.Id] = id
		stops = append(stops, Stop{
			ID:   id,
			Code: stop.Code,
			Name: stop.Name,
			Lat:  *stop.Latitude,
			Lon:  *stop.Longitude,
		})
	}

	var stopTimes []StopTime
	for _, trip := range staticData.Trips {
		for _, st := range trip.StopTimes {
			if st.Stop == nil {
				continue
			}
			stopID, ok := idByGtfsID[st.Stop.Id]
			if !ok {
				continue
			}
			stopTimes = append(stopTimes, StopTime{
				TripID:    trip.ID,
				StopID:    stopID,
				Sequence:  st.StopSequence,
				Arrival:   Time(st.ArrivalTime / time.Second),
				Departure: Time(st.DepartureTime / time.Second),
			})
		}
	}

	var transfers []Transfer
	for _, tr := range staticData.Transfers {
		if tr.From == nil || tr.To == nil {
			continue
		}
		from, ok := idByGtfsID[tr.From.Id]
		if !ok {
			continue
		}
		to, ok := idByGtfsID[tr.To.Id]
		if !ok {
			continue
		}
		duration := 0
		if tr.MinTransferTime != nil {
			duration = int(*tr.MinTransferTime)
		}
		transfers = append(transfers, Transfer{
			FromStopID:      from,
			ToStopID:        to,
			DurationSeconds: duration,
		})
	}

	snapshot, err := NewSnapshot(stops, stopTimes, transfers)
	if err != nil {
		return nil, err
	}

	logging.LogOperation(logger, "gtfs_feed_loaded",
		slog.Int("stops", snapshot.NumStops()),
		slog.Int("trips", snapshot.NumTrips()))

	return snapshot, nil
}
