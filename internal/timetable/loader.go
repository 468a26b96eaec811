package timetable

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"raptor.opentransit.org/internal/logging"
)

// Load builds a snapshot from the given path. A .zip path is treated as a
// GTFS feed; anything else as a directory holding the stops.txt,
// stop_times.txt and transfers.txt triple.
func Load(path string) (*Snapshot, error) {
	if strings.EqualFold(filepath.Ext(path), ".zip") {
		return LoadGTFSZip(path)
	}
	return LoadDir(path)
}

// LoadDir reads the comma-separated timetable triple from a directory.
// transfers.txt is optional; the other two files are required.
func LoadDir(dir string) (*Snapshot, error) {
	logger := slog.Default().With(slog.String("component", "timetable_loader"))

	stops, err := loadStops(filepath.Join(dir, "stops.txt"))
	if err != nil {
		return nil, fmt.Errorf("loading stops: %w", err)
	}

	stopTimes, err := loadStopTimes(filepath.Join(dir, "stop_times.txt"))
	if err != nil {
		return nil, fmt.Errorf("loading stop times: %w", err)
	}

	transfers, err := loadTransfers(filepath.Join(dir, "transfers.txt"))
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("loading transfers: %w", err)
		}
		transfers = nil
	}

	snapshot, err := NewSnapshot(stops, stopTimes, transfers)
	if err != nil {
		return nil, err
	}

	logging.LogOperation(logger, "timetable_loaded",
		slog.Int("stops", snapshot.NumStops()),
		slog.Int("trips", snapshot.NumTrips()),
		slog.Int("transfers", len(transfers)))

	return snapshot, nil
}

func readRecords(path string, minFields int) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer logging.SafeCloseWithLogging(f,
		slog.Default().With(slog.String("component", "timetable_loader")), path)

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var records [][]string
	header := true
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if header {
			header = false
			continue
		}
		if len(record) < minFields {
			return nil, fmt.Errorf("%s: record has %d fields, want at least %d", path, len(record), minFields)
		}
		records = append(records, record)
	}
	return records, nil
}

// loadStops parses stops.txt. Columns: stop_id, stop_code, stop_name,
// stop_lat, stop_lon.
func loadStops(path string) ([]Stop, error) {
	records, err := readRecords(path, 5)
	if err != nil {
		return nil, err
	}

	stops := make([]Stop, 0, len(records))
	for _, record := range records {
		id, err := strconv.Atoi(record[0])
		if err != nil {
			return nil, fmt.Errorf("invalid stop id %q: %w", record[0], err)
		}
		lat, err := strconv.ParseFloat(record[3], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid latitude for stop %d: %w", id, err)
		}
		lon, err := strconv.ParseFloat(record[4], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid longitude for stop %d: %w", id, err)
		}
		stops = append(stops, Stop{
			ID:   id,
			Code: record[1],
			Name: record[2],
			Lat:  lat,
			Lon:  lon,
		})
	}
	return stops, nil
}

// loadStopTimes parses stop_times.txt. Columns: trip_id, arrival_time,
// departure_time, stop_id, stop_sequence.
func loadStopTimes(path string) ([]StopTime, error) {
	records, err := readRecords(path, 5)
	if err != nil {
		return nil, err
	}

	stopTimes := make([]StopTime, 0, len(records))
	for _, record := range records {
		arrival, err := ParseTime(record[1])
		if err != nil {
			return nil, fmt.Errorf("trip %s: %w", record[0], err)
		}
		departure, err := ParseTime(record[2])
		if err != nil {
			return nil, fmt.Errorf("trip %s: %w", record[0], err)
		}
		stopID, err := strconv.Atoi(record[3])
		if err != nil {
			return nil, fmt.Errorf("trip %s: invalid stop id %q", record[0], record[3])
		}
		sequence, err := strconv.Atoi(record[4])
		if err != nil {
			return nil, fmt.Errorf("trip %s: invalid sequence %q", record[0], record[4])
		}
		stopTimes = append(stopTimes, StopTime{
			TripID:    record[0],
			StopID:    stopID,
			Sequence:  sequence,
			Arrival:   arrival,
			Departure: departure,
		})
	}
	return stopTimes, nil
}

// loadTransfers parses transfers.txt. Columns: from_stop_id, to_stop_id,
// transfer_type, min_transfer_time.
func loadTransfers(path string) ([]Transfer, error) {
	records, err := readRecords(path, 4)
	if err != nil {
		return nil, err
	}

	transfers := make([]Transfer, 0, len(records))
	for _, record := range records {
		from, err := strconv.Atoi(record[0])
		if err != nil {
			return nil, fmt.Errorf("invalid transfer origin %q: %w", record[0], err)
		}
		to, err := strconv.Atoi(record[1])
		if err != nil {
			return nil, fmt.Errorf("invalid transfer target %q: %w", record[1], err)
		}
		duration, err := strconv.Atoi(record[3])
		if err != nil {
			return nil, fmt.Errorf("invalid transfer duration %q: %w", record[3], err)
		}
		transfers = append(transfers, Transfer{
			FromStopID:      from,
			ToStopID:        to,
			DurationSeconds: duration,
		})
	}
	return transfers, nil
}
