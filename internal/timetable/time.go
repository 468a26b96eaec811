package timetable

import (
	"fmt"
	"strconv"
	"strings"
)

// Time is a second-precision clock value measured from midnight of the
// service day. Values past 86400 represent post-midnight service and are
// valid.
type Time int

// NewTime builds a Time from hour, minute and second components.
func NewTime(h, m, s int) Time {
	return Time(3600*h + 60*m + s)
}

// Seconds returns the raw seconds-since-midnight value.
func (t Time) Seconds() int {
	return int(t)
}

// Clock splits a Time back into hour, minute and second components.
func (t Time) Clock() (h, m, s int) {
	return int(t) / 3600, (int(t) % 3600) / 60, int(t) % 60
}

// Add returns the Time shifted forward by the given number of seconds.
func (t Time) Add(seconds int) Time {
	return t + Time(seconds)
}

func (t Time) String() string {
	h, m, s := t.Clock()
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// HourMinute renders a Time the way the journey response expects it,
// without zero padding.
func (t Time) HourMinute() string {
	h, m, _ := t.Clock()
	return fmt.Sprintf("%d:%d", h, m)
}

// ParseTime parses an HH:MM:SS timetable value. Hours may exceed 23 for
// post-midnight service.
func ParseTime(value string) (Time, error) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("invalid time %q: want HH:MM:SS", value)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 {
		return 0, fmt.Errorf("invalid hours in time %q", value)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid minutes in time %q", value)
	}
	s, err := strconv.Atoi(parts[2])
	if err != nil || s < 0 || s > 59 {
		return 0, fmt.Errorf("invalid seconds in time %q", value)
	}
	return NewTime(h, m, s), nil
}

// ParseHourMinute parses the H:M form used by journey requests. Seconds
// are zero.
func ParseHourMinute(value string) (Time, error) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time %q: want H:M", value)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 {
		return 0, fmt.Errorf("invalid hours in time %q", value)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid minutes in time %q", value)
	}
	return NewTime(h, m, 0), nil
}
