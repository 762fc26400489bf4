package transport

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Status of a transport event in the driver workflow.
type Status string

const (
	StatusPending   Status = "pending"
	StatusValidated Status = "validated"
	StatusRejected  Status = "rejected"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusValidated, StatusRejected:
		return true
	}
	return false
}

// TypeAvailable tags every event written by the planner.
const TypeAvailable = "available"

// DefaultColor is the theme blue applied when neither the event nor a
// matching destination carries a color.
const DefaultColor = "#3b82f6"

// Step is one stop of a driver's detailed schedule.
type Step struct {
	Time     string `json:"time"`
	Location string `json:"location"`
}

// Schedule is the canonical shape of a driver-logged leg. Two legacy
// encodings exist in stored data: a bare JSON array of steps, and an object
// wrapping {steps, stayedOnSite}. Decoding accepts both (plus a
// double-encoded JSON string of either) and normalizes to this struct once at
// the boundary; everything past the decoder deals with Schedule only.
type Schedule struct {
	Steps        []Step `json:"steps"`
	StayedOnSite bool   `json:"stayedOnSite"`
}

func (s Schedule) IsZero() bool {
	return len(s.Steps) == 0 && !s.StayedOnSite
}

func (s *Schedule) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*s = Schedule{}
		return nil
	}

	// Double-encoded legacy rows store the schedule as a JSON string.
	if trimmed[0] == '"' {
		var raw string
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return err
		}
		parsed, err := ParseSchedule(raw)
		if err != nil {
			return err
		}
		*s = parsed
		return nil
	}

	if trimmed[0] == '[' {
		var steps []Step
		if err := json.Unmarshal(trimmed, &steps); err != nil {
			return err
		}
		*s = Schedule{Steps: steps}
		return nil
	}

	type alias Schedule
	var a alias
	if err := json.Unmarshal(trimmed, &a); err != nil {
		return err
	}
	*s = Schedule(a)
	return nil
}

// ParseSchedule decodes the text stored in a schedule column. An empty string
// is an empty schedule.
func ParseSchedule(raw string) (Schedule, error) {
	if strings.TrimSpace(raw) == "" {
		return Schedule{}, nil
	}
	var s Schedule
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return Schedule{}, fmt.Errorf("could not parse schedule: %w", err)
	}
	return s, nil
}

// Encode returns the canonical JSON text for storage. Empty schedules encode
// to the empty string so untouched columns stay empty.
func (s Schedule) Encode() string {
	if s.IsZero() {
		return ""
	}
	data, _ := json.Marshal(s)
	return string(data)
}

// Minutes returns the span between the first and last step carrying a
// non-blank time, in minutes. The second return is false when fewer than two
// such steps exist or the span is not positive.
func (s Schedule) Minutes() (int, bool) {
	valid := make([]Step, 0, len(s.Steps))
	for _, step := range s.Steps {
		if strings.TrimSpace(step.Time) != "" {
			valid = append(valid, step)
		}
	}
	if len(valid) < 2 {
		return 0, false
	}
	first, ok1 := clockMinutes(valid[0].Time)
	last, ok2 := clockMinutes(valid[len(valid)-1].Time)
	if !ok1 || !ok2 || last-first <= 0 {
		return 0, false
	}
	return last - first, true
}

func clockMinutes(hhmm string) (int, bool) {
	parts := strings.Split(strings.TrimSpace(hhmm), ":")
	if len(parts) != 2 {
		return 0, false
	}
	h, err1 := strconv.Atoi(parts[0])
	m, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil {
		return 0, false
	}
	return h*60 + m, true
}

// Event is a planned transport for one calendar day. JSON field names follow
// the stored row shape; SchoolClass additionally accepts the legacy
// "school_class" spelling on decode.
type Event struct {
	Title                string   `json:"title"`
	SchoolClass          string   `json:"schoolClass,omitempty"`
	Color                string   `json:"color,omitempty"`
	Status               Status   `json:"status,omitempty"`
	Type                 string   `json:"type,omitempty"`
	DepartureOrigin      string   `json:"time_departure_origin,omitempty"`
	DepartureDestination string   `json:"time_departure_destination,omitempty"`
	Outbound             Schedule `json:"time_departure_school,omitempty"`
	Return               Schedule `json:"time_arrival_school,omitempty"`
	StayedOnSite         bool     `json:"stayed_on_site,omitempty"`
}

func (e *Event) UnmarshalJSON(data []byte) error {
	type alias Event
	aux := struct {
		*alias
		SchoolClassSnake string `json:"school_class"`
	}{alias: (*alias)(e)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if e.SchoolClass == "" {
		e.SchoolClass = aux.SchoolClassSnake
	}
	return nil
}

// Record is an event together with its calendar-day key, as stored in the
// transports table.
type Record struct {
	DateKey string `json:"dateKey"`
	Event
}

// NewDateKey builds the composite day key used throughout the application:
// year, zero-based month, and day joined with dashes and no zero padding
// ("2025-5-10" is the 10th of June 2025). Keys are plain strings; padded
// variants of the same day are distinct keys on purpose.
func NewDateKey(year int, month time.Month, day int) string {
	return fmt.Sprintf("%d-%d-%d", year, int(month)-1, day)
}

// ParseDateKey resolves a date key to the day it names.
func ParseDateKey(key string) (time.Time, error) {
	parts := strings.Split(key, "-")
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("invalid date key %q", key)
	}
	year, err1 := strconv.Atoi(parts[0])
	month, err2 := strconv.Atoi(parts[1])
	day, err3 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return time.Time{}, fmt.Errorf("invalid date key %q", key)
	}
	return time.Date(year, time.Month(month+1), day, 0, 0, 0, 0, time.UTC), nil
}

var frenchDays = [...]string{"dimanche", "lundi", "mardi", "mercredi", "jeudi", "vendredi", "samedi"}

var frenchMonths = [...]string{"janvier", "février", "mars", "avril", "mai", "juin",
	"juillet", "août", "septembre", "octobre", "novembre", "décembre"}

// FormatDateKey renders a date key for user-facing messages ("mardi 10 juin
// 2025"). Unparseable keys are returned as-is.
func FormatDateKey(key string) string {
	t, err := ParseDateKey(key)
	if err != nil {
		return key
	}
	return fmt.Sprintf("%s %d %s %d", frenchDays[t.Weekday()], t.Day(), frenchMonths[t.Month()-1], t.Year())
}
