package transport

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDateKey_MonthIsZeroBasedAndUnpadded(t *testing.T) {
	assert.Equal(t, "2025-5-10", NewDateKey(2025, time.June, 10))
	assert.Equal(t, "2025-0-1", NewDateKey(2025, time.January, 1))
	assert.Equal(t, "2024-11-31", NewDateKey(2024, time.December, 31))
}

func TestParseDateKey(t *testing.T) {
	day, err := ParseDateKey("2025-5-10")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.June, 10, 0, 0, 0, 0, time.UTC), day)

	_, err = ParseDateKey("2025-5")
	assert.Error(t, err)

	_, err = ParseDateKey("2025-abc-10")
	assert.Error(t, err)
}

func TestFormatDateKey(t *testing.T) {
	assert.Equal(t, "mardi 10 juin 2025", FormatDateKey("2025-5-10"))
	assert.Equal(t, "mercredi 1 janvier 2025", FormatDateKey("2025-0-1"))
	// unparseable keys pass through untouched
	assert.Equal(t, "not-a-key", FormatDateKey("not-a-key"))
}

func TestParseSchedule_WrapperObject(t *testing.T) {
	schedule, err := ParseSchedule(`{"steps":[{"time":"08:00","location":"Ecole"},{"time":"09:30","location":"Musée"}],"stayedOnSite":true}`)
	require.NoError(t, err)
	assert.True(t, schedule.StayedOnSite)
	require.Len(t, schedule.Steps, 2)
	assert.Equal(t, "Musée", schedule.Steps[1].Location)
}

func TestParseSchedule_BareArray(t *testing.T) {
	schedule, err := ParseSchedule(`[{"time":"08:00","location":"Ecole"}]`)
	require.NoError(t, err)
	assert.False(t, schedule.StayedOnSite)
	require.Len(t, schedule.Steps, 1)
	assert.Equal(t, "08:00", schedule.Steps[0].Time)
}

func TestParseSchedule_DoubleEncodedString(t *testing.T) {
	inner := `[{"time":"08:00","location":"Ecole"},{"time":"10:00","location":"Château"}]`
	data, err := json.Marshal(inner)
	require.NoError(t, err)

	var schedule Schedule
	require.NoError(t, json.Unmarshal(data, &schedule))
	require.Len(t, schedule.Steps, 2)
	assert.Equal(t, "Château", schedule.Steps[1].Location)
}

func TestParseSchedule_EmptyAndMalformed(t *testing.T) {
	schedule, err := ParseSchedule("")
	require.NoError(t, err)
	assert.True(t, schedule.IsZero())

	_, err = ParseSchedule("{not json")
	assert.Error(t, err)
}

func TestSchedule_Encode_RoundTrip(t *testing.T) {
	original := Schedule{
		Steps:        []Step{{Time: "08:00", Location: "Ecole"}, {Time: "09:15", Location: "Piscine"}},
		StayedOnSite: true,
	}

	decoded, err := ParseSchedule(original.Encode())
	require.NoError(t, err)
	assert.Equal(t, original, decoded)

	assert.Equal(t, "", Schedule{}.Encode())
}

func TestSchedule_Minutes(t *testing.T) {
	schedule := Schedule{Steps: []Step{
		{Time: "08:00", Location: "Ecole"},
		{Time: "", Location: "Arrêt intermédiaire"},
		{Time: "09:45", Location: "Musée"},
	}}
	minutes, ok := schedule.Minutes()
	require.True(t, ok)
	assert.Equal(t, 105, minutes)
}

func TestSchedule_Minutes_Invalid(t *testing.T) {
	_, ok := Schedule{Steps: []Step{{Time: "08:00"}}}.Minutes()
	assert.False(t, ok, "a single timed step has no span")

	_, ok = Schedule{Steps: []Step{{Time: "10:00"}, {Time: "09:00"}}}.Minutes()
	assert.False(t, ok, "negative spans are ignored")

	_, ok = Schedule{Steps: []Step{{Time: ""}, {Time: ""}}}.Minutes()
	assert.False(t, ok)
}

func TestEvent_UnmarshalJSON_AcceptsBothClassSpellings(t *testing.T) {
	var camel Event
	require.NoError(t, json.Unmarshal([]byte(`{"title":"Sortie","schoolClass":"CM2"}`), &camel))
	assert.Equal(t, "CM2", camel.SchoolClass)

	var snake Event
	require.NoError(t, json.Unmarshal([]byte(`{"title":"Sortie","school_class":"CE1"}`), &snake))
	assert.Equal(t, "CE1", snake.SchoolClass)

	// the camelCase spelling wins when both are present
	var both Event
	require.NoError(t, json.Unmarshal([]byte(`{"title":"Sortie","schoolClass":"CM2","school_class":"CE1"}`), &both))
	assert.Equal(t, "CM2", both.SchoolClass)
}

func TestWriteICS(t *testing.T) {
	event := Event{
		Title:                "Sortie piscine, groupe A",
		SchoolClass:          "CM1",
		DepartureOrigin:      "08:30",
		DepartureDestination: "Piscine municipale",
	}

	var buf bytes.Buffer
	require.NoError(t, WriteICS(&buf, "2025-5-10", event))

	out := buf.String()
	assert.Contains(t, out, "BEGIN:VCALENDAR")
	assert.Contains(t, out, "DTSTART;VALUE=DATE:20250610")
	assert.Contains(t, out, "DTEND;VALUE=DATE:20250611")
	assert.Contains(t, out, `SUMMARY:Transport: Sortie piscine\, groupe A`)
	assert.Contains(t, out, "UID:2025-5-10@navette.app")
	assert.Contains(t, out, "TRIGGER:-PT24H")
	assert.Contains(t, out, "TRIGGER:-PT1H")
	assert.Contains(t, out, "END:VCALENDAR")
}

func TestWriteICS_InvalidDateKey(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, WriteICS(&buf, "garbage", Event{Title: "Sortie"}))
}
