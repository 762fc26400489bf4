package transport

import (
	"fmt"
	"io"
	"strings"
	"time"
)

const icsProductID = "-//Navette//Transport Scolaire//FR"

// WriteICS writes a single-event iCalendar file for one transport day. The
// event is an all-day entry with two display alarms (the day before and one
// hour before), matching what drivers import into their phone calendars.
func WriteICS(w io.Writer, dateKey string, ev Event) error {
	day, err := ParseDateKey(dateKey)
	if err != nil {
		return fmt.Errorf("exporting calendar entry: %w", err)
	}

	summary := icsEscape("Transport: " + ev.Title)
	description := icsEscape(icsDescription(ev))
	location := icsEscape(ev.DepartureDestination)

	fmt.Fprintln(w, "BEGIN:VCALENDAR")
	fmt.Fprintln(w, "VERSION:2.0")
	fmt.Fprintf(w, "PRODID:%s\n", icsProductID)
	fmt.Fprintln(w, "CALSCALE:GREGORIAN")
	fmt.Fprintln(w, "METHOD:PUBLISH")
	fmt.Fprintln(w, "BEGIN:VEVENT")
	fmt.Fprintf(w, "UID:%s@navette.app\n", dateKey)
	fmt.Fprintf(w, "DTSTAMP:%s\n", time.Now().UTC().Format("20060102T150405Z"))
	fmt.Fprintf(w, "DTSTART;VALUE=DATE:%s\n", day.Format("20060102"))
	fmt.Fprintf(w, "DTEND;VALUE=DATE:%s\n", day.AddDate(0, 0, 1).Format("20060102"))
	fmt.Fprintf(w, "SUMMARY:%s\n", summary)
	fmt.Fprintf(w, "DESCRIPTION:%s\n", description)
	fmt.Fprintf(w, "LOCATION:%s\n", location)
	fmt.Fprintln(w, "STATUS:CONFIRMED")
	writeAlarm(w, "-PT24H", "Rappel Transport (Demain)")
	writeAlarm(w, "-PT1H", "Rappel Transport (Dans 1h)")
	fmt.Fprintln(w, "END:VEVENT")
	fmt.Fprintln(w, "END:VCALENDAR")
	return nil
}

func writeAlarm(w io.Writer, trigger, description string) {
	fmt.Fprintln(w, "BEGIN:VALARM")
	fmt.Fprintf(w, "TRIGGER:%s\n", trigger)
	fmt.Fprintf(w, "DESCRIPTION:%s\n", icsEscape(description))
	fmt.Fprintln(w, "ACTION:DISPLAY")
	fmt.Fprintln(w, "END:VALARM")
}

func icsDescription(ev Event) string {
	var lines []string
	if ev.SchoolClass != "" {
		lines = append(lines, "Classe: "+ev.SchoolClass)
	}
	if ev.DepartureOrigin != "" {
		lines = append(lines, "Départ: "+ev.DepartureOrigin)
	}
	if ev.DepartureDestination != "" {
		lines = append(lines, "Destination: "+ev.DepartureDestination)
	}
	return strings.Join(lines, "\n")
}

// icsEscape escapes the characters with special meaning in ICS text values.
func icsEscape(text string) string {
	replacer := strings.NewReplacer(
		"\\", "\\\\",
		",", "\\,",
		";", "\\;",
		"\n", "\\n",
	)
	return replacer.Replace(text)
}
