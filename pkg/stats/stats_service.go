package stats

import (
	"context"
	"sort"

	"github.com/navette/navette/internal/utils"
	"github.com/navette/navette/pkg/transport"
)

// DayStats is the driving time logged for one transport day. Minutes are
// measured from the first to the last timed step of each leg; legs with fewer
// than two timed steps count zero.
type DayStats struct {
	DateKey         string `json:"dateKey"`
	Title           string `json:"title"`
	OutboundMinutes int    `json:"outboundMinutes"`
	ReturnMinutes   int    `json:"returnMinutes"`
}

// MonthlySummary aggregates driver hours for one calendar month. Month is
// zero-based, matching the date-key convention used everywhere else.
type MonthlySummary struct {
	Year           int        `json:"year"`
	Month          int        `json:"month"`
	TransportCount int        `json:"transportCount"`
	TotalMinutes   int        `json:"totalMinutes"`
	TotalHours     float64    `json:"totalHours"`
	Days           []DayStats `json:"days"`
}

type Service struct {
	transports transport.Service
	clock      utils.Clock
}

func NewService(transports transport.Service, clock utils.Clock) *Service {
	return &Service{transports: transports, clock: clock}
}

// Monthly sums the logged driving time of every transport in the given month.
// The month is zero-based like in date keys.
func (s *Service) Monthly(ctx context.Context, year, month int) MonthlySummary {
	summary := MonthlySummary{Year: year, Month: month, Days: []DayStats{}}

	for dateKey, ev := range s.transports.Events(ctx) {
		day, err := transport.ParseDateKey(dateKey)
		if err != nil {
			continue
		}
		if day.Year() != year || int(day.Month())-1 != month {
			continue
		}

		dayStats := DayStats{DateKey: dateKey, Title: ev.Title}
		if minutes, ok := ev.Outbound.Minutes(); ok {
			dayStats.OutboundMinutes = minutes
		}
		if minutes, ok := ev.Return.Minutes(); ok {
			dayStats.ReturnMinutes = minutes
		}

		summary.TransportCount++
		summary.TotalMinutes += dayStats.OutboundMinutes + dayStats.ReturnMinutes
		summary.Days = append(summary.Days, dayStats)
	}

	sort.Slice(summary.Days, func(i, j int) bool {
		di, _ := transport.ParseDateKey(summary.Days[i].DateKey)
		dj, _ := transport.ParseDateKey(summary.Days[j].DateKey)
		return di.Before(dj)
	})

	summary.TotalHours = float64(summary.TotalMinutes) / 60.0
	return summary
}

// CurrentMonth returns the summary for the month the clock is in.
func (s *Service) CurrentMonth(ctx context.Context) MonthlySummary {
	now := s.clock.Now()
	return s.Monthly(ctx, now.Year(), int(now.Month())-1)
}
