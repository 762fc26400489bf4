package stats

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/navette/navette/internal/event_bus"
	"github.com/navette/navette/internal/localcache"
	"github.com/navette/navette/internal/utils"
	"github.com/navette/navette/pkg/transport"
)

func newTestStats(t *testing.T) (*Service, transport.Service, *utils.MockClock) {
	t.Helper()
	cache, err := localcache.NewStore(t.TempDir())
	require.NoError(t, err)
	transports := transport.NewService(transport.NewStubRepository(), cache, event_bus.NewEventBus())
	clock := &utils.MockClock{FixedNow: time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)}
	return NewService(transports, clock), transports, clock
}

func logTransport(t *testing.T, transports transport.Service, dateKey, title string, outbound, ret transport.Schedule) {
	t.Helper()
	ctx := context.Background()
	_, err := transports.Save(ctx, dateKey, transport.Plan{Title: title})
	require.NoError(t, err)
	if !outbound.IsZero() || !ret.IsZero() {
		_, err = transports.SaveSchedule(ctx, dateKey, outbound, ret, false)
		require.NoError(t, err)
	}
}

func TestMonthly_SumsBothLegs(t *testing.T) {
	service, transports, _ := newTestStats(t)

	logTransport(t, transports, "2025-5-10", "Sortie musée",
		transport.Schedule{Steps: []transport.Step{{Time: "08:00", Location: "Ecole"}, {Time: "09:00", Location: "Musée"}}},
		transport.Schedule{Steps: []transport.Step{{Time: "16:00", Location: "Musée"}, {Time: "16:45", Location: "Ecole"}}})
	logTransport(t, transports, "2025-5-12", "Sortie piscine",
		transport.Schedule{Steps: []transport.Step{{Time: "08:30", Location: "Ecole"}, {Time: "09:00", Location: "Piscine"}}},
		transport.Schedule{})
	// other month, must not count
	logTransport(t, transports, "2025-4-20", "Sortie théâtre",
		transport.Schedule{Steps: []transport.Step{{Time: "08:00"}, {Time: "10:00"}}},
		transport.Schedule{})

	summary := service.Monthly(context.Background(), 2025, 5)

	assert.Equal(t, 2, summary.TransportCount)
	assert.Equal(t, 60+45+30, summary.TotalMinutes)
	assert.InDelta(t, 2.25, summary.TotalHours, 0.001)
	require.Len(t, summary.Days, 2)
	assert.Equal(t, "2025-5-10", summary.Days[0].DateKey)
	assert.Equal(t, 60, summary.Days[0].OutboundMinutes)
	assert.Equal(t, 45, summary.Days[0].ReturnMinutes)
}

func TestMonthly_EventsWithoutTimedStepsCountZeroMinutes(t *testing.T) {
	service, transports, _ := newTestStats(t)

	logTransport(t, transports, "2025-5-10", "Sortie musée", transport.Schedule{}, transport.Schedule{})

	summary := service.Monthly(context.Background(), 2025, 5)
	assert.Equal(t, 1, summary.TransportCount)
	assert.Zero(t, summary.TotalMinutes)
}

func TestMonthly_EmptyMonth(t *testing.T) {
	service, _, _ := newTestStats(t)

	summary := service.Monthly(context.Background(), 2025, 5)
	assert.Zero(t, summary.TransportCount)
	assert.Empty(t, summary.Days)
}

func TestCurrentMonth_FollowsClock(t *testing.T) {
	service, transports, clock := newTestStats(t)

	logTransport(t, transports, "2025-5-10", "Sortie musée",
		transport.Schedule{Steps: []transport.Step{{Time: "08:00"}, {Time: "09:30"}}},
		transport.Schedule{})

	summary := service.CurrentMonth(context.Background())
	assert.Equal(t, 2025, summary.Year)
	assert.Equal(t, 5, summary.Month)
	assert.Equal(t, 90, summary.TotalMinutes)

	clock.SetNow(time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC))
	assert.Zero(t, service.CurrentMonth(context.Background()).TransportCount)
}
