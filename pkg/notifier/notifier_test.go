package notifier

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/navette/navette/internal/event_bus"
	"github.com/navette/navette/internal/localcache"
	"github.com/navette/navette/pkg/user"
)

type sentMessage struct {
	Recipients []string
	Message    string
}

type fakeMessenger struct {
	calls chan sentMessage
}

func newFakeMessenger() *fakeMessenger {
	return &fakeMessenger{calls: make(chan sentMessage, 8)}
}

func (f *fakeMessenger) Send(ctx context.Context, recipients []string, message string) (bool, error) {
	f.calls <- sentMessage{Recipients: recipients, Message: message}
	return true, nil
}

func (f *fakeMessenger) waitForMessage(t *testing.T) sentMessage {
	t.Helper()
	select {
	case msg := <-f.calls:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("no message sent")
		return sentMessage{}
	}
}

func (f *fakeMessenger) assertNoMessage(t *testing.T) {
	t.Helper()
	select {
	case msg := <-f.calls:
		t.Fatalf("unexpected message: %q to %v", msg.Message, msg.Recipients)
	case <-time.After(100 * time.Millisecond):
	}
}

func newTestNotifier(t *testing.T) (*fakeMessenger, *user.StubRepository, *event_bus.EventBus) {
	t.Helper()
	repo := user.NewStubRepository()
	cache, err := localcache.NewStore(t.TempDir())
	require.NoError(t, err)
	users := user.NewService(repo, cache)

	bus := event_bus.NewEventBus()
	messenger := newFakeMessenger()
	NewService(messenger, users, bus).Subscribe()
	return messenger, repo, bus
}

func publishChange(t *testing.T, bus *event_bus.EventBus, change event_bus.TransportChanged) {
	t.Helper()
	err := bus.Publish(event_bus.NewEvent(context.Background(), event_bus.TransportsChanged, change))
	require.NoError(t, err)
}

func TestCreatedEventNotifiesDrivers(t *testing.T) {
	messenger, repo, bus := newTestNotifier(t)
	repo.Users["d@example.com"] = user.User{Email: "d@example.com", Role: user.RoleChauffeur, Phone: "+33600000001"}
	repo.Users["a@example.com"] = user.User{Email: "a@example.com", Role: user.RoleAdmin, Phone: "+33600000002"}

	publishChange(t, bus, event_bus.TransportChanged{
		DateKey:         "2025-5-10",
		Title:           "Sortie musée",
		SchoolClass:     "CM2",
		Action:          event_bus.TransportCreated,
		DepartureOrigin: "08:15",
	})

	msg := messenger.waitForMessage(t)
	assert.Equal(t, []string{"+33600000001"}, msg.Recipients)
	assert.Contains(t, msg.Message, "Nouveau transport")
	assert.Contains(t, msg.Message, "Sortie musée (CM2)")
	assert.Contains(t, msg.Message, "mardi 10 juin 2025")
	assert.Contains(t, msg.Message, "départ 08:15")
}

func TestValidatedStatusNotifiesAdmins(t *testing.T) {
	messenger, repo, bus := newTestNotifier(t)
	repo.Users["d@example.com"] = user.User{Email: "d@example.com", Role: user.RoleChauffeur, Phone: "+33600000001"}
	repo.Users["a@example.com"] = user.User{Email: "a@example.com", Role: user.RoleAdmin, Phone: "+33600000002"}
	repo.Users["s@example.com"] = user.User{Email: "s@example.com", Role: user.RoleSuperAdmin, Phone: "+33600000003"}

	publishChange(t, bus, event_bus.TransportChanged{
		DateKey: "2025-5-10",
		Title:   "Sortie musée",
		Status:  "validated",
		Action:  event_bus.TransportValidated,
	})

	msg := messenger.waitForMessage(t)
	assert.ElementsMatch(t, []string{"+33600000002", "+33600000003"}, msg.Recipients)
	assert.Contains(t, msg.Message, "validé par le chauffeur")
}

func TestRejectedStatusNotifiesAdmins(t *testing.T) {
	messenger, repo, bus := newTestNotifier(t)
	repo.Users["a@example.com"] = user.User{Email: "a@example.com", Role: user.RoleAdmin, Phone: "+33600000002"}

	publishChange(t, bus, event_bus.TransportChanged{
		DateKey: "2025-5-10",
		Title:   "Sortie musée",
		Status:  "rejected",
		Action:  event_bus.TransportRejected,
	})

	msg := messenger.waitForMessage(t)
	assert.Contains(t, msg.Message, "refusé par le chauffeur")
}

func TestResetToPendingNotifiesNobody(t *testing.T) {
	messenger, repo, bus := newTestNotifier(t)
	repo.Users["a@example.com"] = user.User{Email: "a@example.com", Role: user.RoleAdmin, Phone: "+33600000002"}

	publishChange(t, bus, event_bus.TransportChanged{
		DateKey: "2025-5-10",
		Title:   "Sortie musée",
		Action:  event_bus.TransportReset,
	})

	messenger.assertNoMessage(t)
}

func TestUsersWithoutPhoneAreSkipped(t *testing.T) {
	messenger, repo, bus := newTestNotifier(t)
	repo.Users["d@example.com"] = user.User{Email: "d@example.com", Role: user.RoleChauffeur}

	publishChange(t, bus, event_bus.TransportChanged{
		DateKey: "2025-5-10",
		Title:   "Sortie musée",
		Action:  event_bus.TransportCreated,
	})

	messenger.assertNoMessage(t)
}

func TestSimulatedSMS(t *testing.T) {
	sms := NewSimulatedSMS(10 * time.Millisecond)

	delivered, err := sms.Send(context.Background(), []string{"+33600000001"}, "test")
	require.NoError(t, err)
	assert.True(t, delivered)

	// no recipients means nothing to deliver
	delivered, err = sms.Send(context.Background(), nil, "test")
	require.NoError(t, err)
	assert.False(t, delivered)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = sms.Send(ctx, []string{"+33600000001"}, "test")
	assert.Error(t, err)
}
