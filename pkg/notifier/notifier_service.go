package notifier

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/navette/navette/internal/event_bus"
	"github.com/navette/navette/pkg/transport"
	"github.com/navette/navette/pkg/user"
)

// Service listens for transport changes and texts the opposite role:
// admin-initiated changes go to the drivers, driver answers go to the admins.
// Delivery is best effort; nothing here ever fails the mutation that
// triggered it.
type Service struct {
	messenger Messenger
	users     user.Service
	bus       *event_bus.EventBus
}

func NewService(messenger Messenger, users user.Service, bus *event_bus.EventBus) *Service {
	return &Service{messenger: messenger, users: users, bus: bus}
}

// Subscribe registers the service on the change bus.
func (n *Service) Subscribe() {
	event_bus.SubscribeTyped(n.bus, event_bus.TransportsChanged, n.onTransportChanged)
}

func (n *Service) onTransportChanged(e event_bus.EventT[event_bus.TransportChanged]) error {
	change := e.Data

	var message string
	var audience []user.Role
	switch change.Action {
	case event_bus.TransportCreated:
		message = fmt.Sprintf("Nouveau transport: %s le %s", describe(change), transport.FormatDateKey(change.DateKey))
		audience = []user.Role{user.RoleChauffeur}
	case event_bus.TransportUpdated:
		message = fmt.Sprintf("Transport modifié: %s le %s", describe(change), transport.FormatDateKey(change.DateKey))
		audience = []user.Role{user.RoleChauffeur}
	case event_bus.TransportCancelled:
		message = fmt.Sprintf("Transport annulé: %s le %s", describe(change), transport.FormatDateKey(change.DateKey))
		audience = []user.Role{user.RoleChauffeur}
	case event_bus.TransportValidated:
		message = fmt.Sprintf("Transport validé par le chauffeur: %s le %s", describe(change), transport.FormatDateKey(change.DateKey))
		audience = []user.Role{user.RoleAdmin, user.RoleSuperAdmin}
	case event_bus.TransportRejected:
		message = fmt.Sprintf("Transport refusé par le chauffeur: %s le %s", describe(change), transport.FormatDateKey(change.DateKey))
		audience = []user.Role{user.RoleAdmin, user.RoleSuperAdmin}
	default:
		// pending resets and schedule edits notify nobody
		return nil
	}
	if change.DepartureOrigin != "" {
		message += " (départ " + change.DepartureOrigin + ")"
	}

	recipients, err := n.recipients(e.Context(), audience)
	if err != nil {
		log.Errorf("Could not resolve notification recipients: %v", err)
		return nil
	}
	if len(recipients) == 0 {
		log.Debugf("No recipients with a phone number for %s notification", change.Action)
		return nil
	}

	// Detached from the request: the mutation is already committed and must
	// not wait for the gateway.
	go func() {
		delivered, err := n.messenger.Send(context.Background(), recipients, message)
		if err != nil {
			log.Errorf("Could not send notification for %q: %v", change.DateKey, err)
			return
		}
		if delivered {
			log.Infof("Notified %d recipient(s) about %s of %q", len(recipients), change.Action, change.DateKey)
		}
	}()
	return nil
}

func (n *Service) recipients(ctx context.Context, roles []user.Role) ([]string, error) {
	users, err := n.users.UsersByRole(ctx, roles...)
	if err != nil {
		return nil, err
	}

	var phones []string
	for _, u := range users {
		if u.Phone == "" {
			continue
		}
		phones = append(phones, u.Phone)
	}
	return phones, nil
}

func describe(change event_bus.TransportChanged) string {
	if change.SchoolClass == "" {
		return change.Title
	}
	return fmt.Sprintf("%s (%s)", change.Title, change.SchoolClass)
}
