package event_bus

// Event types published on the bus. Any TransportsChanged or
// DestinationsChanged publication is a coarse invalidation signal: listeners
// re-fetch whole state rather than patching incrementally.
const (
	TransportsChanged   EventType = "transports.changed"
	DestinationsChanged EventType = "destinations.changed"
)

// Actions carried by TransportChanged payloads.
const (
	TransportCreated   = "created"
	TransportUpdated   = "updated"
	TransportCancelled = "cancelled"
	TransportValidated = "validated"
	TransportRejected  = "rejected"
	TransportReset     = "reset"
	TransportScheduled = "scheduled"
)

// Actions carried by DestinationChanged payloads.
const (
	DestinationCreated = "created"
	DestinationUpdated = "updated"
	DestinationDeleted = "deleted"
)

// TransportChanged describes a mutation of a single transport event.
type TransportChanged struct {
	// DateKey identifies the mutated calendar day ("2025-5-10" style,
	// zero-based month).
	DateKey     string
	Title       string
	SchoolClass string
	Status      string
	// Action is one of the Transport* constants above.
	Action string
	// DepartureOrigin is the planned departure time, included so message
	// templates do not need a second lookup.
	DepartureOrigin string
}

// DestinationChanged describes a mutation of the destination list.
type DestinationChanged struct {
	Name         string
	DefaultClass string
	Action       string
}
