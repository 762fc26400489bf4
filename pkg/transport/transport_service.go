package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/navette/navette/internal/event_bus"
	"github.com/navette/navette/internal/localcache"
)

var (
	ErrNotFound      = errors.New("transport not found")
	ErrMissingTitle  = errors.New("transport title is required")
	ErrInvalidKey    = errors.New("transport date key is required")
	ErrInvalidStatus = errors.New("invalid transport status")
)

// Plan is the admin-editable part of an event. Saving a plan over an existing
// event merges onto it: driver-logged schedules and, unless Status is set
// explicitly, the current status survive the edit.
type Plan struct {
	Title                string `json:"title"`
	SchoolClass          string `json:"schoolClass"`
	Color                string `json:"color"`
	DepartureOrigin      string `json:"time_departure_origin"`
	DepartureDestination string `json:"time_departure_destination"`
	Status               Status `json:"status"`
}

func (p *Plan) UnmarshalJSON(data []byte) error {
	type alias Plan
	aux := struct {
		*alias
		SchoolClassSnake string `json:"school_class"`
	}{alias: (*alias)(p)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if p.SchoolClass == "" {
		p.SchoolClass = aux.SchoolClassSnake
	}
	return nil
}

type Service interface {
	Events(ctx context.Context) map[string]Event
	Load(ctx context.Context) error
	Save(ctx context.Context, dateKey string, plan Plan) (Event, error)
	Delete(ctx context.Context, dateKey string) error
	SetStatus(ctx context.Context, dateKey string, status Status) (Event, error)
	SaveSchedule(ctx context.Context, dateKey string, outbound, ret Schedule, stayedOnSite bool) (Event, error)
	SyncLocal(ctx context.Context) (int, error)
}

// ServiceImpl keeps the authoritative in-memory view of the calendar. Every
// mutation commits to memory and the local cache first, then pushes to the
// database; a failed push is logged but never rolls the local state back. The
// database wins again on the next Load.
type ServiceImpl struct {
	repo  Repository
	cache *localcache.Store
	bus   *event_bus.EventBus

	mu     sync.RWMutex
	events map[string]Event
}

func NewService(repo Repository, cache *localcache.Store, bus *event_bus.EventBus) *ServiceImpl {
	return &ServiceImpl{
		repo:   repo,
		cache:  cache,
		bus:    bus,
		events: make(map[string]Event),
	}
}

// SubscribeRefetch registers the service on the change bus: any transport or
// destination change triggers a full re-fetch, mirroring how connected clients
// converge on the stored state.
func (s *ServiceImpl) SubscribeRefetch() {
	refetch := func(e event_bus.Event) error {
		return s.Load(e.Context())
	}
	s.bus.Subscribe(event_bus.TransportsChanged, refetch)
	s.bus.Subscribe(event_bus.DestinationsChanged, refetch)
}

// Events returns a snapshot of the calendar keyed by date key.
func (s *ServiceImpl) Events(ctx context.Context) map[string]Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := make(map[string]Event, len(s.events))
	for key, ev := range s.events {
		snapshot[key] = ev
	}
	return snapshot
}

// Load replaces the in-memory view with the database contents. When the
// database cannot be reached or holds nothing, the local cache is used
// instead; the two sources are never merged.
func (s *ServiceImpl) Load(ctx context.Context) error {
	records, err := s.repo.SelectAll(ctx)
	if err != nil {
		log.Warnf("Could not load transports from database, falling back to local cache: %v", err)
		s.loadFromCache()
		return nil
	}

	events := make(map[string]Event, len(records))
	for _, rec := range records {
		if rec.DateKey == "" {
			log.Warn("Dropping transport row without a date key")
			continue
		}
		events[rec.DateKey] = rec.Event
	}

	if len(events) == 0 {
		cached := map[string]Event{}
		if s.cache.Get(localcache.KeyEvents, &cached) && len(cached) > 0 {
			log.Debug("Database returned no transports, keeping locally cached events")
			s.replace(cached)
			return nil
		}
	}

	s.replace(events)
	return nil
}

func (s *ServiceImpl) loadFromCache() {
	cached := map[string]Event{}
	s.cache.Get(localcache.KeyEvents, &cached)
	s.replace(cached)
}

func (s *ServiceImpl) replace(events map[string]Event) {
	if events == nil {
		events = make(map[string]Event)
	}
	s.mu.Lock()
	s.events = events
	s.mu.Unlock()
}

// Save creates or updates the plan for a calendar day.
func (s *ServiceImpl) Save(ctx context.Context, dateKey string, plan Plan) (Event, error) {
	if dateKey == "" {
		return Event{}, ErrInvalidKey
	}
	if plan.Title == "" {
		return Event{}, ErrMissingTitle
	}
	if plan.Status != "" && !plan.Status.Valid() {
		return Event{}, fmt.Errorf("%w: %q", ErrInvalidStatus, plan.Status)
	}

	s.mu.Lock()
	existing, existed := s.events[dateKey]
	ev := existing
	ev.Title = plan.Title
	ev.SchoolClass = plan.SchoolClass
	ev.Color = plan.Color
	ev.DepartureOrigin = plan.DepartureOrigin
	ev.DepartureDestination = plan.DepartureDestination
	ev.Type = TypeAvailable
	switch {
	case plan.Status != "":
		ev.Status = plan.Status
	case existing.Status != "":
		// keep the driver's answer across plan edits
	default:
		ev.Status = StatusPending
	}
	s.events[dateKey] = ev
	s.mu.Unlock()

	s.writeCache(ctx)

	if err := s.repo.Upsert(ctx, Record{DateKey: dateKey, Event: ev}); err != nil {
		log.Errorf("Could not push transport %q to database: %v", dateKey, err)
	}

	action := event_bus.TransportCreated
	if existed {
		action = event_bus.TransportUpdated
	}
	s.publish(ctx, action, dateKey, ev)
	return ev, nil
}

// Delete removes the event for a day. Deleting an absent day is a no-op: no
// cache write, no database call, no change event.
func (s *ServiceImpl) Delete(ctx context.Context, dateKey string) error {
	s.mu.Lock()
	ev, ok := s.events[dateKey]
	if !ok {
		s.mu.Unlock()
		return nil
	}
	delete(s.events, dateKey)
	s.mu.Unlock()

	s.writeCache(ctx)

	if err := s.repo.Delete(ctx, dateKey); err != nil {
		log.Errorf("Could not delete transport %q from database: %v", dateKey, err)
	}

	s.publish(ctx, event_bus.TransportCancelled, dateKey, ev)
	return nil
}

// SetStatus records the driver's answer for a day.
func (s *ServiceImpl) SetStatus(ctx context.Context, dateKey string, status Status) (Event, error) {
	if !status.Valid() {
		return Event{}, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	s.mu.Lock()
	ev, ok := s.events[dateKey]
	if !ok {
		s.mu.Unlock()
		return Event{}, ErrNotFound
	}
	ev.Status = status
	s.events[dateKey] = ev
	s.mu.Unlock()

	s.writeCache(ctx)

	if err := s.repo.UpdateStatus(ctx, dateKey, status); err != nil {
		log.Errorf("Could not push status of transport %q to database: %v", dateKey, err)
	}

	var action string
	switch status {
	case StatusValidated:
		action = event_bus.TransportValidated
	case StatusRejected:
		action = event_bus.TransportRejected
	default:
		action = event_bus.TransportReset
	}
	s.publish(ctx, action, dateKey, ev)
	return ev, nil
}

// SaveSchedule stores the driver-logged step lists for both legs of a day.
func (s *ServiceImpl) SaveSchedule(ctx context.Context, dateKey string, outbound, ret Schedule, stayedOnSite bool) (Event, error) {
	s.mu.Lock()
	ev, ok := s.events[dateKey]
	if !ok {
		s.mu.Unlock()
		return Event{}, ErrNotFound
	}
	ev.Outbound = outbound
	ev.Return = ret
	ev.StayedOnSite = stayedOnSite
	s.events[dateKey] = ev
	s.mu.Unlock()

	s.writeCache(ctx)

	if err := s.repo.UpdateSchedule(ctx, dateKey, outbound, ret, stayedOnSite); err != nil {
		log.Errorf("Could not push schedule of transport %q to database: %v", dateKey, err)
	}

	s.publish(ctx, event_bus.TransportScheduled, dateKey, ev)
	return ev, nil
}

// SyncLocal bulk-uploads the locally cached events to the database. Rows are
// pushed independently; failures do not stop the remaining rows and come back
// as one aggregate error alongside the count of rows that made it.
func (s *ServiceImpl) SyncLocal(ctx context.Context) (int, error) {
	cached := map[string]Event{}
	if !s.cache.Get(localcache.KeyEvents, &cached) || len(cached) == 0 {
		return 0, nil
	}

	keys := make([]string, 0, len(cached))
	for key := range cached {
		if key == "" {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	synced := 0
	var failures []error
	for _, key := range keys {
		if err := s.repo.Upsert(ctx, Record{DateKey: key, Event: cached[key]}); err != nil {
			failures = append(failures, fmt.Errorf("%s: %w", key, err))
			continue
		}
		synced++
	}

	if err := s.Load(ctx); err != nil {
		log.Errorf("Could not reload transports after sync: %v", err)
	}

	if len(failures) > 0 {
		return synced, fmt.Errorf("synced %d of %d events, %d failed: %v",
			synced, len(keys), len(failures), failures)
	}
	return synced, nil
}

func (s *ServiceImpl) writeCache(ctx context.Context) {
	snapshot := s.Events(ctx)
	if err := s.cache.Set(localcache.KeyEvents, snapshot); err != nil {
		log.Errorf("Could not write transport events to local cache: %v", err)
	}
}

func (s *ServiceImpl) publish(ctx context.Context, action, dateKey string, ev Event) {
	err := s.bus.Publish(event_bus.NewEvent(ctx, event_bus.TransportsChanged, event_bus.TransportChanged{
		DateKey:         dateKey,
		Title:           ev.Title,
		SchoolClass:     ev.SchoolClass,
		Status:          string(ev.Status),
		Action:          action,
		DepartureOrigin: ev.DepartureOrigin,
	}))
	if err != nil {
		log.Errorf("Could not publish transport change for %q: %v", dateKey, err)
	}
}
