package destination

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/navette/navette/internal/event_bus"
	"github.com/navette/navette/internal/localcache"
)

var (
	ErrNotFound    = errors.New("destination not found")
	ErrMissingName = errors.New("destination name is required")
	ErrDuplicate   = errors.New("destination with this name and class already exists")
)

type Service interface {
	Destinations(ctx context.Context) []Destination
	Load(ctx context.Context) error
	Add(ctx context.Context, d Destination) (Destination, error)
	Update(ctx context.Context, d Destination) (Destination, error)
	Delete(ctx context.Context, id string) error
	SyncLocal(ctx context.Context) (int, error)
}

// ServiceImpl manages the explicit destination list with the same
// local-first write path as transports: memory and cache commit first, the
// database push follows and may fail without rolling anything back.
type ServiceImpl struct {
	repo  Repository
	cache *localcache.Store
	bus   *event_bus.EventBus

	mu    sync.RWMutex
	items []Destination
}

func NewService(repo Repository, cache *localcache.Store, bus *event_bus.EventBus) *ServiceImpl {
	return &ServiceImpl{repo: repo, cache: cache, bus: bus}
}

// SubscribeRefetch registers the service on the change bus: any destination
// change triggers a full re-fetch of the list.
func (s *ServiceImpl) SubscribeRefetch() {
	s.bus.Subscribe(event_bus.DestinationsChanged, func(e event_bus.Event) error {
		return s.Load(e.Context())
	})
}

// Destinations returns a snapshot of the explicit list.
func (s *ServiceImpl) Destinations(ctx context.Context) []Destination {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := make([]Destination, len(s.items))
	copy(snapshot, s.items)
	return snapshot
}

// Load replaces the list with the database contents, falling back to the
// local cache when the database cannot be reached or holds nothing.
func (s *ServiceImpl) Load(ctx context.Context) error {
	items, err := s.repo.SelectAll(ctx)
	if err != nil {
		log.Warnf("Could not load destinations from database, falling back to local cache: %v", err)
		s.loadFromCache()
		return nil
	}

	if len(items) == 0 {
		var cached []Destination
		if s.cache.Get(localcache.KeyDestinations, &cached) && len(cached) > 0 {
			log.Debug("Database returned no destinations, keeping locally cached list")
			s.replace(cached)
			return nil
		}
	}

	s.replace(items)
	return nil
}

func (s *ServiceImpl) loadFromCache() {
	var cached []Destination
	s.cache.Get(localcache.KeyDestinations, &cached)
	s.replace(cached)
}

func (s *ServiceImpl) replace(items []Destination) {
	s.mu.Lock()
	s.items = items
	s.mu.Unlock()
}

// Add appends a new destination. A destination whose (name, class) pair is
// already taken is rejected before anything is written.
func (s *ServiceImpl) Add(ctx context.Context, d Destination) (Destination, error) {
	if d.Name == "" {
		return Destination{}, ErrMissingName
	}
	if d.ID == "" {
		d.ID = uuid.NewString()
	}

	s.mu.Lock()
	for _, existing := range s.items {
		if existing.Key() == d.Key() {
			s.mu.Unlock()
			return Destination{}, fmt.Errorf("%w: %s", ErrDuplicate, d.Name)
		}
	}
	s.items = append(s.items, d)
	s.mu.Unlock()

	s.writeCache(ctx)

	if err := s.repo.Upsert(ctx, d); err != nil {
		log.Errorf("Could not push destination %q to database: %v", d.Name, err)
	}

	s.publish(ctx, event_bus.DestinationCreated, d)
	return d, nil
}

// Update modifies an existing destination by id.
func (s *ServiceImpl) Update(ctx context.Context, d Destination) (Destination, error) {
	if d.Name == "" {
		return Destination{}, ErrMissingName
	}

	s.mu.Lock()
	index := -1
	for i, existing := range s.items {
		if existing.ID == d.ID {
			index = i
			continue
		}
		if existing.Key() == d.Key() {
			s.mu.Unlock()
			return Destination{}, fmt.Errorf("%w: %s", ErrDuplicate, d.Name)
		}
	}
	if index < 0 {
		s.mu.Unlock()
		return Destination{}, ErrNotFound
	}
	s.items[index] = d
	s.mu.Unlock()

	s.writeCache(ctx)

	if err := s.repo.Update(ctx, d); err != nil {
		log.Errorf("Could not push destination %q to database: %v", d.ID, err)
	}

	s.publish(ctx, event_bus.DestinationUpdated, d)
	return d, nil
}

// Delete removes a destination by id. Deleting an unknown id is a no-op.
func (s *ServiceImpl) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	index := -1
	for i, existing := range s.items {
		if existing.ID == id {
			index = i
			break
		}
	}
	if index < 0 {
		s.mu.Unlock()
		return nil
	}
	removed := s.items[index]
	s.items = append(s.items[:index], s.items[index+1:]...)
	s.mu.Unlock()

	s.writeCache(ctx)

	if err := s.repo.Delete(ctx, id); err != nil {
		log.Errorf("Could not delete destination %q from database: %v", id, err)
	}

	s.publish(ctx, event_bus.DestinationDeleted, removed)
	return nil
}

// SyncLocal bulk-uploads the locally cached destinations to the database,
// row by row, then reloads from the database.
func (s *ServiceImpl) SyncLocal(ctx context.Context) (int, error) {
	var cached []Destination
	if !s.cache.Get(localcache.KeyDestinations, &cached) || len(cached) == 0 {
		return 0, nil
	}

	sort.Slice(cached, func(i, j int) bool { return cached[i].Name < cached[j].Name })

	synced := 0
	var failures []error
	for _, d := range cached {
		if d.Name == "" {
			continue
		}
		if d.ID == "" {
			d.ID = uuid.NewString()
		}
		if err := s.repo.Upsert(ctx, d); err != nil {
			failures = append(failures, fmt.Errorf("%s: %w", d.Name, err))
			continue
		}
		synced++
	}

	if err := s.Load(ctx); err != nil {
		log.Errorf("Could not reload destinations after sync: %v", err)
	}

	if len(failures) > 0 {
		return synced, fmt.Errorf("synced %d of %d destinations, %d failed: %v",
			synced, len(cached), len(failures), failures)
	}
	return synced, nil
}

func (s *ServiceImpl) writeCache(ctx context.Context) {
	snapshot := s.Destinations(ctx)
	if err := s.cache.Set(localcache.KeyDestinations, snapshot); err != nil {
		log.Errorf("Could not write destinations to local cache: %v", err)
	}
}

func (s *ServiceImpl) publish(ctx context.Context, action string, d Destination) {
	err := s.bus.Publish(event_bus.NewEvent(ctx, event_bus.DestinationsChanged, event_bus.DestinationChanged{
		Name:         d.Name,
		DefaultClass: d.DefaultClass,
		Action:       action,
	}))
	if err != nil {
		log.Errorf("Could not publish destination change for %q: %v", d.Name, err)
	}
}
