package app

import (
	"database/sql"

	"github.com/navette/navette/internal/config"
	"github.com/navette/navette/internal/event_bus"
	"github.com/navette/navette/internal/localcache"
	"github.com/navette/navette/internal/utils"
	"github.com/navette/navette/pkg/destination"
	"github.com/navette/navette/pkg/notifier"
	"github.com/navette/navette/pkg/stats"
	"github.com/navette/navette/pkg/transport"
	"github.com/navette/navette/pkg/user"
)

// Dependencies holds all services and handlers for the application.
type Dependencies struct {
	Bus   *event_bus.EventBus
	Cache *localcache.Store
	Clock utils.Clock

	UserService user.Service
	UserHandler *user.UserHandler

	TransportRepo    transport.Repository
	TransportService *transport.ServiceImpl
	TransportHandler *transport.TransportHandler

	DestinationRepo    destination.Repository
	DestinationService *destination.ServiceImpl
	DestinationHandler *destination.DestinationHandler

	Messenger       notifier.Messenger
	NotifierService *notifier.Service

	StatsService *stats.Service
	StatsHandler *stats.StatsHandler
}

// BuildDependencies initializes and wires all application services and handlers.
func BuildDependencies(db *sql.DB, cfg config.Application) (*Dependencies, error) {
	deps := &Dependencies{}

	deps.Bus = event_bus.NewEventBus()
	cache, err := localcache.NewStore(cfg.Cache.Dir)
	if err != nil {
		return nil, err
	}
	deps.Cache = cache
	deps.Clock = &utils.SystemClock{}

	deps.UserService = user.NewService(user.NewRepository(db), deps.Cache)
	deps.UserHandler = user.NewUserHandler(deps.UserService)

	deps.TransportRepo = transport.NewRepository(db)
	deps.TransportService = transport.NewService(deps.TransportRepo, deps.Cache, deps.Bus)
	deps.TransportHandler = transport.NewTransportHandler(deps.TransportService, deps.Bus)

	deps.DestinationRepo = destination.NewRepository(db)
	deps.DestinationService = destination.NewService(deps.DestinationRepo, deps.Cache, deps.Bus)
	deps.DestinationHandler = destination.NewDestinationHandler(deps.DestinationService, deps.TransportService)

	deps.Messenger = notifier.NewSimulatedSMS(cfg.Notifier.Delay)
	deps.NotifierService = notifier.NewService(deps.Messenger, deps.UserService, deps.Bus)
	if cfg.Notifier.Enabled {
		deps.NotifierService.Subscribe()
	}

	deps.StatsService = stats.NewService(deps.TransportService, deps.Clock)
	deps.StatsHandler = stats.NewStatsHandler(deps.StatsService)

	return deps, nil
}
