package app

import (
	"github.com/gorilla/mux"
	"github.com/navette/navette/internal/config"
)

// RegisterRoutes registers all API endpoints.
func RegisterRoutes(r *mux.Router, deps *Dependencies, cfg config.Application) {

	// Transports (fixed paths before the {dateKey} catch-all)
	r.HandleFunc("/api/transport", deps.TransportHandler.GetEvents).Methods("GET")
	r.HandleFunc("/api/transport/watch", deps.TransportHandler.Watch).Methods("GET")
	r.HandleFunc("/api/transport/sync", deps.TransportHandler.SyncLocal).Methods("POST")
	r.HandleFunc("/api/transport/{dateKey}", deps.TransportHandler.SaveEvent).Methods("PUT")
	r.HandleFunc("/api/transport/{dateKey}", deps.TransportHandler.DeleteEvent).Methods("DELETE")
	r.HandleFunc("/api/transport/{dateKey}/status", deps.TransportHandler.SetStatus).Methods("PATCH")
	r.HandleFunc("/api/transport/{dateKey}/schedule", deps.TransportHandler.SaveSchedule).Methods("PUT")
	r.HandleFunc("/api/transport/{dateKey}/ics", deps.TransportHandler.ExportICS).Methods("GET")

	// Destinations
	r.HandleFunc("/api/destination", deps.DestinationHandler.GetDestinations).Methods("GET")
	r.HandleFunc("/api/destination", deps.DestinationHandler.AddDestination).Methods("POST")
	r.HandleFunc("/api/destination/resolved", deps.DestinationHandler.GetResolvedDestinations).Methods("GET")
	r.HandleFunc("/api/destination/sync", deps.DestinationHandler.SyncLocal).Methods("POST")
	r.HandleFunc("/api/destination/{id}", deps.DestinationHandler.UpdateDestination).Methods("PUT")
	r.HandleFunc("/api/destination/{id}", deps.DestinationHandler.DeleteDestination).Methods("DELETE")

	// Users
	r.HandleFunc("/api/user/register", deps.UserHandler.Register).Methods("POST")
	r.HandleFunc("/api/user/login", deps.UserHandler.Login).Methods("POST")
	r.HandleFunc("/api/user/current", deps.UserHandler.GetCurrentUser).Methods("GET")
	r.HandleFunc("/api/user", deps.UserHandler.GetUsers).Methods("GET")
	r.HandleFunc("/api/user/{email}/approval", deps.UserHandler.SetApproval).Methods("PATCH")
	r.HandleFunc("/api/user/{email}", deps.UserHandler.DeleteUser).Methods("DELETE")

	// Stats
	r.HandleFunc("/api/stats/monthly", deps.StatsHandler.GetMonthly).Methods("GET")
}
