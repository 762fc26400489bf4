package destination

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/navette/navette/internal/rest"
	"github.com/navette/navette/pkg/transport"
)

type DestinationHandler struct {
	service    Service
	transports transport.Service
}

func NewDestinationHandler(service Service, transports transport.Service) *DestinationHandler {
	return &DestinationHandler{service: service, transports: transports}
}

// GetDestinations returns the explicit list only.
func (h *DestinationHandler) GetDestinations(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	destinations := h.service.Destinations(r.Context())
	if destinations == nil {
		destinations = []Destination{}
	}
	if err := json.NewEncoder(w).Encode(destinations); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

// GetResolvedDestinations returns the merged picker list: explicit entries
// first, then destinations auto-detected from the calendar.
func (h *DestinationHandler) GetResolvedDestinations(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	resolved := Resolve(h.service.Destinations(r.Context()), h.transports.Events(r.Context()))
	if resolved == nil {
		resolved = []Destination{}
	}
	if err := json.NewEncoder(w).Encode(resolved); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

// AddDestination creates a new explicit destination.
func (h *DestinationHandler) AddDestination(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var d Destination
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		if encodeErr := json.NewEncoder(w).Encode(rest.ErrorResponse{
			Error: "Invalid request body format",
		}); encodeErr != nil {
			http.Error(w, encodeErr.Error(), http.StatusInternalServerError)
		}
		return
	}

	created, err := h.service.Add(r.Context(), d)
	if err != nil {
		if errors.Is(err, ErrMissingName) || errors.Is(err, ErrDuplicate) {
			w.WriteHeader(http.StatusBadRequest)
			if encodeErr := json.NewEncoder(w).Encode(rest.ErrorResponse{Error: err.Error()}); encodeErr != nil {
				http.Error(w, encodeErr.Error(), http.StatusInternalServerError)
			}
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(created); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

// UpdateDestination modifies an existing destination.
func (h *DestinationHandler) UpdateDestination(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var d Destination
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		if encodeErr := json.NewEncoder(w).Encode(rest.ErrorResponse{
			Error: "Invalid request body format",
		}); encodeErr != nil {
			http.Error(w, encodeErr.Error(), http.StatusInternalServerError)
		}
		return
	}
	d.ID = mux.Vars(r)["id"]

	updated, err := h.service.Update(r.Context(), d)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			http.Error(w, "Destination not found", http.StatusNotFound)
		case errors.Is(err, ErrMissingName), errors.Is(err, ErrDuplicate):
			w.WriteHeader(http.StatusBadRequest)
			if encodeErr := json.NewEncoder(w).Encode(rest.ErrorResponse{Error: err.Error()}); encodeErr != nil {
				http.Error(w, encodeErr.Error(), http.StatusInternalServerError)
			}
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	if err := json.NewEncoder(w).Encode(updated); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

// DeleteDestination removes a destination; unknown ids still answer 204.
func (h *DestinationHandler) DeleteDestination(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SyncLocal pushes the locally cached destinations to the database.
func (h *DestinationHandler) SyncLocal(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	synced, err := h.service.SyncLocal(r.Context())
	response := transport.SyncResponse{Synced: synced}
	if err != nil {
		response.Error = err.Error()
		w.WriteHeader(http.StatusBadGateway)
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}
