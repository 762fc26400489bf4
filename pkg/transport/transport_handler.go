package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/navette/navette/internal/event_bus"
	"github.com/navette/navette/internal/rest"
)

type StatusUpdateRequest struct {
	Status string `json:"status"`
}

type ScheduleUpdateRequest struct {
	Outbound     Schedule `json:"time_departure_school"`
	Return       Schedule `json:"time_arrival_school"`
	StayedOnSite bool     `json:"stayed_on_site"`
}

type SyncResponse struct {
	Synced int    `json:"synced"`
	Error  string `json:"error,omitempty"`
}

type TransportHandler struct {
	service Service
	bus     *event_bus.EventBus
}

func NewTransportHandler(service Service, bus *event_bus.EventBus) *TransportHandler {
	return &TransportHandler{service: service, bus: bus}
}

// GetEvents returns the whole calendar keyed by date key.
func (h *TransportHandler) GetEvents(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	events := h.service.Events(r.Context())
	if err := json.NewEncoder(w).Encode(events); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

// SaveEvent creates or updates the plan for one day.
func (h *TransportHandler) SaveEvent(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	dateKey := mux.Vars(r)["dateKey"]
	log.Trace("Saving transport for ", dateKey)

	var plan Plan
	if err := json.NewDecoder(r.Body).Decode(&plan); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		if encodeErr := json.NewEncoder(w).Encode(rest.ErrorResponse{
			Error: "Invalid request body format",
		}); encodeErr != nil {
			http.Error(w, encodeErr.Error(), http.StatusInternalServerError)
		}
		return
	}

	event, err := h.service.Save(r.Context(), dateKey, plan)
	if err != nil {
		if errors.Is(err, ErrMissingTitle) || errors.Is(err, ErrInvalidKey) || errors.Is(err, ErrInvalidStatus) {
			w.WriteHeader(http.StatusBadRequest)
			if encodeErr := json.NewEncoder(w).Encode(rest.ErrorResponse{Error: err.Error()}); encodeErr != nil {
				http.Error(w, encodeErr.Error(), http.StatusInternalServerError)
			}
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if err := json.NewEncoder(w).Encode(event); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

// DeleteEvent removes the plan for one day. Deleting a day without an event
// still answers 204.
func (h *TransportHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	dateKey := mux.Vars(r)["dateKey"]

	if err := h.service.Delete(r.Context(), dateKey); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetStatus records the driver's accept or reject answer.
func (h *TransportHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	dateKey := mux.Vars(r)["dateKey"]

	var req StatusUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		if encodeErr := json.NewEncoder(w).Encode(rest.ErrorResponse{
			Error: "Invalid request body format",
		}); encodeErr != nil {
			http.Error(w, encodeErr.Error(), http.StatusInternalServerError)
		}
		return
	}

	event, err := h.service.SetStatus(r.Context(), dateKey, Status(req.Status))
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			http.Error(w, "No transport for this day", http.StatusNotFound)
		case errors.Is(err, ErrInvalidStatus):
			w.WriteHeader(http.StatusBadRequest)
			if encodeErr := json.NewEncoder(w).Encode(rest.ErrorResponse{
				Error:   "Invalid status",
				Details: "Status must be pending, validated or rejected",
			}); encodeErr != nil {
				http.Error(w, encodeErr.Error(), http.StatusInternalServerError)
			}
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	if err := json.NewEncoder(w).Encode(event); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

// SaveSchedule stores the driver-logged steps for both legs of a day.
func (h *TransportHandler) SaveSchedule(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	dateKey := mux.Vars(r)["dateKey"]

	var req ScheduleUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		if encodeErr := json.NewEncoder(w).Encode(rest.ErrorResponse{
			Error: "Invalid request body format",
		}); encodeErr != nil {
			http.Error(w, encodeErr.Error(), http.StatusInternalServerError)
		}
		return
	}

	event, err := h.service.SaveSchedule(r.Context(), dateKey, req.Outbound, req.Return, req.StayedOnSite)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, "No transport for this day", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if err := json.NewEncoder(w).Encode(event); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

// SyncLocal pushes the locally cached events to the database.
func (h *TransportHandler) SyncLocal(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	synced, err := h.service.SyncLocal(r.Context())
	response := SyncResponse{Synced: synced}
	if err != nil {
		response.Error = err.Error()
		w.WriteHeader(http.StatusBadGateway)
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

// ExportICS downloads the event of one day as an iCalendar file.
func (h *TransportHandler) ExportICS(w http.ResponseWriter, r *http.Request) {
	dateKey := mux.Vars(r)["dateKey"]

	event, ok := h.service.Events(r.Context())[dateKey]
	if !ok {
		http.Error(w, "No transport for this day", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=transport_%s.ics", dateKey))
	if err := WriteICS(w, dateKey, event); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
}

// Watch streams change notifications over Server-Sent Events. Clients do not
// get patched state, only a signal naming what changed; they are expected to
// re-fetch the full calendar on every message.
func (h *TransportHandler) Watch(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// Slow consumers drop signals instead of blocking publishers; a dropped
	// signal only delays the client's next re-fetch until the following one.
	changes := make(chan []byte, 16)
	forward := func(e event_bus.Event) error {
		data, err := json.Marshal(map[string]any{"type": string(e.Type), "data": e.Data})
		if err != nil {
			return err
		}
		select {
		case changes <- data:
		default:
			log.Debug("Dropping change signal for slow watch client")
		}
		return nil
	}
	unsubscribeTransports := h.bus.Subscribe(event_bus.TransportsChanged, forward)
	defer unsubscribeTransports()
	unsubscribeDestinations := h.bus.Subscribe(event_bus.DestinationsChanged, forward)
	defer unsubscribeDestinations()

	fmt.Fprint(w, "event: ready\ndata: {}\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case data := <-changes:
			fmt.Fprintf(w, "event: change\ndata: %s\n\n", data)
			flusher.Flush()
		}
	}
}
