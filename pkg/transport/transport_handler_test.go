package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/navette/navette/internal/event_bus"
	"github.com/navette/navette/internal/localcache"
	"github.com/navette/navette/internal/rest"
)

func newTestRouter(t *testing.T) (*mux.Router, *ServiceImpl) {
	t.Helper()
	repo := NewStubRepository()
	cache, err := localcache.NewStore(t.TempDir())
	require.NoError(t, err)
	bus := event_bus.NewEventBus()
	service := NewService(repo, cache, bus)
	handler := NewTransportHandler(service, bus)

	r := mux.NewRouter()
	r.HandleFunc("/api/transport", handler.GetEvents).Methods("GET")
	r.HandleFunc("/api/transport/{dateKey}", handler.SaveEvent).Methods("PUT")
	r.HandleFunc("/api/transport/{dateKey}", handler.DeleteEvent).Methods("DELETE")
	r.HandleFunc("/api/transport/{dateKey}/status", handler.SetStatus).Methods("PATCH")
	r.HandleFunc("/api/transport/{dateKey}/ics", handler.ExportICS).Methods("GET")
	return r, service
}

func doRequest(t *testing.T, router *mux.Router, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestSaveEventHTTP(t *testing.T) {
	router, service := newTestRouter(t)

	rec := doRequest(t, router, "PUT", "/api/transport/2025-5-10",
		`{"title":"Sortie musée","schoolClass":"CM2","time_departure_origin":"08:15"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var event Event
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&event))
	assert.Equal(t, "Sortie musée", event.Title)
	assert.Equal(t, StatusPending, event.Status)

	assert.Equal(t, event, service.Events(context.Background())["2025-5-10"])
}

func TestSaveEventHTTP_InvalidBody(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doRequest(t, router, "PUT", "/api/transport/2025-5-10", "{not json")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var response rest.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
	assert.Equal(t, "Invalid request body format", response.Error)
}

func TestSaveEventHTTP_MissingTitle(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doRequest(t, router, "PUT", "/api/transport/2025-5-10", `{"schoolClass":"CM2"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var response rest.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
	assert.Contains(t, response.Error, "title")
}

func TestSetStatusHTTP(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doRequest(t, router, "PUT", "/api/transport/2025-5-10", `{"title":"Sortie"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, router, "PATCH", "/api/transport/2025-5-10/status", `{"status":"validated"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var event Event
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&event))
	assert.Equal(t, StatusValidated, event.Status)
}

func TestSetStatusHTTP_UnknownDay(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doRequest(t, router, "PATCH", "/api/transport/2099-0-1/status", `{"status":"validated"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSetStatusHTTP_InvalidStatus(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doRequest(t, router, "PUT", "/api/transport/2025-5-10", `{"title":"Sortie"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, router, "PATCH", "/api/transport/2025-5-10/status", `{"status":"maybe"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var response rest.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
	assert.Equal(t, "Invalid status", response.Error)
}

func TestDeleteEventHTTP_AbsentDayStillNoContent(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doRequest(t, router, "DELETE", "/api/transport/2025-5-10", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestExportICSHTTP(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doRequest(t, router, "PUT", "/api/transport/2025-5-10", `{"title":"Sortie musée"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, router, "GET", "/api/transport/2025-5-10/ics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/calendar")
	assert.Contains(t, rec.Body.String(), "BEGIN:VCALENDAR")

	rec = doRequest(t, router, "GET", "/api/transport/2099-0-1/ics", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
