package stats

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/navette/navette/internal/rest"
)

type StatsHandler struct {
	service *Service
}

func NewStatsHandler(service *Service) *StatsHandler {
	return &StatsHandler{service: service}
}

// GetMonthly returns the driver-hours summary for one month. Without query
// parameters it covers the current month; "year" and "month" (zero-based)
// select another one.
func (h *StatsHandler) GetMonthly(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	yearParam := r.URL.Query().Get("year")
	monthParam := r.URL.Query().Get("month")

	var summary MonthlySummary
	if yearParam == "" && monthParam == "" {
		summary = h.service.CurrentMonth(r.Context())
	} else {
		year, err1 := strconv.Atoi(yearParam)
		month, err2 := strconv.Atoi(monthParam)
		if err1 != nil || err2 != nil || month < 0 || month > 11 {
			w.WriteHeader(http.StatusBadRequest)
			if encodeErr := json.NewEncoder(w).Encode(rest.ErrorResponse{
				Error:   "Invalid month selection",
				Details: "year must be a number and month a zero-based number between 0 and 11",
			}); encodeErr != nil {
				http.Error(w, encodeErr.Error(), http.StatusInternalServerError)
			}
			return
		}
		summary = h.service.Monthly(r.Context(), year, month)
	}

	if err := json.NewEncoder(w).Encode(summary); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}
