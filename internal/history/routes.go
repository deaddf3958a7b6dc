package history

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Vasilis92/Spotify-Alarm/internal/api"
	"github.com/Vasilis92/Spotify-Alarm/internal/apperrors"
)

// RegisterRoutes wires history routes to the router.
func RegisterRoutes(router chi.Router, service *Service) {
	router.Method(http.MethodGet, "/v1/history", api.Handler(queryHistory(service)))
	router.Method(http.MethodGet, "/v1/history/{event_id}", api.Handler(getHistoryEvent(service)))
}

// queryHistory lists recorded playback results.
// GET /v1/history?status=&alarm_id=&source=&limit=&offset=
func queryHistory(service *Service) func(w http.ResponseWriter, r *http.Request) error {
	return func(w http.ResponseWriter, r *http.Request) error {
		var filters QueryFilters

		if status := r.URL.Query().Get("status"); status != "" {
			filters.Status = &status
		}
		if alarmID := r.URL.Query().Get("alarm_id"); alarmID != "" {
			filters.AlarmID = &alarmID
		}
		if source := r.URL.Query().Get("source"); source != "" {
			filters.Source = &source
		}
		if limit := r.URL.Query().Get("limit"); limit != "" {
			parsed, err := strconv.Atoi(limit)
			if err != nil || parsed < 0 {
				return apperrors.NewValidationError("limit must be a non-negative integer", nil)
			}
			filters.Limit = parsed
		}
		if offset := r.URL.Query().Get("offset"); offset != "" {
			parsed, err := strconv.Atoi(offset)
			if err != nil || parsed < 0 {
				return apperrors.NewValidationError("offset must be a non-negative integer", nil)
			}
			filters.Offset = parsed
		}

		events, err := service.Query(filters)
		if err != nil {
			return apperrors.NewInternalError("Failed to query playback history")
		}
		return api.WriteList(w, "/v1/history", events)
	}
}

// getHistoryEvent returns a single recorded playback result.
// GET /v1/history/{event_id}
func getHistoryEvent(service *Service) func(w http.ResponseWriter, r *http.Request) error {
	return func(w http.ResponseWriter, r *http.Request) error {
		eventID := chi.URLParam(r, "event_id")
		event, err := service.Get(eventID)
		if err != nil {
			return apperrors.NewInternalError("Failed to load playback event")
		}
		if event == nil {
			return apperrors.NewNotFoundResource("playback event", eventID)
		}
		return api.WriteResource(w, http.StatusOK, event)
	}
}
