package alarm

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Vasilis92/Spotify-Alarm/internal/api"
	"github.com/Vasilis92/Spotify-Alarm/internal/apperrors"
	"github.com/Vasilis92/Spotify-Alarm/internal/notify"
)

// ==========================================================================
// Request / Response Types
// ==========================================================================

// upsertAlarmRequest is the body for POST /v1/alarms and PUT /v1/alarms/{id}.
type upsertAlarmRequest struct {
	Time    string `json:"time"`
	Label   string `json:"label"`
	URI     string `json:"uri"`
	Volume  int    `json:"volume"`
	Enabled *bool  `json:"enabled"`
}

// alarmResource is an alarm as served by the API, with its computed next
// firing instant.
type alarmResource struct {
	Object    string     `json:"object"`
	ID        string     `json:"id"`
	Time      string     `json:"time"`
	Label     string     `json:"label"`
	URI       string     `json:"uri"`
	Volume    int        `json:"volume"`
	Enabled   bool       `json:"enabled"`
	NextRunAt *time.Time `json:"next_run_at,omitempty"`
}

// playRequest is the body for POST /v1/play, the ad-hoc test playback.
// DeviceID optionally targets a specific output device for this request.
type playRequest struct {
	URI      string `json:"uri"`
	Volume   *int   `json:"volume"`
	DeviceID string `json:"device_id"`
}

// dispatchedResponse acknowledges an asynchronous playback request.
type dispatchedResponse struct {
	Object string `json:"object"`
	Status string `json:"status"`
}

func toResource(alarm Alarm) alarmResource {
	resource := alarmResource{
		Object:  "alarm",
		ID:      alarm.ID,
		Time:    alarm.Time,
		Label:   alarm.Label,
		URI:     alarm.URI,
		Volume:  alarm.Volume,
		Enabled: alarm.Enabled,
	}
	if alarm.Enabled {
		if next, err := alarm.NextRun(time.Now()); err == nil {
			resource.NextRunAt = &next
		}
	}
	return resource
}

// ==========================================================================
// Route Registration
// ==========================================================================

// RegisterRoutes wires the alarm editing surface to the router.
func RegisterRoutes(router chi.Router, store *Store, dispatcher Dispatcher) {
	router.Method(http.MethodGet, "/v1/alarms", api.Handler(listAlarms(store)))
	router.Method(http.MethodPost, "/v1/alarms", api.Handler(createAlarm(store)))
	router.Method(http.MethodGet, "/v1/alarms/{alarm_id}", api.Handler(getAlarm(store)))
	router.Method(http.MethodPut, "/v1/alarms/{alarm_id}", api.Handler(updateAlarm(store)))
	router.Method(http.MethodDelete, "/v1/alarms/{alarm_id}", api.Handler(deleteAlarm(store)))
	router.Method(http.MethodPost, "/v1/alarms/{alarm_id}/test", api.Handler(testAlarm(store, dispatcher)))
	router.Method(http.MethodPost, "/v1/play", api.Handler(playNow(dispatcher)))
}

// ==========================================================================
// Handlers
// ==========================================================================

// listAlarms returns all alarms in display order.
// GET /v1/alarms
func listAlarms(store *Store) func(w http.ResponseWriter, r *http.Request) error {
	return func(w http.ResponseWriter, r *http.Request) error {
		alarms := store.List()
		resources := make([]alarmResource, 0, len(alarms))
		for _, alarm := range alarms {
			resources = append(resources, toResource(alarm))
		}
		return api.WriteList(w, "/v1/alarms", resources)
	}
}

// createAlarm adds a new alarm.
// POST /v1/alarms
func createAlarm(store *Store) func(w http.ResponseWriter, r *http.Request) error {
	return func(w http.ResponseWriter, r *http.Request) error {
		alarm, err := decodeUpsert(r)
		if err != nil {
			return err
		}
		created, err := store.Create(alarm)
		if err != nil {
			return apperrors.NewValidationError(err.Error(), nil)
		}
		return api.WriteResource(w, http.StatusCreated, toResource(created))
	}
}

// getAlarm returns a single alarm.
// GET /v1/alarms/{alarm_id}
func getAlarm(store *Store) func(w http.ResponseWriter, r *http.Request) error {
	return func(w http.ResponseWriter, r *http.Request) error {
		alarmID := chi.URLParam(r, "alarm_id")
		alarm, ok := store.Get(alarmID)
		if !ok {
			return apperrors.NewNotFoundResource("alarm", alarmID)
		}
		return api.WriteResource(w, http.StatusOK, toResource(alarm))
	}
}

// updateAlarm replaces an alarm in place.
// PUT /v1/alarms/{alarm_id}
func updateAlarm(store *Store) func(w http.ResponseWriter, r *http.Request) error {
	return func(w http.ResponseWriter, r *http.Request) error {
		alarmID := chi.URLParam(r, "alarm_id")
		alarm, err := decodeUpsert(r)
		if err != nil {
			return err
		}
		updated, err := store.Update(alarmID, alarm)
		if errors.Is(err, ErrNotFound) {
			return apperrors.NewNotFoundResource("alarm", alarmID)
		}
		if err != nil {
			return apperrors.NewValidationError(err.Error(), nil)
		}
		return api.WriteResource(w, http.StatusOK, toResource(updated))
	}
}

// deleteAlarm removes an alarm.
// DELETE /v1/alarms/{alarm_id}
func deleteAlarm(store *Store) func(w http.ResponseWriter, r *http.Request) error {
	return func(w http.ResponseWriter, r *http.Request) error {
		alarmID := chi.URLParam(r, "alarm_id")
		err := store.Delete(alarmID)
		if errors.Is(err, ErrNotFound) {
			return apperrors.NewNotFoundResource("alarm", alarmID)
		}
		if err != nil {
			return apperrors.NewInternalError("Failed to delete alarm")
		}
		w.WriteHeader(http.StatusNoContent)
		return nil
	}
}

// testAlarm fires an alarm now through the normal dispatch path.
// POST /v1/alarms/{alarm_id}/test
func testAlarm(store *Store, dispatcher Dispatcher) func(w http.ResponseWriter, r *http.Request) error {
	return func(w http.ResponseWriter, r *http.Request) error {
		alarmID := chi.URLParam(r, "alarm_id")
		alarm, ok := store.Get(alarmID)
		if !ok {
			return apperrors.NewNotFoundResource("alarm", alarmID)
		}
		if !dispatcher.Dispatch(Job{Alarm: alarm, Source: notify.SourceTest}) {
			return apperrors.NewAppError(apperrors.ErrorCodePlaybackFailed,
				"Dispatch queue is full, try again shortly", http.StatusServiceUnavailable, nil)
		}
		return api.WriteResource(w, http.StatusAccepted, dispatchedResponse{Object: "dispatch", Status: "dispatched"})
	}
}

// playNow starts ad-hoc test playback without a stored alarm.
// POST /v1/play
func playNow(dispatcher Dispatcher) func(w http.ResponseWriter, r *http.Request) error {
	return func(w http.ResponseWriter, r *http.Request) error {
		var req playRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return apperrors.NewValidationError("Invalid JSON body", nil)
		}
		volume := 60
		if req.Volume != nil {
			volume = *req.Volume
		}
		job := Job{
			Alarm: Alarm{
				Label:   "Manual playback",
				URI:     req.URI,
				Volume:  volume,
				Enabled: true,
			},
			Source:   notify.SourceTest,
			DeviceID: req.DeviceID,
		}

		if !dispatcher.Dispatch(job) {
			return apperrors.NewAppError(apperrors.ErrorCodePlaybackFailed,
				"Dispatch queue is full, try again shortly", http.StatusServiceUnavailable, nil)
		}
		return api.WriteResource(w, http.StatusAccepted, dispatchedResponse{Object: "dispatch", Status: "dispatched"})
	}
}

func decodeUpsert(r *http.Request) (Alarm, error) {
	var req upsertAlarmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return Alarm{}, apperrors.NewValidationError("Invalid JSON body", nil)
	}
	return Alarm{
		Time:    req.Time,
		Label:   req.Label,
		URI:     req.URI,
		Volume:  req.Volume,
		Enabled: req.Enabled == nil || *req.Enabled,
	}, nil
}
