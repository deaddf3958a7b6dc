package spotify

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Vasilis92/Spotify-Alarm/internal/api"
	"github.com/Vasilis92/Spotify-Alarm/internal/apperrors"
)

// DevicePreferences is the process-wide preferred output device. It is
// never persisted; restarts start with no preference.
type DevicePreferences interface {
	SetPreferredDevice(deviceID string)
	PreferredDevice() string
}

type deviceResource struct {
	Object    string `json:"object"`
	ID        string `json:"id"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	IsActive  bool   `json:"is_active"`
	IsDesktop bool   `json:"is_desktop"`
	Preferred bool   `json:"preferred"`
}

type preferredDeviceRequest struct {
	DeviceID string `json:"device_id"`
}

type preferredDeviceResource struct {
	Object   string `json:"object"`
	DeviceID string `json:"device_id"`
}

// RegisterRoutes wires the device routes to the router.
func RegisterRoutes(router chi.Router, controller Controller, prefs DevicePreferences) {
	router.Method(http.MethodGet, "/v1/devices", api.Handler(listDevices(controller, prefs)))
	router.Method(http.MethodGet, "/v1/devices/preferred", api.Handler(getPreferred(prefs)))
	router.Method(http.MethodPut, "/v1/devices/preferred", api.Handler(setPreferred(prefs)))
}

// listDevices returns the live device list; nothing is cached.
// GET /v1/devices
func listDevices(controller Controller, prefs DevicePreferences) func(w http.ResponseWriter, r *http.Request) error {
	return func(w http.ResponseWriter, r *http.Request) error {
		devices, err := controller.ListDevices(r.Context())
		if err != nil {
			return apperrors.NewAppError(apperrors.ErrorCodeSpotifyAPIError,
				"Failed to list devices", http.StatusBadGateway, nil)
		}
		preferredID := prefs.PreferredDevice()
		resources := make([]deviceResource, 0, len(devices))
		for _, device := range devices {
			resources = append(resources, deviceResource{
				Object:    "device",
				ID:        device.ID,
				Name:      device.Name,
				Type:      device.Type,
				IsActive:  device.IsActive,
				IsDesktop: device.IsDesktop(),
				Preferred: device.ID == preferredID && preferredID != "",
			})
		}
		return api.WriteList(w, "/v1/devices", resources)
	}
}

// getPreferred returns the current preferred output device id.
// GET /v1/devices/preferred
func getPreferred(prefs DevicePreferences) func(w http.ResponseWriter, r *http.Request) error {
	return func(w http.ResponseWriter, r *http.Request) error {
		return api.WriteResource(w, http.StatusOK, preferredDeviceResource{
			Object:   "preferred_device",
			DeviceID: prefs.PreferredDevice(),
		})
	}
}

// setPreferred sets or clears the preferred output device id.
// PUT /v1/devices/preferred
func setPreferred(prefs DevicePreferences) func(w http.ResponseWriter, r *http.Request) error {
	return func(w http.ResponseWriter, r *http.Request) error {
		var req preferredDeviceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return apperrors.NewValidationError("Invalid JSON body", nil)
		}
		prefs.SetPreferredDevice(req.DeviceID)
		return api.WriteResource(w, http.StatusOK, preferredDeviceResource{
			Object:   "preferred_device",
			DeviceID: req.DeviceID,
		})
	}
}
