package spotify

import (
	"context"
	"strings"
)

// Device is a playback device as reported by the player API.
// Devices are ephemeral: they are re-fetched on demand and never cached
// beyond a single resolution call.
type Device struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Type          string `json:"type"`
	IsActive      bool   `json:"is_active"`
	VolumePercent int    `json:"volume_percent"`
}

// IsDesktop reports whether the device is a full desktop application
// instance rather than a mobile/speaker/other client.
func (d Device) IsDesktop() bool {
	switch strings.ToLower(d.Type) {
	case "computer", "desktop":
		return true
	}
	return false
}

// PlayBody is the start-playback request body. Exactly one of URIs or
// ContextURI is set: a track plays as a single-item list, while albums,
// playlists, artists, shows and episodes play as a context reference.
type PlayBody struct {
	URIs       []string `json:"uris,omitempty"`
	ContextURI string   `json:"context_uri,omitempty"`
}

// Controller is the remote player capability consumed by the core.
type Controller interface {
	ListDevices(ctx context.Context) ([]Device, error)
	TransferPlayback(ctx context.Context, deviceID string, forcePlay bool) error
	SetVolume(ctx context.Context, percent int, deviceID string) error
	StartPlayback(ctx context.Context, deviceID string, body PlayBody) error
}
