package playback

import (
	"context"
	"fmt"
	"log"

	"github.com/Vasilis92/Spotify-Alarm/internal/spotify"
)

// ClampVolume clamps a volume percentage to [0,100].
func ClampVolume(percent int) int {
	if percent < 0 {
		return 0
	}
	if percent > 100 {
		return 100
	}
	return percent
}

// Orchestrator composes device resolution, URI normalization, volume and
// the start-playback call against the remote player capability.
type Orchestrator struct {
	controller spotify.Controller
	resolver   *spotify.Resolver
	logger     *log.Logger
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(controller spotify.Controller, resolver *spotify.Resolver, logger *log.Logger) *Orchestrator {
	if logger == nil {
		logger = log.Default()
	}
	return &Orchestrator{
		controller: controller,
		resolver:   resolver,
		logger:     logger,
	}
}

// Run normalizes the raw target, resolves a device (honoring preferredID)
// and starts playback. It returns the resolved device id.
func (o *Orchestrator) Run(ctx context.Context, rawURI, preferredID string, volume int) (string, error) {
	body, err := Normalize(rawURI)
	if err != nil {
		return "", err
	}

	deviceID, err := o.resolver.Resolve(ctx, preferredID)
	if err != nil {
		return "", err
	}

	if err := o.Play(ctx, deviceID, body, volume); err != nil {
		return deviceID, err
	}
	return deviceID, nil
}

// Play sets the volume and starts playback on the given device.
//
// The volume call is best effort and never aborts playback. If the start
// call reports the device as not found, exactly one recovery is made:
// force-transfer to the device, then one retried start. Any further
// failure propagates; there is no backoff or multi-retry loop.
func (o *Orchestrator) Play(ctx context.Context, deviceID string, body spotify.PlayBody, volume int) error {
	percent := ClampVolume(volume)
	if err := o.controller.SetVolume(ctx, percent, deviceID); err != nil {
		o.logger.Printf("Warning: set volume on device %s failed: %v", deviceID, err)
	}

	err := o.controller.StartPlayback(ctx, deviceID, body)
	if err == nil {
		return nil
	}
	if !spotify.IsNotFound(err) {
		return fmt.Errorf("start playback: %w", err)
	}

	if err := o.controller.TransferPlayback(ctx, deviceID, true); err != nil {
		return fmt.Errorf("recover playback target: %w", err)
	}
	if err := o.controller.StartPlayback(ctx, deviceID, body); err != nil {
		return fmt.Errorf("start playback after transfer: %w", err)
	}
	return nil
}
