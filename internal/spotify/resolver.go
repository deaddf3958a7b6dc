package spotify

import (
	"context"
	"errors"
	"log"
	"time"
)

// ErrNoDevice is returned when no playback device can be resolved.
var ErrNoDevice = errors.New("no playback device available")

// DefaultRelistDelay is the wait between launching the desktop app and
// re-fetching the device list.
const DefaultRelistDelay = 2 * time.Second

// Resolver picks a concrete playback target from the live device list.
//
// Priority order:
//  1. empty list: best-effort desktop app launch, one delayed re-fetch
//  2. the preferred device, transferred to with forced activation
//  3. an already-active desktop device, undisturbed
//  4. the first desktop device, transferred to
//  5. any already-active device, undisturbed
//  6. the first device, transferred to
//
// Transfer failures are logged, never fatal: the chosen id is still the
// resolved target.
type Resolver struct {
	controller  Controller
	launch      func()
	relistDelay time.Duration
	logger      *log.Logger
}

// NewResolver creates a Resolver. launch is the best-effort desktop app
// launcher used when no devices are visible; nil disables it.
func NewResolver(controller Controller, launch func(), logger *log.Logger) *Resolver {
	if logger == nil {
		logger = log.Default()
	}
	return &Resolver{
		controller:  controller,
		launch:      launch,
		relistDelay: DefaultRelistDelay,
		logger:      logger,
	}
}

// SetRelistDelay overrides the re-fetch delay (tests).
func (r *Resolver) SetRelistDelay(delay time.Duration) {
	r.relistDelay = delay
}

// Resolve returns the id of the device playback should target.
// The device list is fetched fresh on every call.
func (r *Resolver) Resolve(ctx context.Context, preferredID string) (string, error) {
	devices, err := r.controller.ListDevices(ctx)
	if err != nil {
		return "", err
	}

	if len(devices) == 0 {
		devices, err = r.relist(ctx)
		if err != nil {
			return "", err
		}
		if len(devices) == 0 {
			return "", ErrNoDevice
		}
	}

	if preferredID != "" {
		for _, d := range devices {
			if d.ID == preferredID {
				r.transfer(ctx, d.ID)
				return d.ID, nil
			}
		}
	}

	var firstDesktop *Device
	for i := range devices {
		d := devices[i]
		if !d.IsDesktop() {
			continue
		}
		if d.IsActive {
			return d.ID, nil
		}
		if firstDesktop == nil {
			firstDesktop = &d
		}
	}
	if firstDesktop != nil {
		r.transfer(ctx, firstDesktop.ID)
		return firstDesktop.ID, nil
	}

	for _, d := range devices {
		if d.IsActive {
			return d.ID, nil
		}
	}

	r.transfer(ctx, devices[0].ID)
	return devices[0].ID, nil
}

// relist launches the desktop app (when a launcher is configured) and
// fetches the device list once more after the settle delay. The launch
// is best effort; the single re-fetch always happens.
func (r *Resolver) relist(ctx context.Context) ([]Device, error) {
	if r.launch != nil {
		r.launch()
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(r.relistDelay):
	}

	return r.controller.ListDevices(ctx)
}

func (r *Resolver) transfer(ctx context.Context, deviceID string) {
	if err := r.controller.TransferPlayback(ctx, deviceID, true); err != nil {
		r.logger.Printf("Warning: transfer to device %s failed: %v", deviceID, err)
	}
}
