package alarm

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Vasilis92/Spotify-Alarm/internal/apperrors"
	"github.com/Vasilis92/Spotify-Alarm/internal/notify"
	"github.com/Vasilis92/Spotify-Alarm/internal/playback"
	"github.com/Vasilis92/Spotify-Alarm/internal/spotify"
)

// launchSettleDelay gives a freshly launched desktop app time to register
// as a device before resolution starts.
const launchSettleDelay = time.Second

// Executor is the worker body for a dispatched job: resolve the target
// URI (falling back to the process-wide default at fire time), resolve a
// device, start playback and report the result on the notification
// channel. Errors stay confined to the job.
type Executor struct {
	orchestrator *playback.Orchestrator
	notifier     *notify.Notifier
	defaultURI   string
	autoLaunch   bool
	launch       func()
	timeout      time.Duration
	logger       *log.Logger

	mu          sync.Mutex
	preferredID string
}

// NewExecutor creates an Executor. defaultURI may be empty. launch is the
// best-effort desktop app launcher used when autoLaunch is on.
func NewExecutor(orchestrator *playback.Orchestrator, notifier *notify.Notifier,
	defaultURI string, autoLaunch bool, launch func(), timeout time.Duration, logger *log.Logger) *Executor {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Executor{
		orchestrator: orchestrator,
		notifier:     notifier,
		defaultURI:   defaultURI,
		autoLaunch:   autoLaunch,
		launch:       launch,
		timeout:      timeout,
		logger:       logger,
	}
}

// SetPreferredDevice records the user's preferred output device id.
// Empty clears the preference. Never persisted.
func (e *Executor) SetPreferredDevice(deviceID string) {
	e.mu.Lock()
	e.preferredID = deviceID
	e.mu.Unlock()
}

// PreferredDevice returns the current preferred output device id.
func (e *Executor) PreferredDevice() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.preferredID
}

// Run executes one job. It is the Pool's Runner.
func (e *Executor) Run(ctx context.Context, job Job) {
	event := notify.Event{
		ID:      uuid.NewString(),
		Source:  job.Source,
		AlarmID: job.Alarm.ID,
		Label:   job.Alarm.Label,
		FiredAt: time.Now(),
	}

	uri := job.Alarm.URI
	if uri == "" {
		uri = e.defaultURI
	}
	event.URI = uri

	if uri == "" {
		event.Status = notify.StatusSkipped
		event.Error = "no URI set for this alarm and no default target configured"
		e.notifier.Publish(event)
		return
	}

	if e.autoLaunch && e.launch != nil {
		e.launch()
		time.Sleep(launchSettleDelay)
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	preferredID := job.DeviceID
	if preferredID == "" {
		preferredID = e.PreferredDevice()
	}

	deviceID, err := e.orchestrator.Run(ctx, uri, preferredID, job.Alarm.Volume)
	event.DeviceID = deviceID
	if err != nil {
		event.Status = notify.StatusFailed
		event.Code = resultCode(err)
		event.Error = err.Error()
		e.logger.Printf("Playback for %q failed: %v", job.Alarm.Label, err)
		e.notifier.Publish(event)
		return
	}

	event.Status = notify.StatusStarted
	e.logger.Printf("Alarm %q is playing on device %s", job.Alarm.Label, deviceID)
	e.notifier.Publish(event)
}

// resultCode classifies a playback failure for the event stream.
func resultCode(err error) apperrors.ErrorCode {
	var statusErr *spotify.StatusError
	switch {
	case errors.Is(err, playback.ErrUnsupportedURI):
		return apperrors.ErrorCodeUnsupportedURI
	case errors.Is(err, spotify.ErrNoDevice):
		return apperrors.ErrorCodeNoDevice
	case errors.As(err, &statusErr):
		return apperrors.ErrorCodeSpotifyAPIError
	default:
		return apperrors.ErrorCodePlaybackFailed
	}
}
