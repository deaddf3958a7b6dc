package notify

import (
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Vasilis92/Spotify-Alarm/internal/apperrors"
)

// Source identifies what caused a playback attempt.
type Source string

const (
	SourceAlarm Source = "alarm"
	SourceTest  Source = "test"
)

// Status is the outcome of a playback attempt.
type Status string

const (
	StatusStarted Status = "STARTED"
	StatusFailed  Status = "FAILED"
	StatusSkipped Status = "SKIPPED"
)

// Event is a one-way result notification from a worker. Workers never
// share mutable state with the consumer; everything travels by value.
type Event struct {
	ID       string    `json:"id"`
	Source   Source    `json:"source"`
	AlarmID  string    `json:"alarm_id,omitempty"`
	Label    string    `json:"label,omitempty"`
	DeviceID string    `json:"device_id,omitempty"`
	URI      string    `json:"uri,omitempty"`
	Status   Status    `json:"status"`
	// Code classifies a failure; empty on success.
	Code    apperrors.ErrorCode `json:"code,omitempty"`
	Error   string              `json:"error,omitempty"`
	FiredAt time.Time           `json:"fired_at"`
}

// Sink consumes delivered events.
type Sink interface {
	HandleResult(event Event)
}

// Notifier carries events from any worker to a single consumer without
// ever blocking the worker. A full buffer drops the event and counts it.
type Notifier struct {
	ch        chan Event
	dropped   atomic.Uint64
	closeOnce sync.Once
	logger    *log.Logger
}

// NewNotifier creates a Notifier with the given buffer size.
func NewNotifier(buffer int, logger *log.Logger) *Notifier {
	if buffer <= 0 {
		buffer = 64
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Notifier{
		ch:     make(chan Event, buffer),
		logger: logger,
	}
}

// Publish delivers an event unless the buffer is full.
func (n *Notifier) Publish(event Event) {
	select {
	case n.ch <- event:
	default:
		n.dropped.Add(1)
		n.logger.Printf("Warning: notification buffer full, dropping %s result for %q", event.Source, event.Label)
	}
}

// Events returns the receive side for the single consumer.
func (n *Notifier) Events() <-chan Event {
	return n.ch
}

// Dropped returns how many events were dropped due to a full buffer.
func (n *Notifier) Dropped() uint64 {
	return n.dropped.Load()
}

// Close ends the stream. Publish must not be called afterwards.
func (n *Notifier) Close() {
	n.closeOnce.Do(func() { close(n.ch) })
}

// Consume drains events into the sinks until the channel is closed.
// Run it on its own goroutine; it is the system's single consumer.
func Consume(events <-chan Event, sinks ...Sink) {
	for event := range events {
		for _, sink := range sinks {
			sink.HandleResult(event)
		}
	}
}
