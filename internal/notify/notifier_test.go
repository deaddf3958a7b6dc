package notify

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// collectingSink records every delivered event.
type collectingSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *collectingSink) HandleResult(event Event) {
	s.mu.Lock()
	s.events = append(s.events, event)
	s.mu.Unlock()
}

func (s *collectingSink) snapshot() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

func TestNotifier_Publish_Delivers(t *testing.T) {
	notifier := NewNotifier(4, nil)
	notifier.Publish(Event{ID: "e1", Status: StatusStarted, Source: SourceAlarm})

	select {
	case event := <-notifier.Events():
		require.Equal(t, "e1", event.ID)
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
	require.Zero(t, notifier.Dropped())
}

func TestNotifier_Publish_FullBufferDropsWithoutBlocking(t *testing.T) {
	notifier := NewNotifier(2, nil)
	notifier.Publish(Event{ID: "e1"})
	notifier.Publish(Event{ID: "e2"})

	done := make(chan struct{})
	go func() {
		notifier.Publish(Event{ID: "overflow"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full buffer")
	}
	require.Equal(t, uint64(1), notifier.Dropped())
}

func TestNotifier_Close_Idempotent(t *testing.T) {
	notifier := NewNotifier(2, nil)
	notifier.Close()
	notifier.Close()

	_, open := <-notifier.Events()
	require.False(t, open)
}

func TestConsume_FansOutToAllSinks(t *testing.T) {
	notifier := NewNotifier(8, nil)
	first := &collectingSink{}
	second := &collectingSink{}

	done := make(chan struct{})
	go func() {
		Consume(notifier.Events(), first, second)
		close(done)
	}()

	notifier.Publish(Event{ID: "e1", Status: StatusStarted})
	notifier.Publish(Event{ID: "e2", Status: StatusFailed, Error: "boom"})
	notifier.Close()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not drain")
	}

	for _, sink := range []*collectingSink{first, second} {
		events := sink.snapshot()
		require.Len(t, events, 2)
		require.Equal(t, "e1", events[0].ID)
		require.Equal(t, "e2", events[1].ID)
	}
}
