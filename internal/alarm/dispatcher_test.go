package alarm

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Vasilis92/Spotify-Alarm/internal/notify"
)

func TestPool_Dispatch_RunsJobs(t *testing.T) {
	var mu sync.Mutex
	var labels []string
	done := make(chan struct{}, 1)

	pool := NewPool(2, 4, func(ctx context.Context, job Job) {
		mu.Lock()
		labels = append(labels, job.Alarm.Label)
		mu.Unlock()
		done <- struct{}{}
	}, nil)
	pool.Start()
	defer pool.Stop()

	require.True(t, pool.Dispatch(Job{Alarm: Alarm{Label: "wake"}, Source: notify.SourceAlarm}))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job never ran")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []string{"wake"}, labels)
}

func TestPool_Dispatch_RefusesWhenFull(t *testing.T) {
	block := make(chan struct{})
	pool := NewPool(1, 1, func(ctx context.Context, job Job) {
		<-block
	}, nil)
	pool.Start()
	defer func() {
		close(block)
		pool.Stop()
	}()

	// First job occupies the worker, second fills the queue.
	require.True(t, pool.Dispatch(Job{Alarm: Alarm{Label: "running"}}))
	require.Eventually(t, func() bool {
		return pool.Dispatch(Job{Alarm: Alarm{Label: "queued"}})
	}, time.Second, 10*time.Millisecond)

	require.False(t, pool.Dispatch(Job{Alarm: Alarm{Label: "overflow"}}))
}

func TestPool_Dispatch_RefusesAfterStop(t *testing.T) {
	pool := NewPool(1, 4, func(ctx context.Context, job Job) {}, nil)
	pool.Start()
	pool.Stop()

	require.False(t, pool.Dispatch(Job{Alarm: Alarm{Label: "late"}}))
}

func TestPool_PanicInRunnerIsContained(t *testing.T) {
	done := make(chan struct{}, 2)
	pool := NewPool(1, 4, func(ctx context.Context, job Job) {
		done <- struct{}{}
		if job.Alarm.Label == "boom" {
			panic("worker exploded")
		}
	}, nil)
	pool.Start()
	defer pool.Stop()

	require.True(t, pool.Dispatch(Job{Alarm: Alarm{Label: "boom"}}))
	require.True(t, pool.Dispatch(Job{Alarm: Alarm{Label: "after"}}))

	for i := 0; i < 2; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("worker died after panic")
		}
	}
}
