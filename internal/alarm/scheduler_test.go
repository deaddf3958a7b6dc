package alarm

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Vasilis92/Spotify-Alarm/internal/notify"
)

// recordingDispatcher captures dispatched jobs; refuse makes it report a
// full queue.
type recordingDispatcher struct {
	jobs   []Job
	refuse bool
}

func (d *recordingDispatcher) Dispatch(job Job) bool {
	if d.refuse {
		return false
	}
	d.jobs = append(d.jobs, job)
	return true
}

func newTestScheduler(t *testing.T, alarms ...Alarm) (*Scheduler, *recordingDispatcher) {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "alarms.json"), nil)
	require.NoError(t, err)
	for _, alarm := range alarms {
		_, err := store.Create(alarm)
		require.NoError(t, err)
	}
	dispatcher := &recordingDispatcher{}
	return NewScheduler(store, dispatcher, nil), dispatcher
}

func TestScheduler_Tick_FiresOncePerMinute(t *testing.T) {
	scheduler, dispatcher := newTestScheduler(t, Alarm{Time: "07:30", Label: "wake", Enabled: true})

	base := time.Date(2026, time.March, 10, 7, 30, 0, 0, time.Local)
	for second := 0; second < 60; second++ {
		scheduler.Tick(base.Add(time.Duration(second) * time.Second))
	}

	require.Len(t, dispatcher.jobs, 1)
	require.Equal(t, "wake", dispatcher.jobs[0].Alarm.Label)
	require.Equal(t, notify.SourceAlarm, dispatcher.jobs[0].Source)
}

func TestScheduler_Tick_RolloverAllowsNextDay(t *testing.T) {
	scheduler, dispatcher := newTestScheduler(t, Alarm{Time: "07:30", Enabled: true})

	day1 := time.Date(2026, time.March, 10, 7, 30, 15, 0, time.Local)
	scheduler.Tick(day1)
	scheduler.Tick(day1.Add(time.Minute)) // rollover out of the match
	scheduler.Tick(day1.Add(24 * time.Hour))

	require.Len(t, dispatcher.jobs, 2)
}

func TestScheduler_Tick_BackwardClockNoRefire(t *testing.T) {
	scheduler, dispatcher := newTestScheduler(t, Alarm{Time: "07:30", Enabled: true})

	fireMinute := time.Date(2026, time.March, 10, 7, 30, 10, 0, time.Local)
	scheduler.Tick(fireMinute)
	require.Len(t, dispatcher.jobs, 1)

	// Clock jumps forward past the minute, then back into it.
	scheduler.Tick(fireMinute.Add(5 * time.Minute))
	scheduler.Tick(fireMinute.Add(30 * time.Second))
	require.Len(t, dispatcher.jobs, 1)
}

func TestScheduler_Tick_SkipsDisabled(t *testing.T) {
	scheduler, dispatcher := newTestScheduler(t,
		Alarm{Time: "07:30", Label: "off", Enabled: false},
		Alarm{Time: "07:30", Label: "on", Enabled: true},
	)

	scheduler.Tick(time.Date(2026, time.March, 10, 7, 30, 0, 0, time.Local))

	require.Len(t, dispatcher.jobs, 1)
	require.Equal(t, "on", dispatcher.jobs[0].Alarm.Label)
}

func TestScheduler_Tick_RefusedDispatchDoesNotBlockSiblings(t *testing.T) {
	store, err := NewStore(filepath.Join(t.TempDir(), "alarms.json"), nil)
	require.NoError(t, err)
	_, err = store.Create(Alarm{Time: "07:30", Label: "a", Enabled: true})
	require.NoError(t, err)
	_, err = store.Create(Alarm{Time: "07:30", Label: "b", Enabled: true})
	require.NoError(t, err)

	dispatcher := &recordingDispatcher{refuse: true}
	scheduler := NewScheduler(store, dispatcher, nil)

	now := time.Date(2026, time.March, 10, 7, 30, 0, 0, time.Local)
	scheduler.Tick(now)
	require.Empty(t, dispatcher.jobs)

	// A refused dispatch still counts as fired for this minute; the
	// queue draining mid-minute must not cause a duplicate.
	dispatcher.refuse = false
	scheduler.Tick(now.Add(10 * time.Second))
	require.Empty(t, dispatcher.jobs)
}

func TestScheduler_StartStop(t *testing.T) {
	scheduler, _ := newTestScheduler(t)
	scheduler.Start()
	scheduler.Stop()
	// Stop is idempotent.
	scheduler.Stop()
}
