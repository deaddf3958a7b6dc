package history

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"github.com/Vasilis92/Spotify-Alarm/internal/db"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	pair, err := db.Init(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { pair.Close() })
	return NewRepository(pair)
}

func strPtr(s string) *string { return &s }

func sampleEvent(id string, firedAt time.Time) PlaybackEvent {
	return PlaybackEvent{
		EventID: id,
		FiredAt: firedAt,
		Source:  "alarm",
		AlarmID: strPtr("a1"),
		Label:   "wake",
		URI:     "spotify:track:x",
		Status:  "STARTED",
	}
}

func TestRepository_InsertAndGet(t *testing.T) {
	repo := newTestRepository(t)
	firedAt := time.Date(2026, time.March, 10, 7, 30, 0, 0, time.UTC)

	require.NoError(t, repo.Insert(sampleEvent("e1", firedAt)))

	event, err := repo.Get("e1")
	require.NoError(t, err)
	require.NotNil(t, event)
	require.Equal(t, "e1", event.EventID)
	require.Equal(t, "wake", event.Label)
	require.True(t, event.FiredAt.Equal(firedAt))
	require.NotNil(t, event.AlarmID)
	require.Equal(t, "a1", *event.AlarmID)
	require.Empty(t, event.Code)
	require.Nil(t, event.Error)
}

func TestRepository_Get_Absent(t *testing.T) {
	repo := newTestRepository(t)
	event, err := repo.Get("nope")
	require.NoError(t, err)
	require.Nil(t, event)
}

func TestRepository_Query_NewestFirst(t *testing.T) {
	repo := newTestRepository(t)
	base := time.Date(2026, time.March, 10, 7, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Insert(sampleEvent(fmt.Sprintf("e%d", i), base.Add(time.Duration(i)*time.Minute))))
	}

	events, err := repo.Query(QueryFilters{})
	require.NoError(t, err)
	require.Len(t, events, 3)
	require.Equal(t, "e2", events[0].EventID)
	require.Equal(t, "e0", events[2].EventID)
}

func TestRepository_Query_Filters(t *testing.T) {
	repo := newTestRepository(t)
	now := time.Now().UTC()

	started := sampleEvent("e1", now)
	require.NoError(t, repo.Insert(started))

	failed := sampleEvent("e2", now.Add(time.Minute))
	failed.Status = "FAILED"
	failed.Code = "NO_DEVICE"
	failed.Error = strPtr("no device")
	require.NoError(t, repo.Insert(failed))

	manual := sampleEvent("e3", now.Add(2*time.Minute))
	manual.Source = "test"
	manual.AlarmID = strPtr("a2")
	require.NoError(t, repo.Insert(manual))

	events, err := repo.Query(QueryFilters{Status: strPtr("FAILED")})
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, "e2", events[0].EventID)
	require.Equal(t, "NO_DEVICE", events[0].Code)
	require.NotNil(t, events[0].Error)

	events, err = repo.Query(QueryFilters{Source: strPtr("test")})
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, "e3", events[0].EventID)

	events, err = repo.Query(QueryFilters{AlarmID: strPtr("a1"), Status: strPtr("STARTED")})
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, "e1", events[0].EventID)
}

func TestRepository_Query_LimitOffset(t *testing.T) {
	repo := newTestRepository(t)
	base := time.Now().UTC()
	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Insert(sampleEvent(fmt.Sprintf("e%d", i), base.Add(time.Duration(i)*time.Second))))
	}

	events, err := repo.Query(QueryFilters{Limit: 2})
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, "e4", events[0].EventID)

	events, err = repo.Query(QueryFilters{Limit: 2, Offset: 2})
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, "e2", events[0].EventID)
}

func TestRepository_PruneOlderThan(t *testing.T) {
	repo := newTestRepository(t)
	now := time.Now().UTC()

	require.NoError(t, repo.Insert(sampleEvent("old", now.Add(-100*24*time.Hour))))
	require.NoError(t, repo.Insert(sampleEvent("fresh", now)))

	removed, err := repo.PruneOlderThan(now.Add(-90 * 24 * time.Hour))
	require.NoError(t, err)
	require.Equal(t, int64(1), removed)

	event, err := repo.Get("old")
	require.NoError(t, err)
	require.Nil(t, event)

	event, err = repo.Get("fresh")
	require.NoError(t, err)
	require.NotNil(t, event)
}
