package alarm

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Alarm is a persisted time-triggered playback instruction.
//
// URI may be empty; it then resolves to the process-wide default target
// at fire time, not at creation time. Volume is clamped to [0,100] before
// use. Alarms keep their insertion order; order carries no priority.
type Alarm struct {
	ID      string `json:"id"`
	Time    string `json:"time"` // "HH:MM", 24h wall clock
	Label   string `json:"label"`
	URI     string `json:"uri"`
	Volume  int    `json:"volume"`
	Enabled bool   `json:"enabled"`
}

// ParseClock parses "HH:MM" into hour and minute.
func ParseClock(value string) (hour, minute int, err error) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time %q: want HH:MM", value)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", value)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", value)
	}
	return hour, minute, nil
}

// Normalize validates the time, canonicalizes it to zero-padded HH:MM,
// trims text fields and clamps the volume.
func (a *Alarm) Normalize() error {
	hour, minute, err := ParseClock(a.Time)
	if err != nil {
		return err
	}
	a.Time = fmt.Sprintf("%02d:%02d", hour, minute)
	a.Label = strings.TrimSpace(a.Label)
	a.URI = strings.TrimSpace(a.URI)
	if a.Volume < 0 {
		a.Volume = 0
	}
	if a.Volume > 100 {
		a.Volume = 100
	}
	return nil
}

// Matches reports whether the alarm's time equals the given instant's
// wall-clock minute.
func (a Alarm) Matches(now time.Time) bool {
	return a.Time == now.Format("15:04")
}

// NextRun returns the next instant the alarm will fire after now.
func (a Alarm) NextRun(now time.Time) (time.Time, error) {
	hour, minute, err := ParseClock(a.Time)
	if err != nil {
		return time.Time{}, err
	}
	schedule, err := cron.ParseStandard(fmt.Sprintf("%d %d * * *", minute, hour))
	if err != nil {
		return time.Time{}, fmt.Errorf("build schedule for %q: %w", a.Time, err)
	}
	return schedule.Next(now), nil
}
