package alarm

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no alarm has the requested id.
var ErrNotFound = errors.New("alarm not found")

// storedAlarm is the on-disk shape: a flat ordered list with no schema
// version field. Unknown fields are ignored on read; enabled defaults to
// true and a missing id is assigned on load, which keeps files written by
// older builds loadable.
type storedAlarm struct {
	ID      string `json:"id,omitempty"`
	Time    string `json:"time"`
	Label   string `json:"label"`
	URI     string `json:"uri"`
	Volume  int    `json:"volume"`
	Enabled *bool  `json:"enabled,omitempty"`
}

// Store owns the persisted alarm collection. All mutation goes through
// the store; firing workers only ever see value snapshots.
type Store struct {
	mu     sync.RWMutex
	path   string
	alarms []Alarm
	logger *log.Logger
}

// NewStore loads the alarm file at path, creating an empty store when the
// file does not exist yet.
func NewStore(path string, logger *log.Logger) (*Store, error) {
	if logger == nil {
		logger = log.Default()
	}
	store := &Store{path: path, logger: logger}
	if err := store.load(); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *Store) load() error {
	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		s.alarms = []Alarm{}
		return nil
	}
	if err != nil {
		return fmt.Errorf("read alarms file %s: %w", s.path, err)
	}

	var stored []storedAlarm
	if err := json.Unmarshal(raw, &stored); err != nil {
		return fmt.Errorf("parse alarms file %s: %w", s.path, err)
	}

	alarms := make([]Alarm, 0, len(stored))
	for _, record := range stored {
		alarm := Alarm{
			ID:      record.ID,
			Time:    record.Time,
			Label:   record.Label,
			URI:     record.URI,
			Volume:  record.Volume,
			Enabled: record.Enabled == nil || *record.Enabled,
		}
		if err := alarm.Normalize(); err != nil {
			s.logger.Printf("Warning: skipping alarm %q: %v", record.Label, err)
			continue
		}
		if alarm.ID == "" {
			alarm.ID = uuid.NewString()
		}
		alarms = append(alarms, alarm)
	}
	s.alarms = alarms
	return nil
}

// List returns a snapshot of all alarms in insertion order.
func (s *Store) List() []Alarm {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snapshot := make([]Alarm, len(s.alarms))
	copy(snapshot, s.alarms)
	return snapshot
}

// Get returns one alarm by id.
func (s *Store) Get(id string) (Alarm, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, alarm := range s.alarms {
		if alarm.ID == id {
			return alarm, true
		}
	}
	return Alarm{}, false
}

// Create validates and appends an alarm, assigning it an id.
func (s *Store) Create(alarm Alarm) (Alarm, error) {
	if err := alarm.Normalize(); err != nil {
		return Alarm{}, err
	}
	alarm.ID = uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.alarms = append(s.alarms, alarm)
	if err := s.save(); err != nil {
		s.alarms = s.alarms[:len(s.alarms)-1]
		return Alarm{}, err
	}
	return alarm, nil
}

// Update replaces the alarm with the given id, keeping its position.
func (s *Store) Update(id string, alarm Alarm) (Alarm, error) {
	if err := alarm.Normalize(); err != nil {
		return Alarm{}, err
	}
	alarm.ID = id

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.alarms {
		if s.alarms[i].ID != id {
			continue
		}
		previous := s.alarms[i]
		s.alarms[i] = alarm
		if err := s.save(); err != nil {
			s.alarms[i] = previous
			return Alarm{}, err
		}
		return alarm, nil
	}
	return Alarm{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Delete removes the alarm with the given id.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.alarms {
		if s.alarms[i].ID != id {
			continue
		}
		removed := s.alarms[i]
		s.alarms = append(s.alarms[:i], s.alarms[i+1:]...)
		if err := s.save(); err != nil {
			s.alarms = append(s.alarms[:i], append([]Alarm{removed}, s.alarms[i:]...)...)
			return err
		}
		return nil
	}
	return fmt.Errorf("%w: %s", ErrNotFound, id)
}

// save writes the flat list atomically (temp file + rename). Callers hold
// the write lock.
func (s *Store) save() error {
	stored := make([]storedAlarm, 0, len(s.alarms))
	for _, alarm := range s.alarms {
		enabled := alarm.Enabled
		stored = append(stored, storedAlarm{
			ID:      alarm.ID,
			Time:    alarm.Time,
			Label:   alarm.Label,
			URI:     alarm.URI,
			Volume:  alarm.Volume,
			Enabled: &enabled,
		})
	}

	raw, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
