package history

import (
	"database/sql"
	"strings"
	"time"
)

// PlaybackEvent is a recorded fire/test result.
type PlaybackEvent struct {
	EventID  string    `json:"event_id"`
	FiredAt  time.Time `json:"fired_at"`
	Source   string    `json:"source"`
	AlarmID  *string   `json:"alarm_id,omitempty"`
	Label    string    `json:"label,omitempty"`
	DeviceID *string   `json:"device_id,omitempty"`
	URI      string    `json:"uri,omitempty"`
	Status   string    `json:"status"`
	Code     string    `json:"code,omitempty"`
	Error    *string   `json:"error,omitempty"`
}

// QueryFilters narrows event queries.
type QueryFilters struct {
	Status  *string
	AlarmID *string
	Source  *string
	Limit   int
	Offset  int
}

// DBPair interface for dependency injection (matches db.DBPair).
type DBPair interface {
	Reader() *sql.DB
	Writer() *sql.DB
}

// Repository handles database operations for playback events.
type Repository struct {
	reader *sql.DB
	writer *sql.DB
}

// NewRepository creates a history Repository.
func NewRepository(dbPair DBPair) *Repository {
	return &Repository{reader: dbPair.Reader(), writer: dbPair.Writer()}
}

// Insert writes a playback event.
func (r *Repository) Insert(event PlaybackEvent) error {
	_, err := r.writer.Exec(`
		INSERT INTO playback_events (event_id, fired_at, source, alarm_id, label, device_id, uri, status, code, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, event.EventID, event.FiredAt.UTC().Format(time.RFC3339Nano), event.Source,
		event.AlarmID, event.Label, event.DeviceID, event.URI, event.Status, event.Code, event.Error)
	return err
}

// Query returns events matching the filters, newest first.
func (r *Repository) Query(filters QueryFilters) ([]PlaybackEvent, error) {
	var conditions []string
	var args []any

	if filters.Status != nil {
		conditions = append(conditions, "status = ?")
		args = append(args, *filters.Status)
	}
	if filters.AlarmID != nil {
		conditions = append(conditions, "alarm_id = ?")
		args = append(args, *filters.AlarmID)
	}
	if filters.Source != nil {
		conditions = append(conditions, "source = ?")
		args = append(args, *filters.Source)
	}

	query := "SELECT event_id, fired_at, source, alarm_id, label, device_id, uri, status, code, error FROM playback_events"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY fired_at DESC"

	limit := filters.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	query += " LIMIT ? OFFSET ?"
	args = append(args, limit, filters.Offset)

	rows, err := r.reader.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]PlaybackEvent, 0)
	for rows.Next() {
		var event PlaybackEvent
		var firedAt string
		if err := rows.Scan(&event.EventID, &firedAt, &event.Source, &event.AlarmID,
			&event.Label, &event.DeviceID, &event.URI, &event.Status, &event.Code, &event.Error); err != nil {
			return nil, err
		}
		if parsed, err := time.Parse(time.RFC3339Nano, firedAt); err == nil {
			event.FiredAt = parsed
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

// Get returns a single event by id, or nil when absent.
func (r *Repository) Get(eventID string) (*PlaybackEvent, error) {
	row := r.reader.QueryRow(`
		SELECT event_id, fired_at, source, alarm_id, label, device_id, uri, status, code, error
		FROM playback_events WHERE event_id = ?
	`, eventID)

	var event PlaybackEvent
	var firedAt string
	err := row.Scan(&event.EventID, &firedAt, &event.Source, &event.AlarmID,
		&event.Label, &event.DeviceID, &event.URI, &event.Status, &event.Code, &event.Error)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if parsed, err := time.Parse(time.RFC3339Nano, firedAt); err == nil {
		event.FiredAt = parsed
	}
	return &event, nil
}

// PruneOlderThan deletes events fired before the cutoff and returns the
// number removed.
func (r *Repository) PruneOlderThan(cutoff time.Time) (int64, error) {
	result, err := r.writer.Exec(
		"DELETE FROM playback_events WHERE fired_at < ?",
		cutoff.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
