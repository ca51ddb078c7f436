package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Timestamps keep nanosecond precision so rapid transitions stay ordered.
const timeFormat = time.RFC3339Nano

const eventColumns = `id, timestamp, type, session_id, parent_session_id, meta`

// AppendEvent writes one event to the log. The log is append-only: there is
// deliberately no update or single-row delete.
func (s *Store) AppendEvent(e Event) error {
	var meta any
	if len(e.Meta) > 0 {
		data, err := json.Marshal(e.Meta)
		if err != nil {
			return fmt.Errorf("encode event meta: %w", err)
		}
		meta = string(data)
	}

	_, err := s.db.Exec(
		`INSERT INTO events (id, timestamp, type, session_id, parent_session_id, meta)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.Timestamp.UTC().Format(timeFormat), string(e.Type), e.SessionID, e.ParentSessionID, meta,
	)
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

// FetchAllEvents returns the full log ordered by timestamp ascending,
// ties broken by insertion order.
func (s *Store) FetchAllEvents() ([]Event, error) {
	return s.queryEvents(
		`SELECT ` + eventColumns + ` FROM events ORDER BY timestamp, rowid`)
}

// FetchSessionEvents returns all events for one physical session, oldest first.
func (s *Store) FetchSessionEvents(sessionID string) ([]Event, error) {
	return s.queryEvents(
		`SELECT `+eventColumns+` FROM events WHERE session_id = ? ORDER BY timestamp, rowid`,
		sessionID)
}

// FetchLastEventOfType returns the most recent event of the given type,
// or nil if none exists.
func (s *Store) FetchLastEventOfType(t EventType) (*Event, error) {
	return s.queryLastEvent(
		`SELECT `+eventColumns+` FROM events WHERE type = ? ORDER BY timestamp DESC, rowid DESC LIMIT 1`,
		string(t))
}

// FetchLastTransition returns the most recent state-changing event, skipping
// reflection annotations. Used to restore machine state on startup.
func (s *Store) FetchLastTransition() (*Event, error) {
	return s.queryLastEvent(
		`SELECT `+eventColumns+` FROM events WHERE type != ? ORDER BY timestamp DESC, rowid DESC LIMIT 1`,
		string(EventSessionReflection))
}

// ResetEvents wipes the entire log. This is the only sanctioned mutation of
// recorded history, backing the user-initiated full data reset.
func (s *Store) ResetEvents() error {
	if _, err := s.db.Exec(`DELETE FROM events`); err != nil {
		return fmt.Errorf("reset events: %w", err)
	}
	return nil
}

func (s *Store) queryLastEvent(query string, args ...any) (*Event, error) {
	row := s.db.QueryRow(query, args...)
	e, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch event: %w", err)
	}
	return e, nil
}

func (s *Store) queryEvents(query string, args ...any) ([]Event, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			// A malformed row is skipped rather than failing the whole scan.
			continue
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(r rowScanner) (*Event, error) {
	var e Event
	var timestamp, eventType string
	var parent, meta sql.NullString

	if err := r.Scan(&e.ID, &timestamp, &eventType, &e.SessionID, &parent, &meta); err != nil {
		return nil, err
	}

	ts, err := time.Parse(timeFormat, timestamp)
	if err != nil {
		return nil, fmt.Errorf("parse event timestamp %q: %w", timestamp, err)
	}
	e.Timestamp = ts
	e.Type = EventType(eventType)
	if parent.Valid {
		e.ParentSessionID = &parent.String
	}
	if meta.Valid && meta.String != "" {
		// Malformed meta is treated as absent, not a row failure.
		var m map[string]string
		if json.Unmarshal([]byte(meta.String), &m) == nil {
			e.Meta = m
		}
	}
	return &e, nil
}
