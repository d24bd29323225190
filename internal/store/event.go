package store

import (
	"database/sql"
	"fmt"
	"time"
)

// NoteEvent is a recorded note start or stop.
type NoteEvent struct {
	ID        int64     `json:"id"`
	SessionID string    `json:"session_id"`
	Slot      int       `json:"slot"`
	Note      int       `json:"note"`
	Pitch     int       `json:"pitch"`
	Down      bool      `json:"down"`
	Source    string    `json:"source"`
	At        time.Time `json:"at"`
}

// EventRepository stores note events.
type EventRepository struct {
	db *sql.DB
}

// Events returns the event repository for this store.
func (s *Store) Events() *EventRepository {
	return &EventRepository{db: s.db}
}

// Append inserts events in a single transaction. IDs are filled in on success.
func (r *EventRepository) Append(events ...*NoteEvent) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT INTO note_events (session_id, slot, note, pitch, down, source, at_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range events {
		result, err := stmt.Exec(e.SessionID, e.Slot, e.Note, e.Pitch, e.Down, e.Source, e.At.UnixMilli())
		if err != nil {
			return fmt.Errorf("insert event for slot %d: %w", e.Slot, err)
		}
		if e.ID, err = result.LastInsertId(); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ListBySession returns a session's events in the order they happened.
func (r *EventRepository) ListBySession(sessionID string) ([]NoteEvent, error) {
	rows, err := r.db.Query(
		`SELECT id, session_id, slot, note, pitch, down, source, at_ms
		 FROM note_events WHERE session_id = ? ORDER BY at_ms, id`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []NoteEvent
	for rows.Next() {
		var e NoteEvent
		var down int
		var atMS int64

		if err := rows.Scan(&e.ID, &e.SessionID, &e.Slot, &e.Note, &e.Pitch, &down, &e.Source, &atMS); err != nil {
			return nil, err
		}
		e.Down = down != 0
		e.At = time.UnixMilli(atMS).UTC()
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return events, nil
}
