package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Session sources.
const (
	SourceCamera = "camera"
	SourceReplay = "replay"
)

// Session is one run of the gesture pipeline.
type Session struct {
	ID          string     `json:"id"`
	Source      string     `json:"source"`
	NumButtons  int        `json:"num_buttons"`
	Temperature float64    `json:"temperature"`
	StartedAt   time.Time  `json:"started_at"`
	EndedAt     *time.Time `json:"ended_at,omitempty"`
	// NoteCount is the number of note-on events, filled in by reads.
	NoteCount int `json:"note_count"`
}

// Active reports whether the session has not ended yet.
func (s *Session) Active() bool {
	return s.EndedAt == nil
}

// SessionRepository provides CRUD operations for sessions.
type SessionRepository struct {
	db *sql.DB
}

// Sessions returns the session repository for this store.
func (s *Store) Sessions() *SessionRepository {
	return &SessionRepository{db: s.db}
}

// Create inserts a new session. An empty ID is replaced by a random UUID and
// a zero StartedAt by the current time.
func (r *SessionRepository) Create(sess *Session) error {
	if sess.ID == "" {
		sess.ID = uuid.NewString()
	}
	if sess.StartedAt.IsZero() {
		sess.StartedAt = time.Now().UTC()
	}
	if sess.Source == "" {
		sess.Source = SourceCamera
	}

	_, err := r.db.Exec(
		`INSERT INTO sessions (id, source, num_buttons, temperature, started_at)
		 VALUES (?, ?, ?, ?, ?)`,
		sess.ID, sess.Source, sess.NumButtons, sess.Temperature, sess.StartedAt,
	)
	return err
}

// End marks a session as finished.
func (r *SessionRepository) End(id string, at time.Time) error {
	result, err := r.db.Exec(
		`UPDATE sessions SET ended_at = ? WHERE id = ? AND ended_at IS NULL`,
		at, id,
	)
	if err != nil {
		return err
	}
	return affected(result)
}

const sessionColumns = `s.id, s.source, s.num_buttons, s.temperature, s.started_at, s.ended_at,
	(SELECT COUNT(*) FROM note_events e WHERE e.session_id = s.id AND e.down = 1)`

// GetByID retrieves a session by its ID.
func (r *SessionRepository) GetByID(id string) (*Session, error) {
	row := r.db.QueryRow(`SELECT `+sessionColumns+` FROM sessions s WHERE s.id = ?`, id)

	sess, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return sess, nil
}

// List retrieves sessions, newest first. A limit of 0 returns all of them.
func (r *SessionRepository) List(limit int) ([]*Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions s ORDER BY s.started_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sessions, nil
}

// Delete removes a session and its events.
func (r *SessionRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return affected(result)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (*Session, error) {
	sess := &Session{}
	var ended sql.NullTime

	err := row.Scan(&sess.ID, &sess.Source, &sess.NumButtons, &sess.Temperature,
		&sess.StartedAt, &ended, &sess.NoteCount)
	if err != nil {
		return nil, err
	}

	if ended.Valid {
		t := ended.Time
		sess.EndedAt = &t
	}
	return sess, nil
}
