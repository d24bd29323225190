package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Sessions table - one row per pipeline run
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			source TEXT NOT NULL DEFAULT 'camera',
			num_buttons INTEGER NOT NULL DEFAULT 8,
			temperature REAL NOT NULL DEFAULT 0.25,
			started_at DATETIME NOT NULL,
			ended_at DATETIME
		)`,

		// Note events table - every note started or stopped during a session
		`CREATE TABLE IF NOT EXISTS note_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			slot INTEGER NOT NULL CHECK(slot BETWEEN 0 AND 7),
			note INTEGER NOT NULL,
			pitch INTEGER NOT NULL,
			down INTEGER NOT NULL,
			source TEXT NOT NULL CHECK(source IN ('gesture', 'key', 'midi')),
			at_ms INTEGER NOT NULL
		)`,

		// Settings table - stores application settings as key-value pairs
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,

		// Indexes for better query performance
		`CREATE INDEX IF NOT EXISTS idx_note_events_session_id ON note_events(session_id)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_started_at ON sessions(started_at)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
