package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Sessions table - one row per completed training session
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL DEFAULT '',
			training_type TEXT NOT NULL,
			elapsed_ms INTEGER NOT NULL,
			max_pull_cm REAL NOT NULL,
			accuracy_pct REAL NOT NULL,
			completed_at DATETIME NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Session events table - quiz outcomes in trigger order
		`CREATE TABLE IF NOT EXISTS session_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			seq INTEGER NOT NULL,
			kind TEXT NOT NULL,
			trigger_ms INTEGER NOT NULL,
			correct INTEGER
		)`,

		// Pull queue table - the generated event queue for the session
		`CREATE TABLE IF NOT EXISTS pull_queue (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			seq INTEGER NOT NULL,
			kind TEXT NOT NULL,
			trigger_distance_cm REAL NOT NULL
		)`,

		// Indexes for better query performance
		`CREATE INDEX IF NOT EXISTS idx_sessions_user_id ON sessions(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_session_events_session_id ON session_events(session_id)`,
		`CREATE INDEX IF NOT EXISTS idx_pull_queue_session_id ON pull_queue(session_id)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
