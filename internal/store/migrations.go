package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Alerts table - one row per alarm firing
		`CREATE TABLE IF NOT EXISTS alerts (
			id TEXT PRIMARY KEY,
			sequence INTEGER NOT NULL DEFAULT 0,
			fired_at DATETIME NOT NULL,
			topic TEXT NOT NULL,
			payload TEXT NOT NULL,
			message TEXT NOT NULL,
			flip_count INTEGER NOT NULL DEFAULT 0,
			flip_ratio REAL NOT NULL DEFAULT 0,
			flip_variance REAL NOT NULL DEFAULT 0
		)`,

		// Dispatch failures table - alert deliveries that did not reach the broker or speaker
		`CREATE TABLE IF NOT EXISTS dispatch_failures (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			channel TEXT NOT NULL CHECK(channel IN ('publish', 'announce')),
			target TEXT NOT NULL DEFAULT '',
			error TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Indexes for better query performance
		`CREATE INDEX IF NOT EXISTS idx_alerts_fired_at ON alerts(fired_at)`,
		`CREATE INDEX IF NOT EXISTS idx_dispatch_failures_created_at ON dispatch_failures(created_at)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
