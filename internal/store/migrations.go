package store

func (s *Store) runMigrations() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,

		// Journal of discrete state changes.
		`CREATE TABLE IF NOT EXISTS transitions (
			id TEXT PRIMARY KEY,
			from_state TEXT NOT NULL CHECK(from_state IN ('ASSEMBLED', 'EXPLODED')),
			to_state TEXT NOT NULL CHECK(to_state IN ('ASSEMBLED', 'EXPLODED')),
			cause TEXT NOT NULL,
			created_at DATETIME NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_transitions_created_at ON transitions(created_at)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}
	return nil
}
