package store

func (s *Store) initUserSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		type TEXT NOT NULL DEFAULT 'human',
		display_name TEXT,
		about TEXT,
		agent_instructions TEXT,
		email TEXT,
		avatar_url TEXT,
		created_at TIMESTAMP NOT NULL
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	return nil
}
