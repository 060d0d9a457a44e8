package store

func (s *Store) initFeatureSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS feature_requests (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'open',
		reason TEXT,
		created_by TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS feature_votes (
		feature_id TEXT NOT NULL REFERENCES feature_requests(id) ON DELETE CASCADE,
		user_id TEXT NOT NULL,
		vote INTEGER NOT NULL,
		PRIMARY KEY (feature_id, user_id)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}
