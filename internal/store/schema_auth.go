package store

func (s *Store) initAuthSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS workspace_api_keys (
		id TEXT PRIMARY KEY,
		workspace_id TEXT NOT NULL REFERENCES workspaces(id) ON DELETE CASCADE,
		key_hash TEXT NOT NULL UNIQUE,
		key_prefix TEXT NOT NULL,
		name TEXT,
		created_by TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		expires_at TIMESTAMP,
		revoked_at TIMESTAMP,
		last_used_at TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_api_keys_workspace ON workspace_api_keys(workspace_id);

	CREATE TABLE IF NOT EXISTS workspace_invites (
		id TEXT PRIMARY KEY,
		workspace_id TEXT NOT NULL REFERENCES workspaces(id) ON DELETE CASCADE,
		token TEXT NOT NULL UNIQUE,
		role TEXT NOT NULL DEFAULT 'member',
		max_uses INTEGER,
		use_count INTEGER NOT NULL DEFAULT 0,
		expires_at TIMESTAMP,
		created_at TIMESTAMP NOT NULL,
		revoked_at TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS user_sessions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		token_hash TEXT NOT NULL UNIQUE,
		workspace_id TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		expires_at TIMESTAMP NOT NULL,
		last_active_at TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_user_sessions_user ON user_sessions(user_id);
	`
	_, err := s.db.Exec(schema)
	return err
}
