package store

func (s *Store) initWorkspaceSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS workspaces (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		slug TEXT NOT NULL UNIQUE,
		type TEXT NOT NULL DEFAULT 'shared',
		description TEXT,
		onboarding_prompt TEXT,
		human_welcome TEXT,
		created_by TEXT,
		created_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS workspace_members (
		workspace_id TEXT NOT NULL REFERENCES workspaces(id) ON DELETE CASCADE,
		user_id TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'member',
		joined_at TIMESTAMP NOT NULL,
		PRIMARY KEY (workspace_id, user_id)
	);
	CREATE INDEX IF NOT EXISTS idx_workspace_members_user ON workspace_members(user_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// seedDefaultWorkspace creates the reserved all-zero-id workspace on first
// boot if it does not already exist.
func (s *Store) seedDefaultWorkspace() error {
	var count int
	if err := s.db.Get(&count, `SELECT COUNT(1) FROM workspaces WHERE id = ?`, DefaultWorkspaceID); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	_, err := s.db.Exec(`
		INSERT INTO workspaces (id, name, slug, type, created_at)
		VALUES (?, 'Default', 'default', 'shared', CURRENT_TIMESTAMP)
	`, DefaultWorkspaceID)
	return err
}

// backfillWorkspaces is the migrator spec §9 calls for: on first run
// against a pre-workspace database, every channel/agent row that lacks a
// workspace_id is attached to the default workspace, and the lone human
// user is made an admin member of it. Additive and idempotent.
func (s *Store) backfillWorkspaces() error {
	if _, err := s.db.Exec(
		`UPDATE channels SET workspace_id = ? WHERE workspace_id IS NULL OR workspace_id = ''`,
		DefaultWorkspaceID,
	); err != nil {
		return err
	}
	if _, err := s.db.Exec(
		`UPDATE agents SET workspace_id = ? WHERE workspace_id IS NULL OR workspace_id = ''`,
		DefaultWorkspaceID,
	); err != nil {
		return err
	}

	var humanIDs []string
	if err := s.db.Select(&humanIDs, `SELECT id FROM users WHERE type = 'human'`); err != nil {
		return err
	}
	for _, id := range humanIDs {
		if _, err := s.db.Exec(`
			INSERT OR IGNORE INTO workspace_members (workspace_id, user_id, role, joined_at)
			VALUES (?, ?, 'admin', CURRENT_TIMESTAMP)
		`, DefaultWorkspaceID, id); err != nil {
			return err
		}
	}
	return nil
}
