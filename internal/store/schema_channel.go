package store

func (s *Store) initChannelSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS channels (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		type TEXT NOT NULL DEFAULT 'custom',
		topic TEXT,
		project_path TEXT,
		workspace_id TEXT,
		created_by TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		is_archived BOOLEAN NOT NULL DEFAULT 0,
		archived_at TIMESTAMP
	);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_channels_name_workspace ON channels(workspace_id, name);

	CREATE TABLE IF NOT EXISTS channel_members (
		channel_id TEXT NOT NULL REFERENCES channels(id) ON DELETE CASCADE,
		user_id TEXT NOT NULL,
		joined_at TIMESTAMP NOT NULL,
		PRIMARY KEY (channel_id, user_id)
	);
	CREATE INDEX IF NOT EXISTS idx_channel_members_user ON channel_members(user_id);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	return s.ensureChannelWorkspaceColumn()
}

func (s *Store) ensureChannelWorkspaceColumn() error {
	exists, err := s.columnExists("channels", "workspace_id")
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	_, err = s.db.Exec(`ALTER TABLE channels ADD COLUMN workspace_id TEXT`)
	return err
}
