package store

func (s *Store) initAgentSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS agents (
		id TEXT PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
		agent_name TEXT NOT NULL UNIQUE,
		agent_type TEXT NOT NULL DEFAULT 'generic',
		project_path TEXT NOT NULL DEFAULT '',
		project_name TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'offline',
		description TEXT,
		personality TEXT,
		current_task TEXT,
		gender TEXT,
		server_url TEXT,
		provider_session_id TEXT,
		workspace_id TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_agents_workspace ON agents(workspace_id);

	CREATE TABLE IF NOT EXISTS agent_sessions (
		id TEXT PRIMARY KEY,
		agent_id TEXT NOT NULL REFERENCES agents(id) ON DELETE CASCADE,
		pid INTEGER NOT NULL,
		tty TEXT,
		is_active BOOLEAN NOT NULL DEFAULT 1,
		started_at TIMESTAMP NOT NULL,
		ended_at TIMESTAMP,
		last_heartbeat TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_agent_sessions_agent ON agent_sessions(agent_id, is_active);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	return s.ensureAgentWorkspaceColumn()
}

// ensureAgentWorkspaceColumn exists so that a teacher-style database
// created before workspace_id was part of the agents table gets the
// column added idempotently. CREATE TABLE IF NOT EXISTS above already
// includes it for fresh databases; this guards the upgrade path.
func (s *Store) ensureAgentWorkspaceColumn() error {
	exists, err := s.columnExists("agents", "workspace_id")
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	_, err = s.db.Exec(`ALTER TABLE agents ADD COLUMN workspace_id TEXT`)
	return err
}
