package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

type AgentRepo struct {
	db *sqlx.DB
}

func (r *AgentRepo) Create(ctx context.Context, a *Agent) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO agents (id, agent_name, agent_type, project_path, project_name, status,
			description, personality, current_task, gender, server_url, provider_session_id, workspace_id)
		VALUES (:id, :agent_name, :agent_type, :project_path, :project_name, :status,
			:description, :personality, :current_task, :gender, :server_url, :provider_session_id, :workspace_id)
	`, a)
	return err
}

func (r *AgentRepo) Get(ctx context.Context, id string) (*Agent, error) {
	var a Agent
	err := r.db.GetContext(ctx, &a, `SELECT * FROM agents WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return &a, err
}

func (r *AgentRepo) GetByName(ctx context.Context, name string) (*Agent, error) {
	var a Agent
	err := r.db.GetContext(ctx, &a, `SELECT * FROM agents WHERE agent_name = ?`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return &a, err
}

func (r *AgentRepo) ListAll(ctx context.Context) ([]Agent, error) {
	var as []Agent
	err := r.db.SelectContext(ctx, &as, `SELECT * FROM agents ORDER BY agent_name`)
	return as, err
}

func (r *AgentRepo) ListByWorkspace(ctx context.Context, workspaceID string) ([]Agent, error) {
	var as []Agent
	err := r.db.SelectContext(ctx, &as, `SELECT * FROM agents WHERE workspace_id = ? ORDER BY agent_name`, workspaceID)
	return as, err
}

func (r *AgentRepo) NameExists(ctx context.Context, name string) (bool, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(1) FROM agents WHERE agent_name = ?`, name); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *AgentRepo) UpdateCredentials(ctx context.Context, agentID string, serverURL, providerSessionID *string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE agents SET server_url = ?, provider_session_id = ? WHERE id = ?
	`, serverURL, providerSessionID, agentID)
	return err
}

func (r *AgentRepo) UpdateProfile(ctx context.Context, a *Agent) error {
	_, err := r.db.NamedExecContext(ctx, `
		UPDATE agents SET description = :description, personality = :personality,
			current_task = :current_task, gender = :gender
		WHERE id = :id
	`, a)
	return err
}

func (r *AgentRepo) SetStatus(ctx context.Context, agentID string, status AgentStatus) error {
	_, err := r.db.ExecContext(ctx, `UPDATE agents SET status = ? WHERE id = ?`, status, agentID)
	return err
}

// CreateSession records a new active OS-level agent session, closing any
// previously active one to preserve invariant I4 (at most one active
// session per agent).
func (r *AgentRepo) CreateSession(ctx context.Context, s *AgentSession) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		UPDATE agent_sessions SET is_active = 0, ended_at = CURRENT_TIMESTAMP
		WHERE agent_id = ? AND is_active = 1
	`, s.AgentID); err != nil {
		return err
	}
	if _, err := tx.NamedExecContext(ctx, `
		INSERT INTO agent_sessions (id, agent_id, pid, tty, is_active, started_at, ended_at, last_heartbeat)
		VALUES (:id, :agent_id, :pid, :tty, :is_active, :started_at, :ended_at, :last_heartbeat)
	`, s); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *AgentRepo) ActiveSession(ctx context.Context, agentID string) (*AgentSession, error) {
	var s AgentSession
	err := r.db.GetContext(ctx, &s, `
		SELECT * FROM agent_sessions WHERE agent_id = ? AND is_active = 1
		ORDER BY started_at DESC LIMIT 1
	`, agentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return &s, err
}

func (r *AgentRepo) CloseSession(ctx context.Context, agentID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE agent_sessions SET is_active = 0, ended_at = CURRENT_TIMESTAMP
		WHERE agent_id = ? AND is_active = 1
	`, agentID)
	return err
}

func (r *AgentRepo) Heartbeat(ctx context.Context, agentID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE agent_sessions SET last_heartbeat = CURRENT_TIMESTAMP
		WHERE agent_id = ? AND is_active = 1
	`, agentID)
	return err
}
