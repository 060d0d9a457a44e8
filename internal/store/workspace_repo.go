package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

type WorkspaceRepo struct {
	db *sqlx.DB
}

func (r *WorkspaceRepo) Create(ctx context.Context, w *Workspace) error {
	if w.CreatedAt.IsZero() {
		w.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO workspaces (id, name, slug, type, description, onboarding_prompt, human_welcome, created_by, created_at)
		VALUES (:id, :name, :slug, :type, :description, :onboarding_prompt, :human_welcome, :created_by, :created_at)
	`, w)
	return err
}

func (r *WorkspaceRepo) Get(ctx context.Context, id string) (*Workspace, error) {
	var w Workspace
	err := r.db.GetContext(ctx, &w, `SELECT * FROM workspaces WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return &w, err
}

func (r *WorkspaceRepo) List(ctx context.Context) ([]Workspace, error) {
	var ws []Workspace
	err := r.db.SelectContext(ctx, &ws, `SELECT * FROM workspaces ORDER BY created_at`)
	return ws, err
}

func (r *WorkspaceRepo) Default(ctx context.Context) (*Workspace, error) {
	return r.Get(ctx, DefaultWorkspaceID)
}

func (r *WorkspaceRepo) AddMember(ctx context.Context, workspaceID, userID string, role Role) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO workspace_members (workspace_id, user_id, role, joined_at)
		VALUES (?, ?, ?, ?)
	`, workspaceID, userID, role, time.Now().UTC())
	return err
}

func (r *WorkspaceRepo) MemberRole(ctx context.Context, workspaceID, userID string) (Role, bool, error) {
	var role Role
	err := r.db.GetContext(ctx, &role, `
		SELECT role FROM workspace_members WHERE workspace_id = ? AND user_id = ?
	`, workspaceID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return role, true, nil
}

func (r *WorkspaceRepo) Members(ctx context.Context, workspaceID string) ([]WorkspaceMember, error) {
	var ms []WorkspaceMember
	err := r.db.SelectContext(ctx, &ms, `SELECT * FROM workspace_members WHERE workspace_id = ?`, workspaceID)
	return ms, err
}

// SoleHuman returns the one human user of the default workspace, used by
// the localhost-bypass auth path before any human has onboarded.
func (r *WorkspaceRepo) SoleHuman(ctx context.Context, workspaceID string) (*User, error) {
	var u User
	err := r.db.GetContext(ctx, &u, `
		SELECT u.* FROM users u
		JOIN workspace_members wm ON wm.user_id = u.id
		WHERE wm.workspace_id = ? AND u.type = 'human'
		ORDER BY u.created_at ASC LIMIT 1
	`, workspaceID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return &u, err
}
