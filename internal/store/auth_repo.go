package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

type AuthRepo struct {
	db *sqlx.DB
}

func (r *AuthRepo) CreateSession(ctx context.Context, s *UserSession) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO user_sessions (id, user_id, token_hash, workspace_id, created_at, expires_at, last_active_at)
		VALUES (:id, :user_id, :token_hash, :workspace_id, :created_at, :expires_at, :last_active_at)
	`, s)
	return err
}

func (r *AuthRepo) SessionByTokenHash(ctx context.Context, hash string) (*UserSession, error) {
	var s UserSession
	err := r.db.GetContext(ctx, &s, `
		SELECT * FROM user_sessions WHERE token_hash = ? AND expires_at > ?
	`, hash, time.Now().UTC())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return &s, err
}

func (r *AuthRepo) TouchSession(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE user_sessions SET last_active_at = ? WHERE id = ?
	`, time.Now().UTC(), id)
	return err
}

func (r *AuthRepo) DeleteSession(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM user_sessions WHERE id = ?`, id)
	return err
}

func (r *AuthRepo) CreateAPIKey(ctx context.Context, k *WorkspaceAPIKey) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO workspace_api_keys (id, workspace_id, key_hash, key_prefix, name, created_by, created_at, expires_at, revoked_at, last_used_at)
		VALUES (:id, :workspace_id, :key_hash, :key_prefix, :name, :created_by, :created_at, :expires_at, :revoked_at, :last_used_at)
	`, k)
	return err
}

// APIKeyByHash enforces invariant I5: valid iff not revoked and not
// expired.
func (r *AuthRepo) APIKeyByHash(ctx context.Context, hash string) (*WorkspaceAPIKey, error) {
	var k WorkspaceAPIKey
	err := r.db.GetContext(ctx, &k, `
		SELECT * FROM workspace_api_keys
		WHERE key_hash = ? AND revoked_at IS NULL AND (expires_at IS NULL OR expires_at > ?)
	`, hash, time.Now().UTC())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return &k, err
}

func (r *AuthRepo) TouchAPIKey(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE workspace_api_keys SET last_used_at = ? WHERE id = ?`, time.Now().UTC(), id)
	return err
}

func (r *AuthRepo) ListAPIKeys(ctx context.Context, workspaceID string) ([]WorkspaceAPIKey, error) {
	var ks []WorkspaceAPIKey
	err := r.db.SelectContext(ctx, &ks, `SELECT * FROM workspace_api_keys WHERE workspace_id = ? ORDER BY created_at DESC`, workspaceID)
	return ks, err
}

func (r *AuthRepo) RevokeAPIKey(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE workspace_api_keys SET revoked_at = ? WHERE id = ?`, time.Now().UTC(), id)
	return err
}

func (r *AuthRepo) CreateInvite(ctx context.Context, inv *WorkspaceInvite) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO workspace_invites (id, workspace_id, token, role, max_uses, use_count, expires_at, created_at, revoked_at)
		VALUES (:id, :workspace_id, :token, :role, :max_uses, :use_count, :expires_at, :created_at, :revoked_at)
	`, inv)
	return err
}

func (r *AuthRepo) InviteByToken(ctx context.Context, token string) (*WorkspaceInvite, error) {
	var inv WorkspaceInvite
	err := r.db.GetContext(ctx, &inv, `
		SELECT * FROM workspace_invites
		WHERE token = ? AND revoked_at IS NULL AND (expires_at IS NULL OR expires_at > ?)
	`, token, time.Now().UTC())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return &inv, err
}

func (r *AuthRepo) ConsumeInvite(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE workspace_invites SET use_count = use_count + 1 WHERE id = ?`, id)
	return err
}

func (r *AuthRepo) ListInvites(ctx context.Context, workspaceID string) ([]WorkspaceInvite, error) {
	var invs []WorkspaceInvite
	err := r.db.SelectContext(ctx, &invs, `SELECT * FROM workspace_invites WHERE workspace_id = ? ORDER BY created_at DESC`, workspaceID)
	return invs, err
}
