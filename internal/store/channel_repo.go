package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

type ChannelRepo struct {
	db *sqlx.DB
}

func (r *ChannelRepo) Create(ctx context.Context, c *Channel) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO channels (id, name, type, topic, project_path, workspace_id, created_by, created_at, is_archived, archived_at)
		VALUES (:id, :name, :type, :topic, :project_path, :workspace_id, :created_by, :created_at, :is_archived, :archived_at)
	`, c)
	return err
}

func (r *ChannelRepo) Get(ctx context.Context, id string) (*Channel, error) {
	var c Channel
	err := r.db.GetContext(ctx, &c, `SELECT * FROM channels WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return &c, err
}

func (r *ChannelRepo) GetByName(ctx context.Context, workspaceID, name string) (*Channel, error) {
	var c Channel
	err := r.db.GetContext(ctx, &c, `SELECT * FROM channels WHERE workspace_id = ? AND name = ?`, workspaceID, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return &c, err
}

// Resolve finds a channel by id first, falling back to by-name lookup
// within the workspace, as the MCP send_message/join_channel tools
// require ("by name or id").
func (r *ChannelRepo) Resolve(ctx context.Context, workspaceID, idOrName string) (*Channel, error) {
	if c, err := r.Get(ctx, idOrName); err != nil {
		return nil, err
	} else if c != nil && c.WorkspaceID == workspaceID {
		return c, nil
	}
	return r.GetByName(ctx, workspaceID, idOrName)
}

func (r *ChannelRepo) ListByWorkspace(ctx context.Context, workspaceID string) ([]Channel, error) {
	var cs []Channel
	err := r.db.SelectContext(ctx, &cs, `
		SELECT * FROM channels WHERE workspace_id = ? ORDER BY created_at
	`, workspaceID)
	return cs, err
}

func (r *ChannelRepo) ListForUser(ctx context.Context, workspaceID, userID string) ([]Channel, error) {
	var cs []Channel
	err := r.db.SelectContext(ctx, &cs, `
		SELECT c.* FROM channels c
		JOIN channel_members cm ON cm.channel_id = c.id
		WHERE c.workspace_id = ? AND cm.user_id = ?
		ORDER BY c.created_at
	`, workspaceID, userID)
	return cs, err
}

func (r *ChannelRepo) AddMember(ctx context.Context, channelID, userID string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO channel_members (channel_id, user_id, joined_at)
		VALUES (?, ?, ?)
	`, channelID, userID, time.Now().UTC())
	return err
}

func (r *ChannelRepo) IsMember(ctx context.Context, channelID, userID string) (bool, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(1) FROM channel_members WHERE channel_id = ? AND user_id = ?
	`, channelID, userID)
	return count > 0, err
}

// Archive marks the channel archived instead of deleting it; deletion is
// forbidden while messages remain (invariant I7).
func (r *ChannelRepo) Archive(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE channels SET is_archived = 1, archived_at = CURRENT_TIMESTAMP WHERE id = ?
	`, id)
	return err
}

func (r *ChannelRepo) MessageCount(ctx context.Context, id string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(1) FROM messages WHERE channel_id = ?`, id)
	return count, err
}

func (r *ChannelRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM channels WHERE id = ?`, id)
	return err
}
