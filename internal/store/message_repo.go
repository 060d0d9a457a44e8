package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

type MessageRepo struct {
	db *sqlx.DB
}

func (r *MessageRepo) Create(ctx context.Context, m *Message) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO messages (id, channel_id, sender_id, content, mentions, parent_id, is_pinned, pinned_at, pinned_by, edited_at, created_at)
		VALUES (:id, :channel_id, :sender_id, :content, :mentions, :parent_id, :is_pinned, :pinned_at, :pinned_by, :edited_at, :created_at)
	`, m)
	return err
}

func (r *MessageRepo) Get(ctx context.Context, id string) (*Message, error) {
	var m Message
	err := r.db.GetContext(ctx, &m, `SELECT * FROM messages WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return &m, err
}

// ListByChannel returns messages for one channel, newest first, optionally
// paginated via a before-id cursor, capped at limit (≤100, enforced by the
// caller). Invariant P1: only rows of this channel are ever returned.
func (r *MessageRepo) ListByChannel(ctx context.Context, channelID string, beforeID string, limit int) ([]Message, error) {
	var ms []Message
	var err error
	if beforeID != "" {
		err = r.db.SelectContext(ctx, &ms, `
			SELECT * FROM messages
			WHERE channel_id = ? AND created_at < (SELECT created_at FROM messages WHERE id = ?)
			ORDER BY created_at DESC, rowid DESC LIMIT ?
		`, channelID, beforeID, limit)
	} else {
		err = r.db.SelectContext(ctx, &ms, `
			SELECT * FROM messages WHERE channel_id = ?
			ORDER BY created_at DESC, rowid DESC LIMIT ?
		`, channelID, limit)
	}
	return ms, err
}

// RecentBefore returns the last n messages strictly before the given
// message, oldest first, excluding the triggering message itself — used
// to build invocation-engine prompt history (spec §4.4 step 4).
func (r *MessageRepo) RecentBefore(ctx context.Context, channelID, excludeMessageID string, n int) ([]Message, error) {
	var ms []Message
	err := r.db.SelectContext(ctx, &ms, `
		SELECT * FROM messages
		WHERE channel_id = ? AND id != ?
			AND created_at < (SELECT created_at FROM messages WHERE id = ?)
		ORDER BY created_at DESC, rowid DESC LIMIT ?
	`, channelID, excludeMessageID, excludeMessageID, n)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(ms)-1; i < j; i, j = i+1, j-1 {
		ms[i], ms[j] = ms[j], ms[i]
	}
	return ms, nil
}

func (r *MessageRepo) ListPinned(ctx context.Context, channelID string) ([]Message, error) {
	var ms []Message
	err := r.db.SelectContext(ctx, &ms, `
		SELECT * FROM messages WHERE channel_id = ? AND is_pinned = 1 ORDER BY pinned_at DESC
	`, channelID)
	return ms, err
}

func (r *MessageRepo) Edit(ctx context.Context, id, content string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE messages SET content = ?, edited_at = CURRENT_TIMESTAMP WHERE id = ?
	`, content, id)
	return err
}

func (r *MessageRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM messages WHERE id = ?`, id)
	return err
}

// TogglePin implements P5 (idempotent double-pin is a no-op by flipping
// back to unpinned on the second call).
func (r *MessageRepo) TogglePin(ctx context.Context, id, byUserID string) (bool, error) {
	m, err := r.Get(ctx, id)
	if err != nil || m == nil {
		return false, err
	}
	if m.IsPinned {
		_, err = r.db.ExecContext(ctx, `
			UPDATE messages SET is_pinned = 0, pinned_at = NULL, pinned_by = NULL WHERE id = ?
		`, id)
		return false, err
	}
	_, err = r.db.ExecContext(ctx, `
		UPDATE messages SET is_pinned = 1, pinned_at = CURRENT_TIMESTAMP, pinned_by = ? WHERE id = ?
	`, byUserID, id)
	return true, err
}

// ToggleReaction implements P4: the same (message, user, emoji) toggles
// the reaction off on the second call.
func (r *MessageRepo) ToggleReaction(ctx context.Context, messageID, userID, emoji string) (bool, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(1) FROM message_reactions WHERE message_id = ? AND user_id = ? AND emoji = ?
	`, messageID, userID, emoji); err != nil {
		return false, err
	}
	if count > 0 {
		_, err := r.db.ExecContext(ctx, `
			DELETE FROM message_reactions WHERE message_id = ? AND user_id = ? AND emoji = ?
		`, messageID, userID, emoji)
		return false, err
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO message_reactions (message_id, user_id, emoji, created_at) VALUES (?, ?, ?, ?)
	`, messageID, userID, emoji, time.Now().UTC())
	return true, err
}

func (r *MessageRepo) Reactions(ctx context.Context, messageID string) ([]MessageReaction, error) {
	var rs []MessageReaction
	err := r.db.SelectContext(ctx, &rs, `SELECT * FROM message_reactions WHERE message_id = ?`, messageID)
	return rs, err
}

// EscapeLike escapes the \ escape character and the % and _ LIKE
// wildcards so they match literally,
// per spec §4.2/§6/P3.
func EscapeLike(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "%", "\\%")
	s = strings.ReplaceAll(s, "_", "\\_")
	return s
}

type SearchResult struct {
	Message
	ChannelName string `db:"channel_name"`
}

// Search applies the text filter AND the channel filter simultaneously
// (P3), workspace-scoped, with % and _ escaped to match literally.
func (r *MessageRepo) Search(ctx context.Context, workspaceID, query, channelID string) ([]SearchResult, error) {
	pattern := "%" + EscapeLike(query) + "%"
	q := `
		SELECT m.*, c.name AS channel_name FROM messages m
		JOIN channels c ON c.id = m.channel_id
		WHERE c.workspace_id = ? AND m.content LIKE ? ESCAPE '\'
	`
	args := []interface{}{workspaceID, pattern}
	if channelID != "" {
		q += " AND m.channel_id = ?"
		args = append(args, channelID)
	}
	q += " ORDER BY m.created_at DESC"

	var rs []SearchResult
	err := r.db.SelectContext(ctx, &rs, q, args...)
	return rs, err
}

// ListMentioning returns messages whose mentions JSON array contains the
// given agent name, newest first — used by get_messages priority (1).
func (r *MessageRepo) ListMentioning(ctx context.Context, workspaceID, agentName string, limit int) ([]Message, error) {
	var ms []Message
	err := r.db.SelectContext(ctx, &ms, `
		SELECT m.* FROM messages m
		JOIN channels c ON c.id = m.channel_id
		WHERE c.workspace_id = ? AND m.mentions LIKE ?
		ORDER BY m.created_at DESC LIMIT ?
	`, workspaceID, "%\""+agentName+"\"%", limit)
	return ms, err
}

func (r *MessageRepo) TouchReadReceipt(ctx context.Context, userID, channelID string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO read_receipts (user_id, channel_id, last_read_at) VALUES (?, ?, ?)
		ON CONFLICT(user_id, channel_id) DO UPDATE SET
			last_read_at = excluded.last_read_at
			WHERE excluded.last_read_at > read_receipts.last_read_at
	`, userID, channelID, time.Now().UTC())
	return err
}
