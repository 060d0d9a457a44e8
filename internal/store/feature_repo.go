package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

type FeatureRepo struct {
	db *sqlx.DB
}

func (r *FeatureRepo) Create(ctx context.Context, f *FeatureRequest) error {
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now().UTC()
	}
	if f.Status == "" {
		f.Status = "open"
	}
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO feature_requests (id, title, description, status, reason, created_by, created_at, updated_at)
		VALUES (:id, :title, :description, :status, :reason, :created_by, :created_at, :updated_at)
	`, f)
	return err
}

func (r *FeatureRepo) Get(ctx context.Context, id string) (*FeatureRequest, error) {
	var f FeatureRequest
	err := r.db.GetContext(ctx, &f, `SELECT * FROM feature_requests WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return &f, err
}

func (r *FeatureRepo) List(ctx context.Context) ([]FeatureRequest, error) {
	var fs []FeatureRequest
	err := r.db.SelectContext(ctx, &fs, `SELECT * FROM feature_requests ORDER BY created_at DESC`)
	return fs, err
}

// Vote upserts a vote: casting the same vote twice is idempotent.
func (r *FeatureRepo) Vote(ctx context.Context, featureID, userID string, vote int) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO feature_votes (feature_id, user_id, vote) VALUES (?, ?, ?)
		ON CONFLICT(feature_id, user_id) DO UPDATE SET vote = excluded.vote
	`, featureID, userID, vote)
	return err
}

func (r *FeatureRepo) Score(ctx context.Context, featureID string) (int, error) {
	var score sql.NullInt64
	err := r.db.GetContext(ctx, &score, `SELECT SUM(vote) FROM feature_votes WHERE feature_id = ?`, featureID)
	if err != nil {
		return 0, err
	}
	return int(score.Int64), nil
}
