package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

type UserRepo struct {
	db *sqlx.DB
}

func (r *UserRepo) Create(ctx context.Context, u *User) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO users (id, name, type, display_name, about, agent_instructions, email, avatar_url, created_at)
		VALUES (:id, :name, :type, :display_name, :about, :agent_instructions, :email, :avatar_url, :created_at)
	`, u)
	return err
}

func (r *UserRepo) Get(ctx context.Context, id string) (*User, error) {
	var u User
	err := r.db.GetContext(ctx, &u, `SELECT * FROM users WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return &u, err
}

func (r *UserRepo) GetByName(ctx context.Context, name string) (*User, error) {
	var u User
	err := r.db.GetContext(ctx, &u, `SELECT * FROM users WHERE name = ?`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return &u, err
}

func (r *UserRepo) Update(ctx context.Context, u *User) error {
	_, err := r.db.NamedExecContext(ctx, `
		UPDATE users SET name = :name, display_name = :display_name, about = :about,
			agent_instructions = :agent_instructions, email = :email, avatar_url = :avatar_url
		WHERE id = :id
	`, u)
	return err
}

func (r *UserRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	return err
}

func (r *UserRepo) CountByType(ctx context.Context, userType UserType) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(1) FROM users WHERE type = ?`, userType)
	return count, err
}
