package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dharsanguruparan/jobtrack/internal/model"
)

// UserRepository provisions the accounts that own job records.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository constructs a repository.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// CreateUser inserts a user, or returns the existing one with the same email.
func (r *UserRepository) CreateUser(ctx context.Context, email, name string) (*model.User, error) {
	u := model.User{Email: email, Name: name}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO users (email, name, created_at) VALUES ($1,$2,$3)
		ON CONFLICT (email) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, created_at
	`, email, name, time.Now().UTC()).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return &u, nil
}

// GetUser returns a user by id.
func (r *UserRepository) GetUser(ctx context.Context, id int64) (*model.User, error) {
	var u model.User
	row := r.pool.QueryRow(ctx, `SELECT id, email, name, created_at FROM users WHERE id=$1`, id)
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user %d: %w", id, model.ErrNotFound)
		}
		return nil, fmt.Errorf("select user: %w", err)
	}
	return &u, nil
}
