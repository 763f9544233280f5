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

// StatusRepository stores the status catalog.
type StatusRepository struct {
	pool *pgxpool.Pool
}

// NewStatusRepository constructs a repository.
func NewStatusRepository(pool *pgxpool.Pool) *StatusRepository {
	return &StatusRepository{pool: pool}
}

var statusOrderBy = map[model.StatusOrder]string{
	model.StatusesByID:   "id ASC",
	model.StatusesByName: "name ASC, id ASC",
	model.StatusesNewest: "created_at DESC, id DESC",
}

// ListStatuses returns the whole catalog in the requested order.
func (r *StatusRepository) ListStatuses(ctx context.Context, order model.StatusOrder) ([]model.Status, error) {
	orderBy, ok := statusOrderBy[order]
	if !ok {
		orderBy = statusOrderBy[model.StatusesByID]
	}
	rows, err := r.pool.Query(ctx, `SELECT id, name, created_at, updated_at FROM statuses ORDER BY `+orderBy)
	if err != nil {
		return nil, fmt.Errorf("list statuses: %w", err)
	}
	defer rows.Close()
	out := []model.Status{}
	for rows.Next() {
		var st model.Status
		if err := rows.Scan(&st.ID, &st.Name, &st.CreatedAt, &st.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan status: %w", err)
		}
		out = append(out, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list statuses: %w", err)
	}
	return out, nil
}

// GetStatus returns a status by id.
func (r *StatusRepository) GetStatus(ctx context.Context, id int64) (*model.Status, error) {
	var st model.Status
	row := r.pool.QueryRow(ctx, `SELECT id, name, created_at, updated_at FROM statuses WHERE id=$1`, id)
	if err := row.Scan(&st.ID, &st.Name, &st.CreatedAt, &st.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("status %d: %w", id, model.ErrNotFound)
		}
		return nil, fmt.Errorf("select status: %w", err)
	}
	return &st, nil
}

// CreateStatus inserts a status and fills in its id and timestamps.
func (r *StatusRepository) CreateStatus(ctx context.Context, st *model.Status) error {
	now := time.Now().UTC()
	st.CreatedAt = now
	st.UpdatedAt = now
	err := r.pool.QueryRow(ctx, `
		INSERT INTO statuses (name, created_at, updated_at) VALUES ($1,$2,$3) RETURNING id
	`, st.Name, st.CreatedAt, st.UpdatedAt).Scan(&st.ID)
	if err != nil {
		return fmt.Errorf("insert status: %w", err)
	}
	return nil
}

// DeleteStatus removes a status. The job_records foreign key is declared ON
// DELETE CASCADE, so dependent records go in the same statement.
func (r *StatusRepository) DeleteStatus(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM statuses WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("status %d: %w", id, model.ErrNotFound)
	}
	return nil
}
