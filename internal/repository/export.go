package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dharsanguruparan/jobtrack/internal/model"
)

// ExportRepository wraps the SQL used by the API and the export worker.
type ExportRepository struct {
	pool *pgxpool.Pool
}

// NewExportRepository constructs a repository.
func NewExportRepository(pool *pgxpool.Pool) *ExportRepository {
	return &ExportRepository{pool: pool}
}

// CreateExport inserts a queued export before the task is enqueued.
func (r *ExportRepository) CreateExport(ctx context.Context, exp *model.Export) error {
	now := time.Now().UTC()
	exp.Status = model.ExportQueued
	exp.CreatedAt = now
	exp.UpdatedAt = now
	_, err := r.pool.Exec(ctx, `
		INSERT INTO exports (id, user_id, status, object_key, row_count, error_message, created_at, updated_at)
		VALUES ($1,$2,$3,NULL,0,NULL,$4,$5)
	`, exp.ID, exp.UserID, exp.Status, exp.CreatedAt, exp.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert export: %w", err)
	}
	return nil
}

// GetExport returns an export by id.
func (r *ExportRepository) GetExport(ctx context.Context, id string) (*model.Export, error) {
	var (
		exp       model.Export
		objectKey sql.NullString
		errorMsg  sql.NullString
	)
	row := r.pool.QueryRow(ctx, `
		SELECT id, user_id, status, object_key, row_count, error_message, created_at, updated_at
		FROM exports WHERE id=$1
	`, id)
	if err := row.Scan(&exp.ID, &exp.UserID, &exp.Status, &objectKey, &exp.RowCount, &errorMsg, &exp.CreatedAt, &exp.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("export %s: %w", id, model.ErrNotFound)
		}
		return nil, fmt.Errorf("select export: %w", err)
	}
	if objectKey.Valid {
		key := objectKey.String
		exp.ObjectKey = &key
	}
	if errorMsg.Valid {
		msg := errorMsg.String
		exp.ErrorMessage = &msg
	}
	return &exp, nil
}

// MarkProcessing sets the status to processing.
func (r *ExportRepository) MarkProcessing(ctx context.Context, id string) error {
	return r.updateStatus(ctx, id, model.ExportProcessing, nil, nil, nil)
}

// MarkFailed marks the export attempt as failed and stores the message.
func (r *ExportRepository) MarkFailed(ctx context.Context, id string, msg string) error {
	return r.updateStatus(ctx, id, model.ExportFailed, nil, nil, &msg)
}

// MarkCompleted stores the uploaded object key and the number of exported rows.
func (r *ExportRepository) MarkCompleted(ctx context.Context, id, objectKey string, rows int) error {
	return r.updateStatus(ctx, id, model.ExportCompleted, &objectKey, &rows, nil)
}

func (r *ExportRepository) updateStatus(ctx context.Context, id string, status model.ExportState, objectKey *string, rows *int, errorMsg *string) error {
	now := time.Now().UTC()
	tag, err := r.pool.Exec(ctx, `
		UPDATE exports
		SET status=$1,
			object_key = COALESCE($2, object_key),
			row_count = COALESCE($3, row_count),
			error_message = $4,
			updated_at=$5
		WHERE id=$6
	`, status, objectKey, rows, errorMsg, now, id)
	if err != nil {
		return fmt.Errorf("update export: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("export %s: %w", id, model.ErrNotFound)
	}
	return nil
}
