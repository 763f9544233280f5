package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dharsanguruparan/jobtrack/internal/model"
)

// foreignKeyViolation is the SQLSTATE raised when status_id has no statuses row.
const foreignKeyViolation = "23503"

// JobRepository stores job records joined to their status.
type JobRepository struct {
	pool *pgxpool.Pool
}

// NewJobRepository constructs a repository.
func NewJobRepository(pool *pgxpool.Pool) *JobRepository {
	return &JobRepository{pool: pool}
}

// FindPage returns one page of the user's records matching f and the number of
// matches across all pages.
func (r *JobRepository) FindPage(ctx context.Context, userID int64, f model.JobFilter) ([]model.JobRecord, int, error) {
	where, args := jobPredicate(userID, f)
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM job_records j WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count jobs: %w", err)
	}
	off := f.Offset()
	if total == 0 || off < 0 || off >= total {
		return []model.JobRecord{}, total, nil
	}
	limit := "$" + strconv.Itoa(len(args)+1)
	offset := "$" + strconv.Itoa(len(args)+2)
	args = append(args, f.PerPage, off)
	items, err := r.query(ctx, `
		SELECT `+jobColumns+`
		FROM job_records j JOIN statuses s ON s.id = j.status_id
		WHERE `+where+` `+jobOrder+` LIMIT `+limit+` OFFSET `+offset, args...)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// ListJobs returns every record of the user, newest first.
func (r *JobRepository) ListJobs(ctx context.Context, userID int64) ([]model.JobRecord, error) {
	return r.query(ctx, `
		SELECT `+jobColumns+`
		FROM job_records j JOIN statuses s ON s.id = j.status_id
		WHERE j.user_id = $1 `+jobOrder, userID)
}

// GetJob returns the record when it exists and belongs to userID.
func (r *JobRepository) GetJob(ctx context.Context, userID, id int64) (*model.JobRecord, error) {
	items, err := r.query(ctx, `
		SELECT `+jobColumns+`
		FROM job_records j JOIN statuses s ON s.id = j.status_id
		WHERE j.id = $1 AND j.user_id = $2`, id, userID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("job %d: %w", id, model.ErrNotFound)
	}
	return &items[0], nil
}

// CreateJob inserts a record. A status deleted since validation surfaces as
// model.ErrUnknownStatus.
func (r *JobRepository) CreateJob(ctx context.Context, rec *model.JobRecord) error {
	now := time.Now().UTC()
	rec.CreatedAt = now
	rec.UpdatedAt = now
	err := r.pool.QueryRow(ctx, `
		INSERT INTO job_records (position, company, location, job_url, salary, job_type, applied_at, status_id, user_id, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		RETURNING id
	`, rec.Position, rec.Company, rec.Location, rec.JobURL, rec.Salary, rec.JobType, rec.AppliedAt.Time(),
		rec.StatusID, rec.UserID, rec.CreatedAt, rec.UpdatedAt).Scan(&rec.ID)
	if err != nil {
		return writeError("insert job", err)
	}
	return nil
}

// UpdateJob overwrites every mutable column of the record in one statement.
func (r *JobRepository) UpdateJob(ctx context.Context, rec *model.JobRecord) error {
	rec.UpdatedAt = time.Now().UTC()
	tag, err := r.pool.Exec(ctx, `
		UPDATE job_records
		SET position=$1, company=$2, location=$3, job_url=$4, salary=$5, job_type=$6,
			applied_at=$7, status_id=$8, updated_at=$9
		WHERE id=$10 AND user_id=$11
	`, rec.Position, rec.Company, rec.Location, rec.JobURL, rec.Salary, rec.JobType, rec.AppliedAt.Time(),
		rec.StatusID, rec.UpdatedAt, rec.ID, rec.UserID)
	if err != nil {
		return writeError("update job", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("job %d: %w", rec.ID, model.ErrNotFound)
	}
	return nil
}

// DeleteJob removes one of the user's records.
func (r *JobRepository) DeleteJob(ctx context.Context, userID, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM job_records WHERE id=$1 AND user_id=$2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("job %d: %w", id, model.ErrNotFound)
	}
	return nil
}

// CountByStatus counts the user's records per status id.
func (r *JobRepository) CountByStatus(ctx context.Context, userID int64) (map[int64]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT status_id, COUNT(*) FROM job_records WHERE user_id=$1 GROUP BY status_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("count by status: %w", err)
	}
	defer rows.Close()
	out := make(map[int64]int)
	for rows.Next() {
		var (
			statusID int64
			n        int
		)
		if err := rows.Scan(&statusID, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		out[statusID] = n
	}
	return out, rows.Err()
}

func (r *JobRepository) query(ctx context.Context, sql string, args ...any) ([]model.JobRecord, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("select jobs: %w", err)
	}
	defer rows.Close()
	out := []model.JobRecord{}
	for rows.Next() {
		var (
			rec     model.JobRecord
			st      model.Status
			applied time.Time
		)
		if err := rows.Scan(&rec.ID, &rec.Position, &rec.Company, &rec.Location, &rec.JobURL, &rec.Salary, &rec.JobType, &applied,
			&rec.StatusID, &rec.UserID, &rec.CreatedAt, &rec.UpdatedAt, &st.ID, &st.Name, &st.CreatedAt, &st.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		rec.AppliedAt = model.NewDate(applied)
		rec.Status = &st
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("select jobs: %w", err)
	}
	return out, nil
}

func writeError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation && pgErr.ConstraintName == "job_records_status_id_fkey" {
		return fmt.Errorf("%s: %w", op, model.ErrUnknownStatus)
	}
	return fmt.Errorf("%s: %w", op, err)
}
