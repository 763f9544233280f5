package tracker

import (
	"context"

	"github.com/dharsanguruparan/jobtrack/internal/model"
)

// StatusStore persists the status catalog. DeleteStatus must remove the job
// records that reference the status in the same atomic step.
type StatusStore interface {
	ListStatuses(ctx context.Context, order model.StatusOrder) ([]model.Status, error)
	GetStatus(ctx context.Context, id int64) (*model.Status, error)
	CreateStatus(ctx context.Context, status *model.Status) error
	DeleteStatus(ctx context.Context, id int64) error
}

// JobStore persists job records. Every read and write is scoped to the owner.
type JobStore interface {
	FindPage(ctx context.Context, userID int64, filter model.JobFilter) ([]model.JobRecord, int, error)
	ListJobs(ctx context.Context, userID int64) ([]model.JobRecord, error)
	GetJob(ctx context.Context, userID, id int64) (*model.JobRecord, error)
	CreateJob(ctx context.Context, rec *model.JobRecord) error
	UpdateJob(ctx context.Context, rec *model.JobRecord) error
	DeleteJob(ctx context.Context, userID, id int64) error
	CountByStatus(ctx context.Context, userID int64) (map[int64]int, error)
}
