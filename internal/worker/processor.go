package worker

import (
	"context"
	"fmt"
	"log"

	"github.com/hibiken/asynq"

	"github.com/dharsanguruparan/jobtrack/internal/model"
	"github.com/dharsanguruparan/jobtrack/internal/queue"
	"github.com/dharsanguruparan/jobtrack/internal/s3storage"
)

// ExportStore tracks export progress.
type ExportStore interface {
	MarkProcessing(ctx context.Context, id string) error
	MarkCompleted(ctx context.Context, id, objectKey string, rows int) error
	MarkFailed(ctx context.Context, id, msg string) error
}

// JobLister reads every record a user owns, newest first.
type JobLister interface {
	ListJobs(ctx context.Context, userID int64) ([]model.JobRecord, error)
}

// Uploader stores rendered exports.
type Uploader interface {
	UploadExport(ctx context.Context, objectKey string, data []byte) error
}

// Processor is plugged into the asynq worker loop.
type Processor struct {
	exports ExportStore
	jobs    JobLister
	store   Uploader
}

// NewProcessor constructs a worker processor.
func NewProcessor(exports ExportStore, jobs JobLister, store Uploader) *Processor {
	return &Processor{exports: exports, jobs: jobs, store: store}
}

// Handler registers the export job handler.
func (p *Processor) Handler() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.ExportJobsTask, p.HandleExport)
	return mux
}

// HandleExport renders the user's records to CSV and uploads them. Errors are
// returned so asynq retries the task.
func (p *Processor) HandleExport(ctx context.Context, task *asynq.Task) error {
	payload, err := queue.DecodeExport(task)
	if err != nil {
		// retrying a malformed payload cannot succeed
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	failure := func(err error) error {
		log.Printf("export %s failed: %v", payload.ExportID, err)
		if markErr := p.exports.MarkFailed(ctx, payload.ExportID, err.Error()); markErr != nil {
			log.Printf("export %s: recording failure: %v", payload.ExportID, markErr)
		}
		return err
	}
	if err := p.exports.MarkProcessing(ctx, payload.ExportID); err != nil {
		return failure(err)
	}
	records, err := p.jobs.ListJobs(ctx, payload.UserID)
	if err != nil {
		return failure(fmt.Errorf("list job records: %w", err))
	}
	data, err := RenderCSV(records)
	if err != nil {
		return failure(err)
	}
	key := s3storage.ExportObjectKey(payload.UserID, payload.ExportID)
	if err := p.store.UploadExport(ctx, key, data); err != nil {
		return failure(err)
	}
	if err := p.exports.MarkCompleted(ctx, payload.ExportID, key, len(records)); err != nil {
		return failure(err)
	}
	log.Printf("export %s completed (%d rows, %d bytes)", payload.ExportID, len(records), len(data))
	return nil
}
