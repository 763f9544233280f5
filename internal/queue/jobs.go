package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

const (
	// ExportJobsTask is scheduled each time a user requests a CSV export.
	ExportJobsTask = "export:jobs"
)

// ExportPayload is serialized into the task payload so the worker knows which
// export row to fill and whose records to read.
type ExportPayload struct {
	ExportID string `json:"export_id"`
	UserID   int64  `json:"user_id"`
}

// NewExportTask builds the asynq task for payload.
func NewExportTask(payload ExportPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return asynq.NewTask(ExportJobsTask, data), nil
}

// DecodeExport reads the payload back out of a task.
func DecodeExport(task *asynq.Task) (ExportPayload, error) {
	var payload ExportPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return payload, fmt.Errorf("decode payload: %w", err)
	}
	if payload.ExportID == "" || payload.UserID <= 0 {
		return payload, fmt.Errorf("decode payload: incomplete export payload %+v", payload)
	}
	return payload, nil
}

// Client enqueues export work on Redis.
type Client struct {
	client *asynq.Client
}

// NewClient connects an asynq client to the given Redis.
func NewClient(opt asynq.RedisClientOpt) *Client {
	return &Client{client: asynq.NewClient(opt)}
}

// EnqueueExport enqueues a CSV export job.
func (c *Client) EnqueueExport(ctx context.Context, payload ExportPayload) error {
	task, err := NewExportTask(payload)
	if err != nil {
		return err
	}
	if _, err := c.client.EnqueueContext(ctx, task, asynq.MaxRetry(5)); err != nil {
		return fmt.Errorf("enqueue export task: %w", err)
	}
	return nil
}

// Close releases the Redis connection.
func (c *Client) Close() error {
	return c.client.Close()
}
