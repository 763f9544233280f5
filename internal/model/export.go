package model

import "time"

// ExportState describes the lifecycle of a CSV export.
type ExportState string

const (
	ExportQueued     ExportState = "queued"
	ExportProcessing ExportState = "processing"
	ExportCompleted  ExportState = "completed"
	ExportFailed     ExportState = "failed"
)

// Export tracks one asynchronous CSV export of a user's job records.
type Export struct {
	ID           string      `json:"id"`
	UserID       int64       `json:"user_id"`
	Status       ExportState `json:"status"`
	ObjectKey    *string     `json:"object_key,omitempty"`
	RowCount     int         `json:"row_count"`
	ErrorMessage *string     `json:"error_message,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// User owns job records. Accounts are provisioned from the admin CLI.
type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
