// Package model contains the records shared by the stores, the tracker service and
// the HTTP layer.
package model

import (
	"errors"
	"math"
	"time"
)

var (
	// ErrNotFound is returned by every store when a lookup by id misses.
	ErrNotFound = errors.New("record not found")
	// ErrUnknownStatus is returned when a job record points at a status that no
	// longer exists (foreign key violation).
	ErrUnknownStatus = errors.New("status does not exist")
)

// Status is a named stage in the application pipeline, shared by many job records.
type Status struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StatusOrder selects how a status catalog is sorted.
type StatusOrder int

const (
	StatusesByID StatusOrder = iota
	StatusesByName
	StatusesNewest
)

// JobRecord is a single tracked job application. Optional columns are pointers so
// they serialize as null, the way the front end expects them.
type JobRecord struct {
	ID        int64     `json:"id"`
	Position  string    `json:"position"`
	Company   string    `json:"company"`
	Location  *string   `json:"location"`
	JobURL    *string   `json:"job_url"`
	Salary    *string   `json:"salary"`
	JobType   *string   `json:"job_type"`
	AppliedAt Date      `json:"applied_at"`
	StatusID  int64     `json:"status_id"`
	UserID    int64     `json:"user_id"`
	Status    *Status   `json:"status,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// JobFilter is the listing query. StatusID nil means "any status".
type JobFilter struct {
	Search   string
	StatusID *int64
	Page     int
	PerPage  int
}

// Offset returns the row offset of the first record on the requested page. Pages
// too far out to address saturate at math.MaxInt, which is past any result set.
func (f JobFilter) Offset() int {
	if f.Page < 1 || f.PerPage <= 0 {
		return 0
	}
	if f.Page-1 > math.MaxInt/f.PerPage {
		return math.MaxInt
	}
	return (f.Page - 1) * f.PerPage
}

// StatusCount is the number of a user's job records sitting in one status.
type StatusCount struct {
	StatusID int64  `json:"status_id"`
	Name     string `json:"name"`
	Count    int    `json:"count"`
}
