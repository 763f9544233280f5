// Package tracker holds the job tracker's rules: the listing query, validation of
// job records and statuses, and the create/update/delete lifecycle on top of the
// stores.
package tracker

import (
	"context"
	"errors"
	"fmt"

	"github.com/dharsanguruparan/jobtrack/internal/model"
)

// Flash messages attached to the view rendered after a write.
const (
	MsgJobCreated    = "Job record saved."
	MsgJobUpdated    = "Job record updated."
	MsgJobDeleted    = "Job record deleted."
	MsgJobMissing    = "Job record not found."
	MsgStatusCreated = "Status created."
	MsgStatusDeleted = "Status deleted."
)

// DefaultStatuses is the catalog installed by the seed command.
var DefaultStatuses = []string{"Applied", "Interview", "Offer", "Rejected"}

// Outcome is the notification produced by a write that does not fail the
// request. Exactly one of Message and ErrorMsg is set.
type Outcome struct {
	Message  string
	ErrorMsg string
}

// Service applies the record lifecycle to the stores.
type Service struct {
	statuses StatusStore
	jobs     JobStore
	perPage  int
}

// NewService wires the stores. perPage <= 0 selects DefaultPerPage.
func NewService(statuses StatusStore, jobs JobStore, perPage int) *Service {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	return &Service{statuses: statuses, jobs: jobs, perPage: perPage}
}

// PerPage is the listing page size.
func (s *Service) PerPage() int { return s.perPage }

// ListJobs returns one page of the user's job records, newest first, each joined
// with its status.
func (s *Service) ListJobs(ctx context.Context, userID int64, f model.JobFilter) (*Page, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PerPage <= 0 {
		f.PerPage = s.perPage
	}
	items, total, err := s.jobs.FindPage(ctx, userID, f)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	return &Page{Items: items, Total: total, Current: f.Page, PerPage: f.PerPage}, nil
}

// GetJob loads one of the user's job records for editing.
func (s *Service) GetJob(ctx context.Context, userID, id int64) (*model.JobRecord, error) {
	rec, err := s.jobs.GetJob(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("get job %d: %w", id, err)
	}
	return rec, nil
}

// CreateJob validates in and stores it as a new record owned by userID.
func (s *Service) CreateJob(ctx context.Context, userID int64, in JobInput) (*model.JobRecord, error) {
	rec, err := s.validateJob(ctx, in)
	if err != nil {
		return nil, err
	}
	rec.UserID = userID
	if err := s.jobs.CreateJob(ctx, &rec); err != nil {
		return nil, storeWriteError("create job", err)
	}
	return &rec, nil
}

// UpdateJob replaces every field of an existing record. A missing record fails
// with ErrNotFound before any validation or write happens.
func (s *Service) UpdateJob(ctx context.Context, userID, id int64, in JobInput) (*model.JobRecord, error) {
	current, err := s.jobs.GetJob(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("update job %d: %w", id, err)
	}
	rec, err := s.validateJob(ctx, in)
	if err != nil {
		return nil, err
	}
	rec.ID = current.ID
	rec.UserID = current.UserID
	rec.CreatedAt = current.CreatedAt
	if err := s.jobs.UpdateJob(ctx, &rec); err != nil {
		return nil, storeWriteError(fmt.Sprintf("update job %d", id), err)
	}
	return &rec, nil
}

// DeleteJob removes a record. A record that does not exist is reported through
// the outcome, not as an error.
func (s *Service) DeleteJob(ctx context.Context, userID, id int64) (Outcome, error) {
	err := s.jobs.DeleteJob(ctx, userID, id)
	switch {
	case errors.Is(err, model.ErrNotFound):
		return Outcome{ErrorMsg: MsgJobMissing}, nil
	case err != nil:
		return Outcome{}, fmt.Errorf("delete job %d: %w", id, err)
	}
	return Outcome{Message: MsgJobDeleted}, nil
}

// Statuses returns the catalog in the requested order.
func (s *Service) Statuses(ctx context.Context, order model.StatusOrder) ([]model.Status, error) {
	items, err := s.statuses.ListStatuses(ctx, order)
	if err != nil {
		return nil, fmt.Errorf("list statuses: %w", err)
	}
	return items, nil
}

// CreateStatus validates and stores a status. Names are not required to be unique.
func (s *Service) CreateStatus(ctx context.Context, in StatusInput) (*model.Status, error) {
	status, err := parseStatus(in)
	if err != nil {
		return nil, err
	}
	if err := s.statuses.CreateStatus(ctx, &status); err != nil {
		return nil, fmt.Errorf("create status: %w", err)
	}
	return &status, nil
}

// DeleteStatus removes a status and every job record that references it. A
// missing status fails with ErrNotFound.
func (s *Service) DeleteStatus(ctx context.Context, id int64) error {
	if _, err := s.statuses.GetStatus(ctx, id); err != nil {
		return fmt.Errorf("delete status %d: %w", id, err)
	}
	if err := s.statuses.DeleteStatus(ctx, id); err != nil {
		return fmt.Errorf("delete status %d: %w", id, err)
	}
	return nil
}

// SeedStatuses creates the default statuses that are not present yet and returns
// how many were added.
func (s *Service) SeedStatuses(ctx context.Context) (int, error) {
	existing, err := s.statuses.ListStatuses(ctx, model.StatusesByID)
	if err != nil {
		return 0, fmt.Errorf("seed statuses: %w", err)
	}
	have := make(map[string]bool, len(existing))
	for _, st := range existing {
		have[st.Name] = true
	}
	added := 0
	for _, name := range DefaultStatuses {
		if have[name] {
			continue
		}
		if _, err := s.CreateStatus(ctx, StatusInput{Name: name}); err != nil {
			return added, err
		}
		added++
	}
	return added, nil
}

// Counts is the dashboard summary of a user's job records.
type Counts struct {
	Total    int                 `json:"total"`
	ByStatus []model.StatusCount `json:"by_status"`
}

// Dashboard counts the user's job records, total and per status. Every status of
// the catalog is listed, including those with no records.
func (s *Service) Dashboard(ctx context.Context, userID int64) (*Counts, error) {
	statuses, err := s.statuses.ListStatuses(ctx, model.StatusesByID)
	if err != nil {
		return nil, fmt.Errorf("dashboard: %w", err)
	}
	counts, err := s.jobs.CountByStatus(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("dashboard: %w", err)
	}
	out := &Counts{ByStatus: make([]model.StatusCount, 0, len(statuses))}
	for _, st := range statuses {
		n := counts[st.ID]
		out.Total += n
		out.ByStatus = append(out.ByStatus, model.StatusCount{StatusID: st.ID, Name: st.Name, Count: n})
	}
	return out, nil
}

func (s *Service) validateJob(ctx context.Context, in JobInput) (model.JobRecord, error) {
	rec, statusID, errs := parseJob(in)
	if _, bad := errs["status_id"]; !bad && statusID > 0 {
		status, err := s.statuses.GetStatus(ctx, statusID)
		switch {
		case errors.Is(err, model.ErrNotFound):
			errs.add("status_id", "The selected status id is invalid.")
		case err != nil:
			return model.JobRecord{}, fmt.Errorf("lookup status %d: %w", statusID, err)
		default:
			rec.Status = status
		}
	}
	if err := errs.err(); err != nil {
		return model.JobRecord{}, err
	}
	return rec, nil
}

// storeWriteError turns a foreign key failure, a status deleted between
// validation and write, into the same field error validation would report.
func storeWriteError(op string, err error) error {
	if errors.Is(err, model.ErrUnknownStatus) {
		return invalid("status_id", "The selected status id is invalid.")
	}
	return fmt.Errorf("%s: %w", op, err)
}
