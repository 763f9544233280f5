// Package storage contains the in-memory store used for local runs and tests. It
// implements the same contracts as the Postgres repositories, including the
// status cascade and the foreign key check on job records.
package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dharsanguruparan/jobtrack/internal/model"
	"github.com/dharsanguruparan/jobtrack/internal/tracker"
)

// MemoryStore keeps statuses, job records and exports in maps guarded by one
// RWMutex, so a status delete and its cascade are a single critical section.
type MemoryStore struct {
	mu           sync.RWMutex
	statuses     map[int64]*model.Status
	jobs         map[int64]*model.JobRecord
	exports      map[string]*model.Export
	nextStatusID int64
	nextJobID    int64
	now          func() time.Time
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		statuses: make(map[int64]*model.Status),
		jobs:     make(map[int64]*model.JobRecord),
		exports:  make(map[string]*model.Export),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SetClock replaces the timestamp source.
func (m *MemoryStore) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// ListStatuses returns copies of every status in the requested order.
func (m *MemoryStore) ListStatuses(ctx context.Context, order model.StatusOrder) ([]model.Status, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Status, 0, len(m.statuses))
	for _, st := range m.statuses {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch order {
		case model.StatusesByName:
			if a.Name != b.Name {
				return a.Name < b.Name
			}
		case model.StatusesNewest:
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.After(b.CreatedAt)
			}
			return a.ID > b.ID
		}
		return a.ID < b.ID
	})
	return out, nil
}

// GetStatus returns a status copy.
func (m *MemoryStore) GetStatus(ctx context.Context, id int64) (*model.Status, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, ok := m.statuses[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	cp := *st
	return &cp, nil
}

// CreateStatus assigns an id and timestamps and stores the status.
func (m *MemoryStore) CreateStatus(ctx context.Context, status *model.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextStatusID++
	now := m.now()
	status.ID = m.nextStatusID
	status.CreatedAt = now
	status.UpdatedAt = now
	cp := *status
	m.statuses[status.ID] = &cp
	return nil
}

// DeleteStatus removes the status and, in the same critical section, every job
// record that references it.
func (m *MemoryStore) DeleteStatus(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.statuses[id]; !ok {
		return model.ErrNotFound
	}
	delete(m.statuses, id)
	for jobID, rec := range m.jobs {
		if rec.StatusID == id {
			delete(m.jobs, jobID)
		}
	}
	return nil
}

// FindPage filters the user's records, orders them newest first and cuts out the
// requested page. The total counts every match.
func (m *MemoryStore) FindPage(ctx context.Context, userID int64, f model.JobFilter) ([]model.JobRecord, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var matched []model.JobRecord
	for _, rec := range m.jobs {
		if rec.UserID == userID && tracker.Matches(*rec, f) {
			matched = append(matched, m.joined(rec))
		}
	}
	sortNewest(matched)
	total := len(matched)
	start := f.Offset()
	if start < 0 || start >= total {
		return []model.JobRecord{}, total, nil
	}
	end := total
	if f.PerPage > 0 && f.PerPage < end-start {
		end = start + f.PerPage
	}
	return matched[start:end], total, nil
}

// ListJobs returns all of the user's records, newest first.
func (m *MemoryStore) ListJobs(ctx context.Context, userID int64) ([]model.JobRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []model.JobRecord{}
	for _, rec := range m.jobs {
		if rec.UserID == userID {
			out = append(out, m.joined(rec))
		}
	}
	sortNewest(out)
	return out, nil
}

// GetJob returns the record when it exists and belongs to userID.
func (m *MemoryStore) GetJob(ctx context.Context, userID, id int64) (*model.JobRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.jobs[id]
	if !ok || rec.UserID != userID {
		return nil, model.ErrNotFound
	}
	cp := m.joined(rec)
	return &cp, nil
}

// CreateJob stores a new record after checking that its status exists.
func (m *MemoryStore) CreateJob(ctx context.Context, rec *model.JobRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.statuses[rec.StatusID]
	if !ok {
		return model.ErrUnknownStatus
	}
	m.nextJobID++
	now := m.now()
	rec.ID = m.nextJobID
	rec.CreatedAt = now
	rec.UpdatedAt = now
	stored := *rec
	stored.Status = nil
	m.jobs[rec.ID] = &stored
	stCopy := *st
	rec.Status = &stCopy
	return nil
}

// UpdateJob replaces the mutable fields of an existing record.
func (m *MemoryStore) UpdateJob(ctx context.Context, rec *model.JobRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.jobs[rec.ID]
	if !ok || current.UserID != rec.UserID {
		return model.ErrNotFound
	}
	st, ok := m.statuses[rec.StatusID]
	if !ok {
		return model.ErrUnknownStatus
	}
	rec.CreatedAt = current.CreatedAt
	rec.UpdatedAt = m.now()
	stored := *rec
	stored.Status = nil
	m.jobs[rec.ID] = &stored
	stCopy := *st
	rec.Status = &stCopy
	return nil
}

// DeleteJob removes one of the user's records.
func (m *MemoryStore) DeleteJob(ctx context.Context, userID, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.jobs[id]
	if !ok || rec.UserID != userID {
		return model.ErrNotFound
	}
	delete(m.jobs, id)
	return nil
}

// CountByStatus counts the user's records per status id.
func (m *MemoryStore) CountByStatus(ctx context.Context, userID int64) (map[int64]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[int64]int)
	for _, rec := range m.jobs {
		if rec.UserID == userID {
			out[rec.StatusID]++
		}
	}
	return out, nil
}

// CreateExport stores a queued export.
func (m *MemoryStore) CreateExport(ctx context.Context, exp *model.Export) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	exp.Status = model.ExportQueued
	exp.CreatedAt = now
	exp.UpdatedAt = now
	cp := *exp
	m.exports[exp.ID] = &cp
	return nil
}

// GetExport returns an export copy.
func (m *MemoryStore) GetExport(ctx context.Context, id string) (*model.Export, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	exp, ok := m.exports[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	cp := *exp
	return &cp, nil
}

// Exports returns copies of every export, oldest first.
func (m *MemoryStore) Exports() []model.Export {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Export, 0, len(m.exports))
	for _, exp := range m.exports {
		out = append(out, *exp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// MarkProcessing moves an export to processing.
func (m *MemoryStore) MarkProcessing(ctx context.Context, id string) error {
	return m.updateExport(id, func(e *model.Export) {
		e.Status = model.ExportProcessing
		e.ErrorMessage = nil
	})
}

// MarkCompleted records the uploaded object and its row count.
func (m *MemoryStore) MarkCompleted(ctx context.Context, id, objectKey string, rows int) error {
	return m.updateExport(id, func(e *model.Export) {
		e.Status = model.ExportCompleted
		e.ObjectKey = &objectKey
		e.RowCount = rows
		e.ErrorMessage = nil
	})
}

// MarkFailed stores the failure message.
func (m *MemoryStore) MarkFailed(ctx context.Context, id, msg string) error {
	return m.updateExport(id, func(e *model.Export) {
		e.Status = model.ExportFailed
		e.ErrorMessage = &msg
	})
}

func (m *MemoryStore) updateExport(id string, apply func(*model.Export)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	exp, ok := m.exports[id]
	if !ok {
		return model.ErrNotFound
	}
	apply(exp)
	exp.UpdatedAt = m.now()
	return nil
}

// joined copies rec and attaches its status. Callers hold the lock.
func (m *MemoryStore) joined(rec *model.JobRecord) model.JobRecord {
	cp := *rec
	if st, ok := m.statuses[rec.StatusID]; ok {
		stCopy := *st
		cp.Status = &stCopy
	}
	return cp
}

func sortNewest(items []model.JobRecord) {
	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		}
		return items[i].ID > items[j].ID
	})
}
