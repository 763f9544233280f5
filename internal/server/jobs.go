package server

import (
	"net/http"

	"github.com/dharsanguruparan/jobtrack/internal/flash"
	"github.com/dharsanguruparan/jobtrack/internal/model"
	"github.com/dharsanguruparan/jobtrack/internal/tracker"
)

const jobsPath = "/pekerjaan"

func (s *Server) handleJobIndex(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	page, err := s.deps.Service.ListJobs(ctx, currentUser(r), tracker.ParseFilter(q, s.deps.Service.PerPage()))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	statuses, err := s.deps.Service.Statuses(ctx, model.StatusesByID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.render(w, r, "pekerjaan/index", map[string]any{
		"jobs":     tracker.NewPaginator(page, jobsPath, q),
		"statuses": statuses,
		"filters":  tracker.Filters(q),
	})
}

type statusOption struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// statusOptions is the catalog as form select options, ordered by name.
func (s *Server) statusOptions(r *http.Request) ([]statusOption, error) {
	statuses, err := s.deps.Service.Statuses(r.Context(), model.StatusesByName)
	if err != nil {
		return nil, err
	}
	out := make([]statusOption, 0, len(statuses))
	for _, st := range statuses {
		out = append(out, statusOption{ID: st.ID, Name: st.Name})
	}
	return out, nil
}

func (s *Server) handleJobCreate(w http.ResponseWriter, r *http.Request) {
	options, err := s.statusOptions(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.render(w, r, "pekerjaan/create", map[string]any{"statuses": options})
}

func (s *Server) handleJobStore(w http.ResponseWriter, r *http.Request) {
	values, err := decodeInput(w, r)
	if err != nil {
		badRequest(w, err)
		return
	}
	if _, err := s.deps.Service.CreateJob(r.Context(), currentUser(r), tracker.JobInputFromValues(values)); err != nil {
		s.fail(w, r, err)
		return
	}
	s.redirect(w, r, jobsPath, flash.Flash{Message: tracker.MsgJobCreated})
}

func (s *Server) handleJobEdit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		s.fail(w, r, model.ErrNotFound)
		return
	}
	job, err := s.deps.Service.GetJob(r.Context(), currentUser(r), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	options, err := s.statusOptions(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.render(w, r, "pekerjaan/edit", map[string]any{"job": job, "statuses": options})
}

func (s *Server) handleJobUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		s.fail(w, r, model.ErrNotFound)
		return
	}
	values, err := decodeInput(w, r)
	if err != nil {
		badRequest(w, err)
		return
	}
	if _, err := s.deps.Service.UpdateJob(r.Context(), currentUser(r), id, tracker.JobInputFromValues(values)); err != nil {
		s.fail(w, r, err)
		return
	}
	s.redirect(w, r, jobsPath, flash.Flash{Message: tracker.MsgJobUpdated})
}

// handleJobDestroy never fails on a missing record; the user is sent back with
// an error flash instead.
func (s *Server) handleJobDestroy(w http.ResponseWriter, r *http.Request) {
	to := back(r, jobsPath)
	id, ok := pathID(r)
	if !ok {
		s.redirect(w, r, to, flash.Flash{ErrorMsg: tracker.MsgJobMissing})
		return
	}
	outcome, err := s.deps.Service.DeleteJob(r.Context(), currentUser(r), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.redirect(w, r, to, flash.Flash{Message: outcome.Message, ErrorMsg: outcome.ErrorMsg})
}
