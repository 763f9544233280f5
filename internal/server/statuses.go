package server

import (
	"net/http"

	"github.com/dharsanguruparan/jobtrack/internal/flash"
	"github.com/dharsanguruparan/jobtrack/internal/model"
	"github.com/dharsanguruparan/jobtrack/internal/tracker"
)

const statusPath = "/status"

func (s *Server) handleStatusIndex(w http.ResponseWriter, r *http.Request) {
	statuses, err := s.deps.Service.Statuses(r.Context(), model.StatusesNewest)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.render(w, r, "status/index", map[string]any{"statuses": statuses})
}

func (s *Server) handleStatusCreate(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "status/create", map[string]any{})
}

func (s *Server) handleStatusStore(w http.ResponseWriter, r *http.Request) {
	values, err := decodeInput(w, r)
	if err != nil {
		badRequest(w, err)
		return
	}
	if _, err := s.deps.Service.CreateStatus(r.Context(), tracker.StatusInput{Name: values["name"]}); err != nil {
		s.fail(w, r, err)
		return
	}
	s.redirect(w, r, statusPath, flash.Flash{Message: tracker.MsgStatusCreated})
}

func (s *Server) handleStatusDestroy(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		s.fail(w, r, model.ErrNotFound)
		return
	}
	if err := s.deps.Service.DeleteStatus(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	s.redirect(w, r, statusPath, flash.Flash{Message: tracker.MsgStatusDeleted})
}
