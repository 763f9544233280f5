package server

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/dharsanguruparan/jobtrack/internal/model"
	"github.com/dharsanguruparan/jobtrack/internal/queue"
)

func (s *Server) exportsEnabled() bool {
	return s.deps.Exports != nil && s.deps.Queue != nil
}

func exportsUnavailable(w http.ResponseWriter) {
	respondJSON(w, http.StatusServiceUnavailable, errorBody{Message: "Exports are not enabled."})
}

func (s *Server) handleExportCreate(w http.ResponseWriter, r *http.Request) {
	if !s.exportsEnabled() {
		exportsUnavailable(w)
		return
	}
	ctx := r.Context()
	exp := &model.Export{ID: uuid.NewString(), UserID: currentUser(r)}
	if err := s.deps.Exports.CreateExport(ctx, exp); err != nil {
		s.fail(w, r, err)
		return
	}
	payload := queue.ExportPayload{ExportID: exp.ID, UserID: exp.UserID}
	if err := s.deps.Queue.EnqueueExport(ctx, payload); err != nil {
		log.Printf("enqueue export %s: %v", exp.ID, err)
		if markErr := s.deps.Exports.MarkFailed(ctx, exp.ID, "enqueue failed: "+err.Error()); markErr != nil {
			log.Printf("mark export %s failed: %v", exp.ID, markErr)
		}
		respondJSON(w, http.StatusInternalServerError, errorBody{Message: "failed to queue export"})
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]string{
		"id":     exp.ID,
		"status": string(exp.Status),
	})
}

// ownExport loads an export of the current user; other users' exports are
// reported as missing.
func (s *Server) ownExport(r *http.Request) (*model.Export, error) {
	exp, err := s.deps.Exports.GetExport(r.Context(), r.PathValue("id"))
	if err != nil {
		return nil, err
	}
	if exp.UserID != currentUser(r) {
		return nil, model.ErrNotFound
	}
	return exp, nil
}

func (s *Server) handleExportShow(w http.ResponseWriter, r *http.Request) {
	if s.deps.Exports == nil {
		exportsUnavailable(w)
		return
	}
	exp, err := s.ownExport(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, exp)
}

func (s *Server) handleExportURL(w http.ResponseWriter, r *http.Request) {
	if s.deps.Exports == nil || s.deps.Presigner == nil {
		exportsUnavailable(w)
		return
	}
	exp, err := s.ownExport(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if exp.Status != model.ExportCompleted || exp.ObjectKey == nil {
		respondJSON(w, http.StatusConflict, errorBody{Message: "export is " + string(exp.Status)})
		return
	}
	ttl := s.cfg.ExportURLTTL
	url, err := s.deps.Presigner.PresignExportURL(r.Context(), *exp.ObjectKey, ttl)
	if err != nil {
		s.fail(w, r, fmt.Errorf("presign export %s: %w", exp.ID, err))
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"url":        url,
		"expires_at": s.now().Add(ttl).UTC().Format(time.RFC3339),
	})
}
