// Package server exposes the tracker over HTTP. Pages are answered with the
// {component, props, url} JSON documents the front end renders, and writes
// answer with 303 redirects carrying a flash message.
package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/dharsanguruparan/jobtrack/internal/config"
	"github.com/dharsanguruparan/jobtrack/internal/flash"
	"github.com/dharsanguruparan/jobtrack/internal/model"
	"github.com/dharsanguruparan/jobtrack/internal/queue"
	"github.com/dharsanguruparan/jobtrack/internal/signing"
	"github.com/dharsanguruparan/jobtrack/internal/tracker"
)

// ExportStore persists export requests.
type ExportStore interface {
	CreateExport(ctx context.Context, exp *model.Export) error
	GetExport(ctx context.Context, id string) (*model.Export, error)
	MarkFailed(ctx context.Context, id, msg string) error
}

// Enqueuer hands export work to the background workers.
type Enqueuer interface {
	EnqueueExport(ctx context.Context, payload queue.ExportPayload) error
}

// Presigner issues download URLs for finished exports.
type Presigner interface {
	PresignExportURL(ctx context.Context, objectKey string, ttl time.Duration) (string, error)
}

// Deps are the collaborators a Server needs. Exports, Queue and Presigner may
// be nil, in which case the export endpoints answer 503.
type Deps struct {
	Service   *tracker.Service
	Flash     flash.Store
	Signer    *signing.Signer
	Exports   ExportStore
	Queue     Enqueuer
	Presigner Presigner
}

// Server hosts HTTP handlers for jobtrack.
type Server struct {
	cfg     *config.Config
	deps    Deps
	now     func() time.Time
	handler http.Handler
	once    sync.Once
}

// New constructs a Server.
func New(cfg *config.Config, deps Deps) (*Server, error) {
	if deps.Service == nil || deps.Flash == nil || deps.Signer == nil {
		return nil, errors.New("server: service, flash store and signer are required")
	}
	return &Server{cfg: cfg, deps: deps, now: time.Now}, nil
}

// Handler returns the fully wrapped router.
func (s *Server) Handler() http.Handler {
	s.once.Do(func() {
		s.handler = corsMiddleware(loggingMiddleware(methodOverride(s.routes())))
	})
	return s.handler
}

// Serve starts the HTTP server and blocks until the context is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.cfg.Address,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()
	log.Printf("jobtrack listening on %s", s.cfg.Address)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleWelcome)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	mux.Handle("GET /dashboard", s.requireSession(s.handleDashboard))

	mux.Handle("GET /pekerjaan", s.requireSession(s.handleJobIndex))
	mux.Handle("POST /pekerjaan", s.requireSession(s.handleJobStore))
	mux.Handle("GET /pekerjaan/create", s.requireSession(s.handleJobCreate))
	mux.Handle("GET /pekerjaan/{id}/edit", s.requireSession(s.handleJobEdit))
	mux.Handle("PUT /pekerjaan/{id}/update", s.requireSession(s.handleJobUpdate))
	mux.Handle("DELETE /pekerjaan/{id}", s.requireSession(s.handleJobDestroy))

	mux.Handle("GET /status", s.requireSession(s.handleStatusIndex))
	mux.Handle("POST /status", s.requireSession(s.handleStatusStore))
	mux.Handle("GET /status/create", s.requireSession(s.handleStatusCreate))
	mux.Handle("DELETE /status/{id}", s.requireSession(s.handleStatusDestroy))

	mux.Handle("POST /exports", s.requireSession(s.handleExportCreate))
	mux.Handle("GET /exports/{id}", s.requireSession(s.handleExportShow))
	mux.Handle("GET /exports/{id}/url", s.requireSession(s.handleExportURL))
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleWelcome(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, pageDoc{
		Component: "welcome",
		Props:     map[string]any{},
		URL:       r.URL.RequestURI(),
	})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	counts, err := s.deps.Service.Dashboard(r.Context(), currentUser(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.render(w, r, "dashboard", map[string]any{"counts": counts})
}
