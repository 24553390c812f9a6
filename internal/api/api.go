// Package api implements the HTTP API server for hunkr.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/sprite-ai/hunkr/internal/diff"
	"github.com/sprite-ai/hunkr/internal/model"
	"github.com/sprite-ai/hunkr/internal/review"
	"github.com/sprite-ai/hunkr/internal/storage"
)

// Server is the hunkr HTTP API server. It serves one active review.
type Server struct {
	addr   string
	svc    *review.Service
	store  storage.Store
	log    *slog.Logger
	mux    *http.ServeMux
	server *http.Server

	mu sync.RWMutex
	ds *diff.DiffSet
}

// New creates a server over svc. store may be nil, in which case reviews
// are neither restored nor listed.
func New(addr string, svc *review.Service, store storage.Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{addr: addr, svc: svc, store: store, log: logger}
	s.mux = http.NewServeMux()
	s.registerRoutes()
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("POST /api/parse", s.handleParse)
	s.mux.HandleFunc("POST /api/load", s.handleLoad)
	s.mux.HandleFunc("GET /api/state", s.handleState)
	s.mux.HandleFunc("GET /api/hunks", s.handleHunks)
	s.mux.HandleFunc("GET /api/files", s.handleFiles)
	s.mux.HandleFunc("GET /api/tree", s.handleTree)
	s.mux.HandleFunc("GET /api/patch", s.handlePatch)
	s.mux.HandleFunc("POST /api/action", s.handleAction)
	s.mux.HandleFunc("POST /api/trust", s.handleTrust)
	s.mux.HandleFunc("DELETE /api/trust", s.handleTrust)
	s.mux.HandleFunc("POST /api/{op}", s.handleCollaborator)
	s.mux.HandleFunc("GET /api/reviews", s.handleReviews)
	s.mux.HandleFunc("GET /api/ws", s.handleWebSocket)
}

// Open makes ds the active review of c, restoring saved state when a store
// is configured.
func (s *Server) Open(ctx context.Context, c model.Comparison, ds *diff.DiffSet, staged []string) error {
	var state *model.ReviewState
	if s.store != nil {
		st, err := s.store.Load(ctx, c.Key)
		switch {
		case err == nil:
			state = st
		case !errors.Is(err, storage.ErrNotFound):
			return fmt.Errorf("loading review %s: %w", c.Key, err)
		}
	}
	s.mu.Lock()
	s.ds = ds
	s.mu.Unlock()
	s.svc.Open(c, state, review.Diff{Hunks: ds.Hunks(), Files: ds.Entries(), Staged: staged})
	return nil
}

func (s *Server) diffSet() *diff.DiffSet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ds
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	s.log.Info("hunkr API server listening", "addr", s.addr)
	return s.server.ListenAndServe()
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Handler returns the HTTP handler for testing.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// writeJSON writes a JSON response.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		s.log.Error("json encode", "error", err)
	}
}

// writeError writes a JSON error response.
func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

// errorStatus maps review errors onto HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, review.ErrNoReview):
		return http.StatusConflict
	case errors.Is(err, review.ErrUnknownHunk), errors.Is(err, review.ErrUnknownAnnotation), errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, review.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, review.ErrInvalidAnnotation), errors.Is(err, model.ErrInvalidComparison),
		errors.Is(err, review.ErrUnknownGroup), errors.Is(err, errBadAction):
		return http.StatusBadRequest
	case errors.Is(err, review.ErrSuperseded):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// readJSON decodes a JSON request body into v.
func readJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return fmt.Errorf("empty request body")
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	return dec.Decode(v)
}
