// Package preview serves the merged navigation tree during development.
//
// The server keeps the latest resolution result in memory and rebuilds it
// on demand, when a watched input file changes, or on a fixed interval.
package preview

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"git.home.luguber.info/inful/plugindocs/internal/foundation/errors"
	"git.home.luguber.info/inful/plugindocs/internal/logfields"
	"git.home.luguber.info/inful/plugindocs/internal/nav"
	"git.home.luguber.info/inful/plugindocs/internal/resolve"
)

// BuildFunc produces a fresh resolution result. It is called for every
// refresh, so implementations should construct a new Resolver each time.
type BuildFunc func(ctx context.Context) (*resolve.Result, error)

// Server holds the latest result and exposes it over HTTP.
type Server struct {
	build   BuildFunc
	logger  *slog.Logger
	errs    *errors.HTTPErrorAdapter
	metrics http.Handler
	mpath   string

	refreshMu sync.Mutex // serializes refreshes

	mu        sync.RWMutex
	result    *resolve.Result
	lastErr   error
	refreshed time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics mounts h at path.
func WithMetrics(path string, h http.Handler) Option {
	return func(s *Server) {
		s.mpath = path
		s.metrics = h
	}
}

// NewServer creates a Server. No result is available until Refresh succeeds.
func NewServer(build BuildFunc, opts ...Option) *Server {
	s := &Server{build: build, logger: slog.Default()}
	for _, o := range opts {
		o(s)
	}
	s.errs = errors.NewHTTPErrorAdapter(s.logger)
	return s
}

// Refresh rebuilds the result. A failed build keeps the previous result
// available and is reported by the status endpoint.
func (s *Server) Refresh(ctx context.Context) error {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	start := time.Now()
	result, err := s.build(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = err
	if result != nil && err == nil {
		s.result = result
		s.refreshed = time.Now()
	}
	if err != nil {
		s.logger.Error("Preview refresh failed", logfields.Error(err))
		return err
	}
	s.logger.Info("Preview refreshed",
		logfields.RunID(result.Report.RunID),
		logfields.DurationMS(float64(time.Since(start).Microseconds())/1000))
	return nil
}

// Result returns the latest successful result, or nil.
func (s *Server) Result() *resolve.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.result
}

// Handler returns the HTTP routes of the preview server.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/nav", s.handleNav)
	r.Get("/report", s.handleReport)
	r.Post("/refresh", s.handleRefresh)
	if s.metrics != nil {
		r.Method(http.MethodGet, s.mpath, s.metrics)
	}
	return r
}

// ListenAndServe serves Handler on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Preview server listening", slog.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return errors.WrapError(err, errors.CategoryNetwork, "preview server stopped").
			WithContext("addr", addr).
			Build()
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

type healthResponse struct {
	Status    string     `json:"status"`
	Refreshed *time.Time `json:"refreshed,omitempty"`
	Error     string     `json:"error,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	resp := healthResponse{Status: "ok"}
	if !s.refreshed.IsZero() {
		t := s.refreshed.UTC()
		resp.Refreshed = &t
	}
	if s.lastErr != nil {
		resp.Status = "degraded"
		resp.Error = s.lastErr.Error()
	}
	if s.result == nil {
		resp.Status = "starting"
	}
	s.mu.RUnlock()
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleNav(w http.ResponseWriter, r *http.Request) {
	result := s.Result()
	if result == nil {
		s.errs.WriteErrorResponse(w, r, errors.ResolutionError("navigation tree is not resolved yet").Build())
		return
	}
	tree := result.Tree
	if current := r.URL.Query().Get("path"); current != "" {
		tree = nav.StripContents(tree, current)
	}
	writeJSON(w, http.StatusOK, tree)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	result := s.Result()
	if result == nil {
		s.errs.WriteErrorResponse(w, r, errors.ResolutionError("no resolution report yet").Build())
		return
	}
	writeJSON(w, http.StatusOK, result.Report)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := s.Refresh(r.Context()); err != nil {
		s.errs.WriteErrorResponse(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.Result().Report)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
