// SPDX-License-Identifier: Apache-2.0

// Package server exposes the template core and a GitHub proxy over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kusari-oss/stencil/internal/core/catalog"
	"github.com/kusari-oss/stencil/internal/core/draft"
	"github.com/kusari-oss/stencil/internal/core/transcode"
	"github.com/kusari-oss/stencil/internal/core/validator"
	"github.com/kusari-oss/stencil/internal/github"
	"github.com/kusari-oss/stencil/internal/logging"
	"github.com/kusari-oss/stencil/internal/metrics"
)

const (
	maxBody         = 10 << 20
	shutdownTimeout = 5 * time.Second
)

// ActionSource loads the current action catalog. *catalog.Catalog is one.
type ActionSource interface {
	Load(ctx context.Context) (*catalog.Index, error)
}

type Server struct {
	actions ActionSource
	gh      *github.Client
	drafts  *draft.Drafts
	metrics *metrics.Metrics
	logger  *zap.Logger
}

type Option func(*Server)

func WithGitHub(c *github.Client) Option {
	return func(s *Server) { s.gh = c }
}

// WithDrafts enables the /api/drafts routes.
func WithDrafts(d *draft.Drafts) Option {
	return func(s *Server) { s.drafts = d }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Server) { s.logger = logging.OrNop(l) }
}

func New(actions ActionSource, opts ...Option) *Server {
	s := &Server{
		actions: actions,
		gh:      github.New(),
		logger:  logging.Nop(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", s.metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/actions", s.listActions)
		r.Post("/templates/validate", s.validateTemplate)
		r.Post("/templates/format", s.formatTemplate)
		r.Get("/github", s.githubGet)
		r.Post("/github", s.githubPost)
		if s.drafts != nil {
			r.Route("/drafts", s.draftRoutes)
		}
	})
	return r
}

// ListenAndServe serves on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)
		s.metrics.HTTPRequest(r.Method, route, status, elapsed)
		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Duration("elapsed", elapsed))
	})
}

func (s *Server) listActions(w http.ResponseWriter, r *http.Request) {
	idx, err := s.actions.Load(r.Context())
	if err != nil {
		s.logger.Error("failed to load actions", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load actions")
		return
	}

	defs := idx.All()
	if c := r.URL.Query().Get("category"); c != "" {
		if !catalog.Category(c).Valid() {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown category %q", c))
			return
		}
		defs = idx.ByCategory(catalog.Category(c))
	}
	writeJSON(w, http.StatusOK, defs)
}

type validateResponse struct {
	Issues  []validator.Issue `json:"issues"`
	Summary validator.Summary `json:"summary"`
}

func (s *Server) validateTemplate(w http.ResponseWriter, r *http.Request) {
	data, ok := readBody(w, r)
	if !ok {
		return
	}
	t, err := transcode.Decode(data)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	idx, err := s.actions.Load(r.Context())
	if err != nil {
		s.logger.Error("failed to load actions", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load actions")
		return
	}

	issues := validator.Validate(t, idx)
	if issues == nil {
		issues = []validator.Issue{}
	}
	sum := validator.GetSummary(issues)
	s.metrics.Validation(sum.Errors, sum.Warnings, sum.Infos)
	writeJSON(w, http.StatusOK, validateResponse{Issues: issues, Summary: sum})
}

func (s *Server) formatTemplate(w http.ResponseWriter, r *http.Request) {
	data, ok := readBody(w, r)
	if !ok {
		return
	}
	t, err := transcode.Decode(data)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	out, err := transcode.Encode(t)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(out)
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBody))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return nil, false
	}
	return data, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
