// Package devserver is a local stand-in for the comments GraphQL API. It
// dispatches requests by operation name to a SQLite comment store.
package devserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/colonyops/remarks/internal/core/comment"
	"github.com/colonyops/remarks/internal/data/stores"
	"github.com/colonyops/remarks/internal/gql"
)

// Repository is the storage the server reads and writes.
type Repository interface {
	List(ctx context.Context, sandboxID string) ([]comment.Comment, error)
	Thread(ctx context.Context, sandboxID, id string) (comment.Thread, error)
	Create(ctx context.Context, nc stores.NewComment) (comment.Comment, error)
	Update(ctx context.Context, in comment.UpdateCommentInput) (comment.Comment, error)
	Delete(ctx context.Context, sandboxID, id string) error
}

// Config configures the server.
type Config struct {
	Addr string
	// Token, when set, must be presented as a bearer token.
	Token string
	// Author is recorded as the author of every comment created.
	Author  comment.User
	Metrics bool
}

// Server serves the comments API over HTTP.
type Server struct {
	repo    Repository
	cfg     Config
	log     zerolog.Logger
	metrics *metrics
	ops     map[string]operation
	router  chi.Router
}

// New creates a server. Call Handler or ListenAndServe to use it.
func New(repo Repository, cfg Config, log zerolog.Logger) *Server {
	s := &Server{
		repo: repo,
		cfg:  cfg,
		log:  log,
	}
	s.ops = s.operations()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.With(s.authenticate).Post("/graphql", s.handleGraphQL)

	if cfg.Metrics {
		registry := prometheus.NewRegistry()
		s.metrics = newMetrics(registry)
		r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	s.router = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.cfg.Addr).Msg("dev server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.Token == "" {
			next.ServeHTTP(w, r)
			return
		}
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || token != s.cfg.Token {
			writeJSON(w, http.StatusUnauthorized, gql.Response{Errors: []gql.Error{{Message: "unauthorized"}}})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("request_id", middleware.GetReqID(r.Context())).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}

// request mirrors gql.Request with variables left undecoded.
type request struct {
	Query         string          `json:"query"`
	OperationName string          `json:"operationName"`
	Variables     json.RawMessage `json:"variables"`
}

func (s *Server) handleGraphQL(w http.ResponseWriter, r *http.Request) {
	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, gql.Response{Errors: []gql.Error{{Message: "invalid request body"}}})
		return
	}

	op, ok := s.ops[req.OperationName]
	if !ok {
		s.metrics.observe(req.OperationName, "unknown", 0)
		writeJSON(w, http.StatusBadRequest, gql.Response{Errors: []gql.Error{{Message: fmt.Sprintf("unknown operation %q", req.OperationName)}}})
		return
	}

	start := time.Now()
	data, err := op.run(r.Context(), req.Variables)
	elapsed := time.Since(start)

	if err != nil {
		status, msg := classify(err)
		s.metrics.observe(req.OperationName, "error", elapsed)
		s.log.Warn().Err(err).Str("operation", req.OperationName).Msg("operation failed")
		writeJSON(w, status, gql.Response{Errors: []gql.Error{{Message: msg, Path: []string{op.field}}}})
		return
	}

	body, err := json.Marshal(data)
	if err != nil {
		s.metrics.observe(req.OperationName, "error", elapsed)
		writeJSON(w, http.StatusInternalServerError, gql.Response{Errors: []gql.Error{{Message: "encode response"}}})
		return
	}

	s.metrics.observe(req.OperationName, "ok", elapsed)
	writeJSON(w, http.StatusOK, gql.Response{Data: body})
}

// classify maps a store error to an HTTP status and client-facing message.
func classify(err error) (int, string) {
	var inputErr *inputError
	switch {
	case errors.As(err, &inputErr):
		return http.StatusOK, inputErr.Error()
	case errors.Is(err, comment.ErrCommentNotFound):
		return http.StatusOK, comment.ErrCommentNotFound.Error()
	case stores.IsBusyError(err):
		return http.StatusServiceUnavailable, "database busy, try again"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
