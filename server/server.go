// Package server exposes the generation pipeline over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lexdef/lexdef/definition"
	"github.com/lexdef/lexdef/duplicate"
	"github.com/lexdef/lexdef/generate"
)

// GenerationRunner runs the generation pipeline for one request.
type GenerationRunner interface {
	Run(ctx context.Context, req *definition.GenerationRequest) (*generate.Outcome, error)
}

// DuplicateChecker decides whether generation should proceed for a request.
type DuplicateChecker interface {
	Check(ctx context.Context, req *definition.GenerationRequest) (*duplicate.CheckResult, error)
}

// Server is the HTTP surface.
type Server struct {
	runner   GenerationRunner
	checker  DuplicateChecker
	gatherer prometheus.Gatherer
	logger   *slog.Logger
	mux      *http.ServeMux
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithGatherer sets the metrics gatherer backing /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = g }
}

// New creates the server and registers its routes.
func New(runner GenerationRunner, checker DuplicateChecker, opts ...Option) *Server {
	s := &Server{
		runner:   runner,
		checker:  checker,
		gatherer: prometheus.DefaultGatherer,
		logger:   slog.Default(),
		mux:      http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.mux.HandleFunc("/api/generate", s.handleGenerate)
	s.mux.HandleFunc("/api/check-duplicate", s.handleCheckDuplicate)
	s.mux.HandleFunc("/healthz", s.handleHealthz)
	s.mux.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// ListenAndServe runs the server until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// generateRequest is the /api/generate request body.
type generateRequest struct {
	Term           string   `json:"term"`
	Category       string   `json:"category,omitempty"`
	OrgContext     []string `json:"org_context,omitempty"`
	LegalContext   []string `json:"legal_context,omitempty"`
	LegalBasis     []string `json:"legal_basis,omitempty"`
	LegalBasisNote string   `json:"legal_basis_note,omitempty"`
	RequestedBy    string   `json:"requested_by,omitempty"`

	// SkipDuplicateCheck forces generation even when a matching definition
	// exists.
	SkipDuplicateCheck bool `json:"skip_duplicate_check,omitempty"`
}

func (r *generateRequest) toDomain() *definition.GenerationRequest {
	req := definition.NewGenerationRequest(r.Term)
	req.Category = r.Category
	req.OrgContext = definition.NewContextSet(r.OrgContext...)
	req.LegalContext = definition.NewContextSet(r.LegalContext...)
	req.LegalBasis = definition.NewContextSet(r.LegalBasis...)
	req.LegalBasisNote = r.LegalBasisNote
	req.RequestedBy = r.RequestedBy
	return req
}

// generateResponse is the /api/generate response body.
type generateResponse struct {
	Duplicate *duplicate.CheckResult `json:"duplicate,omitempty"`
	Outcome   *generate.Outcome      `json:"outcome,omitempty"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var body generateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	req := body.toDomain()
	if err := req.Validate(); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp := generateResponse{}

	if !body.SkipDuplicateCheck {
		check, err := s.checker.Check(r.Context(), req)
		if err != nil {
			s.logger.Error("Duplicate check failed", "term", req.Term, "error", err)
			s.writeError(w, http.StatusInternalServerError, "duplicate check failed")
			return
		}
		resp.Duplicate = check
		if check.Action != duplicate.ActionProceed {
			s.writeJSON(w, http.StatusConflict, resp)
			return
		}
	}

	outcome, err := s.runner.Run(r.Context(), req)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	resp.Outcome = outcome

	status := http.StatusOK
	if outcome.State == generate.StateFailed {
		status = http.StatusUnprocessableEntity
	}
	s.writeJSON(w, status, resp)
}

func (s *Server) handleCheckDuplicate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var body generateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	req := body.toDomain()
	if err := req.Validate(); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	check, err := s.checker.Check(r.Context(), req)
	if err != nil {
		s.logger.Error("Duplicate check failed", "term", req.Term, "error", err)
		s.writeError(w, http.StatusInternalServerError, "duplicate check failed")
		return
	}
	s.writeJSON(w, http.StatusOK, check)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Response encoding failed", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
