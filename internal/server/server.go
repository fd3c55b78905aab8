// Package server exposes deck generation over HTTP: a one-shot generate
// endpoint, a tool invocation endpoint with its manifest, and artifact
// downloads.
package server

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"slidecraft/internal/app"
	"slidecraft/internal/deck"
)

//go:embed manifest.yaml
var manifest []byte

var runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "slidecraft_runs_total",
	Help: "Completed generation runs by final status.",
}, []string{"status"})

type Server struct {
	service *app.Service
	logger  *slog.Logger
}

func New(service *app.Service) *Server {
	return &Server{service: service, logger: service.Logger()}
}

// Router builds the HTTP surface.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(5 * time.Minute))

	r.Post("/generate", s.handleGenerate)
	r.Post("/mcp", s.handleToolCall)
	r.Get("/.well-known/mcp/manifest.yaml", s.handleManifest)
	r.Get("/artifacts/{name}", s.handleArtifact)
	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req deck.GenerationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	result, err := s.service.Pipeline().Run(r.Context(), req)
	if err != nil {
		runsTotal.WithLabelValues(string(deck.StatusFailed)).Inc()
		s.writeRunError(w, err)
		return
	}

	runsTotal.WithLabelValues(string(result.Status)).Inc()
	s.writeJSON(w, http.StatusOK, result)
}

type toolCallRequest struct {
	Tool      string          `json:"tool"`
	Arguments json.RawMessage `json:"arguments"`
}

type toolCallResponse struct {
	Result any `json:"result"`
}

func (s *Server) handleToolCall(w http.ResponseWriter, r *http.Request) {
	var req toolCallRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	result, err := s.service.Tools().Invoke(r.Context(), req.Tool, req.Arguments)
	if err != nil {
		s.writeRunError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toolCallResponse{Result: result})
}

func (s *Server) handleManifest(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(manifest)
}

func (s *Server) handleArtifact(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	// Artifact names are flat slugs; anything else is a traversal attempt.
	if name == "" || name != filepath.Base(name) || strings.Contains(name, "..") {
		s.writeError(w, http.StatusBadRequest, "invalid artifact name")
		return
	}
	path := filepath.Join(s.service.Config().Output.Dir, name)
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	http.ServeFile(w, r, path)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type errorResponse struct {
	Error    string `json:"error"`
	Category string `json:"category,omitempty"`
}

// writeRunError maps pipeline errors onto HTTP statuses: caller mistakes
// are 400s, upstream outages 502, everything else 500.
func (s *Server) writeRunError(w http.ResponseWriter, err error) {
	if errors.Is(err, deck.ErrInvalidRequest) {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	status := http.StatusInternalServerError
	category := deck.CategoryOf(err)
	switch category {
	case deck.CategoryGeneration, deck.CategoryImageFetch:
		status = http.StatusBadGateway
	}
	if errors.Is(err, context.DeadlineExceeded) {
		status = http.StatusGatewayTimeout
	}

	s.logger.Error("request failed", "category", category, "error", err)
	s.writeJSON(w, status, errorResponse{Error: err.Error(), Category: string(category)})
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, errorResponse{Error: msg})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("write response", "error", err)
	}
}
