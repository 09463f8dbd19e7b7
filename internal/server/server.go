// Package server exposes a running program over HTTP for inspection and
// mutation. Every mutating endpoint opens and commits its own transaction,
// so concurrent requests observe committed state only.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/pullwave/pullwave/pkg/engine"
	"github.com/pullwave/pullwave/pkg/render"
	"github.com/pullwave/pullwave/pkg/scenario"
	"github.com/pullwave/pullwave/pkg/snapshot"
)

// Server serves a single program.
type Server struct {
	program *scenario.Program
	logger  *log.Logger
}

// New wraps a program for serving. A nil logger disables request logging.
func New(p *scenario.Program, logger *log.Logger) *Server {
	return &Server{program: p, logger: logger}
}

// Routes builds the HTTP handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	if s.logger != nil {
		r.Use(s.requestLogger)
	}

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/graph", s.handleGraph)
		r.Get("/graph.dot", s.handleGraphDOT)
		r.Get("/graph.svg", s.handleGraphSVG)
		r.Get("/nodes/{id}", s.handleEvaluate)
		r.Post("/cells/{id}", s.handleWriteCell)
		r.Post("/sets/{id}", s.handleUpdateSet)
	})
	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start),
		)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"nodes":   s.program.Graph.NodeCount(),
		"commits": s.program.Graph.Commits(),
	})
}

func (s *Server) handleGraph(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, snapshot.FromGraph(s.program.Graph))
}

func (s *Server) handleGraphDOT(w http.ResponseWriter, _ *http.Request) {
	dot := render.ToDOT(snapshot.FromGraph(s.program.Graph), render.Options{Detailed: true})
	w.Header().Set("Content-Type", "text/vnd.graphviz")
	_, _ = w.Write([]byte(dot))
}

func (s *Server) handleGraphSVG(w http.ResponseWriter, _ *http.Request) {
	dot := render.ToDOT(snapshot.FromGraph(s.program.Graph), render.Options{Detailed: true})
	svg, err := render.RenderSVG(dot)
	if err != nil {
		writeError(w, fmt.Errorf("render svg: %w", err))
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	_, _ = w.Write(svg)
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	v, err := s.program.Graph.Evaluate(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "value": v})
}

func (s *Server) handleWriteCell(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Value float64 `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errBody(err))
		return
	}
	id := chi.URLParam(r, "id")
	if err := s.program.SetNumber(id, body.Value); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "value": body.Value})
}

func (s *Server) handleUpdateSet(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Add    []string `json:"add"`
		Remove []string `json:"remove"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errBody(err))
		return
	}
	id := chi.URLParam(r, "id")
	if err := s.program.UpdateSet(id, body.Add, body.Remove); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "added": len(body.Add), "removed": len(body.Remove)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusUnprocessableEntity
	switch {
	case errors.Is(err, engine.ErrUnknownNode), errors.Is(err, scenario.ErrUnknownName):
		status = http.StatusNotFound
	case errors.Is(err, engine.ErrTransactionOpen):
		status = http.StatusConflict
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func errBody(err error) map[string]string {
	return map[string]string{"error": fmt.Sprintf("decode body: %v", err)}
}
