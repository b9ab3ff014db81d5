// Package server exposes stored runs over HTTP: JSON listings, the
// neighbor relation of a run and rendered views of its particles.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/banshee-data/cellindex/internal/cellindex"
	"github.com/banshee-data/cellindex/internal/db"
	"github.com/banshee-data/cellindex/internal/export"
	"github.com/banshee-data/cellindex/internal/monitoring"
	"github.com/banshee-data/cellindex/internal/render"
	"github.com/banshee-data/cellindex/internal/security"
)

// maxRunsPerQuery caps list responses.
const maxRunsPerQuery = 500

// RunSource is the subset of db.RunStore the handlers need.
type RunSource interface {
	List(limit int) ([]*db.Run, error)
	Get(runID string) (*db.Run, error)
	Load(runID string) (*db.Run, *cellindex.Index, error)
	Pairs(runID string) ([]cellindex.Pair, error)
	Delete(runID string) error
}

type Server struct {
	runs RunSource
}

func NewServer(runs RunSource) *Server {
	return &Server{runs: runs}
}

// RegisterRoutes registers the run API and viewer routes on mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/runs", s.handleListRuns)
	mux.HandleFunc("/api/runs/{id}", s.handleRun)
	mux.HandleFunc("/api/runs/{id}/pairs", s.handlePairs)
	mux.HandleFunc("/api/runs/{id}/neighbors.txt", s.handleNeighborsFile)
	mux.HandleFunc("/runs/{id}/chart", s.handleChart)
	mux.HandleFunc("/runs/{id}/plot.png", s.handlePlot)
}

func (s *Server) writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		monitoring.Logf("failed to encode response: %v", err)
	}
}

// runError maps store errors to a status code.
func (s *Server) runError(w http.ResponseWriter, err error) {
	if errors.Is(err, db.ErrRunNotFound) {
		s.writeJSONError(w, http.StatusNotFound, err.Error())
		return
	}
	s.writeJSONError(w, http.StatusInternalServerError, err.Error())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	limit := maxRunsPerQuery
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			s.writeJSONError(w, http.StatusBadRequest, "invalid 'limit' parameter")
			return
		}
		limit = min(n, maxRunsPerQuery)
	}

	runs, err := s.runs.List(limit)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to list runs: %v", err))
		return
	}
	if runs == nil {
		runs = []*db.Run{}
	}
	s.writeJSON(w, map[string]any{"runs": runs, "count": len(runs)})
}

// RunDetail is the response body of GET /api/runs/{id}.
type RunDetail struct {
	Run       *db.Run       `json:"run"`
	Neighbors map[int][]int `json:"neighbors"`
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	switch r.Method {
	case http.MethodGet:
		run, idx, err := s.runs.Load(id)
		if err != nil {
			s.runError(w, err)
			return
		}
		s.writeJSON(w, RunDetail{Run: run, Neighbors: idx.Neighbors()})
	case http.MethodDelete:
		if err := s.runs.Delete(id); err != nil {
			s.runError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		s.writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handlePairs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	id := r.PathValue("id")
	if _, err := s.runs.Get(id); err != nil {
		s.runError(w, err)
		return
	}
	pairs, err := s.runs.Pairs(id)
	if err != nil {
		s.runError(w, err)
		return
	}
	out := make([][2]int, len(pairs))
	for i, p := range pairs {
		out[i] = [2]int{p.A, p.B}
	}
	s.writeJSON(w, map[string]any{"run_id": id, "pairs": out})
}

// handleNeighborsFile serves the neighbor listing of a run as a download.
func (s *Server) handleNeighborsFile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	id := r.PathValue("id")
	_, idx, err := s.runs.Load(id)
	if err != nil {
		s.runError(w, err)
		return
	}
	var buf bytes.Buffer
	if err := export.WriteNeighbors(&buf, idx); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("export error: %v", err))
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s-%s", security.SanitizeFilename(id), export.NeighborsFile))
	w.Write(buf.Bytes())
}

// loadForView loads a run and parses the optional highlight parameter.
func (s *Server) loadForView(w http.ResponseWriter, r *http.Request) (*cellindex.Index, int, bool) {
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return nil, 0, false
	}
	highlight := -1
	if v := r.URL.Query().Get("highlight"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			s.writeJSONError(w, http.StatusBadRequest, "invalid 'highlight' parameter")
			return nil, 0, false
		}
		highlight = n
	}
	_, idx, err := s.runs.Load(r.PathValue("id"))
	if err != nil {
		s.runError(w, err)
		return nil, 0, false
	}
	if highlight >= idx.Len() {
		s.writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("highlight %d out of range for %d particles", highlight, idx.Len()))
		return nil, 0, false
	}
	return idx, highlight, true
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	idx, highlight, ok := s.loadForView(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := render.WriteScatterHTML(&buf, idx, highlight); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("render error: %v", err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

func (s *Server) handlePlot(w http.ResponseWriter, r *http.Request) {
	idx, highlight, ok := s.loadForView(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	grid := r.URL.Query().Get("grid") != ""
	if err := render.WritePNG(&buf, idx, highlight, render.PNGOptions{GridLines: grid}); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("render error: %v", err))
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(buf.Bytes())
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

// LoggingMiddleware logs method, path, status and latency of each request.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		monitoring.Logf("[%d] %s %s %vms",
			lrw.statusCode, r.Method, r.RequestURI,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

// ListenAndServe serves h on addr until ctx is cancelled, then shuts down
// with a five second grace period.
func ListenAndServe(ctx context.Context, addr string, h http.Handler) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	monitoring.Logf("shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP server shutdown: %w", err)
	}
	return nil
}
