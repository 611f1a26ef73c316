// Package api serves the bridge's HTTP API: lock listing and commands,
// health and Prometheus metrics.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"igloobridge/internal/lock"
	"igloobridge/internal/metrics"
	"igloobridge/pkg/plugin"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// LockService is implemented by the igloohome plugin
type LockService interface {
	Locks() []lock.Snapshot
	Command(ctx context.Context, uniqueID string, action lock.Action) error
}

// Server provides HTTP API endpoints for the bridge
type Server struct {
	locks   LockService
	metrics *metrics.Metrics
	logger  *zap.Logger
	router  chi.Router
	server  *http.Server
}

// NewServer creates a new API server. metrics may be nil.
func NewServer(locks LockService, m *metrics.Metrics, logger *zap.Logger, port int) *Server {
	s := &Server{
		locks:   locks,
		metrics: m,
		logger:  logger.Named("api"),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(m.Middleware)

	r.Get("/", s.handleSitemap)
	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", m.Handler())
	r.Route("/api/locks", func(r chi.Router) {
		r.Get("/", s.handleListLocks)
		r.Get("/{id}", s.handleGetLock)
		r.Post("/{id}/{action}", s.handleLockAction)
	})
	s.router = r

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 45 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler returns the router, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.router
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// handleListLocks returns every lock entity
func (s *Server) handleListLocks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.locks.Locks())
}

func (s *Server) handleGetLock(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	snapshot, ok := s.find(id)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("%w: %s", plugin.ErrUnknownEntity, id))
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

// handleLockAction runs lock, unlock, open or refresh on one lock
func (s *Server) handleLockAction(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	action, err := lock.ParseAction(chi.URLParam(r, "action"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	err = s.locks.Command(r.Context(), id, action)
	switch {
	case err == nil:
	case errors.Is(err, plugin.ErrUnknownEntity):
		writeError(w, http.StatusNotFound, err)
		return
	case errors.Is(err, plugin.ErrUnknownAction):
		writeError(w, http.StatusBadRequest, err)
		return
	case plugin.IsHostError(err):
		writeError(w, http.StatusBadGateway, err)
		return
	default:
		s.logger.Error("Lock command failed",
			zap.String("unique_id", id),
			zap.String("action", string(action)),
			zap.Error(err))
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	snapshot, _ := s.find(id)
	writeJSON(w, http.StatusOK, snapshot)

	s.logger.Debug("Lock action served",
		zap.String("unique_id", id),
		zap.String("action", string(action)),
		zap.String("remote_addr", r.RemoteAddr))
}

func (s *Server) find(uniqueID string) (lock.Snapshot, bool) {
	for _, snapshot := range s.locks.Locks() {
		if snapshot.UniqueID == uniqueID {
			return snapshot, true
		}
	}
	return lock.Snapshot{}, false
}

// handleHealth returns a simple health check response
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// Endpoint represents an API endpoint with its documentation
type Endpoint struct {
	Path        string `json:"path"`
	Method      string `json:"method"`
	Description string `json:"description"`
}

var endpoints = []Endpoint{
	{Path: "/", Method: "GET", Description: "This sitemap - lists all available API endpoints"},
	{Path: "/health", Method: "GET", Description: "Health check endpoint - returns {\"status\": \"ok\"}"},
	{Path: "/metrics", Method: "GET", Description: "Prometheus metrics"},
	{Path: "/api/locks", Method: "GET", Description: "List locks with bridge, availability and assumed state"},
	{Path: "/api/locks/{id}", Method: "GET", Description: "Get one lock by unique ID"},
	{Path: "/api/locks/{id}/{action}", Method: "POST", Description: "Run lock, unlock, open or refresh"},
}

// handleSitemap lists the endpoints as HTML for browsers, text otherwise
func (s *Server) handleSitemap(w http.ResponseWriter, r *http.Request) {
	preferHTML := strings.Contains(r.Header.Get("Accept"), "text/html")

	if preferHTML {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintf(w, `<!DOCTYPE html>
<html>
<head>
    <title>igloohome bridge API</title>
    <style>
        body { font-family: monospace; margin: 40px; background: #1e1e1e; color: #d4d4d4; }
        h1 { color: #4ec9b0; }
        .endpoint { background: #2d2d2d; padding: 15px; margin: 10px 0; border-left: 3px solid #007acc; }
        .method { color: #4ec9b0; font-weight: bold; }
        .path { color: #ce9178; }
        .description { color: #9cdcfe; margin-top: 5px; }
    </style>
</head>
<body>
    <h1>igloohome bridge API</h1>
`)
		for _, ep := range endpoints {
			fmt.Fprintf(w, `    <div class="endpoint">
        <div><span class="method">%s</span> <span class="path">%s</span></div>
        <div class="description">%s</div>
    </div>
`, ep.Method, ep.Path, ep.Description)
		}
		fmt.Fprintf(w, "</body>\n</html>\n")
	} else {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprintf(w, "igloohome bridge API\n")
		fmt.Fprintf(w, "====================\n\n")
		for _, ep := range endpoints {
			fmt.Fprintf(w, "  %-6s %-26s %s\n", ep.Method, ep.Path, ep.Description)
		}
		fmt.Fprintf(w, "\nExample:\n\n")
		fmt.Fprintf(w, "  curl -X POST http://localhost:8081/api/locks/lock_<deviceId>/lock\n")
	}

	s.logger.Debug("Sitemap request served",
		zap.String("remote_addr", r.RemoteAddr),
		zap.Bool("html_format", preferHTML))
}

// Start begins serving HTTP requests
func (s *Server) Start() error {
	s.logger.Info("Starting HTTP API server", zap.String("addr", s.server.Addr))

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("HTTP server error", zap.Error(err))
		}
	}()

	return nil
}

// Stop gracefully shuts down the HTTP server
func (s *Server) Stop() error {
	s.logger.Info("Stopping HTTP API server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}

	return nil
}
