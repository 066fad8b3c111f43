// Package server provides the HTTP operator surface for safetycam.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ayusman/safetycam/internal/app"
	"github.com/ayusman/safetycam/internal/server/api"
	"github.com/ayusman/safetycam/internal/store"
)

// StatusProvider exposes the running pipeline to the server.
type StatusProvider interface {
	Status() app.Status
	SetEnabled(enabled bool)
}

// FrameSource supplies the latest annotated frame as JPEG.
type FrameSource interface {
	LatestFrame() []byte
}

// Config holds the server configuration.
type Config struct {
	StaticDir string
	Store     *store.Store
	Status    StatusProvider
	Frames    FrameSource
	// PollInterval is how often the status stream checks for changes.
	PollInterval time.Duration
}

// Server represents the HTTP server for the safetycam application.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
	status *StatusHandler
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if s.config.Store != nil {
		alerts := api.NewAlertHandler(s.config.Store)
		s.mux.Handle("/api/alerts", alerts)
		s.mux.Handle("/api/alerts/", alerts)
		s.mux.Handle("/api/failures", api.NewFailureHandler(s.config.Store))
	}

	if s.config.Status != nil {
		s.mux.HandleFunc("/api/status", s.handleStatus)
		s.mux.HandleFunc("/api/enabled", s.handleEnabled)

		s.status = NewStatusHandler(s.config.Status, s.config.PollInterval)
		s.mux.Handle("/api/status/ws", s.status)
	}

	if s.config.Frames != nil {
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.Frames))
	}

	// Serve static files if StaticDir is configured
	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	})
}

// handleStatus handles GET requests to /api/status.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, s.config.Status.Status())
}

type enabledRequest struct {
	Enabled *bool `json:"enabled"`
}

// handleEnabled handles PUT /api/enabled to toggle classification.
func (s *Server) handleEnabled(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req enabledRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Enabled == nil {
		http.Error(w, "Expected {\"enabled\": true|false}", http.StatusBadRequest)
		return
	}

	s.config.Status.SetEnabled(*req.Enabled)
	writeJSON(w, s.config.Status.Status())
}

// Close stops the status broadcaster and disconnects its clients.
func (s *Server) Close() {
	if s.status != nil {
		s.status.Close()
	}
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s)
}
