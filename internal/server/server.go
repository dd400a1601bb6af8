// Package server provides the HTTP surface of the trainer: session
// history, live state over WebSocket, the camera stream and the quiz
// result endpoint.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/medsim/epitrainer/internal/capture"
	"github.com/medsim/epitrainer/internal/server/api"
	"github.com/medsim/epitrainer/internal/store"
	"github.com/medsim/epitrainer/internal/training"
)

// Config holds the server configuration.
type Config struct {
	StaticDir  string
	Store      *store.Store
	Camera     capture.Camera
	Controller *training.Controller
	Trainer    api.Trainer
}

// Server is the trainer's HTTP server.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
}

// New creates a Server with the given configuration.
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
		sessionsHandler := api.NewSessionsHandler(s.config.Store)
		s.mux.Handle("/api/sessions", sessionsHandler)
		s.mux.Handle("/api/sessions/", sessionsHandler)
	}

	if s.config.Trainer != nil {
		trainingHandler := api.NewTrainingHandler(s.config.Trainer)
		s.mux.Handle("/api/quiz/result", trainingHandler)
		s.mux.Handle("/api/training/", trainingHandler)
	}

	if s.config.Controller != nil {
		s.mux.HandleFunc("/api/state", s.handleState)
		s.mux.Handle("/api/state/ws", NewStateHandler(s.config.Controller))
	}

	if s.config.Camera != nil {
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.Camera))
	}

	if s.config.StaticDir != "" {
		s.mux.Handle("/", http.FileServer(http.Dir(s.config.StaticDir)))
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// handleState handles GET requests to /api/state with a one-shot snapshot.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.config.Controller.State(time.Now()))
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s)
}
