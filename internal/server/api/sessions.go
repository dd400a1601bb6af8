// Package api provides the HTTP API handlers for the trainer.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/medsim/epitrainer/internal/store"
)

// SessionsHandler handles HTTP requests for session history.
type SessionsHandler struct {
	store *store.Store
}

// NewSessionsHandler creates a SessionsHandler with the given store.
func NewSessionsHandler(s *store.Store) *SessionsHandler {
	return &SessionsHandler{store: s}
}

// ServeHTTP routes session requests.
// Paths: /api/sessions, /api/sessions/stats, /api/sessions/{id}
func (h *SessionsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/sessions")
	path = strings.TrimPrefix(path, "/")

	switch path {
	case "":
		h.list(w, r)
	case "stats":
		h.stats(w, r)
	default:
		h.get(w, r, path)
	}
}

type sessionResponse struct {
	ID           string                 `json:"id"`
	UserID       string                 `json:"user_id"`
	TrainingType string                 `json:"training_type"`
	ElapsedSec   float64                `json:"elapsed_s"`
	MaxPullCm    float64                `json:"max_pull_cm"`
	AccuracyPct  float64                `json:"accuracy_pct"`
	CompletedAt  string                 `json:"completed_at"`
	Events       []sessionEventResponse `json:"events,omitempty"`
}

type sessionEventResponse struct {
	Kind       string  `json:"kind"`
	TriggerSec float64 `json:"trigger_s"`
	Correct    *bool   `json:"correct"`
}

type listSessionsResponse struct {
	Sessions []sessionResponse `json:"sessions"`
}

type statsResponse struct {
	TotalSessions   int     `json:"total_sessions"`
	AvgAccuracyPct  float64 `json:"avg_accuracy_pct"`
	BestAccuracyPct float64 `json:"best_accuracy_pct"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func toResponse(sess *store.Session) sessionResponse {
	resp := sessionResponse{
		ID:           sess.ID,
		UserID:       sess.UserID,
		TrainingType: sess.TrainingType,
		ElapsedSec:   sess.Elapsed.Seconds(),
		MaxPullCm:    sess.MaxPullCm,
		AccuracyPct:  sess.AccuracyPct,
		CompletedAt:  sess.CompletedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	for _, ev := range sess.Events {
		resp.Events = append(resp.Events, sessionEventResponse{
			Kind:       ev.Kind,
			TriggerSec: ev.TriggerTime.Seconds(),
			Correct:    ev.Correct,
		})
	}
	return resp
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// list handles GET /api/sessions?user={id}&limit={n}.
func (h *SessionsHandler) list(w http.ResponseWriter, r *http.Request) {
	user := r.URL.Query().Get("user")

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	sessions, err := h.store.Sessions().ListByUser(user, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list sessions")
		return
	}

	resp := listSessionsResponse{Sessions: make([]sessionResponse, 0, len(sessions))}
	for _, sess := range sessions {
		resp.Sessions = append(resp.Sessions, toResponse(sess))
	}
	writeJSON(w, http.StatusOK, resp)
}

// get handles GET /api/sessions/{id}.
func (h *SessionsHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	sess, err := h.store.Sessions().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get session")
		return
	}
	writeJSON(w, http.StatusOK, toResponse(sess))
}

// stats handles GET /api/sessions/stats?user={id}&type={training_type}.
func (h *SessionsHandler) stats(w http.ResponseWriter, r *http.Request) {
	user := r.URL.Query().Get("user")
	trainingType := r.URL.Query().Get("type")
	if trainingType == "" {
		trainingType = "catheter_removal"
	}

	stats, err := h.store.Sessions().Stats(user, trainingType)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get stats")
		return
	}

	writeJSON(w, http.StatusOK, statsResponse{
		TotalSessions:   stats.TotalSessions,
		AvgAccuracyPct:  stats.AvgAccuracyPct,
		BestAccuracyPct: stats.BestAccuracyPct,
	})
}
