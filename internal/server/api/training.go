package api

import (
	"encoding/json"
	"net/http"
)

// Trainer is the surface the API needs to drive a training session. It is
// implemented by the application.
type Trainer interface {
	StartSession()
	AbortSession()
	AnswerQuiz(correct bool)
}

// TrainingHandler handles session control and quiz result requests.
type TrainingHandler struct {
	trainer Trainer
}

// NewTrainingHandler creates a TrainingHandler over the given trainer.
func NewTrainingHandler(t Trainer) *TrainingHandler {
	return &TrainingHandler{trainer: t}
}

type quizResultRequest struct {
	Correct bool `json:"correct"`
}

type okResponse struct {
	Status string `json:"status"`
}

// ServeHTTP routes training control requests.
// Paths: POST /api/quiz/result, POST /api/training/start, POST /api/training/abort
func (h *TrainingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	switch r.URL.Path {
	case "/api/quiz/result":
		h.quizResult(w, r)
	case "/api/training/start":
		h.trainer.StartSession()
		writeJSON(w, http.StatusOK, okResponse{Status: "started"})
	case "/api/training/abort":
		h.trainer.AbortSession()
		writeJSON(w, http.StatusOK, okResponse{Status: "aborted"})
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

// quizResult handles POST /api/quiz/result with the answer to the pending
// pull-event quiz. Answers with no quiz pending are accepted and dropped.
func (h *TrainingHandler) quizResult(w http.ResponseWriter, r *http.Request) {
	var req quizResultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	h.trainer.AnswerQuiz(req.Correct)
	writeJSON(w, http.StatusOK, okResponse{Status: "recorded"})
}
