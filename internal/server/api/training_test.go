package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type fakeTrainer struct {
	started bool
	aborted bool
	answers []bool
}

func (f *fakeTrainer) StartSession()           { f.started = true }
func (f *fakeTrainer) AbortSession()           { f.aborted = true }
func (f *fakeTrainer) AnswerQuiz(correct bool) { f.answers = append(f.answers, correct) }

func TestTrainingHandler_QuizResult(t *testing.T) {
	trainer := &fakeTrainer{}
	h := NewTrainingHandler(trainer)

	req := httptest.NewRequest(http.MethodPost, "/api/quiz/result", strings.NewReader(`{"correct": true}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(trainer.answers) != 1 || !trainer.answers[0] {
		t.Errorf("expected one correct answer, got %v", trainer.answers)
	}
}

func TestTrainingHandler_QuizResultBadBody(t *testing.T) {
	h := NewTrainingHandler(&fakeTrainer{})

	req := httptest.NewRequest(http.MethodPost, "/api/quiz/result", strings.NewReader(`{`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestTrainingHandler_StartAndAbort(t *testing.T) {
	trainer := &fakeTrainer{}
	h := NewTrainingHandler(trainer)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/training/start", nil))
	if rec.Code != http.StatusOK || !trainer.started {
		t.Errorf("start failed: code %d, started %v", rec.Code, trainer.started)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/training/abort", nil))
	if rec.Code != http.StatusOK || !trainer.aborted {
		t.Errorf("abort failed: code %d, aborted %v", rec.Code, trainer.aborted)
	}
}

func TestTrainingHandler_MethodNotAllowed(t *testing.T) {
	h := NewTrainingHandler(&fakeTrainer{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/quiz/result", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rec.Code)
	}
}

func TestTrainingHandler_UnknownPath(t *testing.T) {
	h := NewTrainingHandler(&fakeTrainer{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/training/bogus", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}
