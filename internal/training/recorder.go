package training

import "time"

// EventResult is the outcome of one scripted event. Correct stays nil until
// the quiz answer for the event arrives.
type EventResult struct {
	Kind        EventKind     `json:"kind"`
	TriggerTime time.Duration `json:"trigger_time"`
	Correct     *bool         `json:"correct"`
}

// SessionRecord is the finalized summary of one completed pull phase.
type SessionRecord struct {
	SessionID         string        `json:"session_id"`
	UserID            string        `json:"user_id"`
	TrainingType      string        `json:"training_type"`
	ElapsedTime       time.Duration `json:"elapsed_time"`
	MaxPullDistanceCm float64       `json:"max_pull_distance_cm"`
	AccuracyPct       float64       `json:"accuracy_pct"`
	Events            []EventResult `json:"events"`
	Queue             []PullEvent   `json:"queue"`
	CompletedAt       time.Time     `json:"completed_at"`
}

// Saver persists finalized session records.
type Saver interface {
	SaveSession(rec *SessionRecord) error
}

// SessionRecorder accumulates event outcomes for one session and produces
// the SessionRecord on finalize. Accuracy is always scored out of
// PullEventCount, so unanswered events count against the trainee.
type SessionRecorder struct {
	sessionID    string
	userID       string
	trainingType string
	startedAt    time.Time
	queue        []PullEvent
	events       []EventResult
}

// NewSessionRecorder opens a recorder at pull-phase entry.
func NewSessionRecorder(sessionID, userID, trainingType string, queue []PullEvent, startedAt time.Time) *SessionRecorder {
	q := make([]PullEvent, len(queue))
	copy(q, queue)
	return &SessionRecorder{
		sessionID:    sessionID,
		userID:       userID,
		trainingType: trainingType,
		startedAt:    startedAt,
		queue:        q,
		events:       make([]EventResult, 0, PullEventCount),
	}
}

// RecordEvent logs that an event fired at the given offset from phase entry.
// Its result stays unanswered until MarkResult.
func (r *SessionRecorder) RecordEvent(kind EventKind, triggerTime time.Duration) {
	r.events = append(r.events, EventResult{Kind: kind, TriggerTime: triggerTime})
}

// MarkResult resolves the oldest unanswered event. It reports false when
// every recorded event already has a result.
func (r *SessionRecorder) MarkResult(correct bool) bool {
	for i := range r.events {
		if r.events[i].Correct == nil {
			c := correct
			r.events[i].Correct = &c
			return true
		}
	}
	return false
}

// CorrectCount returns the number of events answered correctly so far.
func (r *SessionRecorder) CorrectCount() int {
	n := 0
	for _, ev := range r.events {
		if ev.Correct != nil && *ev.Correct {
			n++
		}
	}
	return n
}

// Finalize closes the recorder and returns the session summary.
func (r *SessionRecorder) Finalize(maxPullCm float64, now time.Time) *SessionRecord {
	events := make([]EventResult, len(r.events))
	copy(events, r.events)
	return &SessionRecord{
		SessionID:         r.sessionID,
		UserID:            r.userID,
		TrainingType:      r.trainingType,
		ElapsedTime:       now.Sub(r.startedAt),
		MaxPullDistanceCm: maxPullCm,
		AccuracyPct:       100.0 * float64(r.CorrectCount()) / float64(PullEventCount),
		Events:            events,
		Queue:             r.queue,
		CompletedAt:       now,
	}
}
