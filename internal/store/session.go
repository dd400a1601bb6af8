package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/medsim/epitrainer/internal/training"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// Session represents a completed training session stored in the database.
type Session struct {
	ID           string
	UserID       string
	TrainingType string
	Elapsed      time.Duration
	MaxPullCm    float64
	AccuracyPct  float64
	CompletedAt  time.Time
	Events       []SessionEvent
	Queue        []QueueEntry
}

// SessionEvent is one quiz outcome, in trigger order.
type SessionEvent struct {
	Seq         int
	Kind        string
	TriggerTime time.Duration
	Correct     *bool
}

// QueueEntry is one entry of the generated pull-event queue.
type QueueEntry struct {
	Seq               int
	Kind              string
	TriggerDistanceCm float64
}

// UserStats aggregates a user's history for one training type.
type UserStats struct {
	TotalSessions   int
	AvgAccuracyPct  float64
	BestAccuracyPct float64
}

// SessionRepository provides persistence for session records.
type SessionRepository struct {
	db *sql.DB
}

// Sessions returns the session repository for this store.
func (s *Store) Sessions() *SessionRepository {
	return &SessionRepository{db: s.db}
}

// SaveSession persists a finalized session record with its events and
// queue in one transaction. It satisfies the training persistence
// collaborator interface.
func (r *SessionRepository) SaveSession(rec *training.SessionRecord) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO sessions (id, user_id, training_type, elapsed_ms, max_pull_cm, accuracy_pct, completed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.SessionID, rec.UserID, rec.TrainingType,
		rec.ElapsedTime.Milliseconds(), rec.MaxPullDistanceCm, rec.AccuracyPct, rec.CompletedAt,
	)
	if err != nil {
		return err
	}

	for i, ev := range rec.Events {
		var correct any
		if ev.Correct != nil {
			correct = *ev.Correct
		}
		_, err = tx.Exec(
			`INSERT INTO session_events (session_id, seq, kind, trigger_ms, correct)
			 VALUES (?, ?, ?, ?, ?)`,
			rec.SessionID, i, string(ev.Kind), ev.TriggerTime.Milliseconds(), correct,
		)
		if err != nil {
			return err
		}
	}

	for i, q := range rec.Queue {
		_, err = tx.Exec(
			`INSERT INTO pull_queue (session_id, seq, kind, trigger_distance_cm)
			 VALUES (?, ?, ?, ?)`,
			rec.SessionID, i, string(q.Kind), q.TriggerDistanceCm,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetByID retrieves a session with its events and queue.
func (r *SessionRepository) GetByID(id string) (*Session, error) {
	sess := &Session{}
	var elapsedMs int64

	err := r.db.QueryRow(
		`SELECT id, user_id, training_type, elapsed_ms, max_pull_cm, accuracy_pct, completed_at
		 FROM sessions WHERE id = ?`,
		id,
	).Scan(&sess.ID, &sess.UserID, &sess.TrainingType, &elapsedMs,
		&sess.MaxPullCm, &sess.AccuracyPct, &sess.CompletedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	sess.Elapsed = time.Duration(elapsedMs) * time.Millisecond

	sess.Events, err = r.eventsFor(id)
	if err != nil {
		return nil, err
	}
	sess.Queue, err = r.queueFor(id)
	if err != nil {
		return nil, err
	}

	return sess, nil
}

// ListByUser retrieves a user's sessions, newest first. A limit of zero or
// less returns all of them.
func (r *SessionRepository) ListByUser(userID string, limit int) ([]*Session, error) {
	query := `SELECT id, user_id, training_type, elapsed_ms, max_pull_cm, accuracy_pct, completed_at
		 FROM sessions WHERE user_id = ? ORDER BY completed_at DESC`
	args := []any{userID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		sess := &Session{}
		var elapsedMs int64

		err := rows.Scan(&sess.ID, &sess.UserID, &sess.TrainingType, &elapsedMs,
			&sess.MaxPullCm, &sess.AccuracyPct, &sess.CompletedAt)
		if err != nil {
			return nil, err
		}

		sess.Elapsed = time.Duration(elapsedMs) * time.Millisecond
		sessions = append(sessions, sess)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sessions, nil
}

// Stats aggregates a user's sessions of one training type.
func (r *SessionRepository) Stats(userID, trainingType string) (*UserStats, error) {
	stats := &UserStats{}
	var avg, best sql.NullFloat64

	err := r.db.QueryRow(
		`SELECT COUNT(*), AVG(accuracy_pct), MAX(accuracy_pct)
		 FROM sessions WHERE user_id = ? AND training_type = ?`,
		userID, trainingType,
	).Scan(&stats.TotalSessions, &avg, &best)
	if err != nil {
		return nil, err
	}

	stats.AvgAccuracyPct = avg.Float64
	stats.BestAccuracyPct = best.Float64
	return stats, nil
}

func (r *SessionRepository) eventsFor(sessionID string) ([]SessionEvent, error) {
	rows, err := r.db.Query(
		`SELECT seq, kind, trigger_ms, correct
		 FROM session_events WHERE session_id = ? ORDER BY seq`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []SessionEvent
	for rows.Next() {
		var ev SessionEvent
		var triggerMs int64
		var correct sql.NullBool

		if err := rows.Scan(&ev.Seq, &ev.Kind, &triggerMs, &correct); err != nil {
			return nil, err
		}
		ev.TriggerTime = time.Duration(triggerMs) * time.Millisecond
		if correct.Valid {
			c := correct.Bool
			ev.Correct = &c
		}
		events = append(events, ev)
	}

	return events, rows.Err()
}

func (r *SessionRepository) queueFor(sessionID string) ([]QueueEntry, error) {
	rows, err := r.db.Query(
		`SELECT seq, kind, trigger_distance_cm
		 FROM pull_queue WHERE session_id = ? ORDER BY seq`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var queue []QueueEntry
	for rows.Next() {
		var q QueueEntry
		if err := rows.Scan(&q.Seq, &q.Kind, &q.TriggerDistanceCm); err != nil {
			return nil, err
		}
		queue = append(queue, q)
	}

	return queue, rows.Err()
}
