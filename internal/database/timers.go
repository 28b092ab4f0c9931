package database

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/tempohq/tempo/internal/models"
)

// TimerRepository handles timer session database operations.
//
// The at-most-one-active-session-per-user invariant is enforced here: every
// start and stop runs in a transaction that first locks the user row, so two
// racing starts for the same user serialize instead of both observing "no
// active session" and creating two. A plain check-then-act would admit that
// race.
type TimerRepository struct {
	db *DB
}

// NewTimerRepository creates a new timer repository
func NewTimerRepository(db *DB) *TimerRepository {
	return &TimerRepository{db: db}
}

// ActiveSession is an active timer session joined with the context needed
// for reminder notifications.
type ActiveSession struct {
	Session       models.TimerSession
	TaskTitle     string
	EstimatedTime int
	UserID        uuid.UUID
	TelegramID    string
}

// StartSession atomically starts a timer session for a task owned by the
// user. If the user already has an active session, on any task, it is
// finalized first within the same transaction, so the single-active-timer
// invariant is never observably violated.
func (r *TimerRepository) StartSession(ctx context.Context, userID, taskID uuid.UUID, now time.Time) (*models.TimerSession, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := lockUser(ctx, tx, userID); err != nil {
		return nil, err
	}

	// Ownership check inside the transaction; a task of another user is
	// indistinguishable from a missing one.
	var exists bool
	err = tx.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM tasks WHERE id = $1 AND user_id = $2)`,
		taskID, userID,
	).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to verify task ownership: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("task not found: %w", ErrNotFound)
	}

	if err := finalizeActiveSession(ctx, tx, userID, now); err != nil {
		return nil, err
	}

	session := &models.TimerSession{
		ID:        uuid.New(),
		TaskID:    taskID,
		StartTime: now.UTC(),
		Active:    true,
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO timer_sessions (id, task_id, start_time, active)
		VALUES ($1, $2, $3, TRUE)
	`, session.ID, session.TaskID, session.StartTime)
	if err != nil {
		return nil, fmt.Errorf("failed to create timer session: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit timer start: %w", err)
	}

	return session, nil
}

// StopSession atomically finalizes a timer session: sets end time, computes
// the rounded duration and adds it to the owning task's actual_time_spent.
// The session update and the task increment commit together; partial
// application of one without the other would corrupt the accounting.
//
// Returns ErrNotFound for a missing session or one owned by another user,
// and ErrConflict for a session that is already inactive.
func (r *TimerRepository) StopSession(ctx context.Context, userID, timerID uuid.UUID, now time.Time) (*models.TimerSession, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := lockUser(ctx, tx, userID); err != nil {
		return nil, err
	}

	session := &models.TimerSession{}
	var ownerID uuid.UUID
	err = tx.QueryRowContext(ctx, `
		SELECT s.id, s.task_id, s.start_time, s.active, t.user_id
		FROM timer_sessions s
		JOIN tasks t ON s.task_id = t.id
		WHERE s.id = $1
		FOR UPDATE OF s
	`, timerID).Scan(&session.ID, &session.TaskID, &session.StartTime, &session.Active, &ownerID)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("timer session not found: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get timer session: %w", err)
	}
	if ownerID != userID {
		return nil, fmt.Errorf("timer session not found: %w", ErrNotFound)
	}
	if !session.Active {
		return nil, fmt.Errorf("timer session already stopped: %w", ErrConflict)
	}

	endTime := now.UTC()
	duration := roundMinutes(endTime.Sub(session.StartTime))

	if err := stopSessionTx(ctx, tx, session.ID, session.TaskID, endTime, duration); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit timer stop: %w", err)
	}

	session.EndTime = &endTime
	session.Duration = &duration
	session.Active = false
	return session, nil
}

// GetByIDForUser retrieves a timer session, scoped through its owning task
// to the requesting user.
func (r *TimerRepository) GetByIDForUser(ctx context.Context, timerID, userID uuid.UUID) (*models.TimerSession, error) {
	query := `
		SELECT s.id, s.task_id, s.start_time, s.end_time, s.duration, s.active
		FROM timer_sessions s
		JOIN tasks t ON s.task_id = t.id
		WHERE s.id = $1 AND t.user_id = $2
	`

	session, err := scanSession(r.db.QueryRowContext(ctx, query, timerID, userID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("timer session not found: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get timer session: %w", err)
	}
	return session, nil
}

// GetActiveForUser returns the user's single active session across all of
// their tasks, or nil when no timer is running.
func (r *TimerRepository) GetActiveForUser(ctx context.Context, userID uuid.UUID) (*models.TimerSession, error) {
	query := `
		SELECT s.id, s.task_id, s.start_time, s.end_time, s.duration, s.active
		FROM timer_sessions s
		JOIN tasks t ON s.task_id = t.id
		WHERE t.user_id = $1 AND s.active
	`

	session, err := scanSession(r.db.QueryRowContext(ctx, query, userID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active timer: %w", err)
	}
	return session, nil
}

// ListActive returns every active session joined with task and user context,
// for the reminder scanner.
func (r *TimerRepository) ListActive(ctx context.Context) ([]*ActiveSession, error) {
	query := `
		SELECT s.id, s.task_id, s.start_time, s.active, t.title, t.estimated_time, u.id, u.telegram_id
		FROM timer_sessions s
		JOIN tasks t ON s.task_id = t.id
		JOIN users u ON t.user_id = u.id
		WHERE s.active
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query active timers: %w", err)
	}
	defer rows.Close()

	var sessions []*ActiveSession
	for rows.Next() {
		as := &ActiveSession{}
		err := rows.Scan(
			&as.Session.ID,
			&as.Session.TaskID,
			&as.Session.StartTime,
			&as.Session.Active,
			&as.TaskTitle,
			&as.EstimatedTime,
			&as.UserID,
			&as.TelegramID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan active timer: %w", err)
		}
		sessions = append(sessions, as)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating active timers: %w", err)
	}

	return sessions, nil
}

// lockUser takes a row lock on the user, serializing timer mutations per
// user for the rest of the transaction.
func lockUser(ctx context.Context, tx *sql.Tx, userID uuid.UUID) error {
	var id uuid.UUID
	err := tx.QueryRowContext(ctx, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&id)
	if err == sql.ErrNoRows {
		return fmt.Errorf("user not found: %w", ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to lock user: %w", err)
	}
	return nil
}

// finalizeActiveSession stops the user's active session, if any, inside the
// caller's transaction. The caller must hold the user lock.
func finalizeActiveSession(ctx context.Context, tx *sql.Tx, userID uuid.UUID, now time.Time) error {
	var sessionID, taskID uuid.UUID
	var startTime time.Time
	err := tx.QueryRowContext(ctx, `
		SELECT s.id, s.task_id, s.start_time
		FROM timer_sessions s
		JOIN tasks t ON s.task_id = t.id
		WHERE t.user_id = $1 AND s.active
		FOR UPDATE OF s
	`, userID).Scan(&sessionID, &taskID, &startTime)

	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to find active session: %w", err)
	}

	endTime := now.UTC()
	return stopSessionTx(ctx, tx, sessionID, taskID, endTime, roundMinutes(endTime.Sub(startTime)))
}

// stopSessionTx applies the two writes of a stop as one unit within tx.
func stopSessionTx(ctx context.Context, tx *sql.Tx, sessionID, taskID uuid.UUID, endTime time.Time, duration int) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE timer_sessions
		SET end_time = $2, duration = $3, active = FALSE
		WHERE id = $1
	`, sessionID, endTime, duration)
	if err != nil {
		return fmt.Errorf("failed to stop timer session: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE tasks
		SET actual_time_spent = actual_time_spent + $2
		WHERE id = $1
	`, taskID, duration)
	if err != nil {
		return fmt.Errorf("failed to update task time spent: %w", err)
	}

	return nil
}

// roundMinutes rounds a duration to whole minutes, half away from zero.
// Sessions shorter than 30 seconds round to 0 and still count.
func roundMinutes(d time.Duration) int {
	return int(math.Round(d.Minutes()))
}

func scanSession(row *sql.Row) (*models.TimerSession, error) {
	session := &models.TimerSession{}
	var endTime sql.NullTime
	var duration sql.NullInt64

	err := row.Scan(
		&session.ID,
		&session.TaskID,
		&session.StartTime,
		&endTime,
		&duration,
		&session.Active,
	)
	if err != nil {
		return nil, err
	}

	if endTime.Valid {
		session.EndTime = &endTime.Time
	}
	if duration.Valid {
		d := int(duration.Int64)
		session.Duration = &d
	}

	return session, nil
}
