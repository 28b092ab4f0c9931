// Package timer implements the timer engine: starting, stopping and
// inspecting timer sessions on behalf of a single user, with the
// single-active-timer invariant delegated to the database layer's
// transactional session operations.
package timer

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tempohq/tempo/internal/database"
	"github.com/tempohq/tempo/internal/models"
	"github.com/tempohq/tempo/internal/notify"
	"github.com/tempohq/tempo/internal/queue"
)

// Engine coordinates timer session state changes and the notifications they
// trigger. All operations take an explicit user id; the engine never
// assumes a default user.
type Engine struct {
	timers database.TimerRepositoryInterface
	tasks  database.TaskRepositoryInterface
	users  database.UserRepositoryInterface
	queue  queue.NotificationQueue
	logger *zap.Logger
	now    func() time.Time
}

// NewEngine creates a timer engine. q may be nil, in which case stop-time
// notifications are skipped entirely.
func NewEngine(
	timers database.TimerRepositoryInterface,
	tasks database.TaskRepositoryInterface,
	users database.UserRepositoryInterface,
	q queue.NotificationQueue,
	logger *zap.Logger,
) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		timers: timers,
		tasks:  tasks,
		users:  users,
		queue:  q,
		logger: logger,
		now:    time.Now,
	}
}

// StartTimer starts a timer session on the given task. If the user already
// has an active session on any task it is stopped first, in the same
// transaction, so at most one session per user is ever active. Returns
// database.ErrNotFound when the task does not exist or belongs to another
// user; the two cases are deliberately indistinguishable.
func (e *Engine) StartTimer(ctx context.Context, userID, taskID uuid.UUID) (*models.TimerSession, error) {
	return e.timers.StartSession(ctx, userID, taskID, e.now().UTC())
}

// StopTimer stops the given session, fixing its end time and duration and
// crediting the duration to the task's actual_time_spent in one
// transaction. Stopping an already-stopped session returns
// database.ErrConflict; a session on another user's task returns
// database.ErrNotFound.
//
// When the task's accumulated time reaches its estimate a time-up
// notification is enqueued. Enqueue failures are logged and never surfaced
// to the caller: notification delivery is best-effort and must not affect
// timer state.
func (e *Engine) StopTimer(ctx context.Context, userID, timerID uuid.UUID) (*models.TimerSession, error) {
	session, err := e.timers.StopSession(ctx, userID, timerID, e.now().UTC())
	if err != nil {
		return nil, err
	}

	e.maybeNotifyTimeUp(ctx, userID, session)

	return session, nil
}

// GetActiveTimer returns the user's active session, or (nil, nil) when no
// timer is running.
func (e *Engine) GetActiveTimer(ctx context.Context, userID uuid.UUID) (*models.TimerSession, error) {
	return e.timers.GetActiveForUser(ctx, userID)
}

// PauseTimer returns the session unchanged. Pause has never mutated state;
// the endpoint exists so clients can poll a session they consider paused.
func (e *Engine) PauseTimer(ctx context.Context, userID, timerID uuid.UUID) (*models.TimerSession, error) {
	return e.timers.GetByIDForUser(ctx, timerID, userID)
}

func (e *Engine) maybeNotifyTimeUp(ctx context.Context, userID uuid.UUID, session *models.TimerSession) {
	if e.queue == nil {
		return
	}

	task, err := e.tasks.GetByIDForUser(ctx, session.TaskID, userID)
	if err != nil {
		e.logger.Warn("time_up_check_failed", zap.String("task_id", session.TaskID.String()), zap.Error(err))
		return
	}
	if task.EstimatedTime <= 0 || task.ActualTimeSpent < task.EstimatedTime {
		return
	}

	user, err := e.users.GetByID(ctx, userID)
	if err != nil {
		e.logger.Warn("time_up_user_lookup_failed", zap.String("user_id", userID.String()), zap.Error(err))
		return
	}

	job := queue.NewJob(queue.JobTypeTimeUp, userID, user.TelegramID, notify.TimeUpText(task.Title))
	if err := e.queue.Enqueue(ctx, job); err != nil {
		e.logger.Warn("time_up_enqueue_failed", zap.String("job_id", job.ID.String()), zap.Error(err))
	}
}
