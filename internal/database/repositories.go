package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/tempohq/tempo/internal/models"
)

// UserRepositoryInterface defines the user operations used by the auth
// middleware and the user handlers.
type UserRepositoryInterface interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByTelegramID(ctx context.Context, telegramID string) (*models.User, error)
	GetOrCreate(ctx context.Context, telegramID string, username *string) (*models.User, error)
}

// TimerRepositoryInterface defines the timer session operations used by the
// timer engine. The interface enables mock implementations in tests.
type TimerRepositoryInterface interface {
	StartSession(ctx context.Context, userID, taskID uuid.UUID, now time.Time) (*models.TimerSession, error)
	StopSession(ctx context.Context, userID, timerID uuid.UUID, now time.Time) (*models.TimerSession, error)
	GetActiveForUser(ctx context.Context, userID uuid.UUID) (*models.TimerSession, error)
	GetByIDForUser(ctx context.Context, timerID, userID uuid.UUID) (*models.TimerSession, error)
}

// TaskRepositoryInterface defines the task operations used by the timer
// engine and the task handlers.
type TaskRepositoryInterface interface {
	Create(ctx context.Context, task *models.Task, tagIDs []uuid.UUID) error
	GetByIDForUser(ctx context.Context, id, userID uuid.UUID) (*models.Task, error)
	List(ctx context.Context, userID uuid.UUID, filter models.TaskFilter) ([]*models.Task, error)
	Update(ctx context.Context, task *models.Task, tagIDs []uuid.UUID) error
	Delete(ctx context.Context, id, userID uuid.UUID) error
}

// TagRepositoryInterface defines the tag operations used by the tag
// handlers.
type TagRepositoryInterface interface {
	Create(ctx context.Context, tag *models.Tag) error
	GetByIDForUser(ctx context.Context, id, userID uuid.UUID) (*models.Tag, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Tag, error)
	Update(ctx context.Context, tag *models.Tag) error
	Delete(ctx context.Context, id, userID uuid.UUID) error
}

// StatsRepositoryInterface defines the aggregation queries used by the
// statistics aggregator.
type StatsRepositoryInterface interface {
	TimeSpentInWindow(ctx context.Context, userID uuid.UUID, from, to time.Time) (int, error)
	CompletedTasksInWindow(ctx context.Context, userID uuid.UUID, from, to time.Time) (int, error)
	OpenTasksCreatedInWindow(ctx context.Context, userID uuid.UUID, from, to time.Time) (int, error)
	TagStats(ctx context.Context, userID uuid.UUID, tagIDs []uuid.UUID, cutoff time.Time) ([]models.TagStats, error)
}

// Ensure concrete types implement the interfaces
var (
	_ UserRepositoryInterface  = (*UserRepository)(nil)
	_ TimerRepositoryInterface = (*TimerRepository)(nil)
	_ TaskRepositoryInterface  = (*TaskRepository)(nil)
	_ TagRepositoryInterface   = (*TagRepository)(nil)
	_ StatsRepositoryInterface = (*StatsRepository)(nil)
)
