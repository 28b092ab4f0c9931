package handlers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/tempohq/tempo/internal/database"
	"github.com/tempohq/tempo/internal/models"
	"github.com/tempohq/tempo/internal/queue"
	"github.com/tempohq/tempo/internal/request"
)

type mockUserRepo struct {
	getByIDFunc     func(ctx context.Context, id uuid.UUID) (*models.User, error)
	getOrCreateFunc func(ctx context.Context, telegramID string, username *string) (*models.User, error)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, database.ErrNotFound
}

func (m *mockUserRepo) GetByTelegramID(context.Context, string) (*models.User, error) {
	return nil, database.ErrNotFound
}

func (m *mockUserRepo) GetOrCreate(ctx context.Context, telegramID string, username *string) (*models.User, error) {
	return m.getOrCreateFunc(ctx, telegramID, username)
}

type mockTaskRepo struct {
	createFunc         func(ctx context.Context, task *models.Task, tagIDs []uuid.UUID) error
	getByIDForUserFunc func(ctx context.Context, id, userID uuid.UUID) (*models.Task, error)
	listFunc           func(ctx context.Context, userID uuid.UUID, filter models.TaskFilter) ([]*models.Task, error)
	updateFunc         func(ctx context.Context, task *models.Task, tagIDs []uuid.UUID) error
	deleteFunc         func(ctx context.Context, id, userID uuid.UUID) error
}

func (m *mockTaskRepo) Create(ctx context.Context, task *models.Task, tagIDs []uuid.UUID) error {
	return m.createFunc(ctx, task, tagIDs)
}

func (m *mockTaskRepo) GetByIDForUser(ctx context.Context, id, userID uuid.UUID) (*models.Task, error) {
	return m.getByIDForUserFunc(ctx, id, userID)
}

func (m *mockTaskRepo) List(ctx context.Context, userID uuid.UUID, filter models.TaskFilter) ([]*models.Task, error) {
	return m.listFunc(ctx, userID, filter)
}

func (m *mockTaskRepo) Update(ctx context.Context, task *models.Task, tagIDs []uuid.UUID) error {
	return m.updateFunc(ctx, task, tagIDs)
}

func (m *mockTaskRepo) Delete(ctx context.Context, id, userID uuid.UUID) error {
	return m.deleteFunc(ctx, id, userID)
}

type mockTagRepo struct {
	createFunc         func(ctx context.Context, tag *models.Tag) error
	getByIDForUserFunc func(ctx context.Context, id, userID uuid.UUID) (*models.Tag, error)
	listByUserFunc     func(ctx context.Context, userID uuid.UUID) ([]*models.Tag, error)
	updateFunc         func(ctx context.Context, tag *models.Tag) error
	deleteFunc         func(ctx context.Context, id, userID uuid.UUID) error
}

func (m *mockTagRepo) Create(ctx context.Context, tag *models.Tag) error {
	return m.createFunc(ctx, tag)
}

func (m *mockTagRepo) GetByIDForUser(ctx context.Context, id, userID uuid.UUID) (*models.Tag, error) {
	return m.getByIDForUserFunc(ctx, id, userID)
}

func (m *mockTagRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Tag, error) {
	return m.listByUserFunc(ctx, userID)
}

func (m *mockTagRepo) Update(ctx context.Context, tag *models.Tag) error {
	return m.updateFunc(ctx, tag)
}

func (m *mockTagRepo) Delete(ctx context.Context, id, userID uuid.UUID) error {
	return m.deleteFunc(ctx, id, userID)
}

type mockTimerRepo struct {
	startSessionFunc     func(ctx context.Context, userID, taskID uuid.UUID, now time.Time) (*models.TimerSession, error)
	stopSessionFunc      func(ctx context.Context, userID, timerID uuid.UUID, now time.Time) (*models.TimerSession, error)
	getActiveForUserFunc func(ctx context.Context, userID uuid.UUID) (*models.TimerSession, error)
	getByIDForUserFunc   func(ctx context.Context, timerID, userID uuid.UUID) (*models.TimerSession, error)
}

func (m *mockTimerRepo) StartSession(ctx context.Context, userID, taskID uuid.UUID, now time.Time) (*models.TimerSession, error) {
	return m.startSessionFunc(ctx, userID, taskID, now)
}

func (m *mockTimerRepo) StopSession(ctx context.Context, userID, timerID uuid.UUID, now time.Time) (*models.TimerSession, error) {
	return m.stopSessionFunc(ctx, userID, timerID, now)
}

func (m *mockTimerRepo) GetActiveForUser(ctx context.Context, userID uuid.UUID) (*models.TimerSession, error) {
	return m.getActiveForUserFunc(ctx, userID)
}

func (m *mockTimerRepo) GetByIDForUser(ctx context.Context, timerID, userID uuid.UUID) (*models.TimerSession, error) {
	return m.getByIDForUserFunc(ctx, timerID, userID)
}

type mockStatsRepo struct {
	timeSpentFunc func(ctx context.Context, userID uuid.UUID, from, to time.Time) (int, error)
	completedFunc func(ctx context.Context, userID uuid.UUID, from, to time.Time) (int, error)
	openTasksFunc func(ctx context.Context, userID uuid.UUID, from, to time.Time) (int, error)
	tagStatsFunc  func(ctx context.Context, userID uuid.UUID, tagIDs []uuid.UUID, cutoff time.Time) ([]models.TagStats, error)
}

func (m *mockStatsRepo) TimeSpentInWindow(ctx context.Context, userID uuid.UUID, from, to time.Time) (int, error) {
	if m.timeSpentFunc != nil {
		return m.timeSpentFunc(ctx, userID, from, to)
	}
	return 0, nil
}

func (m *mockStatsRepo) CompletedTasksInWindow(ctx context.Context, userID uuid.UUID, from, to time.Time) (int, error) {
	if m.completedFunc != nil {
		return m.completedFunc(ctx, userID, from, to)
	}
	return 0, nil
}

func (m *mockStatsRepo) OpenTasksCreatedInWindow(ctx context.Context, userID uuid.UUID, from, to time.Time) (int, error) {
	if m.openTasksFunc != nil {
		return m.openTasksFunc(ctx, userID, from, to)
	}
	return 0, nil
}

func (m *mockStatsRepo) TagStats(ctx context.Context, userID uuid.UUID, tagIDs []uuid.UUID, cutoff time.Time) ([]models.TagStats, error) {
	if m.tagStatsFunc != nil {
		return m.tagStatsFunc(ctx, userID, tagIDs, cutoff)
	}
	return nil, nil
}

type mockNotificationQueue struct {
	enqueueFunc func(ctx context.Context, job *queue.Job) error
}

var _ queue.NotificationQueue = (*mockNotificationQueue)(nil)

func (m *mockNotificationQueue) Enqueue(ctx context.Context, job *queue.Job) error {
	if m.enqueueFunc != nil {
		return m.enqueueFunc(ctx, job)
	}
	return nil
}

func (m *mockNotificationQueue) Consume(context.Context, int) (<-chan *queue.Message, <-chan error, error) {
	return nil, nil, nil
}

func (m *mockNotificationQueue) Close() error { return nil }

func (m *mockNotificationQueue) HealthCheck(context.Context) error { return nil }

// mustTime parses an RFC3339 timestamp or fails the test.
func mustTime(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("failed to parse time %q: %v", value, err)
	}
	return parsed
}

// testUser returns a user for authenticated handler tests.
func testUser() *models.User {
	return &models.User{ID: uuid.New(), TelegramID: "123456"}
}

// asUser attaches the user to the request context the way the auth
// middleware does.
func asUser(r *http.Request, user *models.User) *http.Request {
	return r.WithContext(request.WithUser(r.Context(), user))
}
