package timer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/tempohq/tempo/internal/database"
	"github.com/tempohq/tempo/internal/models"
	"github.com/tempohq/tempo/internal/queue"
)

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

type mockTaskRepo struct {
	getByIDForUserFunc func(ctx context.Context, id, userID uuid.UUID) (*models.Task, error)
}

func (m *mockTaskRepo) Create(context.Context, *models.Task, []uuid.UUID) error { return nil }

func (m *mockTaskRepo) GetByIDForUser(ctx context.Context, id, userID uuid.UUID) (*models.Task, error) {
	return m.getByIDForUserFunc(ctx, id, userID)
}

func (m *mockTaskRepo) List(context.Context, uuid.UUID, models.TaskFilter) ([]*models.Task, error) {
	return nil, nil
}

func (m *mockTaskRepo) Update(context.Context, *models.Task, []uuid.UUID) error { return nil }

func (m *mockTaskRepo) Delete(context.Context, uuid.UUID, uuid.UUID) error { return nil }

type mockUserRepo struct {
	getByIDFunc func(ctx context.Context, id uuid.UUID) (*models.User, error)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return m.getByIDFunc(ctx, id)
}

func (m *mockUserRepo) GetByTelegramID(context.Context, string) (*models.User, error) {
	return nil, database.ErrNotFound
}

func (m *mockUserRepo) GetOrCreate(context.Context, string, *string) (*models.User, error) {
	return nil, errors.New("not implemented")
}

type mockQueue struct {
	enqueueFunc func(ctx context.Context, job *queue.Job) error
	jobs        []*queue.Job
}

func (m *mockQueue) Enqueue(ctx context.Context, job *queue.Job) error {
	m.jobs = append(m.jobs, job)
	if m.enqueueFunc != nil {
		return m.enqueueFunc(ctx, job)
	}
	return nil
}

func (m *mockQueue) Consume(context.Context, int) (<-chan *queue.Message, <-chan error, error) {
	return nil, nil, errors.New("not implemented")
}

func (m *mockQueue) Close() error { return nil }

func (m *mockQueue) HealthCheck(context.Context) error { return nil }

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestStartTimerPassesUTCNow(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	taskID := uuid.New()
	loc := time.FixedZone("UTC+5", 5*3600)
	localNow := time.Date(2025, 3, 10, 14, 30, 0, 0, loc)

	var gotNow time.Time
	timers := &mockTimerRepo{
		startSessionFunc: func(_ context.Context, gotUser, gotTask uuid.UUID, now time.Time) (*models.TimerSession, error) {
			if gotUser != userID || gotTask != taskID {
				t.Errorf("unexpected ids: user %v task %v", gotUser, gotTask)
			}
			gotNow = now
			return &models.TimerSession{ID: uuid.New(), TaskID: gotTask, StartTime: now, Active: true}, nil
		},
	}

	e := NewEngine(timers, &mockTaskRepo{}, &mockUserRepo{}, nil, nil)
	e.now = fixedClock(localNow)

	session, err := e.StartTimer(context.Background(), userID, taskID)
	if err != nil {
		t.Fatalf("StartTimer() error = %v", err)
	}
	if !session.Active {
		t.Error("expected started session to be active")
	}
	if gotNow.Location() != time.UTC {
		t.Errorf("expected UTC clock time, got zone %v", gotNow.Location())
	}
	if !gotNow.Equal(localNow) {
		t.Errorf("expected instant %v, got %v", localNow, gotNow)
	}
}

func TestStartTimerNotFoundPropagates(t *testing.T) {
	t.Parallel()

	timers := &mockTimerRepo{
		startSessionFunc: func(context.Context, uuid.UUID, uuid.UUID, time.Time) (*models.TimerSession, error) {
			return nil, database.ErrNotFound
		},
	}

	e := NewEngine(timers, &mockTaskRepo{}, &mockUserRepo{}, nil, nil)

	_, err := e.StartTimer(context.Background(), uuid.New(), uuid.New())
	if !errors.Is(err, database.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStopTimerReturnsFinalizedSession(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	timerID := uuid.New()
	end := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	duration := 25

	timers := &mockTimerRepo{
		stopSessionFunc: func(_ context.Context, _, gotTimer uuid.UUID, now time.Time) (*models.TimerSession, error) {
			if gotTimer != timerID {
				t.Errorf("expected timer id %v, got %v", timerID, gotTimer)
			}
			return &models.TimerSession{
				ID:        gotTimer,
				TaskID:    uuid.New(),
				StartTime: now.Add(-25 * time.Minute),
				EndTime:   &end,
				Duration:  &duration,
				Active:    false,
			}, nil
		},
	}
	tasks := &mockTaskRepo{
		getByIDForUserFunc: func(_ context.Context, id, _ uuid.UUID) (*models.Task, error) {
			return &models.Task{ID: id, Title: "write report", EstimatedTime: 60, ActualTimeSpent: 25}, nil
		},
	}
	q := &mockQueue{}

	e := NewEngine(timers, tasks, &mockUserRepo{}, q, nil)

	session, err := e.StopTimer(context.Background(), userID, timerID)
	if err != nil {
		t.Fatalf("StopTimer() error = %v", err)
	}
	if session.Active {
		t.Error("expected stopped session to be inactive")
	}
	if session.Duration == nil || *session.Duration != 25 {
		t.Errorf("expected duration 25, got %v", session.Duration)
	}
	if len(q.jobs) != 0 {
		t.Errorf("expected no notification while under estimate, got %d jobs", len(q.jobs))
	}
}

func TestStopTimerDoubleStopConflicts(t *testing.T) {
	t.Parallel()

	timers := &mockTimerRepo{
		stopSessionFunc: func(context.Context, uuid.UUID, uuid.UUID, time.Time) (*models.TimerSession, error) {
			return nil, database.ErrConflict
		},
	}

	e := NewEngine(timers, &mockTaskRepo{}, &mockUserRepo{}, nil, nil)

	_, err := e.StopTimer(context.Background(), uuid.New(), uuid.New())
	if !errors.Is(err, database.ErrConflict) {
		t.Errorf("expected ErrConflict, got %v", err)
	}
}

func TestStopTimerEnqueuesTimeUp(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	duration := 40

	timers := &mockTimerRepo{
		stopSessionFunc: func(_ context.Context, _, timerID uuid.UUID, now time.Time) (*models.TimerSession, error) {
			end := now
			return &models.TimerSession{ID: timerID, TaskID: uuid.New(), EndTime: &end, Duration: &duration}, nil
		},
	}
	tasks := &mockTaskRepo{
		getByIDForUserFunc: func(_ context.Context, id, _ uuid.UUID) (*models.Task, error) {
			return &models.Task{ID: id, Title: "write report", EstimatedTime: 60, ActualTimeSpent: 65}, nil
		},
	}
	users := &mockUserRepo{
		getByIDFunc: func(_ context.Context, id uuid.UUID) (*models.User, error) {
			return &models.User{ID: id, TelegramID: "42"}, nil
		},
	}
	q := &mockQueue{}

	e := NewEngine(timers, tasks, users, q, nil)

	if _, err := e.StopTimer(context.Background(), userID, uuid.New()); err != nil {
		t.Fatalf("StopTimer() error = %v", err)
	}

	if len(q.jobs) != 1 {
		t.Fatalf("expected 1 notification job, got %d", len(q.jobs))
	}
	job := q.jobs[0]
	if job.Type != queue.JobTypeTimeUp {
		t.Errorf("expected job type %q, got %q", queue.JobTypeTimeUp, job.Type)
	}
	if job.ChatID != "42" {
		t.Errorf("expected chat id %q, got %q", "42", job.ChatID)
	}
	if job.UserID != userID {
		t.Errorf("expected user id %v, got %v", userID, job.UserID)
	}
}

func TestStopTimerEnqueueFailureDoesNotFailStop(t *testing.T) {
	t.Parallel()

	duration := 90
	timers := &mockTimerRepo{
		stopSessionFunc: func(_ context.Context, _, timerID uuid.UUID, now time.Time) (*models.TimerSession, error) {
			end := now
			return &models.TimerSession{ID: timerID, TaskID: uuid.New(), EndTime: &end, Duration: &duration}, nil
		},
	}
	tasks := &mockTaskRepo{
		getByIDForUserFunc: func(_ context.Context, id, _ uuid.UUID) (*models.Task, error) {
			return &models.Task{ID: id, Title: "deep work", EstimatedTime: 60, ActualTimeSpent: 90}, nil
		},
	}
	users := &mockUserRepo{
		getByIDFunc: func(_ context.Context, id uuid.UUID) (*models.User, error) {
			return &models.User{ID: id, TelegramID: "42"}, nil
		},
	}
	q := &mockQueue{
		enqueueFunc: func(context.Context, *queue.Job) error {
			return errors.New("broker unavailable")
		},
	}

	e := NewEngine(timers, tasks, users, q, nil)

	session, err := e.StopTimer(context.Background(), uuid.New(), uuid.New())
	if err != nil {
		t.Fatalf("StopTimer() error = %v", err)
	}
	if session == nil {
		t.Fatal("expected finalized session despite enqueue failure")
	}
}

func TestGetActiveTimerNone(t *testing.T) {
	t.Parallel()

	timers := &mockTimerRepo{
		getActiveForUserFunc: func(context.Context, uuid.UUID) (*models.TimerSession, error) {
			return nil, nil
		},
	}

	e := NewEngine(timers, &mockTaskRepo{}, &mockUserRepo{}, nil, nil)

	session, err := e.GetActiveTimer(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("GetActiveTimer() error = %v", err)
	}
	if session != nil {
		t.Errorf("expected nil session, got %+v", session)
	}
}

func TestPauseTimerIsReadOnly(t *testing.T) {
	t.Parallel()

	timerID := uuid.New()
	stopCalled := false

	timers := &mockTimerRepo{
		stopSessionFunc: func(context.Context, uuid.UUID, uuid.UUID, time.Time) (*models.TimerSession, error) {
			stopCalled = true
			return nil, errors.New("must not be called")
		},
		getByIDForUserFunc: func(_ context.Context, gotTimer, _ uuid.UUID) (*models.TimerSession, error) {
			return &models.TimerSession{ID: gotTimer, Active: true}, nil
		},
	}

	e := NewEngine(timers, &mockTaskRepo{}, &mockUserRepo{}, nil, nil)

	session, err := e.PauseTimer(context.Background(), uuid.New(), timerID)
	if err != nil {
		t.Fatalf("PauseTimer() error = %v", err)
	}
	if !session.Active {
		t.Error("expected session to remain active after pause")
	}
	if stopCalled {
		t.Error("pause must not stop the session")
	}
}
