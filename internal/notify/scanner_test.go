package notify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/tempohq/tempo/internal/database"
	"github.com/tempohq/tempo/internal/models"
	"github.com/tempohq/tempo/internal/queue"
)

type mockLister struct {
	sessions []*database.ActiveSession
	err      error
}

func (m *mockLister) ListActive(context.Context) ([]*database.ActiveSession, error) {
	return m.sessions, m.err
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

func activeSession(start time.Time, title string, estimated int) *database.ActiveSession {
	return &database.ActiveSession{
		Session: models.TimerSession{
			ID:        uuid.New(),
			TaskID:    uuid.New(),
			StartTime: start,
			Active:    true,
		},
		TaskTitle:     title,
		EstimatedTime: estimated,
		UserID:        uuid.New(),
		TelegramID:    "42",
	}
}

func TestScanEnqueuesReminder(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	lister := &mockLister{
		sessions: []*database.ActiveSession{
			activeSession(now.Add(-45*time.Minute), "write report", 60),
		},
	}
	q := &mockQueue{}

	s := NewScanner(lister, q, 30*time.Minute, nil)
	s.now = func() time.Time { return now }

	if err := s.Scan(context.Background()); err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	if len(q.jobs) != 1 {
		t.Fatalf("expected 1 job, got %d", len(q.jobs))
	}
	job := q.jobs[0]
	if job.Type != queue.JobTypeReminder {
		t.Errorf("expected reminder job, got %q", job.Type)
	}
	if !strings.Contains(job.Text, "45 minutes") {
		t.Errorf("expected elapsed minutes in text, got %q", job.Text)
	}
	if job.NotAfter == nil || !job.NotAfter.Equal(now.Add(30*time.Minute)) {
		t.Errorf("expected NotAfter at next scan, got %v", job.NotAfter)
	}
}

func TestScanEnqueuesTimeUpPastEstimate(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	lister := &mockLister{
		sessions: []*database.ActiveSession{
			activeSession(now.Add(-90*time.Minute), "write report", 60),
		},
	}
	q := &mockQueue{}

	s := NewScanner(lister, q, 30*time.Minute, nil)
	s.now = func() time.Time { return now }

	if err := s.Scan(context.Background()); err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	if len(q.jobs) != 1 {
		t.Fatalf("expected 1 job, got %d", len(q.jobs))
	}
	if q.jobs[0].Type != queue.JobTypeTimeUp {
		t.Errorf("expected time-up job past estimate, got %q", q.jobs[0].Type)
	}
}

func TestScanContinuesPastEnqueueFailure(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	lister := &mockLister{
		sessions: []*database.ActiveSession{
			activeSession(now.Add(-10*time.Minute), "first", 60),
			activeSession(now.Add(-20*time.Minute), "second", 60),
		},
	}
	q := &mockQueue{
		enqueueFunc: func(_ context.Context, job *queue.Job) error {
			if strings.Contains(job.Text, "first") {
				return errors.New("broker unavailable")
			}
			return nil
		},
	}

	s := NewScanner(lister, q, 0, nil)
	s.now = func() time.Time { return now }

	if err := s.Scan(context.Background()); err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(q.jobs) != 2 {
		t.Errorf("expected both sessions attempted, got %d", len(q.jobs))
	}
}

func TestScanPropagatesListError(t *testing.T) {
	t.Parallel()

	listErr := errors.New("connection refused")
	s := NewScanner(&mockLister{err: listErr}, &mockQueue{}, 0, nil)

	if err := s.Scan(context.Background()); !errors.Is(err, listErr) {
		t.Errorf("expected %v, got %v", listErr, err)
	}
}
