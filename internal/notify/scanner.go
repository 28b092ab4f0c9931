package notify

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/tempohq/tempo/internal/database"
	"github.com/tempohq/tempo/internal/queue"
)

// DefaultScanInterval is how often the scanner looks for running timers.
const DefaultScanInterval = 30 * time.Minute

// ActiveSessionLister lists all currently active timer sessions with the
// task and user context reminders need.
type ActiveSessionLister interface {
	ListActive(ctx context.Context) ([]*database.ActiveSession, error)
}

// Scanner periodically enqueues reminder notifications for every running
// timer. A timer past its task's estimate gets a time-up message instead of
// the elapsed-time reminder.
type Scanner struct {
	timers   ActiveSessionLister
	queue    queue.NotificationQueue
	interval time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

// NewScanner creates a reminder scanner. interval <= 0 selects the default.
func NewScanner(timers ActiveSessionLister, q queue.NotificationQueue, interval time.Duration, logger *zap.Logger) *Scanner {
	if interval <= 0 {
		interval = DefaultScanInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scanner{
		timers:   timers,
		queue:    q,
		interval: interval,
		logger:   logger,
		now:      time.Now,
	}
}

// Run scans on the configured interval until ctx is cancelled.
func (s *Scanner) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.Scan(ctx); err != nil {
				s.logger.Error("reminder_scan_failed", zap.Error(err))
			}
		}
	}
}

// Scan enqueues one notification per active session. Individual enqueue
// failures are logged and skipped so one bad job cannot starve the rest.
func (s *Scanner) Scan(ctx context.Context) error {
	sessions, err := s.timers.ListActive(ctx)
	if err != nil {
		return err
	}

	now := s.now().UTC()
	for _, as := range sessions {
		elapsed := as.Session.Elapsed(now)

		var job *queue.Job
		if as.EstimatedTime > 0 && elapsed >= as.EstimatedTime {
			job = queue.NewJob(queue.JobTypeTimeUp, as.UserID, as.TelegramID, TimeUpText(as.TaskTitle))
		} else {
			job = queue.NewJob(queue.JobTypeReminder, as.UserID, as.TelegramID, ReminderText(as.TaskTitle, elapsed, as.EstimatedTime))
		}

		// A reminder delivered after the next scan fires is noise.
		notAfter := now.Add(s.interval)
		job.NotAfter = &notAfter

		if err := s.queue.Enqueue(ctx, job); err != nil {
			s.logger.Warn("reminder_enqueue_failed",
				zap.String("user_id", as.UserID.String()),
				zap.Error(err),
			)
		}
	}

	s.logger.Debug("reminder_scan_done", zap.Int("active_sessions", len(sessions)))
	return nil
}
