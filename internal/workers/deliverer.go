// Package workers contains the background job processors run by the
// notifier binary.
package workers

import (
	"context"

	"go.uber.org/zap"

	"github.com/tempohq/tempo/internal/notify"
	"github.com/tempohq/tempo/internal/queue"
)

// Deliverer consumes notification jobs and delivers them to users.
type Deliverer struct {
	queue    queue.NotificationQueue
	sender   notify.Sender
	prefetch int
	logger   *zap.Logger
}

// NewDeliverer creates a notification deliverer. prefetch <= 0 defaults to 1,
// which gives fair dispatch across notifier instances.
func NewDeliverer(q queue.NotificationQueue, sender notify.Sender, prefetch int, logger *zap.Logger) *Deliverer {
	if prefetch <= 0 {
		prefetch = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Deliverer{
		queue:    q,
		sender:   sender,
		prefetch: prefetch,
		logger:   logger,
	}
}

// Run consumes jobs until ctx is cancelled or the consumer fails.
func (d *Deliverer) Run(ctx context.Context) error {
	msgs, errs, err := d.queue.Consume(ctx, d.prefetch)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err, ok := <-errs:
			if ok && err != nil {
				d.logger.Error("consumer_error", zap.Error(err))
			}
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			d.process(ctx, msg)
		}
	}
}

// process delivers one job. Failed jobs are re-enqueued with an incremented
// retry count until MaxRetries, then dead-lettered.
func (d *Deliverer) process(ctx context.Context, msg *queue.Message) {
	job := msg.Job

	if err := d.sender.Send(ctx, job.ChatID, job.Text); err != nil {
		d.logger.Warn("delivery_failed",
			zap.String("job_id", job.ID.String()),
			zap.String("job_type", string(job.Type)),
			zap.Int("retry_count", job.RetryCount),
			zap.Error(err),
		)

		if !job.CanRetry() {
			// Exhausted: dead-letter for the GC to purge eventually.
			if nackErr := msg.Nack(false); nackErr != nil {
				d.logger.Error("nack_failed", zap.String("job_id", job.ID.String()), zap.Error(nackErr))
			}
			return
		}

		job.IncrementRetry()
		if enqErr := d.queue.Enqueue(ctx, job); enqErr != nil {
			// Could not re-enqueue; requeue the original delivery instead.
			d.logger.Error("retry_enqueue_failed", zap.String("job_id", job.ID.String()), zap.Error(enqErr))
			if nackErr := msg.Nack(true); nackErr != nil {
				d.logger.Error("nack_failed", zap.String("job_id", job.ID.String()), zap.Error(nackErr))
			}
			return
		}
		if ackErr := msg.Ack(); ackErr != nil {
			d.logger.Error("ack_failed", zap.String("job_id", job.ID.String()), zap.Error(ackErr))
		}
		return
	}

	d.logger.Info("notification_delivered",
		zap.String("job_id", job.ID.String()),
		zap.String("job_type", string(job.Type)),
		zap.String("user_id", job.UserID.String()),
	)
	if err := msg.Ack(); err != nil {
		d.logger.Error("ack_failed", zap.String("job_id", job.ID.String()), zap.Error(err))
	}
}
