package workers

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/tempohq/tempo/internal/queue"
)

type mockSender struct {
	sendFunc func(ctx context.Context, chatID, text string) error
	sent     []string
}

func (m *mockSender) Send(ctx context.Context, chatID, text string) error {
	m.sent = append(m.sent, text)
	if m.sendFunc != nil {
		return m.sendFunc(ctx, chatID, text)
	}
	return nil
}

type mockQueue struct {
	enqueued []*queue.Job
}

func (m *mockQueue) Enqueue(_ context.Context, job *queue.Job) error {
	m.enqueued = append(m.enqueued, job)
	return nil
}

func (m *mockQueue) Consume(context.Context, int) (<-chan *queue.Message, <-chan error, error) {
	return nil, nil, errors.New("not implemented")
}

func (m *mockQueue) Close() error { return nil }

func (m *mockQueue) HealthCheck(context.Context) error { return nil }

type mockAcknowledger struct {
	acked   bool
	nacked  bool
	requeue bool
}

func (m *mockAcknowledger) Ack(uint64, bool) error {
	m.acked = true
	return nil
}

func (m *mockAcknowledger) Nack(_ uint64, _ bool, requeue bool) error {
	m.nacked = true
	m.requeue = requeue
	return nil
}

func newTestMessage() (*queue.Message, *mockAcknowledger) {
	ack := &mockAcknowledger{}
	job := queue.NewJob(queue.JobTypeCompletion, uuid.New(), "42", "🎉 Great job!")
	return &queue.Message{Job: job, DeliveryTag: 1, Channel: ack}, ack
}

func TestDelivererAcksOnSuccess(t *testing.T) {
	t.Parallel()

	sender := &mockSender{}
	q := &mockQueue{}
	d := NewDeliverer(q, sender, 1, nil)

	msg, ack := newTestMessage()
	d.process(context.Background(), msg)

	if len(sender.sent) != 1 {
		t.Fatalf("expected 1 send, got %d", len(sender.sent))
	}
	if !ack.acked {
		t.Error("expected message to be acked")
	}
	if ack.nacked {
		t.Error("did not expect a nack")
	}
	if len(q.enqueued) != 0 {
		t.Errorf("did not expect a retry enqueue, got %d", len(q.enqueued))
	}
}

func TestDelivererRetriesOnFailure(t *testing.T) {
	t.Parallel()

	sender := &mockSender{
		sendFunc: func(context.Context, string, string) error {
			return errors.New("telegram unavailable")
		},
	}
	q := &mockQueue{}
	d := NewDeliverer(q, sender, 1, nil)

	msg, ack := newTestMessage()
	d.process(context.Background(), msg)

	if len(q.enqueued) != 1 {
		t.Fatalf("expected 1 retry enqueue, got %d", len(q.enqueued))
	}
	if q.enqueued[0].RetryCount != 1 {
		t.Errorf("expected retry count 1, got %d", q.enqueued[0].RetryCount)
	}
	// The original delivery is settled; the retry lives in the new message.
	if !ack.acked {
		t.Error("expected original message to be acked after re-enqueue")
	}
}

func TestDelivererDeadLettersWhenExhausted(t *testing.T) {
	t.Parallel()

	sender := &mockSender{
		sendFunc: func(context.Context, string, string) error {
			return errors.New("telegram unavailable")
		},
	}
	q := &mockQueue{}
	d := NewDeliverer(q, sender, 1, nil)

	msg, ack := newTestMessage()
	msg.Job.RetryCount = msg.Job.MaxRetries
	d.process(context.Background(), msg)

	if len(q.enqueued) != 0 {
		t.Errorf("did not expect a retry enqueue, got %d", len(q.enqueued))
	}
	if !ack.nacked || ack.requeue {
		t.Errorf("expected dead-letter nack (requeue=false), got nacked=%v requeue=%v", ack.nacked, ack.requeue)
	}
}
