package queue

import "fmt"

// Acknowledger is the subset of the AMQP channel used to settle deliveries.
// *amqp.Channel satisfies it.
type Acknowledger interface {
	Ack(tag uint64, multiple bool) error
	Nack(tag uint64, multiple bool, requeue bool) error
}

// Message wraps a job with its delivery metadata for explicit ack/nack
type Message struct {
	Job         *Job
	DeliveryTag uint64
	Channel     Acknowledger
}

// Ack acknowledges successful processing of the message
func (m *Message) Ack() error {
	if m.Channel == nil {
		return fmt.Errorf("no channel associated with message")
	}
	if err := m.Channel.Ack(m.DeliveryTag, false); err != nil {
		return fmt.Errorf("failed to ack message: %w", err)
	}
	return nil
}

// Nack rejects the message; requeue=false routes it to the DLQ
func (m *Message) Nack(requeue bool) error {
	if m.Channel == nil {
		return fmt.Errorf("no channel associated with message")
	}
	if err := m.Channel.Nack(m.DeliveryTag, false, requeue); err != nil {
		return fmt.Errorf("failed to nack message: %w", err)
	}
	return nil
}
