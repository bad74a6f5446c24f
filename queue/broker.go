// Package queue abstracts the persistent broker that carries job messages
// from the API process to worker processes.
package queue

import (
	"context"

	"github.com/easycollege/feedback-orchestrator/entity"
)

// Delivery is one job message handed to a consumer. Ack and Nack settle the
// message with the broker; for brokers without settlement they are no-ops.
type Delivery struct {
	Message entity.JobMessage
	Ack     func() error
	Nack    func(requeue bool) error
}

// Broker is a durable job queue. Publish must not block beyond the broker
// round-trip; Consume delivers messages until ctx is cancelled.
type Broker interface {
	Publish(ctx context.Context, msg entity.JobMessage) error
	Consume(ctx context.Context) (<-chan Delivery, error)

	// Position reports the 1-based queue position of a pending job, or nil
	// when the broker cannot tell.
	Position(ctx context.Context, jobID string) (*int, error)

	Ping(ctx context.Context) error
}

func noopAck() error      { return nil }
func noopNack(bool) error { return nil }
