package backend

import (
	"context"
	"errors"

	"github.com/easycollege/feedback-orchestrator/entity"
	"github.com/easycollege/feedback-orchestrator/queue"
)

// QueueBackend publishes job messages to a durable broker; independent
// worker processes consume and execute them. Survives API restarts as long
// as the broker does.
type QueueBackend struct {
	broker queue.Broker
}

func NewQueueBackend(broker queue.Broker) *QueueBackend {
	return &QueueBackend{broker: broker}
}

func (b *QueueBackend) Dispatch(ctx context.Context, msg entity.JobMessage) (*int, error) {
	if err := b.broker.Publish(ctx, msg); err != nil {
		return nil, errors.Join(entity.ErrBackendUnavailable, err)
	}
	position, err := b.broker.Position(ctx, msg.JobID)
	if err != nil {
		// The job is safely enqueued; a missing position is cosmetic.
		return nil, nil
	}
	return position, nil
}

func (b *QueueBackend) Ping(ctx context.Context) error {
	return b.broker.Ping(ctx)
}

func (b *QueueBackend) Position(ctx context.Context, jobID string) (*int, error) {
	return b.broker.Position(ctx, jobID)
}
