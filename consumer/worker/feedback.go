package worker

import (
	"context"
	"time"

	"github.com/easycollege/feedback-orchestrator/backend"
	"github.com/easycollege/feedback-orchestrator/infra"
	"github.com/easycollege/feedback-orchestrator/metrics"
	"github.com/easycollege/feedback-orchestrator/queue"
	"github.com/easycollege/feedback-orchestrator/utils"
)

// FeedbackConsumer pulls job messages off the broker and executes them.
// Each message runs to a terminal state exactly once: failures are recorded
// in the status store and the message is settled, never redelivered.
type FeedbackConsumer struct {
	broker   queue.Broker
	executor *backend.Executor
	infra    *infra.Infra
}

func NewFeedbackConsumer(broker queue.Broker, executor *backend.Executor, infra *infra.Infra) *FeedbackConsumer {
	return &FeedbackConsumer{
		broker:   broker,
		executor: executor,
		infra:    infra,
	}
}

func (c *FeedbackConsumer) Start(ctx context.Context) error {
	deliveries, err := c.broker.Consume(ctx)
	if err != nil {
		return err
	}

	c.infra.Logger.InfoWithContextf(ctx, "[Feedback Consumer] Started listening for feedback jobs")

	go func() {
		for {
			select {
			case <-ctx.Done():
				c.infra.Logger.InfoWithContextf(ctx, "[Feedback Consumer] Shutting down...")
				return
			case delivery, ok := <-deliveries:
				if !ok {
					c.infra.Logger.WarningWithContextf(ctx, "[Feedback Consumer] Delivery channel closed")
					return
				}
				c.handle(ctx, delivery)
			}
		}
	}()

	return nil
}

func (c *FeedbackConsumer) handle(ctx context.Context, delivery queue.Delivery) {
	msg := delivery.Message
	c.infra.Logger.InfoWithContextf(ctx, "[Feedback Consumer] Received job %s (%s) for %s",
		msg.JobID, msg.Kind, utils.MaskRollNo(msg.Credentials.RollNo))

	start := time.Now()
	err := c.executor.Execute(ctx, msg)
	metrics.JobDuration.Observe(time.Since(start).Seconds())

	outcome := "done"
	if err != nil {
		outcome = "error"
	}
	metrics.JobsProcessed.WithLabelValues(outcome).Inc()

	// The terminal state is already persisted either way; settle the
	// message so the broker never replays a finished job.
	if ackErr := delivery.Ack(); ackErr != nil {
		c.infra.Logger.WarningWithContextf(ctx, "[Feedback Consumer] Ack failed for job %s: %v", msg.JobID, ackErr)
	}
}
