package backend

import (
	"context"
	"sync"

	"github.com/easycollege/feedback-orchestrator/entity"
	"github.com/easycollege/feedback-orchestrator/infra"
)

// InProcessBackend executes jobs on a bounded worker pool inside the API
// process. Nothing survives a restart: records and queued work vanish with
// the process, which is the documented trade-off of running without a
// broker. Submission beyond the buffer capacity is rejected, not queued.
type InProcessBackend struct {
	executor *Executor
	tasks    chan entity.JobMessage
	workers  int
	logger   *infra.LoggerClient

	startOnce sync.Once
}

func NewInProcessBackend(executor *Executor, workers, capacity int, logger *infra.LoggerClient) *InProcessBackend {
	if workers <= 0 {
		workers = 2
	}
	if capacity <= 0 {
		capacity = 16
	}
	return &InProcessBackend{
		executor: executor,
		tasks:    make(chan entity.JobMessage, capacity),
		workers:  workers,
		logger:   logger,
	}
}

// Start launches the pool. Safe to call once; workers exit when ctx is
// cancelled.
func (b *InProcessBackend) Start(ctx context.Context) {
	b.startOnce.Do(func() {
		for i := 0; i < b.workers; i++ {
			go b.workerLoop(ctx, i)
		}
	})
}

func (b *InProcessBackend) workerLoop(ctx context.Context, id int) {
	b.logger.InfoWithContextf(ctx, "[Pool] Worker %d started", id)
	for {
		select {
		case <-ctx.Done():
			b.logger.InfoWithContextf(ctx, "[Pool] Worker %d shutting down", id)
			return
		case msg, ok := <-b.tasks:
			if !ok {
				return
			}
			_ = b.executor.Execute(ctx, msg)
		}
	}
}

// Dispatch hands the job to the pool without blocking. A full buffer means
// the backend cannot accept work right now.
func (b *InProcessBackend) Dispatch(_ context.Context, msg entity.JobMessage) (*int, error) {
	select {
	case b.tasks <- msg:
		position := len(b.tasks)
		if position < 1 {
			position = 1
		}
		return &position, nil
	default:
		return nil, entity.ErrBackendUnavailable
	}
}

func (b *InProcessBackend) Ping(_ context.Context) error {
	return nil
}

// Position is unknowable once messages are in the channel; queued snapshots
// simply omit it.
func (b *InProcessBackend) Position(_ context.Context, _ string) (*int, error) {
	return nil, nil
}
