// Package backend runs feedback jobs outside the request/response cycle.
// Two variants satisfy the same contract: a broker-published queue consumed
// by worker processes, and an in-process bounded pool.
package backend

import (
	"context"

	"github.com/easycollege/feedback-orchestrator/entity"
)

// Backend accepts a job for eventual execution. Dispatch returns as soon as
// the job is handed off, never waiting for the run, and reports the job's
// 1-based queue position when the variant can tell.
type Backend interface {
	Dispatch(ctx context.Context, msg entity.JobMessage) (position *int, err error)
	Ping(ctx context.Context) error
}

// Positioner resolves the live queue position of a not-yet-started job for
// status snapshots. Variants that cannot tell return nil.
type Positioner interface {
	Position(ctx context.Context, jobID string) (*int, error)
}
