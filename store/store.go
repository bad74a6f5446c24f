// Package store holds the status records of feedback jobs. It is the single
// mutable shared surface in the system: the executing worker writes a job's
// record, any number of pollers read it.
package store

import (
	"context"

	"github.com/easycollege/feedback-orchestrator/entity"
)

// Store persists and retrieves job status records.
//
// Writers follow the single-writer-per-job rule: only the backend executing
// a job calls the mutating methods for that job id. All implementations must
// reject writes to terminal records with entity.ErrTerminal and report
// unknown or expired ids as entity.ErrNotFound.
type Store interface {
	// Create inserts a new queued record. The record is visible to Get
	// as soon as Create returns.
	Create(ctx context.Context, job *entity.Job) error

	// Get returns a consistent point-in-time copy of the record.
	Get(ctx context.Context, id string) (*entity.Job, error)

	// MarkRunning transitions queued -> running.
	MarkRunning(ctx context.Context, id string, message string) error

	// RecordCheckpoint applies a progress report. Progress never regresses;
	// a checkpoint below the stored value updates only the message.
	RecordCheckpoint(ctx context.Context, id string, cp entity.Checkpoint) error

	// MarkSucceeded finalizes the job at progress 100 with its result.
	MarkSucceeded(ctx context.Context, id string, result *entity.Result) error

	// MarkFailed finalizes the job, freezing progress at its last value.
	MarkFailed(ctx context.Context, id string, kind entity.ErrorKind, message string) error

	// Delete removes a record. Used only to undo Create when dispatch is
	// rejected, so a failed submission leaves no trace.
	Delete(ctx context.Context, id string) error

	// Stats reports registry counts for the observability endpoints.
	Stats(ctx context.Context) (entity.QueueStats, error)

	// Ping verifies the backing dependency is reachable.
	Ping(ctx context.Context) error
}
