package backend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/easycollege/feedback-orchestrator/automation"
	"github.com/easycollege/feedback-orchestrator/entity"
	"github.com/easycollege/feedback-orchestrator/infra"
	"github.com/easycollege/feedback-orchestrator/store"
)

// Executor turns one job message into a completed status record: it marks
// the job running, drives the automation with the per-job deadline, relays
// checkpoints to the store, and writes exactly one terminal state. Nothing
// the run raises escapes Execute.
type Executor struct {
	Store   store.Store
	Runner  automation.Runner
	Timeout time.Duration
	Logger  *infra.LoggerClient
}

// Execute runs the job to a terminal state. The returned error mirrors the
// recorded failure so callers can count outcomes; the job's state is already
// settled either way.
func (e *Executor) Execute(ctx context.Context, msg entity.JobMessage) (err error) {
	tracer := otel.Tracer("feedback-orchestrator/backend")
	ctx, span := tracer.Start(ctx, "job.execute", trace.WithAttributes(
		attribute.String("job.id", msg.JobID),
		attribute.String("job.kind", msg.Kind.String()),
	))
	defer span.End()

	timeout := e.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := e.Store.MarkRunning(ctx, msg.JobID, "Processing feedback automation..."); err != nil {
		e.Logger.ErrorWithContextf(ctx, err, "[Executor] Job %s could not transition to running: %v", msg.JobID, err)
		// Unknown and already-settled jobs have nothing to repair; any
		// other failure would leave a live record stuck in queued.
		if !errors.Is(err, entity.ErrNotFound) && !errors.Is(err, entity.ErrTerminal) {
			e.fail(ctx, msg.JobID, entity.ErrKindUnexpected, "could not start job: "+err.Error())
		}
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			msgText := fmt.Sprintf("run panicked: %v", r)
			e.fail(ctx, msg.JobID, entity.ErrKindUnexpected, msgText)
			err = fmt.Errorf("%s", msgText)
		}
	}()

	report := func(progress int, message string) {
		// Checkpoint loss is tolerable; terminal writes are not.
		if cpErr := e.Store.RecordCheckpoint(ctx, msg.JobID, entity.Checkpoint{Progress: progress, Message: message}); cpErr != nil {
			e.Logger.WarningWithContextf(ctx, "[Executor] Job %s checkpoint dropped: %v", msg.JobID, cpErr)
		}
	}

	result, runErr := e.Runner.Run(runCtx, msg.Kind, msg.Credentials, report)
	if runErr != nil {
		kind, detail := entity.ClassifyError(runErr)
		if runCtx.Err() != nil && ctx.Err() == nil {
			kind = entity.ErrKindTimeout
			detail = fmt.Sprintf("job exceeded the %s execution limit: %s", timeout, detail)
		}
		e.fail(ctx, msg.JobID, kind, detail)
		return runErr
	}

	if err := e.Store.MarkSucceeded(ctx, msg.JobID, result); err != nil {
		e.Logger.ErrorWithContextf(ctx, err, "[Executor] Job %s result write failed: %v", msg.JobID, err)
		return err
	}
	e.Logger.InfoWithContextf(ctx, "[Executor] Job %s completed", msg.JobID)
	return nil
}

func (e *Executor) fail(ctx context.Context, jobID string, kind entity.ErrorKind, detail string) {
	// Terminal writes use a fresh context: the run's deadline being the
	// reason for the failure must not also block recording it.
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := e.Store.MarkFailed(writeCtx, jobID, kind, detail); err != nil {
		e.Logger.ErrorWithContextf(writeCtx, err, "[Executor] Job %s failure write failed: %v", jobID, err)
		return
	}
	e.Logger.WarningWithContextf(writeCtx, "[Executor] Job %s failed (%s): %s", jobID, kind, detail)
}
