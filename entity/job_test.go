package entity

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobStatePredicates(t *testing.T) {
	assert.True(t, StateSucceeded.IsTerminal())
	assert.True(t, StateFailed.IsTerminal())
	assert.False(t, StateQueued.IsTerminal())
	assert.False(t, StateRunning.IsTerminal())

	assert.True(t, StateQueued.IsActive())
	assert.True(t, StateRunning.IsActive())
	assert.True(t, StatePending.IsActive())
	assert.False(t, StateFailed.IsActive())
}

func TestFeedbackKind(t *testing.T) {
	assert.True(t, KindEndOfSemester.Valid())
	assert.True(t, KindIntermediate.Valid())
	assert.False(t, FeedbackKind(2).Valid())
	assert.False(t, FeedbackKind(-1).Valid())

	assert.Equal(t, "end-semester", KindEndOfSemester.String())
	assert.Equal(t, "intermediate", KindIntermediate.String())
}

func TestNewJobDefaults(t *testing.T) {
	job := NewJob(KindEndOfSemester)
	require.NotEmpty(t, job.ID)
	assert.Equal(t, StateQueued, job.State)
	assert.Equal(t, 0, job.Progress)
	assert.Nil(t, job.Result)
	assert.False(t, job.CreatedAt.IsZero())

	other := NewJob(KindEndOfSemester)
	assert.NotEqual(t, job.ID, other.ID)
}

func TestSnapshotMirrorsJob(t *testing.T) {
	job := NewJob(KindIntermediate)
	job.State = StateRunning
	job.Progress = 42
	job.Message = "Processing course 2/5"

	snap := job.Snapshot()
	assert.Equal(t, job.ID, snap.TaskID)
	assert.Equal(t, StateRunning, snap.Status)
	assert.Equal(t, 42, snap.Progress)
	assert.Equal(t, job.Message, snap.Message)
	assert.Nil(t, snap.QueuePosition)
}

func TestClassifyError(t *testing.T) {
	kind, msg := ClassifyError(&AutomationError{Kind: ErrKindElementNotFound, Msg: "no staff members found"})
	assert.Equal(t, ErrKindElementNotFound, kind)
	assert.Equal(t, "no staff members found", msg)

	kind, _ = ClassifyError(context.DeadlineExceeded)
	assert.Equal(t, ErrKindTimeout, kind)

	kind, msg = ClassifyError(errors.New("boom"))
	assert.Equal(t, ErrKindUnexpected, kind)
	assert.Equal(t, "boom", msg)
}

func TestAutomationErrorUnwrap(t *testing.T) {
	inner := errors.New("inner")
	err := &AutomationError{Kind: ErrKindUnexpected, Msg: "outer", Err: inner}
	assert.ErrorIs(t, err, inner)
	assert.Equal(t, "outer: inner", err.Error())
}
