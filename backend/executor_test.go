package backend

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/easycollege/feedback-orchestrator/automation"
	"github.com/easycollege/feedback-orchestrator/config"
	"github.com/easycollege/feedback-orchestrator/entity"
	"github.com/easycollege/feedback-orchestrator/infra"
	"github.com/easycollege/feedback-orchestrator/store"
)

type fakeRunner struct {
	checkpoints []entity.Checkpoint
	result      *entity.Result
	err         error
	waitForCtx  bool
	panicWith   any
	started     chan string
}

func (f *fakeRunner) Run(ctx context.Context, _ entity.FeedbackKind, creds entity.Credentials, report automation.ProgressFunc) (*entity.Result, error) {
	if f.started != nil {
		f.started <- creds.RollNo
	}
	for _, cp := range f.checkpoints {
		report(cp.Progress, cp.Message)
	}
	if f.panicWith != nil {
		panic(f.panicWith)
	}
	if f.waitForCtx {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.result, f.err
}

func testLogger() *infra.LoggerClient {
	return infra.InitLoggerClient(config.LoadEnvConfig())
}

func newExecutor(t *testing.T, runner automation.Runner, timeout time.Duration) (*Executor, *store.MemoryStore) {
	t.Helper()
	st := store.NewMemoryStore(time.Hour)
	return &Executor{
		Store:   st,
		Runner:  runner,
		Timeout: timeout,
		Logger:  testLogger(),
	}, st
}

func createJob(t *testing.T, st *store.MemoryStore) *entity.Job {
	t.Helper()
	job := entity.NewJob(entity.KindEndOfSemester)
	require.NoError(t, st.Create(context.Background(), job))
	return job
}

func TestExecutor_SuccessfulRun(t *testing.T) {
	runner := &fakeRunner{
		checkpoints: []entity.Checkpoint{
			{Progress: 5, Message: "Accessing login page..."},
			{Progress: 30, Message: "Selecting feedback form..."},
			{Progress: 95, Message: "Finalizing submission..."},
		},
		result: &entity.Result{Submitted: true},
	}
	exec, st := newExecutor(t, runner, time.Minute)
	job := createJob(t, st)

	msg := entity.JobMessage{JobID: job.ID, Kind: job.Kind}
	require.NoError(t, exec.Execute(context.Background(), msg))

	got, err := st.Get(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StateSucceeded, got.State)
	assert.Equal(t, 100, got.Progress)
	require.NotNil(t, got.Result)
	assert.True(t, got.Result.Submitted)
}

func TestExecutor_FailureFreezesProgress(t *testing.T) {
	runner := &fakeRunner{
		checkpoints: []entity.Checkpoint{{Progress: 20, Message: "Navigating to feedback section..."}},
		err:         &entity.AutomationError{Kind: entity.ErrKindElementNotFound, Msg: "no staff members found in feedback form"},
	}
	exec, st := newExecutor(t, runner, time.Minute)
	job := createJob(t, st)

	err := exec.Execute(context.Background(), entity.JobMessage{JobID: job.ID, Kind: job.Kind})
	require.Error(t, err)

	got, getErr := st.Get(context.Background(), job.ID)
	require.NoError(t, getErr)
	assert.Equal(t, entity.StateFailed, got.State)
	assert.Equal(t, 20, got.Progress, "progress frozen at the last checkpoint")
	assert.Equal(t, entity.ErrKindElementNotFound, got.ErrorKind)
	assert.Contains(t, got.Error, "no staff members found")
}

func TestExecutor_DeadlineBecomesTimeoutFailure(t *testing.T) {
	runner := &fakeRunner{
		checkpoints: []entity.Checkpoint{{Progress: 20, Message: "working"}},
		waitForCtx:  true,
	}
	exec, st := newExecutor(t, runner, 30*time.Millisecond)
	job := createJob(t, st)

	err := exec.Execute(context.Background(), entity.JobMessage{JobID: job.ID, Kind: job.Kind})
	require.Error(t, err)

	got, getErr := st.Get(context.Background(), job.ID)
	require.NoError(t, getErr)
	assert.Equal(t, entity.StateFailed, got.State)
	assert.Equal(t, 20, got.Progress)
	assert.Equal(t, entity.ErrKindTimeout, got.ErrorKind)
	assert.Contains(t, got.Error, "execution limit")
}

func TestExecutor_PanicIsContained(t *testing.T) {
	runner := &fakeRunner{panicWith: "selector blew up"}
	exec, st := newExecutor(t, runner, time.Minute)
	job := createJob(t, st)

	err := exec.Execute(context.Background(), entity.JobMessage{JobID: job.ID, Kind: job.Kind})
	require.Error(t, err)

	got, getErr := st.Get(context.Background(), job.ID)
	require.NoError(t, getErr)
	assert.Equal(t, entity.StateFailed, got.State)
	assert.Equal(t, entity.ErrKindUnexpected, got.ErrorKind)
	assert.Contains(t, got.Error, "selector blew up")
}

// faultyStartStore refuses the running transition but accepts everything
// else.
type faultyStartStore struct {
	*store.MemoryStore
	startErr error
}

func (f *faultyStartStore) MarkRunning(context.Context, string, string) error {
	return f.startErr
}

func TestExecutor_StartFailureStillSettlesJob(t *testing.T) {
	st := store.NewMemoryStore(time.Hour)
	exec := &Executor{
		Store:   &faultyStartStore{MemoryStore: st, startErr: errors.New("write refused")},
		Runner:  &fakeRunner{result: &entity.Result{Submitted: true}},
		Timeout: time.Minute,
		Logger:  testLogger(),
	}
	job := createJob(t, st)

	err := exec.Execute(context.Background(), entity.JobMessage{JobID: job.ID, Kind: job.Kind})
	require.Error(t, err)

	got, getErr := st.Get(context.Background(), job.ID)
	require.NoError(t, getErr)
	assert.Equal(t, entity.StateFailed, got.State, "job must not stay queued")
	assert.Equal(t, entity.ErrKindUnexpected, got.ErrorKind)
	assert.Contains(t, got.Error, "could not start job")
}

func TestExecutor_UnknownJobID(t *testing.T) {
	exec, _ := newExecutor(t, &fakeRunner{result: &entity.Result{Submitted: true}}, time.Minute)
	err := exec.Execute(context.Background(), entity.JobMessage{JobID: "missing", Kind: entity.KindEndOfSemester})
	assert.ErrorIs(t, err, entity.ErrNotFound)
}

func TestExecutor_TerminalSnapshotIsStable(t *testing.T) {
	runner := &fakeRunner{err: errors.New("boom")}
	exec, st := newExecutor(t, runner, time.Minute)
	job := createJob(t, st)
	require.Error(t, exec.Execute(context.Background(), entity.JobMessage{JobID: job.ID, Kind: job.Kind}))

	first, err := st.Get(context.Background(), job.ID)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := st.Get(context.Background(), job.ID)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}
