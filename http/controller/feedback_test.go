package controller_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/easycollege/feedback-orchestrator/automation"
	"github.com/easycollege/feedback-orchestrator/backend"
	"github.com/easycollege/feedback-orchestrator/config"
	"github.com/easycollege/feedback-orchestrator/entity"
	"github.com/easycollege/feedback-orchestrator/http/controller"
	routes "github.com/easycollege/feedback-orchestrator/http/route"
	"github.com/easycollege/feedback-orchestrator/infra"
	"github.com/easycollege/feedback-orchestrator/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// stubRunner replays scripted checkpoints and finishes with a fixed outcome.
// A non-nil gate holds the run open until the test closes it.
type stubRunner struct {
	checkpoints []entity.Checkpoint
	result      *entity.Result
	err         error
	gate        chan struct{}
}

func (s *stubRunner) Run(ctx context.Context, _ entity.FeedbackKind, _ entity.Credentials, report automation.ProgressFunc) (*entity.Result, error) {
	for _, cp := range s.checkpoints {
		report(cp.Progress, cp.Message)
	}
	if s.gate != nil {
		select {
		case <-s.gate:
		case <-ctx.Done():
		}
	}
	return s.result, s.err
}

// rejectingBackend refuses every dispatch, standing in for a full pool.
type rejectingBackend struct{}

func (rejectingBackend) Dispatch(context.Context, entity.JobMessage) (*int, error) {
	return nil, entity.ErrBackendUnavailable
}

func (rejectingBackend) Ping(context.Context) error { return nil }

func newTestServer(t *testing.T, runner automation.Runner) (*gin.Engine, *store.MemoryStore) {
	t.Helper()

	cfg := config.NewConfig()
	inf := &infra.Infra{Logger: infra.InitLoggerClient(cfg.EnvConfig)}
	st := store.NewMemoryStore(time.Hour)

	exec := &backend.Executor{
		Store:   st,
		Runner:  runner,
		Timeout: time.Minute,
		Logger:  inf.Logger,
	}
	pool := backend.NewInProcessBackend(exec, 2, 8, inf.Logger)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	pool.Start(ctx)

	ctrl := controller.NewController(cfg, inf, st, pool)
	return routes.SetupRouter(ctrl), st
}

func doJSON(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestRunFeedback_MissingFieldsLeaveNoRecord(t *testing.T) {
	router, st := newTestServer(t, &stubRunner{result: &entity.Result{Submitted: true}})

	for _, body := range []string{
		`{}`,
		`{"rollno":"23PT01"}`,
		`{"rollno":"23PT01","password":"secret"}`,
		`not json`,
	} {
		rec := doJSON(router, http.MethodPost, "/api/run-feedback", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body: %s", body)
	}
	assert.Equal(t, 0, st.Len())
}

func TestRunFeedback_RejectsUnknownFeedbackType(t *testing.T) {
	router, st := newTestServer(t, &stubRunner{result: &entity.Result{Submitted: true}})

	rec := doJSON(router, http.MethodPost, "/api/run-feedback",
		`{"rollno":"23PT01","password":"secret","feedback_type":5}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, st.Len())
}

func TestRunFeedback_QueuedJobRunsToCompletion(t *testing.T) {
	gate := make(chan struct{})
	runner := &stubRunner{
		checkpoints: []entity.Checkpoint{{Progress: 30, Message: "Feedback form loaded"}},
		result:      &entity.Result{Submitted: true, Message: "Feedback submitted successfully!"},
		gate:        gate,
	}
	router, _ := newTestServer(t, runner)

	rec := doJSON(router, http.MethodPost, "/api/run-feedback",
		`{"rollno":"23PT01","password":"secret","feedback_type":0}`)
	require.Equal(t, http.StatusAccepted, rec.Code)

	accepted := decodeBody(t, rec)
	taskID, _ := accepted["task_id"].(string)
	require.NotEmpty(t, taskID)
	assert.Equal(t, "Task queued successfully", accepted["status"])

	immediate := doJSON(router, http.MethodGet, "/api/status/"+taskID, "")
	require.Equal(t, http.StatusOK, immediate.Code)
	snapshot := decodeBody(t, immediate)
	assert.Contains(t, []any{string(entity.StateQueued), string(entity.StateRunning)}, snapshot["status"])
	progress, ok := snapshot["progress"].(float64)
	require.True(t, ok)
	assert.Less(t, progress, float64(100))

	close(gate)
	require.Eventually(t, func() bool {
		status := doJSON(router, http.MethodGet, "/api/status/"+taskID, "")
		if status.Code != http.StatusOK {
			return false
		}
		body := decodeBody(t, status)
		return body["status"] == string(entity.StateSucceeded)
	}, 2*time.Second, 10*time.Millisecond)

	status := doJSON(router, http.MethodGet, "/api/status/"+taskID, "")
	body := decodeBody(t, status)
	assert.Equal(t, float64(100), body["progress"])
	result, ok := body["result"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, result["submitted"])
}

func TestRunFeedback_FailureSurfacesInStatus(t *testing.T) {
	runner := &stubRunner{
		checkpoints: []entity.Checkpoint{{Progress: 20, Message: "Navigating to feedback section..."}},
		err: &entity.AutomationError{
			Kind: entity.ErrKindTimeout,
			Msg:  "Timed out waiting for login",
		},
	}
	router, _ := newTestServer(t, runner)

	rec := doJSON(router, http.MethodPost, "/api/run-feedback",
		`{"rollno":"23PT01","password":"secret","feedback_type":1}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	taskID := decodeBody(t, rec)["task_id"].(string)

	require.Eventually(t, func() bool {
		status := doJSON(router, http.MethodGet, "/api/status/"+taskID, "")
		if status.Code != http.StatusOK {
			return false
		}
		return decodeBody(t, status)["status"] == string(entity.StateFailed)
	}, 2*time.Second, 10*time.Millisecond)

	body := decodeBody(t, doJSON(router, http.MethodGet, "/api/status/"+taskID, ""))
	assert.Equal(t, float64(20), body["progress"], "progress stays where the run stopped")
	assert.Equal(t, string(entity.ErrKindTimeout), body["error_kind"])
	assert.NotEmpty(t, body["error"])
	assert.Nil(t, body["result"])
}

func TestRunFeedback_BackendRejectionCleansUp(t *testing.T) {
	cfg := config.NewConfig()
	inf := &infra.Infra{Logger: infra.InitLoggerClient(cfg.EnvConfig)}
	st := store.NewMemoryStore(time.Hour)
	ctrl := controller.NewController(cfg, inf, st, rejectingBackend{})
	router := routes.SetupRouter(ctrl)

	rec := doJSON(router, http.MethodPost, "/api/run-feedback",
		`{"rollno":"23PT01","password":"secret","feedback_type":0}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, 0, st.Len(), "rejected submissions leave no record")
}

func TestGetStatus_UnknownTaskID(t *testing.T) {
	router, _ := newTestServer(t, &stubRunner{result: &entity.Result{Submitted: true}})

	rec := doJSON(router, http.MethodGet, "/api/status/does-not-exist", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	body := decodeBody(t, rec)
	assert.Contains(t, body["error"], "does-not-exist")
}

func TestCORSPreflightFromAllowedOrigin(t *testing.T) {
	router, _ := newTestServer(t, &stubRunner{result: &entity.Result{Submitted: true}})
	origin := config.NewConfig().EnvConfig.CORS.AllowedOrigin

	req := httptest.NewRequest(http.MethodOptions, "/api/run-feedback", nil)
	req.Header.Set("Origin", origin)
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, origin, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)
}

func TestHealthEndpoints(t *testing.T) {
	router, _ := newTestServer(t, &stubRunner{result: &entity.Result{Submitted: true}})

	health := doJSON(router, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, health.Code)
	assert.Equal(t, "healthy", decodeBody(t, health)["status"])

	keepAlive := doJSON(router, http.MethodGet, "/api/keep-alive", "")
	assert.Equal(t, http.StatusOK, keepAlive.Code)
	assert.Equal(t, "alive", decodeBody(t, keepAlive)["status"])

	stats := doJSON(router, http.MethodGet, "/api/queue-stats", "")
	assert.Equal(t, http.StatusOK, stats.Code)
	body := decodeBody(t, stats)
	for _, key := range []string{"queued_jobs", "failed_jobs", "finished_jobs", "started_jobs"} {
		assert.Contains(t, body, key)
	}
}
