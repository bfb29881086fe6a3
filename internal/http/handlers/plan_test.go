package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/takahashiJe/navpack-orchestrator/internal/domain/navpack"
	"github.com/takahashiJe/navpack-orchestrator/internal/pkg/logger"
	"github.com/takahashiJe/navpack-orchestrator/internal/workflow"
)

type fakeJobRepo struct {
	jobs      map[uuid.UUID]*navpack.JobRun
	createErr error
	markRunErr error
}

func newFakeJobRepo() *fakeJobRepo {
	return &fakeJobRepo{jobs: make(map[uuid.UUID]*navpack.JobRun)}
}

func (f *fakeJobRepo) Create(ctx context.Context, jobID uuid.UUID, payload []byte) (*navpack.JobRun, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	job := &navpack.JobRun{ID: jobID, Status: navpack.JobStatePending, Payload: payload}
	f.jobs[jobID] = job
	return job, nil
}

func (f *fakeJobRepo) GetByID(ctx context.Context, id uuid.UUID) (*navpack.JobRun, error) {
	job, ok := f.jobs[id]
	if !ok {
		return nil, errNotFound
	}
	return job, nil
}

func (f *fakeJobRepo) MarkRunning(ctx context.Context, id uuid.UUID, packID uuid.UUID) error {
	if f.markRunErr != nil {
		return f.markRunErr
	}
	job, ok := f.jobs[id]
	if !ok {
		return errNotFound
	}
	job.Status = navpack.JobStateRunning
	job.PackID = packID
	return nil
}

func (f *fakeJobRepo) UpdateStage(ctx context.Context, jobID string, stage string, progress int) error {
	return nil
}

func (f *fakeJobRepo) MarkSucceeded(ctx context.Context, jobID string, packID string, resultJSON []byte) error {
	return nil
}

func (f *fakeJobRepo) MarkFailed(ctx context.Context, jobID string, errorKind, errorMsg string) error {
	id, err := uuid.Parse(jobID)
	if err != nil {
		return err
	}
	job, ok := f.jobs[id]
	if !ok {
		return errNotFound
	}
	job.Status = navpack.JobStateFailed
	job.ErrorKind = errorKind
	job.Error = errorMsg
	return nil
}

func (f *fakeJobRepo) Heartbeat(ctx context.Context, id uuid.UUID) error { return nil }

type stubError struct{ msg string }

func (e *stubError) Error() string { return e.msg }

var errNotFound = &stubError{msg: "job not found"}

type fakeStarter struct {
	err     error
	started []workflow.PlanInput
}

func (f *fakeStarter) Start(ctx context.Context, jobID string, in workflow.PlanInput) error {
	if f.err != nil {
		return f.err
	}
	f.started = append(f.started, in)
	return nil
}

func testHandler(t *testing.T) (*PlanHandler, *fakeJobRepo, *fakeStarter) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	jobs := newFakeJobRepo()
	starter := &fakeStarter{}
	return NewPlanHandler(log, jobs, starter), jobs, starter
}

func TestSubmitPlanAcceptsValidRequest(t *testing.T) {
	h, jobs, starter := testHandler(t)

	body := `{"language":"ja","origin":{"lat":35.0,"lon":135.0},"waypoints":["spot-1"]}`
	req := httptest.NewRequest(http.MethodPost, "/nav/plan", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	h.SubmitPlan(c)

	if w.Code != http.StatusAccepted {
		t.Fatalf("SubmitPlan: got status=%d body=%s", w.Code, w.Body.String())
	}
	if len(starter.started) != 1 {
		t.Fatalf("SubmitPlan: expected workflow to be started once, got %d", len(starter.started))
	}
	if len(jobs.jobs) != 1 {
		t.Fatalf("SubmitPlan: expected one job_run row, got %d", len(jobs.jobs))
	}
	var resp submitResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("SubmitPlan: bad response body: %v", err)
	}
	if resp.Status != "accepted" || resp.TaskID == "" {
		t.Fatalf("SubmitPlan: got %+v", resp)
	}
}

func TestSubmitPlanRejectsSentinelWaypoint(t *testing.T) {
	h, _, starter := testHandler(t)

	body := `{"language":"ja","origin":{"lat":35.0,"lon":135.0},"waypoints":["current"]}`
	req := httptest.NewRequest(http.MethodPost, "/nav/plan", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	h.SubmitPlan(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("SubmitPlan: got status=%d, want 400 for sentinel waypoint", w.Code)
	}
	if len(starter.started) != 0 {
		t.Fatalf("SubmitPlan: workflow must not start for an invalid request")
	}
}

func TestSubmitPlanPropagatesWorkflowStartFailure(t *testing.T) {
	h, jobs, starter := testHandler(t)
	starter.err = &stubError{msg: "temporal unavailable"}

	body := `{"language":"ja","origin":{"lat":35.0,"lon":135.0},"waypoints":["spot-1"]}`
	req := httptest.NewRequest(http.MethodPost, "/nav/plan", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	h.SubmitPlan(c)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("SubmitPlan: got status=%d, want 500 when the workflow fails to start", w.Code)
	}
	for _, job := range jobs.jobs {
		if job.Status != navpack.JobStateFailed {
			t.Fatalf("SubmitPlan: expected job marked failed after start error, got %+v", job)
		}
	}
}

func TestGetPlanTaskReturnsManifestOnSuccess(t *testing.T) {
	h, jobs, _ := testHandler(t)
	jobID := uuid.New()
	manifest := navpack.Manifest{PackID: "pack-1", Language: "ja"}
	manifestJSON, _ := json.Marshal(manifest)
	jobs.jobs[jobID] = &navpack.JobRun{ID: jobID, Status: navpack.JobStateSucceeded, Result: manifestJSON}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Params = gin.Params{{Key: "task_id", Value: jobID.String()}}
	c.Request = httptest.NewRequest(http.MethodGet, "/nav/plan/tasks/"+jobID.String(), nil)

	h.GetPlanTask(c)

	if w.Code != http.StatusOK {
		t.Fatalf("GetPlanTask: got status=%d body=%s", w.Code, w.Body.String())
	}
	var got navpack.Manifest
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("GetPlanTask: bad response body: %v", err)
	}
	if got.PackID != "pack-1" {
		t.Fatalf("GetPlanTask: got %+v", got)
	}
}

func TestGetPlanTaskReturnsAcceptedWhileRunning(t *testing.T) {
	h, jobs, _ := testHandler(t)
	jobID := uuid.New()
	jobs.jobs[jobID] = &navpack.JobRun{ID: jobID, Status: navpack.JobStateRunning, Stage: "build_route", Progress: 40}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Params = gin.Params{{Key: "task_id", Value: jobID.String()}}
	c.Request = httptest.NewRequest(http.MethodGet, "/nav/plan/tasks/"+jobID.String(), nil)

	h.GetPlanTask(c)

	if w.Code != http.StatusAccepted {
		t.Fatalf("GetPlanTask: got status=%d, want 202 while running", w.Code)
	}
}

func TestGetPlanTaskReturnsErrorOnFailure(t *testing.T) {
	h, jobs, _ := testHandler(t)
	jobID := uuid.New()
	jobs.jobs[jobID] = &navpack.JobRun{ID: jobID, Status: navpack.JobStateFailed, ErrorKind: "UpstreamUnavailable", Error: "routing engine timed out"}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Params = gin.Params{{Key: "task_id", Value: jobID.String()}}
	c.Request = httptest.NewRequest(http.MethodGet, "/nav/plan/tasks/"+jobID.String(), nil)

	h.GetPlanTask(c)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("GetPlanTask: got status=%d, want 500 on failure", w.Code)
	}
	var got pollErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("GetPlanTask: bad response body: %v", err)
	}
	if got.Error.Kind != "UpstreamUnavailable" {
		t.Fatalf("GetPlanTask: got %+v", got)
	}
}

func TestGetPlanTaskRejectsMalformedTaskID(t *testing.T) {
	h, _, _ := testHandler(t)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Params = gin.Params{{Key: "task_id", Value: "not-a-uuid"}}
	c.Request = httptest.NewRequest(http.MethodGet, "/nav/plan/tasks/not-a-uuid", nil)

	h.GetPlanTask(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("GetPlanTask: got status=%d, want 400 for malformed task id", w.Code)
	}
}
