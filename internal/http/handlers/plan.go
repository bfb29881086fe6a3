// Package handlers implements C8, the Submit/Poll Façade: a thin Gin
// layer translating the HTTP contract in spec §4.8 onto the job_run
// repository and the Temporal workflow starter. It never talks to the
// spatial store, routing engine, or any other upstream collaborator
// directly — those all live behind the workflow's activities.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/takahashiJe/navpack-orchestrator/internal/data/repos/jobrepo"
	"github.com/takahashiJe/navpack-orchestrator/internal/domain/navpack"
	"github.com/takahashiJe/navpack-orchestrator/internal/http/response"
	"github.com/takahashiJe/navpack-orchestrator/internal/pkg/logger"
	"github.com/takahashiJe/navpack-orchestrator/internal/workflow"
)

// WorkflowStarter is the subset of the Temporal client the façade needs:
// fire-and-forget workflow start, keyed by job id.
type WorkflowStarter interface {
	Start(ctx context.Context, jobID string, in workflow.PlanInput) error
}

type PlanHandler struct {
	log     *logger.Logger
	jobs    jobrepo.Repo
	starter WorkflowStarter
}

func NewPlanHandler(log *logger.Logger, jobs jobrepo.Repo, starter WorkflowStarter) *PlanHandler {
	return &PlanHandler{log: log.With("handler", "PlanHandler"), jobs: jobs, starter: starter}
}

// bufferDTO and planRequestDTO mirror PlanRequest over the wire but keep
// defaultable fields as pointers so the handler can tell "field omitted"
// (apply the §3 default) apart from "field explicitly zero".
type bufferDTO struct {
	CarM  *float64 `json:"car_m"`
	FootM *float64 `json:"foot_m"`
}

type planRequestDTO struct {
	Language       string         `json:"language"`
	Origin         navpack.LatLon `json:"origin"`
	Waypoints      []string       `json:"waypoints"`
	ReturnToOrigin *bool          `json:"return_to_origin"`
	Buffer         *bufferDTO     `json:"buffer"`
}

func (dto planRequestDTO) toDomain() navpack.PlanRequest {
	req := navpack.PlanRequest{
		Language:  strings.ToLower(strings.TrimSpace(dto.Language)),
		Origin:    dto.Origin,
		Waypoints: dto.Waypoints,
	}

	returnSet := dto.ReturnToOrigin != nil
	carSet := dto.Buffer != nil && dto.Buffer.CarM != nil
	footSet := dto.Buffer != nil && dto.Buffer.FootM != nil

	if returnSet {
		req.ReturnToOrigin = *dto.ReturnToOrigin
	}
	if carSet {
		req.Buffer.CarM = *dto.Buffer.CarM
	}
	if footSet {
		req.Buffer.FootM = *dto.Buffer.FootM
	}
	req.Normalize(returnSet, carSet, footSet)
	return req
}

type submitResponse struct {
	TaskID string `json:"task_id"`
	Status string `json:"status"`
}

// SubmitPlan implements POST /nav/plan: validates the request synchronously
// (per §7, ValidationError may fail fast at submit time), persists a
// pending job_run row, assigns the pack_id exactly once (§3 Job invariant:
// generated at enqueue, stable across retries), and starts the Temporal
// workflow asynchronously.
func (h *PlanHandler) SubmitPlan(c *gin.Context) {
	var dto planRequestDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request_body", err)
		return
	}

	req := dto.toDomain()
	if issues := navpack.Validate(req); len(issues) > 0 {
		response.RespondError(c, http.StatusBadRequest, "ValidationError", validationErr(issues))
		return
	}

	jobID := uuid.New()
	packID := uuid.New()

	payload, err := json.Marshal(req)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "InternalError", err)
		return
	}

	ctx := c.Request.Context()
	if _, err := h.jobs.Create(ctx, jobID, payload); err != nil {
		response.RespondError(c, http.StatusInternalServerError, "InternalError", err)
		return
	}
	if err := h.jobs.MarkRunning(ctx, jobID, packID); err != nil {
		response.RespondError(c, http.StatusInternalServerError, "InternalError", err)
		return
	}

	if err := h.starter.Start(ctx, jobID.String(), workflow.PlanInput{
		JobID:   jobID.String(),
		PackID:  packID.String(),
		Request: req,
	}); err != nil {
		_ = h.jobs.MarkFailed(ctx, jobID.String(), "InternalError", err.Error())
		response.RespondError(c, http.StatusInternalServerError, "InternalError", err)
		return
	}

	location := "/nav/plan/tasks/" + jobID.String()
	c.Header("Location", location)
	c.Header("Cache-Control", "no-store")
	response.RespondStatus(c, http.StatusAccepted, submitResponse{TaskID: jobID.String(), Status: "accepted"})
}

type pollResponse struct {
	TaskID string `json:"task_id"`
	State  string `json:"state"`
	Ready  bool   `json:"ready"`
}

type pollErrorResponse struct {
	pollResponse
	Error pollError `json:"error"`
}

type pollError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// GetPlanTask implements GET /nav/plan/tasks/{task_id}: a non-terminal job
// state returns 202 with ready:false; SUCCEEDED returns 200 with the full
// manifest (the plan response, per §4.6); FAILED returns 500 with the
// error kind and a short message, never a stack trace (§7).
//
// The workflow this façade fronts is a fixed linear pipeline with no
// child-workflow delegation, so the "traverse to the terminal descendant"
// clause in §4.8 never applies here.
func (h *PlanHandler) GetPlanTask(c *gin.Context) {
	taskID := c.Param("task_id")
	id, err := uuid.Parse(taskID)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_task_id", err)
		return
	}

	job, err := h.jobs.GetByID(c.Request.Context(), id)
	if err != nil {
		response.RespondError(c, http.StatusNotFound, "task_not_found", err)
		return
	}

	c.Header("Cache-Control", "no-store")

	switch job.Status {
	case navpack.JobStateSucceeded:
		if len(job.Result) == 0 {
			response.RespondStatus(c, http.StatusInternalServerError, pollErrorResponse{
				pollResponse: pollResponse{TaskID: taskID, State: job.Status, Ready: false},
				Error:        pollError{Kind: "InternalError", Message: "job succeeded but no result was recorded"},
			})
			return
		}
		var manifest navpack.Manifest
		if err := json.Unmarshal(job.Result, &manifest); err != nil {
			response.RespondError(c, http.StatusInternalServerError, "InternalError", err)
			return
		}
		response.RespondStatus(c, http.StatusOK, manifest)
	case navpack.JobStateFailed:
		response.RespondStatus(c, http.StatusInternalServerError, pollErrorResponse{
			pollResponse: pollResponse{TaskID: taskID, State: job.Status, Ready: false},
			Error:        pollError{Kind: job.ErrorKind, Message: job.Error},
		})
	default:
		response.RespondStatus(c, http.StatusAccepted, pollResponse{TaskID: taskID, State: job.Status, Ready: false})
	}
}

func validationErr(issues []navpack.ValidationIssue) error {
	msgs := make([]string, 0, len(issues))
	for _, i := range issues {
		msgs = append(msgs, i.Field+": "+i.Message)
	}
	return &validationError{msgs: msgs}
}

type validationError struct{ msgs []string }

func (e *validationError) Error() string { return strings.Join(e.msgs, "; ") }
