package workflow

import (
	"errors"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

var defaultActivityOptions = workflow.ActivityOptions{
	StartToCloseTimeout: 5 * time.Minute,
	RetryPolicy: &temporal.RetryPolicy{
		InitialInterval:    time.Second,
		BackoffCoefficient: 2.0,
		MaximumInterval:    30 * time.Second,
		MaximumAttempts:    5,
	},
}

// longActivityOptions covers the audio fan-out, which can run long with a
// large waypoint set; it heartbeats instead of relying on a short
// StartToCloseTimeout.
var longActivityOptions = workflow.ActivityOptions{
	StartToCloseTimeout: 20 * time.Minute,
	HeartbeatTimeout:    30 * time.Second,
	RetryPolicy: &temporal.RetryPolicy{
		InitialInterval:    time.Second,
		BackoffCoefficient: 2.0,
		MaximumInterval:    30 * time.Second,
		MaximumAttempts:    3,
	},
}

// Workflow runs the six-stage plan pipeline for one job: C1 resolve
// waypoints, C2 build and stitch the route, C3 find corridor POIs, C4 plan
// narration, C5 dispatch audio, C6 assemble and persist the manifest. Each
// stage is a single named activity; job-state-machine transitions are
// themselves activities so the workflow stays free of direct database
// access.
func Workflow(ctx workflow.Context, in PlanInput) (PlanResult, error) {
	ctx = workflow.WithActivityOptions(ctx, defaultActivityOptions)

	fail := func(err error) (PlanResult, error) {
		kind, msg := classify(err)
		_ = workflow.ExecuteActivity(ctx, ActivityMarkJobFailed, in.JobID, kind, msg).Get(ctx, nil)
		return PlanResult{}, err
	}

	if err := stage(ctx, in.JobID, "resolving_waypoints", 10); err != nil {
		return fail(err)
	}
	var resolved resolveWaypointsResult
	if err := workflow.ExecuteActivity(ctx, ActivityResolveWaypoints, in.Request).Get(ctx, &resolved); err != nil {
		return fail(err)
	}

	if err := stage(ctx, in.JobID, "building_route", 30); err != nil {
		return fail(err)
	}
	var built buildRouteResult
	if err := workflow.ExecuteActivity(ctx, ActivityBuildRoute, in.Request, resolved.Waypoints).Get(ctx, &built); err != nil {
		return fail(err)
	}

	if err := stage(ctx, in.JobID, "finding_corridor_pois", 45); err != nil {
		return fail(err)
	}
	var corridorPOIs findCorridorPOIsResult
	if err := workflow.ExecuteActivity(ctx, ActivityFindCorridorPOIs, in.Request, resolved.Waypoints, built.Polyline, built.Segments).Get(ctx, &corridorPOIs); err != nil {
		return fail(err)
	}

	if err := stage(ctx, in.JobID, "planning_narration", 60); err != nil {
		return fail(err)
	}
	var narrationPlan planNarrationResult
	if err := workflow.ExecuteActivity(ctx, ActivityPlanNarration, in.Request.Language, resolved.Waypoints, corridorPOIs.AlongPOIs).Get(ctx, &narrationPlan); err != nil {
		return fail(err)
	}

	if err := stage(ctx, in.JobID, "dispatching_audio", 80); err != nil {
		return fail(err)
	}
	longCtx := workflow.WithActivityOptions(ctx, longActivityOptions)
	var audioAssets dispatchAudioResult
	if err := workflow.ExecuteActivity(longCtx, ActivityDispatchAudio, in.PackID, in.Request.Language, narrationPlan.Items).Get(longCtx, &audioAssets); err != nil {
		return fail(err)
	}

	if err := stage(ctx, in.JobID, "assembling_manifest", 95); err != nil {
		return fail(err)
	}
	var result PlanResult
	if err := workflow.ExecuteActivity(ctx, ActivityAssembleManifest, in.PackID, in.Request.Language, resolved.Waypoints, built.Polyline, built.Segments, built.Legs, corridorPOIs.AlongPOIs, audioAssets.Assets).Get(ctx, &result); err != nil {
		return fail(err)
	}

	if err := workflow.ExecuteActivity(ctx, ActivityMarkJobSucceeded, in.JobID, in.PackID, result.Manifest).Get(ctx, nil); err != nil {
		return fail(err)
	}
	return result, nil
}

func stage(ctx workflow.Context, jobID, name string, progress int) error {
	return workflow.ExecuteActivity(ctx, ActivityUpdateJobStage, jobID, name, progress).Get(ctx, nil)
}

// classify maps an activity error back to a (kind, message) pair for the
// job_run row; a Temporal ApplicationError carries the kind through its
// Type field when the activity wrapped a DomainError.
func classify(err error) (kind, msg string) {
	var appErr *temporal.ApplicationError
	if errors.As(err, &appErr) && appErr.Type() != "" {
		return appErr.Type(), appErr.Error()
	}
	return "InternalError", err.Error()
}
