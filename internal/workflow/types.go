// Package workflow wires the six pipeline stages (C1..C6) into a single
// Temporal workflow with one named activity per stage, replacing the
// generic tick-poll dispatch the ambient stack would otherwise use: the
// plan pipeline is a fixed, bounded sequence, not an open-ended job queue,
// so there is no need for a ContinueAsNew polling loop here.
package workflow

import "github.com/takahashiJe/navpack-orchestrator/internal/domain/navpack"

const (
	WorkflowName = "NavPlanWorkflow"

	ActivityResolveWaypoints  = "ResolveWaypoints"
	ActivityBuildRoute        = "BuildRoute"
	ActivityFindCorridorPOIs  = "FindCorridorPOIs"
	ActivityPlanNarration     = "PlanNarration"
	ActivityDispatchAudio     = "DispatchAudio"
	ActivityAssembleManifest  = "AssembleManifest"
	ActivityUpdateJobStage    = "UpdateJobStage"
	ActivityMarkJobSucceeded  = "MarkJobSucceeded"
	ActivityMarkJobFailed     = "MarkJobFailed"
)

// PlanInput is the workflow's single input argument.
type PlanInput struct {
	JobID   string
	PackID  string
	Request navpack.PlanRequest
}

type resolveWaypointsResult struct {
	Waypoints []navpack.SpotRef
}

type buildRouteResult struct {
	Polyline navpack.Polyline
	Segments []navpack.Segment
	Legs     []navpack.Leg
}

type findCorridorPOIsResult struct {
	AlongPOIs []navpack.AlongPOI
}

type planNarrationResult struct {
	Items []navpack.NarrationItem
}

type dispatchAudioResult struct {
	Assets []navpack.Asset
}

// PlanResult is the workflow's terminal return value.
type PlanResult struct {
	Manifest navpack.Manifest
}
