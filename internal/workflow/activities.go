package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"github.com/takahashiJe/navpack-orchestrator/internal/clients/spatial"
	"github.com/takahashiJe/navpack-orchestrator/internal/core/audio"
	"github.com/takahashiJe/navpack-orchestrator/internal/core/corridor"
	"github.com/takahashiJe/navpack-orchestrator/internal/core/narrate"
	"github.com/takahashiJe/navpack-orchestrator/internal/core/route"
	"github.com/takahashiJe/navpack-orchestrator/internal/data/repos/jobrepo"
	"github.com/takahashiJe/navpack-orchestrator/internal/domain/navpack"
	nerrors "github.com/takahashiJe/navpack-orchestrator/internal/pkg/errors"
	"github.com/takahashiJe/navpack-orchestrator/internal/platform/packstore"
)

// wrapActivityErr turns a DomainError into a Temporal ApplicationError whose
// Type carries the error Kind, so the workflow's classify() can recover it
// on the other side of the activity boundary without re-inspecting the
// original Go error (which Temporal does not preserve as-is).
func wrapActivityErr(err error) error {
	if err == nil {
		return nil
	}
	var derr *nerrors.DomainError
	if errors.As(err, &derr) {
		return temporal.NewApplicationErrorWithCause(derr.Error(), string(derr.Kind), derr)
	}
	return err
}

// Activities bundles every stage's dependencies. Each exported method is
// registered as a single named Temporal activity; the workflow calls them
// in sequence rather than through a generic tick/registry dispatch, since
// the plan pipeline's six stages are fixed and always run in the same
// order.
type Activities struct {
	Jobs     jobrepo.Repo
	Spots    *spatial.SpotStore
	Route    *route.Builder
	Corridor *corridor.Finder
	Narrate  *narrate.Planner
	Audio    *audio.Dispatcher
	Store    *packstore.Store

	SynthFormat   string
	SynthBitrate  int
	SynthSaveText bool
}

func (a *Activities) UpdateJobStage(ctx context.Context, jobID, stage string, progress int) error {
	return a.Jobs.UpdateStage(ctx, jobID, stage, progress)
}

func (a *Activities) MarkJobSucceeded(ctx context.Context, jobID, packID string, manifest navpack.Manifest) error {
	resultJSON, err := json.Marshal(manifest)
	if err != nil {
		return wrapActivityErr(nerrors.New(nerrors.KindInternal, "mark_job_succeeded", err))
	}
	return a.Jobs.MarkSucceeded(ctx, jobID, packID, resultJSON)
}

func (a *Activities) MarkJobFailed(ctx context.Context, jobID, errorKind, errorMsg string) error {
	return a.Jobs.MarkFailed(ctx, jobID, errorKind, errorMsg)
}

// ResolveWaypoints implements C1: resolve every requested waypoint id
// (plus the return-to-origin closing leg, handled by the caller) to
// coordinates and localized text, failing fast on the first unknown id.
func (a *Activities) ResolveWaypoints(ctx context.Context, req navpack.PlanRequest) (*resolveWaypointsResult, error) {
	if len(req.Waypoints) == 0 {
		return nil, wrapActivityErr(nerrors.New(nerrors.KindValidation, "resolve_waypoints", nerrors.ErrEmptyWaypoints))
	}
	resolved, err := a.Spots.ResolveSpots(ctx, req.Waypoints, req.Language)
	if err != nil {
		return nil, wrapActivityErr(err)
	}

	out := make([]navpack.SpotRef, 0, len(req.Waypoints))
	for _, id := range req.Waypoints {
		ref, ok := resolved[id]
		if !ok {
			return nil, wrapActivityErr(nerrors.New(nerrors.KindValidation, "resolve_waypoints", nerrors.ErrSpotNotFound))
		}
		out = append(out, ref)
	}
	return &resolveWaypointsResult{Waypoints: out}, nil
}

// BuildRoute implements C2: leg construction with mode switching, then
// polyline stitching over the full ordered point list (origin, each
// resolved waypoint, and the origin again when return_to_origin is set).
func (a *Activities) BuildRoute(ctx context.Context, req navpack.PlanRequest, waypoints []navpack.SpotRef) (*buildRouteResult, error) {
	points := make([]navpack.LatLon, 0, len(waypoints)+2)
	points = append(points, req.Origin)
	for _, wp := range waypoints {
		points = append(points, navpack.LatLon{Lat: wp.Lat, Lon: wp.Lon})
	}
	if req.ReturnToOrigin {
		points = append(points, req.Origin)
	}

	legs, err := a.Route.BuildLegs(ctx, points)
	if err != nil {
		return nil, wrapActivityErr(err)
	}
	poly, segments := route.Stitch(legs)
	return &buildRouteResult{Polyline: poly, Segments: segments, Legs: legs}, nil
}

// FindCorridorPOIs implements C3: discover spots/facilities within the
// configured mode-specific buffers of the stitched route, excluding the
// planned waypoints themselves.
func (a *Activities) FindCorridorPOIs(ctx context.Context, req navpack.PlanRequest, waypoints []navpack.SpotRef, poly navpack.Polyline, segments []navpack.Segment) (*findCorridorPOIsResult, error) {
	excluded := make([]string, len(waypoints))
	for i, wp := range waypoints {
		excluded[i] = wp.SpotID
	}
	buf := req.Buffer
	if buf.CarM == 0 && buf.FootM == 0 {
		buf = navpack.DefaultBuffer()
	}
	pois, err := a.Corridor.Find(ctx, req.Language, poly, segments, buf, excluded)
	if err != nil {
		return nil, wrapActivityErr(err)
	}
	return &findCorridorPOIsResult{AlongPOIs: pois}, nil
}

// PlanNarration implements C4: build the (spot_id, variant) work list and
// dispatch it to the narration engine in one batch.
func (a *Activities) PlanNarration(ctx context.Context, language string, waypoints []navpack.SpotRef, alongPOIs []navpack.AlongPOI) (*planNarrationResult, error) {
	requested := a.Narrate.Plan(waypoints, alongPOIs)
	items, err := a.Narrate.Describe(ctx, language, requested)
	if err != nil {
		// A response shorter than requested is tolerated by Describe itself
		// (missing pairs come back empty). Reaching here means the engine
		// call failed outright, which is a retryable upstream failure, not
		// the §4.4 partial-coverage case.
		return nil, wrapActivityErr(nerrors.New(nerrors.KindUpstreamUnavailable, "plan_narration", err))
	}
	return &planNarrationResult{Items: items}, nil
}

// DispatchAudio implements C5: fan the narration items out to the
// synthesis engine in bounded-concurrency batches, recording a heartbeat
// every 10 seconds while the batches run.
func (a *Activities) DispatchAudio(ctx context.Context, packID, language string, items []navpack.NarrationItem) (*dispatchAudioResult, error) {
	stopHeartbeat := make(chan struct{})
	defer close(stopHeartbeat)
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				activity.RecordHeartbeat(ctx, "dispatching_audio")
			case <-stopHeartbeat:
				return
			}
		}
	}()
	assets, err := a.Audio.Dispatch(ctx, packID, language, items, a.SynthFormat, a.SynthBitrate, a.SynthSaveText)
	if err != nil {
		return nil, wrapActivityErr(err)
	}
	return &dispatchAudioResult{Assets: assets}, nil
}

// AssembleManifest implements C6: join assets to narration identity keys
// (already 1:1 by construction), compute waypoints_info via the same
// nearest-vertex algorithm used for along_pois, and durably persist the
// finished manifest.
func (a *Activities) AssembleManifest(ctx context.Context, packID, language string, waypoints []navpack.SpotRef, poly navpack.Polyline, segments []navpack.Segment, legs []navpack.Leg, alongPOIs []navpack.AlongPOI, assets []navpack.Asset) (*PlanResult, error) {
	waypointsInfo := make([]navpack.AlongPOI, 0, len(waypoints))
	for _, wp := range waypoints {
		idx, dist := route.NearestVertexIndex(poly, wp.Lon, wp.Lat)
		waypointsInfo = append(waypointsInfo, navpack.AlongPOI{
			SpotID:     wp.SpotID,
			Name:       wp.Name,
			Lon:        wp.Lon,
			Lat:        wp.Lat,
			Kind:       navpack.KindSpot,
			NearestIdx: idx,
			DistanceM:  dist,
		})
	}

	routeFeatures := make([]navpack.RouteFeature, 0, len(legs))
	for _, leg := range legs {
		routeFeatures = append(routeFeatures, navpack.RouteFeature{
			Mode:      leg.Mode,
			DistanceM: leg.DistanceM,
			DurationS: leg.DurationS,
		})
	}
	for i := range routeFeatures {
		if i < len(segments) {
			routeFeatures[i].FromIdx = segments[i].StartIdx
			routeFeatures[i].ToIdx = segments[i].EndIdx
		}
	}

	manifest := navpack.Manifest{
		PackID:        packID,
		Language:      language,
		GeneratedAt:   time.Now().UTC(),
		Route:         routeFeatures,
		Polyline:      poly,
		Segments:      segments,
		Legs:          legs,
		WaypointsInfo: waypointsInfo,
		AlongPOIs:     alongPOIs,
		Assets:        assets,
	}

	if err := a.Store.WriteManifest(manifest); err != nil {
		return nil, wrapActivityErr(nerrors.New(nerrors.KindStorage, "assemble_manifest", err))
	}
	return &PlanResult{Manifest: manifest}, nil
}
