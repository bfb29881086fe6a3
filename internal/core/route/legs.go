// Package route implements the C2 Route Builder: leg construction with
// mode switching (§4.2) and polyline stitching (§4.3→§4.2 note: stitching
// is specified alongside leg construction in the same section). Ported
// from the original pipeline's build_legs_with_switch/stitch_to_geojson,
// reimplemented with explicit structs instead of dicts.
package route

import (
	"context"

	nerrors "github.com/takahashiJe/navpack-orchestrator/internal/pkg/errors"
	"github.com/takahashiJe/navpack-orchestrator/internal/pkg/logger"
	"github.com/takahashiJe/navpack-orchestrator/internal/domain/navpack"
	"github.com/takahashiJe/navpack-orchestrator/internal/clients/routing"
)

// RoutingClient is the subset of the routing HTTP client C2 needs; kept as
// an interface so tests can substitute a fake engine.
type RoutingClient interface {
	Route(ctx context.Context, req routing.Request) (*routing.Response, error)
}

// AccessPointResolver is the subset of the spatial access-point query C2
// needs.
type AccessPointResolver interface {
	NearestAccessPoint(ctx context.Context, dst navpack.LatLon) (navpack.AccessPoint, error)
}

type Builder struct {
	log       *logger.Logger
	engine    RoutingClient
	aps       AccessPointResolver
	toleranceM float64
}

func NewBuilder(log *logger.Logger, engine RoutingClient, aps AccessPointResolver, arrivalToleranceM float64) *Builder {
	return &Builder{log: log.With("component", "RouteBuilder"), engine: engine, aps: aps, toleranceM: arrivalToleranceM}
}

// BuildLegs constructs Legs for consecutive pairs of points, following the
// car_position-tracking algorithm in §4.2 verbatim: direct car route
// accepted only within arrival tolerance; otherwise the access-point
// car+foot fallback, with car_position advancing to the access point so
// later iterations start from where the vehicle is actually parked.
func (b *Builder) BuildLegs(ctx context.Context, points []navpack.LatLon) ([]navpack.Leg, error) {
	if len(points) < 2 {
		return nil, nil
	}

	legs := make([]navpack.Leg, 0, len(points))
	carPosition := points[0]

	for i := 0; i < len(points)-1; i++ {
		dst := points[i+1]

		carResp, carErr := b.routeOnce(ctx, navpack.ModeCar, carPosition, dst)
		if carErr == nil && b.withinArrivalTolerance(carResp, dst) {
			legs = append(legs, legFromResponse(navpack.ModeCar, carPosition, dst, carResp))
			carPosition = dst
			continue
		}

		ap, apErr := b.aps.NearestAccessPoint(ctx, dst)
		if apErr != nil {
			b.log.Warn("access point lookup failed; using eastward-offset fallback", "dst", dst, "error", apErr)
			ap = navpack.AccessPoint{Lat: dst.Lat, Lon: dst.Lon + 0.01}
		}
		apPoint := navpack.LatLon{Lat: ap.Lat, Lon: ap.Lon}

		// The drive-to-AP leg is recorded even if the engine returns a
		// degenerate zero-distance route; a failed request is itself
		// non-fatal here and logged as a transient condition per §9.
		carToAP, err := b.routeOnce(ctx, navpack.ModeCar, carPosition, apPoint)
		if err != nil {
			b.log.Warn("car-to-access-point route failed; recording degenerate leg", "from", carPosition, "to", apPoint, "error", err)
			carToAP = &routing.Response{}
		}
		legs = append(legs, legFromResponse(navpack.ModeCar, carPosition, apPoint, carToAP))
		carPosition = apPoint

		footToDst, err := b.routeOnce(ctx, navpack.ModeFoot, apPoint, dst)
		if err != nil {
			return nil, nerrors.New(nerrors.KindUpstreamUnavailable, "route_build", err)
		}
		legs = append(legs, legFromResponse(navpack.ModeFoot, apPoint, dst, footToDst))
	}

	return legs, nil
}

func (b *Builder) routeOnce(ctx context.Context, mode string, from, to navpack.LatLon) (*routing.Response, error) {
	req := routing.Request{
		Waypoints: []routing.Waypoint{{Lat: ptr(to.Lat), Lon: ptr(to.Lon)}},
	}
	req.Origin.Lat = from.Lat
	req.Origin.Lon = from.Lon
	req.CarToTrailhead = mode == navpack.ModeCar
	return b.engine.Route(ctx, req)
}

// withinArrivalTolerance implements the §4.2 step-2 guard: the haversine
// distance from the last coordinate of the returned geometry to the
// intended destination must be ≤ CAR_ARRIVAL_TOLERANCE_M.
func (b *Builder) withinArrivalTolerance(resp *routing.Response, dst navpack.LatLon) bool {
	if resp == nil || len(resp.Legs) == 0 {
		return false
	}
	geom := resp.Legs[0].Geometry
	if len(geom) == 0 {
		return false
	}
	last := geom[len(geom)-1]
	return Haversine(last[1], last[0], dst.Lat, dst.Lon) <= b.toleranceM
}

func legFromResponse(mode string, from, to navpack.LatLon, resp *routing.Response) navpack.Leg {
	leg := navpack.Leg{Mode: mode, From: from, To: to}
	if resp != nil && len(resp.Legs) > 0 {
		leg.DistanceM = resp.Legs[0].Distance
		leg.DurationS = resp.Legs[0].Duration
		leg.Geometry = resp.Legs[0].Geometry
	}
	return leg
}

func ptr[T any](v T) *T { return &v }
