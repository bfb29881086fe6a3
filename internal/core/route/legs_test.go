package route

import (
	"context"
	"testing"

	"github.com/takahashiJe/navpack-orchestrator/internal/clients/routing"
	"github.com/takahashiJe/navpack-orchestrator/internal/domain/navpack"
	"github.com/takahashiJe/navpack-orchestrator/internal/pkg/logger"
)

type fakeRoutingClient struct {
	responses []*routing.Response
	calls     int
}

func (f *fakeRoutingClient) Route(ctx context.Context, req routing.Request) (*routing.Response, error) {
	if f.calls >= len(f.responses) {
		return &routing.Response{}, nil
	}
	resp := f.responses[f.calls]
	f.calls++
	return resp, nil
}

type fakeAccessPointResolver struct {
	ap navpack.AccessPoint
}

func (f *fakeAccessPointResolver) NearestAccessPoint(ctx context.Context, dst navpack.LatLon) (navpack.AccessPoint, error) {
	return f.ap, nil
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return log
}

func directCarResponse(to navpack.LatLon) *routing.Response {
	return &routing.Response{
		Legs: []routing.LegShape{{
			Mode:     navpack.ModeCar,
			Distance: 1000,
			Duration: 120,
			Geometry: [][2]float64{{135.0, 35.0}, {to.Lon, to.Lat}},
		}},
	}
}

func TestBuildLegsDirectCarWithinTolerance(t *testing.T) {
	dst := navpack.LatLon{Lat: 35.001, Lon: 135.001}
	fake := &fakeRoutingClient{responses: []*routing.Response{directCarResponse(dst)}}
	b := NewBuilder(testLogger(t), fake, &fakeAccessPointResolver{}, 50)

	legs, err := b.BuildLegs(context.Background(), []navpack.LatLon{
		{Lat: 35.0, Lon: 135.0}, dst,
	})
	if err != nil {
		t.Fatalf("BuildLegs: %v", err)
	}
	if len(legs) != 1 {
		t.Fatalf("BuildLegs: got %d legs, want 1 (direct car)", len(legs))
	}
	if legs[0].Mode != navpack.ModeCar {
		t.Fatalf("BuildLegs: got mode %q, want car", legs[0].Mode)
	}
}

func TestBuildLegsFallsBackToAccessPointFoot(t *testing.T) {
	dst := navpack.LatLon{Lat: 36.0, Lon: 136.0}
	// Car route's last point is nowhere near dst, so it's out of tolerance.
	farCarResp := &routing.Response{
		Legs: []routing.LegShape{{
			Mode:     navpack.ModeCar,
			Distance: 1000,
			Duration: 120,
			Geometry: [][2]float64{{135.0, 35.0}, {135.5, 35.5}},
		}},
	}
	carToAP := &routing.Response{
		Legs: []routing.LegShape{{Mode: navpack.ModeCar, Distance: 500, Duration: 60, Geometry: [][2]float64{{135.5, 35.5}, {135.9, 35.9}}}},
	}
	footToDst := &routing.Response{
		Legs: []routing.LegShape{{Mode: navpack.ModeFoot, Distance: 50, Duration: 30, Geometry: [][2]float64{{135.9, 35.9}, {136.0, 36.0}}}},
	}
	fake := &fakeRoutingClient{responses: []*routing.Response{farCarResp, carToAP, footToDst}}
	ap := navpack.AccessPoint{Lat: 35.9, Lon: 135.9}
	b := NewBuilder(testLogger(t), fake, &fakeAccessPointResolver{ap: ap}, 50)

	legs, err := b.BuildLegs(context.Background(), []navpack.LatLon{
		{Lat: 35.0, Lon: 135.0}, dst,
	})
	if err != nil {
		t.Fatalf("BuildLegs: %v", err)
	}
	if len(legs) != 2 {
		t.Fatalf("BuildLegs: got %d legs, want 2 (car-to-AP + foot-to-dst)", len(legs))
	}
	if legs[0].Mode != navpack.ModeCar || legs[1].Mode != navpack.ModeFoot {
		t.Fatalf("BuildLegs: got modes %q,%q, want car,foot", legs[0].Mode, legs[1].Mode)
	}
	if legs[1].To != dst {
		t.Fatalf("BuildLegs: final foot leg To=%+v, want dst=%+v", legs[1].To, dst)
	}
}

func TestBuildLegsSinglePointReturnsNoLegs(t *testing.T) {
	fake := &fakeRoutingClient{}
	b := NewBuilder(testLogger(t), fake, &fakeAccessPointResolver{}, 50)
	legs, err := b.BuildLegs(context.Background(), []navpack.LatLon{{Lat: 35.0, Lon: 135.0}})
	if err != nil {
		t.Fatalf("BuildLegs: %v", err)
	}
	if legs != nil {
		t.Fatalf("BuildLegs single point: got %v, want nil", legs)
	}
}
