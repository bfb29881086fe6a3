package route

import (
	"testing"

	"github.com/takahashiJe/navpack-orchestrator/internal/domain/navpack"
)

func TestStitchDedupsSharedVertex(t *testing.T) {
	legs := []navpack.Leg{
		{Mode: navpack.ModeCar, Geometry: [][2]float64{{135.0, 35.0}, {135.1, 35.0}}},
		{Mode: navpack.ModeFoot, Geometry: [][2]float64{{135.1, 35.0}, {135.2, 35.0}}},
	}

	poly, segments := Stitch(legs)

	if len(poly) != 3 {
		t.Fatalf("Stitch: got %d points, want 3 (shared vertex deduped)", len(poly))
	}
	if len(segments) != 2 {
		t.Fatalf("Stitch: got %d segments, want 2", len(segments))
	}
	if segments[0].StartIdx != 0 || segments[0].EndIdx != 1 {
		t.Fatalf("Stitch: leg0 segment got %+v", segments[0])
	}
	if segments[1].StartIdx != 1 || segments[1].EndIdx != 2 {
		t.Fatalf("Stitch: leg1 segment got %+v", segments[1])
	}
}

func TestStitchEmptyLegStillProducesSegment(t *testing.T) {
	legs := []navpack.Leg{
		{Mode: navpack.ModeCar, Geometry: [][2]float64{{135.0, 35.0}, {135.1, 35.0}}},
		{Mode: navpack.ModeFoot, Geometry: nil},
	}

	poly, segments := Stitch(legs)

	if len(poly) != 2 {
		t.Fatalf("Stitch: got %d points, want 2", len(poly))
	}
	if len(segments) != 2 {
		t.Fatalf("Stitch: got %d segments, want 2 (degenerate included)", len(segments))
	}
	last := segments[1]
	if last.StartIdx != last.EndIdx {
		t.Fatalf("Stitch: degenerate segment should have StartIdx==EndIdx, got %+v", last)
	}
}

func TestStitchNoSharedVertexKeepsBothPoints(t *testing.T) {
	legs := []navpack.Leg{
		{Mode: navpack.ModeCar, Geometry: [][2]float64{{135.0, 35.0}, {135.1, 35.0}}},
		{Mode: navpack.ModeFoot, Geometry: [][2]float64{{136.0, 36.0}, {136.1, 36.0}}},
	}

	poly, _ := Stitch(legs)
	if len(poly) != 4 {
		t.Fatalf("Stitch: got %d points, want 4 (no dedup across disjoint legs)", len(poly))
	}
}
