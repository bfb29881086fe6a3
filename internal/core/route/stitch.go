package route

import "github.com/takahashiJe/navpack-orchestrator/internal/domain/navpack"

// Stitch walks legs in order and assembles a single deduplicated polyline
// plus the Segment index ranges that map back to each leg, porting the
// original pipeline's stitch_to_geojson coordinate-dedup rule: a leg's
// first coordinate is dropped when it equals the running polyline's last
// coordinate (exact value equality, not proximity). A leg with empty
// geometry still produces a Segment — a degenerate, zero-length entry
// anchored at the current tail index — so every leg is represented in the
// segment list even when the routing engine returned nothing.
func Stitch(legs []navpack.Leg) (navpack.Polyline, []navpack.Segment) {
	poly := make(navpack.Polyline, 0)
	segments := make([]navpack.Segment, 0, len(legs))

	for _, leg := range legs {
		startIdx := tailIndex(poly)

		coords := leg.Geometry
		if len(coords) == 0 {
			segments = append(segments, navpack.Segment{
				Mode: leg.Mode, StartIdx: startIdx, EndIdx: startIdx,
			})
			continue
		}

		appendFrom := 0
		if len(poly) > 0 && poly[len(poly)-1] == coords[0] {
			appendFrom = 1
		}
		poly = append(poly, coords[appendFrom:]...)

		endIdx := tailIndex(poly)
		segments = append(segments, navpack.Segment{
			Mode: leg.Mode, StartIdx: startIdx, EndIdx: endIdx,
		})
	}

	return poly, segments
}

func tailIndex(coords navpack.Polyline) int {
	if len(coords) == 0 {
		return 0
	}
	return len(coords) - 1
}
