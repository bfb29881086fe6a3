package route

import "testing"

func TestHaversineZeroDistance(t *testing.T) {
	if d := Haversine(35.0, 135.0, 35.0, 135.0); d != 0 {
		t.Fatalf("Haversine same point: got=%v want=0", d)
	}
}

func TestHaversineKnownDistance(t *testing.T) {
	// Roughly 1 degree of latitude is ~111km.
	d := Haversine(35.0, 135.0, 36.0, 135.0)
	if d < 110000 || d > 112000 {
		t.Fatalf("Haversine 1deg lat: got=%v want in [110000,112000]", d)
	}
}

func TestNearestVertexIndexPicksClosest(t *testing.T) {
	poly := [][2]float64{{135.0, 35.0}, {135.01, 35.0}, {135.02, 35.0}}
	idx, dist := NearestVertexIndex(poly, 135.021, 35.0)
	if idx != 2 {
		t.Fatalf("NearestVertexIndex: got idx=%d want=2", idx)
	}
	if dist < 0 {
		t.Fatalf("NearestVertexIndex: got negative distance %v", dist)
	}
}

func TestNearestVertexIndexEmptyPolyline(t *testing.T) {
	idx, dist := NearestVertexIndex(nil, 135.0, 35.0)
	if idx != 0 || dist != 0 {
		t.Fatalf("NearestVertexIndex empty: got idx=%d dist=%v want 0,0", idx, dist)
	}
}

func TestToWebMercatorRoundTripsOrigin(t *testing.T) {
	x, y := ToWebMercator(0, 0)
	if x != 0 {
		t.Fatalf("ToWebMercator(0,0): got x=%v want 0", x)
	}
	if y < -1 || y > 1 {
		t.Fatalf("ToWebMercator(0,0): got y=%v want ~0", y)
	}
}
