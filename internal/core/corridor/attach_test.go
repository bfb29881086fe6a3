package corridor

import (
	"context"
	"testing"

	"github.com/takahashiJe/navpack-orchestrator/internal/clients/spatial"
	"github.com/takahashiJe/navpack-orchestrator/internal/domain/navpack"
)

type fakePOIFinder struct {
	pois      []navpack.AlongPOI
	gotCar    *spatial.MultiLineString
	gotFoot   *spatial.MultiLineString
	gotCarM   float64
	gotFootM  float64
}

func (f *fakePOIFinder) FindAlongRoute(ctx context.Context, language string, carLine, footLine *spatial.MultiLineString, carM, footM float64, excludedIDs []string) ([]navpack.AlongPOI, error) {
	f.gotCar = carLine
	f.gotFoot = footLine
	f.gotCarM = carM
	f.gotFootM = footM
	return f.pois, nil
}

func TestFindSplitsLinesByModeAndAttachesNearestVertex(t *testing.T) {
	poly := navpack.Polyline{{135.0, 35.0}, {135.01, 35.0}, {135.02, 35.0}, {135.03, 35.0}}
	segments := []navpack.Segment{
		{Mode: navpack.ModeCar, StartIdx: 0, EndIdx: 1},
		{Mode: navpack.ModeFoot, StartIdx: 1, EndIdx: 3},
	}
	fake := &fakePOIFinder{
		pois: []navpack.AlongPOI{
			{SpotID: "poi-1", Lon: 135.022, Lat: 35.0},
		},
	}
	f := NewFinder(fake)

	pois, err := f.Find(context.Background(), "ja", poly, segments, navpack.Buffer{CarM: 300, FootM: 10}, nil)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if fake.gotCar == nil || len(fake.gotCar.Coordinates) != 1 {
		t.Fatalf("Find: car line not built from car segments, got %+v", fake.gotCar)
	}
	if fake.gotFoot == nil || len(fake.gotFoot.Coordinates) != 1 {
		t.Fatalf("Find: foot line not built from foot segments, got %+v", fake.gotFoot)
	}
	if fake.gotCarM != 300 || fake.gotFootM != 10 {
		t.Fatalf("Find: buffer not passed through, got car=%v foot=%v", fake.gotCarM, fake.gotFootM)
	}
	if len(pois) != 1 || pois[0].NearestIdx != 2 {
		t.Fatalf("Find: got %+v, want nearest_idx=2", pois)
	}
}

func TestFindOmitsLineWhenModeHasNoSegments(t *testing.T) {
	poly := navpack.Polyline{{135.0, 35.0}, {135.01, 35.0}}
	segments := []navpack.Segment{{Mode: navpack.ModeCar, StartIdx: 0, EndIdx: 1}}
	fake := &fakePOIFinder{}
	f := NewFinder(fake)

	_, err := f.Find(context.Background(), "en", poly, segments, navpack.DefaultBuffer(), nil)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if fake.gotFoot != nil {
		t.Fatalf("Find: expected nil foot line when no foot segments exist, got %+v", fake.gotFoot)
	}
}
