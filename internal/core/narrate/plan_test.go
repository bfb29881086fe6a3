package narrate

import (
	"context"
	"testing"

	"github.com/takahashiJe/navpack-orchestrator/internal/clients/narration"
	"github.com/takahashiJe/navpack-orchestrator/internal/domain/navpack"
)

func TestPlanBuildsFullVariantSetForWaypoints(t *testing.T) {
	waypoints := []navpack.SpotRef{{SpotID: "spot-1", Name: "Temple"}}
	items := Plan(waypoints, nil)

	if len(items) != len(navpack.PlannedVariants) {
		t.Fatalf("Plan: got %d items, want %d (full variant set)", len(items), len(navpack.PlannedVariants))
	}
	for _, it := range items {
		if it.SpotID != "spot-1" {
			t.Fatalf("Plan: got spot_id=%q, want spot-1", it.SpotID)
		}
	}
}

func TestPlanAlongRouteSpotGetsBaseOnly(t *testing.T) {
	alongPOIs := []navpack.AlongPOI{
		{SpotID: "poi-1", Name: "Overlook", Kind: navpack.KindSpot},
		{SpotID: "poi-2", Name: "Restroom", Kind: navpack.KindFacility},
	}
	items := Plan(nil, alongPOIs)

	if len(items) != 1 {
		t.Fatalf("Plan: got %d items, want 1 (facilities never narrated)", len(items))
	}
	if items[0].SpotID != "poi-1" || items[0].Variant != navpack.VariantBase {
		t.Fatalf("Plan: got %+v, want poi-1/base", items[0])
	}
}

func TestPlanDedupesWaypointAlsoAlongRoute(t *testing.T) {
	waypoints := []navpack.SpotRef{{SpotID: "spot-1", Name: "Temple"}}
	alongPOIs := []navpack.AlongPOI{{SpotID: "spot-1", Name: "Temple", Kind: navpack.KindSpot}}

	items := Plan(waypoints, alongPOIs)
	if len(items) != len(navpack.PlannedVariants) {
		t.Fatalf("Plan: got %d items, want %d (planned entry wins, no along-route dup)", len(items), len(navpack.PlannedVariants))
	}
}

type fakeDescriber struct {
	resp *narration.Response
	err  error
}

func (f *fakeDescriber) Describe(ctx context.Context, req narration.Request) (*narration.Response, error) {
	return f.resp, f.err
}

func TestDescribeStripsThinkTagsAndTrims(t *testing.T) {
	fake := &fakeDescriber{resp: &narration.Response{Items: []narration.Item{
		{SpotID: "spot-1", Variant: navpack.VariantBase, Text: "  <think>scratch</think>Hello there.  "},
	}}}
	requested := []narration.SpotRequest{{SpotID: "spot-1", Variant: navpack.VariantBase}}

	items, err := Describe(context.Background(), fake, "en", requested)
	if err != nil {
		t.Fatalf("Describe: %v", err)
	}
	if len(items) != 1 || items[0].Text != "Hello there." {
		t.Fatalf("Describe: got %+v, want cleaned text", items)
	}
}

func TestDescribeFillsMissingPairsWithEmptyText(t *testing.T) {
	fake := &fakeDescriber{resp: &narration.Response{}}
	requested := []narration.SpotRequest{{SpotID: "spot-1", Variant: navpack.VariantBase}}

	items, err := Describe(context.Background(), fake, "en", requested)
	if err != nil {
		t.Fatalf("Describe: %v", err)
	}
	if len(items) != 1 || items[0].Text != "" {
		t.Fatalf("Describe: got %+v, want empty text for missing pair", items)
	}
}

func TestDescribeEmptyRequestIsNoop(t *testing.T) {
	items, err := Describe(context.Background(), &fakeDescriber{}, "en", nil)
	if err != nil || items != nil {
		t.Fatalf("Describe empty: got items=%v err=%v, want nil,nil", items, err)
	}
}
