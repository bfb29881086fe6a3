package audio

import (
	"context"
	"errors"
	"testing"

	"github.com/takahashiJe/navpack-orchestrator/internal/clients/synth"
	"github.com/takahashiJe/navpack-orchestrator/internal/domain/navpack"
)

func TestSanitizeFilenameOmitsBaseVariant(t *testing.T) {
	got := SanitizeFilename("spot-1", navpack.VariantBase, "ja", "mp3")
	if got != "spot-1.ja.mp3" {
		t.Fatalf("SanitizeFilename base: got=%q", got)
	}
}

func TestSanitizeFilenameIncludesNonBaseVariant(t *testing.T) {
	got := SanitizeFilename("spot-1", navpack.VariantWeather1, "ja", "mp3")
	if got != "spot-1_weather_1.ja.mp3" {
		t.Fatalf("SanitizeFilename variant: got=%q", got)
	}
}

func TestSanitizeFilenameReplacesIllegalChars(t *testing.T) {
	got := SanitizeFilename("spot/1", navpack.VariantBase, "ja", "mp3")
	if got != "spot_1.ja.mp3" {
		t.Fatalf("SanitizeFilename illegal chars: got=%q", got)
	}
}

type fakeSynthesizer struct {
	resp *synth.Response
	err  error
}

func (f *fakeSynthesizer) SynthesizeAndSave(ctx context.Context, req synth.Request) (*synth.Response, error) {
	return f.resp, f.err
}

func TestDispatchBuildsAssetsFromResponse(t *testing.T) {
	fake := &fakeSynthesizer{resp: &synth.Response{Items: []synth.ItemResponse{
		{SpotID: "spot-1", Variant: navpack.VariantBase, AudioURL: "spot-1.ja.mp3", Format: navpack.FormatMP3, SizeBytes: 1024},
	}}}
	d := NewDispatcher(fake, nil, 10)

	items := []navpack.NarrationItem{{SpotID: "spot-1", Variant: navpack.VariantBase, Text: "hello"}}
	assets, err := d.Dispatch(context.Background(), "pack-1", "ja", items, navpack.FormatMP3, 64, false)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if len(assets) != 1 || assets[0].Audio == nil {
		t.Fatalf("Dispatch: got %+v, want one asset with audio", assets)
	}
	if assets[0].Audio.URL != "spot-1.ja.mp3" {
		t.Fatalf("Dispatch: got url=%q", assets[0].Audio.URL)
	}
}

func TestDispatchFailedBatchYieldsTextOnlyAssets(t *testing.T) {
	fake := &fakeSynthesizer{err: errors.New("synth unavailable")}
	d := NewDispatcher(fake, nil, 10)

	items := []navpack.NarrationItem{{SpotID: "spot-1", Variant: navpack.VariantBase, Text: "hello"}}
	assets, err := d.Dispatch(context.Background(), "pack-1", "ja", items, navpack.FormatMP3, 64, false)
	if err != nil {
		t.Fatalf("Dispatch: got unexpected error %v (partial failure must not fail the job)", err)
	}
	if len(assets) != 1 || assets[0].Audio != nil || assets[0].Text != "hello" {
		t.Fatalf("Dispatch: got %+v, want text-only asset", assets)
	}
}

func TestDispatchBatchesBySize(t *testing.T) {
	fake := &fakeSynthesizer{resp: &synth.Response{}}
	d := NewDispatcher(fake, nil, 2)

	items := make([]navpack.NarrationItem, 5)
	for i := range items {
		items[i] = navpack.NarrationItem{SpotID: "spot", Variant: navpack.VariantBase}
	}
	assets, err := d.Dispatch(context.Background(), "pack-1", "ja", items, navpack.FormatMP3, 64, false)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if len(assets) != 5 {
		t.Fatalf("Dispatch: got %d assets, want 5 regardless of batching", len(assets))
	}
}

func TestDispatchEmptyIsNoop(t *testing.T) {
	d := NewDispatcher(&fakeSynthesizer{}, nil, 10)
	assets, err := d.Dispatch(context.Background(), "pack-1", "ja", nil, navpack.FormatMP3, 64, false)
	if err != nil || assets != nil {
		t.Fatalf("Dispatch empty: got assets=%v err=%v, want nil,nil", assets, err)
	}
}
