// Package audio implements C5, the Audio Fan-Out: it batches narration
// items to the speech-synthesis engine and normalizes the per-item results,
// bounding the number of in-flight external calls via an injected limiter.
package audio

import (
	"context"
	"regexp"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/takahashiJe/navpack-orchestrator/internal/clients/synth"
	"github.com/takahashiJe/navpack-orchestrator/internal/domain/navpack"
)

// Synthesizer is the subset of the synth HTTP client C5 needs.
type Synthesizer interface {
	SynthesizeAndSave(ctx context.Context, req synth.Request) (*synth.Response, error)
}

// Limiter bounds concurrent external-service calls; Acquire blocks until a
// slot is available or ctx is done, Release returns it.
type Limiter interface {
	Acquire(ctx context.Context) error
	Release()
}

type Dispatcher struct {
	client     Synthesizer
	limiter    Limiter
	batchSize  int
}

func NewDispatcher(client Synthesizer, limiter Limiter, batchSize int) *Dispatcher {
	if batchSize <= 0 {
		batchSize = 20
	}
	return &Dispatcher{client: client, limiter: limiter, batchSize: batchSize}
}

var nonFilenameChar = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// SanitizeFilename implements §4.5's naming rule: "{spot_id}[_{variant}].{lang}.{ext}",
// with any character outside [A-Za-z0-9._-] replaced by "_". variant is
// omitted from the name when it equals the base variant.
func SanitizeFilename(spotID, variant, language, ext string) string {
	stem := spotID
	if variant != "" && variant != navpack.VariantBase {
		stem = spotID + "_" + variant
	}
	name := stem + "." + language + "." + ext
	return nonFilenameChar.ReplaceAllString(name, "_")
}

// Dispatch splits items into batches of batchSize and runs them concurrently
// under the limiter, via errgroup for bounded parallel fan-out (per §4.5).
// A failed batch yields Asset entries with nil Audio for every item in that
// batch rather than failing the whole job — partial synthesis is not an
// error per §7.
func (d *Dispatcher) Dispatch(ctx context.Context, packID, language string, items []navpack.NarrationItem, preferredFormat string, bitrateKbps int, saveText bool) ([]navpack.Asset, error) {
	if len(items) == 0 {
		return nil, nil
	}

	batches := chunk(items, d.batchSize)
	results := make([][]navpack.Asset, len(batches))

	g, gctx := errgroup.WithContext(ctx)
	for i, batch := range batches {
		i, batch := i, batch
		g.Go(func() error {
			if d.limiter != nil {
				if err := d.limiter.Acquire(gctx); err != nil {
					results[i] = textOnlyAssets(batch)
					return nil
				}
				defer d.limiter.Release()
			}
			results[i] = d.dispatchBatch(gctx, packID, language, batch, preferredFormat, bitrateKbps, saveText)
			return nil
		})
	}
	_ = g.Wait()

	out := make([]navpack.Asset, 0, len(items))
	for _, r := range results {
		out = append(out, r...)
	}
	return out, nil
}

func (d *Dispatcher) dispatchBatch(ctx context.Context, packID, language string, batch []navpack.NarrationItem, preferredFormat string, bitrateKbps int, saveText bool) []navpack.Asset {
	req := synth.Request{
		PackID:          packID,
		Language:        language,
		PreferredFormat: preferredFormat,
		BitrateKbps:     bitrateKbps,
		SaveText:        saveText,
	}
	for _, item := range batch {
		req.Items = append(req.Items, synth.ItemRequest{SpotID: item.SpotID, Variant: item.Variant, Text: item.Text})
	}

	resp, err := d.client.SynthesizeAndSave(ctx, req)
	if err != nil {
		return textOnlyAssets(batch)
	}

	byKey := make(map[string]synth.ItemResponse, len(resp.Items))
	for _, ir := range resp.Items {
		byKey[key(ir.SpotID, ir.Variant)] = ir
	}

	out := make([]navpack.Asset, 0, len(batch))
	for _, item := range batch {
		asset := navpack.Asset{SpotID: item.SpotID, Variant: item.Variant, Text: item.Text}
		if ir, ok := byKey[key(item.SpotID, item.Variant)]; ok && !ir.Failed {
			format := ir.Format
			if format == "" {
				format = resolveFormat(req.PreferredFormat)
			}
			url := ir.AudioURL
			if url == "" {
				url = SanitizeFilename(item.SpotID, item.Variant, req.Language, format)
			}
			asset.Audio = &navpack.Audio{
				URL:         url,
				SizeBytes:   ir.SizeBytes,
				DurationSec: ir.DurationSec,
				Format:      format,
			}
		}
		out = append(out, asset)
	}
	return out
}

// resolveFormat picks the format recorded for an item whose engine reply
// omits one: wav when wav was requested, mp3 for any other preference.
func resolveFormat(preferred string) string {
	if preferred == navpack.FormatWAV {
		return navpack.FormatWAV
	}
	return navpack.FormatMP3
}

func textOnlyAssets(items []navpack.NarrationItem) []navpack.Asset {
	out := make([]navpack.Asset, 0, len(items))
	for _, item := range items {
		out = append(out, navpack.Asset{SpotID: item.SpotID, Variant: item.Variant, Text: item.Text})
	}
	return out
}

func chunk(items []navpack.NarrationItem, size int) [][]navpack.NarrationItem {
	var out [][]navpack.NarrationItem
	for size < len(items) {
		items, out = items[size:], append(out, items[:size:size])
	}
	return append(out, items)
}

func key(spotID, variant string) string {
	return strings.Join([]string{spotID, variant}, "\x00")
}
