// Package narrate implements C4, the Narration Planner: it decides which
// (spot_id, variant) pairs need narration text and dispatches one batch
// request to the narration engine.
package narrate

import (
	"context"
	"regexp"
	"strings"

	"github.com/takahashiJe/navpack-orchestrator/internal/clients/narration"
	"github.com/takahashiJe/navpack-orchestrator/internal/domain/navpack"
)

// Describer is the subset of the narration HTTP client C4 needs.
type Describer interface {
	Describe(ctx context.Context, req narration.Request) (*narration.Response, error)
}

type Planner struct {
	client Describer
}

func NewPlanner(client Describer) *Planner {
	return &Planner{client: client}
}

// Plan delegates to the package-level Plan function using the waypoint and
// along-POI sets assembled earlier in the pipeline.
func (p *Planner) Plan(waypoints []navpack.SpotRef, alongPOIs []navpack.AlongPOI) []narration.SpotRequest {
	return Plan(waypoints, alongPOIs)
}

// Describe dispatches the planned work list to this Planner's narration
// client and normalizes the response per §4.4.
func (p *Planner) Describe(ctx context.Context, language string, requested []narration.SpotRequest) ([]navpack.NarrationItem, error) {
	return Describe(ctx, p.client, language, requested)
}

var thinkTagRE = regexp.MustCompile(`(?s)<think>.*?</think>`)

// Plan builds the (spot_id, variant) work list per §4.4: every planned
// waypoint receives the full situational-variant set; every along-route POI
// of kind "spot" receives only the base variant; facilities are never
// narrated. Waypoints that also appear along the route (already resolved
// once, e.g. a loop) are deduplicated by spot_id, first occurrence wins, so
// the planned entry's full variant set takes precedence over the along-route
// single-variant entry.
func Plan(waypoints []navpack.SpotRef, alongPOIs []navpack.AlongPOI) []narration.SpotRequest {
	seen := make(map[string]bool, len(waypoints)+len(alongPOIs))
	items := make([]narration.SpotRequest, 0, len(waypoints)*len(navpack.PlannedVariants)+len(alongPOIs))

	for _, wp := range waypoints {
		if seen[wp.SpotID] {
			continue
		}
		seen[wp.SpotID] = true
		for _, v := range navpack.PlannedVariants {
			items = append(items, narration.SpotRequest{
				SpotID:      wp.SpotID,
				Name:        wp.Name,
				Description: wp.Description,
				MDSlug:      wp.MDSlug,
				Variant:     v,
			})
		}
	}

	for _, poi := range alongPOIs {
		if poi.Kind != navpack.KindSpot || seen[poi.SpotID] {
			continue
		}
		seen[poi.SpotID] = true
		items = append(items, narration.SpotRequest{
			SpotID:  poi.SpotID,
			Name:    poi.Name,
			Variant: navpack.VariantBase,
		})
	}

	return items
}

// Describe dispatches the batch and normalizes the response per §4.4:
// engine output has any <think>...</think> scratchpad stripped and is
// trimmed; any requested (spot_id, variant) pair absent from the response
// is filled with empty text rather than failing the job.
func Describe(ctx context.Context, client Describer, language string, requested []narration.SpotRequest) ([]navpack.NarrationItem, error) {
	if len(requested) == 0 {
		return nil, nil
	}

	resp, err := client.Describe(ctx, narration.Request{Language: language, Spots: requested})

	byKey := make(map[string]string)
	if resp != nil {
		for _, item := range resp.Items {
			byKey[key(item.SpotID, item.Variant)] = clean(item.Text)
		}
	}

	out := make([]navpack.NarrationItem, 0, len(requested))
	for _, r := range requested {
		out = append(out, navpack.NarrationItem{
			SpotID:  r.SpotID,
			Variant: r.Variant,
			Text:    byKey[key(r.SpotID, r.Variant)],
		})
	}
	if err != nil {
		return out, err
	}
	return out, nil
}

func clean(text string) string {
	return strings.TrimSpace(thinkTagRE.ReplaceAllString(text, ""))
}

func key(spotID, variant string) string {
	return spotID + "\x00" + variant
}
