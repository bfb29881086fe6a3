// Package corridor implements C3, the Corridor POI Finder: it builds the
// per-mode GeoJSON line collections the spatial query needs, then attaches
// each returned POI to its nearest polyline vertex using the same
// nearest-vertex algorithm the Pack Assembler uses for waypoints_info.
package corridor

import (
	"context"

	"github.com/takahashiJe/navpack-orchestrator/internal/clients/spatial"
	"github.com/takahashiJe/navpack-orchestrator/internal/core/route"
	"github.com/takahashiJe/navpack-orchestrator/internal/domain/navpack"
)

// POIFinder is the subset of the spatial POI query C3 needs.
type POIFinder interface {
	FindAlongRoute(ctx context.Context, language string, carLine, footLine *spatial.MultiLineString, carM, footM float64, excludedIDs []string) ([]navpack.AlongPOI, error)
}

type Finder struct {
	store POIFinder
}

func NewFinder(store POIFinder) *Finder {
	return &Finder{store: store}
}

// Find runs the §4.3 corridor search: car- and foot-mode sub-polylines are
// extracted from the stitched segments and passed together to a single
// spatial query (either line is nil when its mode has no segments), then
// every returned POI is attached to the nearest vertex of the FULL stitched
// polyline (not its own sub-line) so waypoints_info and along_pois share one
// coordinate frame. The DB-reported distance_m is preserved as-is; only
// nearest_idx is computed here.
func (f *Finder) Find(ctx context.Context, language string, polyline navpack.Polyline, segments []navpack.Segment, buffer navpack.Buffer, excludedIDs []string) ([]navpack.AlongPOI, error) {
	carLine := lineForMode(polyline, segments, navpack.ModeCar)
	footLine := lineForMode(polyline, segments, navpack.ModeFoot)

	pois, err := f.store.FindAlongRoute(ctx, language, carLine, footLine, buffer.CarM, buffer.FootM, excludedIDs)
	if err != nil {
		return nil, err
	}

	for i := range pois {
		idx, _ := route.NearestVertexIndex(polyline, pois[i].Lon, pois[i].Lat)
		pois[i].NearestIdx = idx
	}
	return pois, nil
}

func lineForMode(polyline navpack.Polyline, segments []navpack.Segment, mode string) *spatial.MultiLineString {
	var coords [][][2]float64
	for _, seg := range segments {
		if seg.Mode != mode || seg.EndIdx <= seg.StartIdx {
			continue
		}
		coords = append(coords, polyline[seg.StartIdx:seg.EndIdx+1])
	}
	if len(coords) == 0 {
		return nil
	}
	return &spatial.MultiLineString{Coordinates: coords}
}
