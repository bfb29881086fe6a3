package spatial

import (
	"context"
	"encoding/json"

	"gorm.io/gorm"

	nerrors "github.com/takahashiJe/navpack-orchestrator/internal/pkg/errors"
	"github.com/takahashiJe/navpack-orchestrator/internal/domain/navpack"
)

type POIStore struct {
	db *gorm.DB
}

func NewPOIStore(db *gorm.DB) *POIStore {
	return &POIStore{db: db}
}

// MultiLineString is a minimal GeoJSON MultiLineString encoder for the
// per-mode line collections C3 builds from the stitched polyline.
type MultiLineString struct {
	Coordinates [][][2]float64
}

func (m MultiLineString) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type        string        `json:"type"`
		Coordinates [][][2]float64 `json:"coordinates"`
	}{Type: "MultiLineString", Coordinates: m.Coordinates})
}

type poiRow struct {
	SpotID            string
	Name              string
	Lon               float64
	Lat               float64
	Kind              string
	DistanceM         float64
	SourceSegmentMode string
}

// FindAlongRoute implements the §6 POI query: for each POI within carM of
// the car line OR footM of the foot line, returns its fields plus the
// minimum geodesic distance and the mode whose tolerance it fell within
// (car wins on a tie, per §4.3). excludedIDs (the planned waypoint set) are
// left out of the result entirely.
func (s *POIStore) FindAlongRoute(ctx context.Context, language string, carLine, footLine *MultiLineString, carM, footM float64, excludedIDs []string) ([]navpack.AlongPOI, error) {
	var carGeoJSON, footGeoJSON []byte
	if carLine != nil {
		b, err := json.Marshal(carLine)
		if err != nil {
			return nil, nerrors.New(nerrors.KindInternal, "poi_query", err)
		}
		carGeoJSON = b
	}
	if footLine != nil {
		b, err := json.Marshal(footLine)
		if err != nil {
			return nil, nerrors.New(nerrors.KindInternal, "poi_query", err)
		}
		footGeoJSON = b
	}

	const q = `
WITH car_line AS (
  SELECT CASE WHEN $1::text IS NOT NULL THEN ST_SetSRID(ST_GeomFromGeoJSON($1), 4326)::geography END AS geog
), foot_line AS (
  SELECT CASE WHEN $2::text IS NOT NULL THEN ST_SetSRID(ST_GeomFromGeoJSON($2), 4326)::geography END AS geog
), candidates AS (
  SELECT spot_id,
         COALESCE(NULLIF(official_name->>$3, ''), NULLIF(official_name->>'en', ''), '') AS name,
         ST_X(geom) AS lon, ST_Y(geom) AS lat,
         'spot' AS kind,
         geom::geography AS geog
  FROM spots
  UNION ALL
  SELECT spot_id,
         COALESCE(NULLIF(official_name->>$3, ''), NULLIF(official_name->>'en', ''), '') AS name,
         ST_X(geom) AS lon, ST_Y(geom) AS lat,
         'facility' AS kind,
         geom::geography AS geog
  FROM facilities
), distances AS (
  SELECT c.spot_id, c.name, c.lon, c.lat, c.kind,
         CASE WHEN cl.geog IS NOT NULL THEN ST_Distance(c.geog, cl.geog) END AS car_distance_m,
         CASE WHEN fl.geog IS NOT NULL THEN ST_Distance(c.geog, fl.geog) END AS foot_distance_m
  FROM candidates c, car_line cl, foot_line fl
  WHERE NOT (c.spot_id = ANY($6))
    AND (
      (cl.geog IS NOT NULL AND ST_DWithin(c.geog, cl.geog, $4))
      OR (fl.geog IS NOT NULL AND ST_DWithin(c.geog, fl.geog, $5))
    )
)
SELECT spot_id, name, lon, lat, kind,
       CASE WHEN car_distance_m IS NOT NULL AND car_distance_m <= $4 THEN car_distance_m ELSE foot_distance_m END AS distance_m,
       CASE WHEN car_distance_m IS NOT NULL AND car_distance_m <= $4 THEN 'car' ELSE 'foot' END AS source_segment_mode
FROM distances
`

	var carArg, footArg interface{}
	if carGeoJSON != nil {
		carArg = string(carGeoJSON)
	}
	if footGeoJSON != nil {
		footArg = string(footGeoJSON)
	}

	var rows []poiRow
	if err := s.db.WithContext(ctx).Raw(q, carArg, footArg, language, carM, footM, excludedIDsOrEmpty(excludedIDs)).Scan(&rows).Error; err != nil {
		return nil, nerrors.New(nerrors.KindUpstreamUnavailable, "poi_query", err)
	}

	out := make([]navpack.AlongPOI, 0, len(rows))
	for _, r := range rows {
		out = append(out, navpack.AlongPOI{
			SpotID:            r.SpotID,
			Name:              r.Name,
			Lon:               r.Lon,
			Lat:               r.Lat,
			Kind:              r.Kind,
			DistanceM:         r.DistanceM,
			SourceSegmentMode: r.SourceSegmentMode,
		})
	}
	return out, nil
}

func excludedIDsOrEmpty(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
