// Package spatial is the C1 Spot Resolver's and C3 Corridor POI Finder's
// read-only gateway into the spatial store (spots, facilities, access
// points). Every query is raw SQL via gorm.Raw(...).Scan(...), the pattern
// used throughout the teacher's repository/message.go full-text queries,
// because the geometry operators (ST_DWithin, ST_Distance, the KNN <->
// operator, JSONB ->>) have no GORM query-builder equivalent.
package spatial

import (
	"context"
	"strings"

	"gorm.io/gorm"

	nerrors "github.com/takahashiJe/navpack-orchestrator/internal/pkg/errors"
	"github.com/takahashiJe/navpack-orchestrator/internal/domain/navpack"
)

type SpotStore struct {
	db *gorm.DB
}

func NewSpotStore(db *gorm.DB) *SpotStore {
	return &SpotStore{db: db}
}

type spotRow struct {
	SpotID      string
	Name        string
	Description string
	MDSlug      string
	Lat         float64
	Lon         float64
}

// ResolveSpots maps spot identifiers to coordinates and localized fields,
// per §4.1: a single query over the union of spots and facilities, spot
// precedence on duplicate ids, localized name/description falling back to
// en then empty string. Unknown ids are simply absent from the result; the
// caller (the workflow's C1 activity) is responsible for mapping a missing
// id to a fatal ValidationError(SpotNotFound).
func (s *SpotStore) ResolveSpots(ctx context.Context, ids []string, language string) (map[string]navpack.SpotRef, error) {
	out := map[string]navpack.SpotRef{}
	if len(ids) == 0 {
		return out, nil
	}
	lang := strings.ToLower(strings.TrimSpace(language))
	if lang == "" {
		lang = "en"
	}

	const q = `
WITH candidates AS (
  SELECT
    spot_id,
    COALESCE(NULLIF(official_name->>$1, ''), NULLIF(official_name->>'en', ''), '') AS name,
    COALESCE(NULLIF(description->>$1, ''), NULLIF(description->>'en', ''), '') AS description,
    COALESCE(md_slug, '') AS md_slug,
    ST_Y(geom) AS lat,
    ST_X(geom) AS lon,
    0 AS precedence
  FROM spots
  WHERE spot_id = ANY($2)
  UNION ALL
  SELECT
    spot_id,
    COALESCE(NULLIF(official_name->>$1, ''), NULLIF(official_name->>'en', ''), '') AS name,
    COALESCE(NULLIF(description->>$1, ''), NULLIF(description->>'en', ''), '') AS description,
    COALESCE(md_slug, '') AS md_slug,
    ST_Y(geom) AS lat,
    ST_X(geom) AS lon,
    1 AS precedence
  FROM facilities
  WHERE spot_id = ANY($2)
)
SELECT DISTINCT ON (spot_id) spot_id, name, description, md_slug, lat, lon
FROM candidates
ORDER BY spot_id, precedence ASC
`

	var rows []spotRow
	if err := s.db.WithContext(ctx).Raw(q, lang, idsAsArray(ids)).Scan(&rows).Error; err != nil {
		return nil, nerrors.New(nerrors.KindUpstreamUnavailable, "spot_resolve", err)
	}

	for _, r := range rows {
		out[r.SpotID] = navpack.SpotRef{
			SpotID:      r.SpotID,
			Name:        r.Name,
			Description: r.Description,
			MDSlug:      r.MDSlug,
			Lat:         r.Lat,
			Lon:         r.Lon,
		}
	}
	return out, nil
}

func idsAsArray(ids []string) []string {
	// pgx/lib-pq drivers accept a Go []string as a text[] bind when scanned
	// through ANY($n); copy defensively so callers can't mutate it under us.
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}
