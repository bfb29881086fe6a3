package spatial

import (
	"context"

	"gorm.io/gorm"

	nerrors "github.com/takahashiJe/navpack-orchestrator/internal/pkg/errors"
	"github.com/takahashiJe/navpack-orchestrator/internal/domain/navpack"
)

type AccessPointStore struct {
	db *gorm.DB
}

func NewAccessPointStore(db *gorm.DB) *AccessPointStore {
	return &AccessPointStore{db: db}
}

type accessPointRow struct {
	Lat float64
	Lon float64
}

// NearestAccessPoint resolves the nearest drivable approach to dst via a
// KNN `<->` index query. The caller (Route Builder, §4.2) is responsible
// for the documented eastward-offset fallback when this returns an error —
// that fallback exists to keep the pipeline progressing when the spatial
// store is unavailable, not for correctness, so it does not belong in the
// query layer itself.
func (s *AccessPointStore) NearestAccessPoint(ctx context.Context, dst navpack.LatLon) (navpack.AccessPoint, error) {
	const q = `
SELECT ST_Y(geom) AS lat, ST_X(geom) AS lon
FROM access_points
ORDER BY geom <-> ST_SetSRID(ST_MakePoint($1, $2), 4326)
LIMIT 1
`
	var row accessPointRow
	res := s.db.WithContext(ctx).Raw(q, dst.Lon, dst.Lat).Scan(&row)
	if res.Error != nil {
		return navpack.AccessPoint{}, nerrors.New(nerrors.KindUpstreamUnavailable, "access_point_lookup", res.Error)
	}
	if res.RowsAffected == 0 {
		return navpack.AccessPoint{}, nerrors.New(nerrors.KindUpstreamUnavailable, "access_point_lookup", gorm.ErrRecordNotFound)
	}
	return navpack.AccessPoint{Lat: row.Lat, Lon: row.Lon}, nil
}
