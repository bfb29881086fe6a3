package route

import "math"

const earthRadiusM = 6371000.0

// Haversine returns the great-circle distance between two WGS84 points, in
// meters.
func Haversine(aLat, aLon, bLat, bLon float64) float64 {
	lat1 := aLat * math.Pi / 180
	lat2 := bLat * math.Pi / 180
	dLat := (bLat - aLat) * math.Pi / 180
	dLon := (bLon - aLon) * math.Pi / 180

	sinDLat := math.Sin(dLat / 2)
	sinDLon := math.Sin(dLon / 2)
	a := sinDLat*sinDLat + math.Cos(lat1)*math.Cos(lat2)*sinDLon*sinDLon
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusM * c
}

// ToWebMercator projects a WGS84 [lon,lat] pair into EPSG:3857 meters. This
// is the same projection the original pipeline used (pyproj 4326->3857) for
// planar nearest-point computation; no pack dependency offers this
// directly; see DESIGN.md for why hand-rolled math is acceptable here.
func ToWebMercator(lon, lat float64) (x, y float64) {
	const originShift = 2 * math.Pi * earthRadiusM / 2.0
	x = lon * originShift / 180.0
	y = math.Log(math.Tan((90.0+lat)*math.Pi/360.0)) / (math.Pi / 180.0)
	y = y * originShift / 180.0
	return x, y
}

// NearestVertexIndex returns the index of the polyline vertex closest to
// (lon,lat) under the Web Mercator metric, and the planar distance in
// meters from that vertex to the point. Used by both C3 (POI attachment)
// and C6 (waypoints_info) — the shared nearest-vertex algorithm the spec
// requires to run identically in both places.
func NearestVertexIndex(polyline [][2]float64, lon, lat float64) (idx int, distanceM float64) {
	if len(polyline) == 0 {
		return 0, 0
	}
	px, py := ToWebMercator(lon, lat)
	best := 0
	bestDist := math.Inf(1)
	for i, p := range polyline {
		vx, vy := ToWebMercator(p[0], p[1])
		dx := vx - px
		dy := vy - py
		d := math.Sqrt(dx*dx + dy*dy)
		if d < bestDist {
			bestDist = d
			best = i
		}
	}
	return best, bestDist
}
