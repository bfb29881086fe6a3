// Package navpack holds the data model shared by every stage of the plan
// pipeline (C1..C6): coordinates are WGS84 decimal degrees, distances are
// meters, durations are seconds, unless a field says otherwise.
package navpack

import "time"

// LatLon is a WGS84 coordinate pair.
type LatLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Buffer holds the mode-specific corridor widths used by the Corridor POI
// Finder (C3), in meters.
type Buffer struct {
	CarM  float64 `json:"car_m"`
	FootM float64 `json:"foot_m"`
}

// DefaultBuffer matches the spec's defaults: 300m for car, 10m for foot.
func DefaultBuffer() Buffer {
	return Buffer{CarM: 300, FootM: 10}
}

// PlanRequest is the immutable input to one plan job.
type PlanRequest struct {
	Language        string   `json:"language"`
	Origin          LatLon   `json:"origin"`
	Waypoints       []string `json:"waypoints"`
	ReturnToOrigin  bool     `json:"return_to_origin"`
	Buffer          Buffer   `json:"buffer"`
}

// SpotRef is a resolved spot: coordinates plus fields localized to the
// request language. Derived per job; never persisted directly.
type SpotRef struct {
	SpotID      string `json:"spot_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	MDSlug      string `json:"md_slug,omitempty"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
}

// AccessPoint is the nearest drivable approach to an off-road destination.
type AccessPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

const (
	ModeCar  = "car"
	ModeFoot = "foot"
)

// Leg is a single routed segment between two coordinates.
type Leg struct {
	Mode      string     `json:"mode"`
	From      LatLon     `json:"from"`
	To        LatLon     `json:"to"`
	DistanceM float64    `json:"distance_m"`
	DurationS float64    `json:"duration_s"`
	Geometry  [][2]float64 `json:"geometry"` // [lon,lat] points
}

// Polyline is the concatenated route geometry: ordered [lon,lat] points.
type Polyline [][2]float64

// Segment is an inclusive index range over Polyline tagged with a mode.
type Segment struct {
	Mode     string `json:"mode"`
	StartIdx int    `json:"start_idx"`
	EndIdx   int    `json:"end_idx"`
}

const (
	KindSpot     = "spot"
	KindFacility = "facility"
)

// AlongPOI is a point of interest discovered along the stitched route.
type AlongPOI struct {
	SpotID            string  `json:"spot_id"`
	Name              string  `json:"name"`
	Lon               float64 `json:"lon"`
	Lat               float64 `json:"lat"`
	Kind              string  `json:"kind"`
	NearestIdx        int     `json:"nearest_idx"`
	DistanceM         float64 `json:"distance_m"`
	SourceSegmentMode string  `json:"source_segment_mode"`
}

const (
	VariantBase        = "base"
	VariantWeather1    = "weather_1"
	VariantWeather2    = "weather_2"
	VariantCongestion1 = "congestion_1"
	VariantCongestion2 = "congestion_2"
)

// PlannedVariants is the full situational-variant set generated for every
// planned waypoint (not for along-route POIs: spots along the route receive
// base only, facilities along the route are not narrated).
var PlannedVariants = []string{VariantBase, VariantWeather1, VariantWeather2, VariantCongestion1, VariantCongestion2}

// NarrationItem is one generated narration, identity-keyed by (SpotID, Variant).
type NarrationItem struct {
	SpotID  string `json:"spot_id"`
	Variant string `json:"variant"`
	Text    string `json:"text"`
}

const (
	FormatMP3 = "mp3"
	FormatWAV = "wav"
)

// Audio describes one synthesized audio file, rooted under the pack
// directory (URL is a path under the pack root, never absolute).
type Audio struct {
	URL         string  `json:"url"`
	SizeBytes   int64   `json:"size_bytes"`
	DurationSec float64 `json:"duration_sec"`
	Format      string  `json:"format"`
}

// Asset joins a NarrationItem with its (possibly absent) Audio.
type Asset struct {
	SpotID  string `json:"spot_id"`
	Variant string `json:"variant"`
	Text    string `json:"text"`
	Audio   *Audio `json:"audio,omitempty"`
}

// RouteFeature is one Feature in the route's GeoJSON-shaped feature
// collection view, one per leg.
type RouteFeature struct {
	Mode      string  `json:"mode"`
	FromIdx   int     `json:"from_idx"`
	ToIdx     int     `json:"to_idx"`
	DistanceM float64 `json:"distance_m"`
	DurationS float64 `json:"duration_s"`
}

// Manifest is the durable record of one completed plan.
type Manifest struct {
	PackID       string         `json:"pack_id"`
	Language     string         `json:"language"`
	GeneratedAt  time.Time      `json:"generated_at"`
	Route        []RouteFeature `json:"route"`
	Polyline     Polyline       `json:"polyline"`
	Segments     []Segment      `json:"segments"`
	Legs         []Leg          `json:"legs"`
	WaypointsInfo []AlongPOI    `json:"waypoints_info"`
	AlongPOIs    []AlongPOI     `json:"along_pois"`
	Assets       []Asset        `json:"assets"`
}

const (
	JobStatePending   = "pending"
	JobStateRunning   = "running"
	JobStateSucceeded = "succeeded"
	JobStateFailed    = "failed"
	JobStateRetrying  = "retrying"
)

// Job is the opaque, process-wide tracked state of one submitted plan.
type Job struct {
	JobID       string
	PackID      string
	State       string
	Stage       string
	Progress    int
	ErrorKind   string
	ErrorMsg    string
	Manifest    *Manifest
	CreatedAt   time.Time
	CompletedAt *time.Time
}
