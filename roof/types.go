package roof

import (
	"math"

	"github.com/paulmach/orb"
)

// GeoPoint is a WGS84 coordinate.
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// GeoBoundingBox is an axis-aligned geodesic box. Either corner may be nil
// when the upstream building lookup could not resolve it; consumers must
// handle the partial case (see GeoToPixel and ComputeRealWorldScale).
type GeoBoundingBox struct {
	SW *GeoPoint `json:"sw,omitempty"`
	NE *GeoPoint `json:"ne,omitempty"`
}

// Complete reports whether both corners are present.
func (b GeoBoundingBox) Complete() bool {
	return b.SW != nil && b.NE != nil
}

// Intersects reports whether two complete boxes overlap or touch within
// tol degrees on both axes. Incomplete boxes never intersect anything.
func (b GeoBoundingBox) Intersects(other GeoBoundingBox, tol float64) bool {
	if !b.Complete() || !other.Complete() {
		return false
	}
	if b.SW.Longitude > other.NE.Longitude+tol || other.SW.Longitude > b.NE.Longitude+tol {
		return false
	}
	if b.SW.Latitude > other.NE.Latitude+tol || other.SW.Latitude > b.NE.Latitude+tol {
		return false
	}
	return true
}

// PixelPoint is an integer raster coordinate, clamped to the raster extent
// by the functions that produce it.
type PixelPoint struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// PixelBoundingBox is an inclusive integer pixel box.
type PixelBoundingBox struct {
	MinX int `json:"minX"`
	MinY int `json:"minY"`
	MaxX int `json:"maxX"`
	MaxY int `json:"maxY"`
}

// Orientation is the compass sector a facet faces, derived canonically from
// azimuth. Free-text labels from upstream segmentation are treated as display
// hints only and never drive layout decisions.
type Orientation int

const (
	OrientationUnknown Orientation = iota
	North
	NorthEast
	East
	SouthEast
	South
	SouthWest
	West
	NorthWest
)

var orientationNames = map[Orientation]string{
	OrientationUnknown: "unknown",
	North:              "north",
	NorthEast:          "northeast",
	East:               "east",
	SouthEast:          "southeast",
	South:              "south",
	SouthWest:          "southwest",
	West:               "west",
	NorthWest:          "northwest",
}

func (o Orientation) String() string {
	if name, ok := orientationNames[o]; ok {
		return name
	}
	return "unknown"
}

// OrientationFromAzimuth buckets an azimuth in degrees-from-north into one of
// the eight compass sectors, each 45 degrees wide and centered on its heading.
func OrientationFromAzimuth(azimuth float64) Orientation {
	a := math.Mod(azimuth, 360)
	if a < 0 {
		a += 360
	}
	sector := int(math.Floor((a+22.5)/45)) % 8
	return Orientation(sector + 1)
}

// RoofFacet is a single planar roof segment produced by the upstream
// segmentation service. PixelRing is populated during analysis by projecting
// Corners onto the elevation raster; it is empty until then.
type RoofFacet struct {
	ID              string         `json:"id"`
	PitchDegrees    float64        `json:"pitchDegrees"`
	AzimuthDegrees  float64        `json:"azimuthDegrees"`
	AreaM2          float64        `json:"areaM2"`
	GroundAreaM2    float64        `json:"groundAreaM2"`
	Center          GeoPoint       `json:"center"`
	Bounds          GeoBoundingBox `json:"boundingBox"`
	Corners         []GeoPoint     `json:"corners"`
	Suitability     float64        `json:"suitability"`
	Orientation     Orientation    `json:"-"`
	OrientationHint string         `json:"orientation,omitempty"`
	GroupID         string         `json:"groupId,omitempty"`

	PixelRing orb.Ring `json:"-"`
}

// FacetGroup aggregates two or more adjacent, slope-compatible facets.
// Pitch, azimuth and suitability are area-weighted over the members; azimuth
// uses a circular mean so headings near the 0/360 seam average correctly.
type FacetGroup struct {
	ID          string         `json:"id"`
	MemberIDs   []string       `json:"memberIds"`
	Pitch       float64        `json:"pitchDegrees"`
	Azimuth     float64        `json:"azimuthDegrees"`
	Suitability float64        `json:"suitability"`
	AreaM2      float64        `json:"areaM2"`
	Corners     []GeoPoint     `json:"corners"`
	Bounds      GeoBoundingBox `json:"boundingBox"`
}

// ElevationRaster is a row-major digital surface model cropped to the
// building of interest. Values are elevations in meters; cells equal to
// NoData carry no measurement.
type ElevationRaster struct {
	Width  int       `json:"width"`
	Height int       `json:"height"`
	Values []float64 `json:"values"`
	NoData float64   `json:"noData"`
	Min    float64   `json:"min"`
	Max    float64   `json:"max"`
}

// At returns the elevation at (x, y) in meters. ok is false for
// out-of-bounds coordinates and no-data cells.
func (r *ElevationRaster) At(x, y int) (elev float64, ok bool) {
	if x < 0 || y < 0 || x >= r.Width || y >= r.Height {
		return 0, false
	}
	v := r.Values[y*r.Width+x]
	if v == r.NoData {
		return 0, false
	}
	return v, true
}

// RealWorldScale maps raster pixels to ground distance. LowConfidence is set
// when the building bounding box was missing or degenerate and the documented
// fallback (50 m x 50 m over 500 x 500 px) was used instead; callers should
// treat such results as degraded precision, not authoritative.
type RealWorldScale struct {
	MetersPerPixelX float64 `json:"metersPerPixelX"`
	MetersPerPixelY float64 `json:"metersPerPixelY"`
	PixelWidth      int     `json:"pixelWidth"`
	PixelHeight     int     `json:"pixelHeight"`
	LowConfidence   bool    `json:"lowConfidence,omitempty"`
}

// Panel is one accepted solar panel placement. Immutable once produced.
type Panel struct {
	ID          string   `json:"id"`
	FacetID     string   `json:"facetId"`
	X           int      `json:"x"`
	Y           int      `json:"y"`
	Width       int      `json:"width"`
	Height      int      `json:"height"`
	WidthM      float64  `json:"widthM"`
	HeightM     float64  `json:"heightM"`
	Pitch       float64  `json:"pitchDegrees"`
	Azimuth     float64  `json:"azimuthDegrees"`
	Row         int      `json:"row"`
	Col         int      `json:"col"`
	Polygon     orb.Ring `json:"-"`
	AvgSlopeDeg float64  `json:"avgSlopeDeg"`
}

// ObstructionKind classifies why a raster region was rejected.
type ObstructionKind string

const (
	ObstructionSlopeVariance   ObstructionKind = "slope_variance"
	ObstructionGlobalMismatch  ObstructionKind = "global_mismatch"
	ObstructionSegmentBoundary ObstructionKind = "segment_boundary"
	ObstructionOverlap         ObstructionKind = "obstruction_overlap"
)

// Obstruction marks a raster region whose measured slope is inconsistent
// with the facet plane. Immutable once produced.
type Obstruction struct {
	ID                 string           `json:"id"`
	FacetID            string           `json:"facetId"`
	Region             PixelBoundingBox `json:"region"`
	Polygon            orb.Ring         `json:"-"`
	Kind               ObstructionKind  `json:"kind"`
	LocalDeviationDeg  float64          `json:"localDeviationDeg"`
	GlobalDeviationDeg float64          `json:"globalDeviationDeg"`
}

// Metadata summarizes an analysis run for the response-formatting layer.
type Metadata struct {
	FacetCount         int     `json:"facetCount"`
	GroupCount         int     `json:"groupCount"`
	DroppedFacets      int     `json:"droppedFacets"`
	SkippedFacets      int     `json:"skippedFacets"`
	PanelCount         int     `json:"panelCount"`
	TotalPanelAreaM2   float64 `json:"totalPanelAreaM2"`
	PotentialKW        float64 `json:"potentialKw"`
	ObstructionCount   int     `json:"obstructionCount"`
	LowConfidenceScale bool    `json:"lowConfidenceScale,omitempty"`
}

// Result is the full output of one analysis run. It is held only for the
// current request; nothing is persisted or mutated after creation.
type Result struct {
	Panels       []Panel       `json:"panels"`
	Obstructions []Obstruction `json:"obstructions"`
	Metadata     Metadata      `json:"metadata"`
}
