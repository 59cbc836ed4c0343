package roof

import (
	"math"

	"github.com/paulmach/orb"
)

// EarthRadiusMeters is the spherical-earth radius used for geodesic distance
// approximations. Good to well under a percent at roof scale.
const EarthRadiusMeters = 6371000.0

// Fallback scale used when the building bounding box is missing or
// degenerate: assume a 50 m x 50 m footprint over a 500 x 500 px raster.
const (
	fallbackSpanMeters = 50.0
	fallbackSpanPixels = 500
)

// GeoToPixel maps a geodesic point into raster pixel space by linear
// interpolation across bounds: longitude maps to x, latitude maps to y with
// the axis inverted (north is row zero). The result is clamped to
// [0, dim-1]. If bounds is incomplete the raster center is returned, which
// keeps degraded inputs on-image rather than failing.
func GeoToPixel(p GeoPoint, bounds GeoBoundingBox, width, height int) PixelPoint {
	if !bounds.Complete() {
		return PixelPoint{X: width / 2, Y: height / 2}
	}

	lonSpan := bounds.NE.Longitude - bounds.SW.Longitude
	latSpan := bounds.NE.Latitude - bounds.SW.Latitude

	var fx, fy float64
	if lonSpan != 0 {
		fx = (p.Longitude - bounds.SW.Longitude) / lonSpan * float64(width-1)
	}
	if latSpan != 0 {
		fy = (bounds.NE.Latitude - p.Latitude) / latSpan * float64(height-1)
	}

	return PixelPoint{
		X: clampInt(int(math.Round(fx)), 0, width-1),
		Y: clampInt(int(math.Round(fy)), 0, height-1),
	}
}

// ComputeRealWorldScale derives meters-per-pixel on both axes from a
// building's geodesic bounding box and the raster dimensions. East-west
// distance is scaled by the cosine of the mean latitude. A missing or
// degenerate box yields the documented low-confidence fallback instead of an
// error; callers must check LowConfidence before trusting measurements.
func ComputeRealWorldScale(pixelWidth, pixelHeight int, bounds GeoBoundingBox) RealWorldScale {
	if pixelWidth <= 0 || pixelHeight <= 0 || !bounds.Complete() {
		return fallbackScale()
	}

	latSpan := math.Abs(bounds.NE.Latitude - bounds.SW.Latitude)
	lonSpan := math.Abs(bounds.NE.Longitude - bounds.SW.Longitude)
	if latSpan == 0 || lonSpan == 0 {
		return fallbackScale()
	}

	meanLat := (bounds.NE.Latitude + bounds.SW.Latitude) / 2 * math.Pi / 180
	heightMeters := latSpan * math.Pi / 180 * EarthRadiusMeters
	widthMeters := lonSpan * math.Pi / 180 * EarthRadiusMeters * math.Cos(meanLat)

	return RealWorldScale{
		MetersPerPixelX: widthMeters / float64(pixelWidth),
		MetersPerPixelY: heightMeters / float64(pixelHeight),
		PixelWidth:      pixelWidth,
		PixelHeight:     pixelHeight,
	}
}

func fallbackScale() RealWorldScale {
	return RealWorldScale{
		MetersPerPixelX: fallbackSpanMeters / fallbackSpanPixels,
		MetersPerPixelY: fallbackSpanMeters / fallbackSpanPixels,
		PixelWidth:      fallbackSpanPixels,
		PixelHeight:     fallbackSpanPixels,
		LowConfidence:   true,
	}
}

// ProjectFacet fills in a facet's pixel-space ring by mapping each geodesic
// corner through GeoToPixel against the building bounds. Facets with fewer
// than three corners produce an empty ring and are later skipped by layout.
func ProjectFacet(f *RoofFacet, building GeoBoundingBox, width, height int) {
	if len(f.Corners) < 3 {
		f.PixelRing = nil
		return
	}
	ring := make(orb.Ring, len(f.Corners))
	for i, c := range f.Corners {
		px := GeoToPixel(c, building, width, height)
		ring[i] = orb.Point{float64(px.X), float64(px.Y)}
	}
	f.PixelRing = ring
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
