package roof

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// PointInPolygon reports whether p lies inside (or on the boundary of) the
// given pixel-space ring. The ring does not need to be closed; a copy is
// closed on the fly when necessary.
func PointInPolygon(p orb.Point, ring orb.Ring) bool {
	if len(ring) < 3 {
		return false
	}
	if ring[0] != ring[len(ring)-1] {
		closed := make(orb.Ring, len(ring)+1)
		copy(closed, ring)
		closed[len(ring)] = ring[0]
		ring = closed
	}
	return planar.RingContains(ring, p)
}

// PolygonBounds computes the integer pixel bounding box of a ring. Min
// coordinates are floored and max coordinates are ceiled, so the box always
// covers the full polygon extent.
func PolygonBounds(ring orb.Ring) PixelBoundingBox {
	if len(ring) == 0 {
		return PixelBoundingBox{}
	}
	b := ring.Bound()
	return PixelBoundingBox{
		MinX: int(math.Floor(b.Min[0])),
		MinY: int(math.Floor(b.Min[1])),
		MaxX: int(math.Ceil(b.Max[0])),
		MaxY: int(math.Ceil(b.Max[1])),
	}
}

// RectToPolygon builds the four-corner pixel polygon of an axis-aligned
// rectangle, ordered top-left, top-right, bottom-right, bottom-left.
func RectToPolygon(x, y, w, h int) orb.Ring {
	fx, fy := float64(x), float64(y)
	fw, fh := float64(w), float64(h)
	return orb.Ring{
		{fx, fy},
		{fx + fw, fy},
		{fx + fw, fy + fh},
		{fx, fy + fh},
	}
}

// pixelCenter returns the center of a pixel cell as a planar point.
func pixelCenter(x, y, w, h int) orb.Point {
	return orb.Point{float64(x) + float64(w)/2, float64(y) + float64(h)/2}
}

// RingsOverlap reports whether any corner of one ring falls inside the other.
// This corner test is how panel/obstruction conflicts are detected; it is
// cheaper than full polygon intersection and sufficient for axis-aligned
// panel cells against obstruction boxes of comparable size.
func RingsOverlap(a, b orb.Ring) bool {
	for _, p := range a {
		if PointInPolygon(p, b) {
			return true
		}
	}
	for _, p := range b {
		if PointInPolygon(p, a) {
			return true
		}
	}
	return false
}
