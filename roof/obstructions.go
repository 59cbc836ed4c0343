package roof

import (
	"math"

	"github.com/google/uuid"
)

// DetectObstructions scans every facet at a finer resolution than panel
// layout (half-meter cells with overlapping strides) and records an
// Obstruction for each interior cell whose measured slope disagrees with the
// facet's declared pitch. Overlapping strides mean the same bump is seen by
// several cells, so detections within one cell width of an existing
// obstruction on the same facet are dropped as duplicates.
func DetectObstructions(facets []RoofFacet, raster *ElevationRaster, scale RealWorldScale, cfg ObstructionConfig) []Obstruction {
	var out []Obstruction
	for i := range facets {
		out = append(out, detectFacetObstructions(&facets[i], raster, scale, cfg, out)...)
	}
	return out
}

func detectFacetObstructions(f *RoofFacet, raster *ElevationRaster, scale RealWorldScale, cfg ObstructionConfig, existing []Obstruction) []Obstruction {
	if len(f.PixelRing) < 3 {
		return nil
	}

	cellW := pixelCell(cfg.CellSizeM, scale.MetersPerPixelX)
	cellH := pixelCell(cfg.CellSizeM, scale.MetersPerPixelY)
	strideX := cellStride(cellW, cfg.StrideOverlap)
	strideY := cellStride(cellH, cfg.StrideOverlap)

	bounds := PolygonBounds(f.PixelRing)
	dedupDist := float64(cellW) * cfg.DedupDistanceCells

	var found []Obstruction
	for y := bounds.MinY; y+cellH <= bounds.MaxY; y += strideY {
		for x := bounds.MinX; x+cellW <= bounds.MaxX; x += strideX {
			center := pixelCenter(x, y, cellW, cellH)
			if !PointInPolygon(center, f.PixelRing) {
				continue
			}

			region := PixelBoundingBox{MinX: x, MinY: y, MaxX: x + cellW, MaxY: y + cellH}
			check := CheckBlockSlope(raster, scale, region, f.PitchDegrees, cfg.MaxLocalDevDeg, cfg.MaxGlobalDevDeg)
			if check.IsValid {
				continue
			}
			if nearExisting(f.ID, region, existing, dedupDist) || nearExisting(f.ID, region, found, dedupDist) {
				continue
			}

			found = append(found, Obstruction{
				ID:                 uuid.NewString(),
				FacetID:            f.ID,
				Region:             region,
				Polygon:            RectToPolygon(x, y, cellW, cellH),
				Kind:               obstructionKind(check.Class),
				LocalDeviationDeg:  check.LocalDeviationDeg,
				GlobalDeviationDeg: check.GlobalDeviationDeg,
			})
		}
	}
	return found
}

func obstructionKind(class SlopeClass) ObstructionKind {
	if class == SlopeGlobalMismatch {
		return ObstructionGlobalMismatch
	}
	return ObstructionSlopeVariance
}

// nearExisting reports whether an obstruction on the same facet already sits
// within maxDist pixels (center to center) of region.
func nearExisting(facetID string, region PixelBoundingBox, obstructions []Obstruction, maxDist float64) bool {
	cx := float64(region.MinX+region.MaxX) / 2
	cy := float64(region.MinY+region.MaxY) / 2
	for i := range obstructions {
		o := &obstructions[i]
		if o.FacetID != facetID {
			continue
		}
		ox := float64(o.Region.MinX+o.Region.MaxX) / 2
		oy := float64(o.Region.MinY+o.Region.MaxY) / 2
		if math.Hypot(cx-ox, cy-oy) <= maxDist {
			return true
		}
	}
	return false
}

// pixelCell converts a cell size in meters to whole pixels, never below one.
func pixelCell(sizeM, metersPerPixel float64) int {
	if metersPerPixel <= 0 {
		return 1
	}
	px := int(math.Round(sizeM / metersPerPixel))
	if px < 1 {
		px = 1
	}
	return px
}

// cellStride shrinks the step by the overlap fraction for denser coverage.
func cellStride(cell int, overlap float64) int {
	stride := int(math.Round(float64(cell) * (1 - overlap)))
	if stride < 1 {
		stride = 1
	}
	return stride
}
