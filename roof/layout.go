package roof

import (
	"log"
	"math"
	"sync"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
)

// layoutAxis is the primary scan direction for panel rows on a facet.
// North/south-facing facets get east-west rows (horizontal); east/west-facing
// facets get vertical columns.
type layoutAxis int

const (
	axisHorizontal layoutAxis = iota
	axisVertical
)

// axisForFacet buckets the facet's canonical azimuth: headings closer to
// north/south than east/west produce horizontal rows. The free-text
// orientation hint from upstream is deliberately ignored here; azimuth is
// the single source of truth.
func axisForFacet(f *RoofFacet) layoutAxis {
	rad := f.AzimuthDegrees * math.Pi / 180
	if math.Abs(math.Cos(rad)) >= math.Abs(math.Sin(rad)) {
		return axisHorizontal
	}
	return axisVertical
}

// startCorner is where a candidate grid scan begins.
type startCorner int

const (
	cornerTopLeft startCorner = iota
	cornerTopRight
	cornerBottomLeft
	cornerBottomRight
	cornerCenter
)

// candidateSpec identifies one of the twenty grid candidates tried per
// facet: {portrait, landscape} x {standard, staggered} x 5 start corners.
type candidateSpec struct {
	portrait  bool
	staggered bool
	corner    startCorner
}

func allCandidates() []candidateSpec {
	var specs []candidateSpec
	for _, portrait := range []bool{true, false} {
		for _, staggered := range []bool{false, true} {
			for corner := cornerTopLeft; corner <= cornerCenter; corner++ {
				specs = append(specs, candidateSpec{portrait, staggered, corner})
			}
		}
	}
	return specs
}

// candidateResult carries one evaluated grid plus the slope obstructions it
// discovered. Obstructions are kept candidate-local and only merged for the
// winning candidate, so losing grids leave no trace.
type candidateResult struct {
	index        int
	panels       []Panel
	obstructions []Obstruction
}

// panelFootprint is a panel's pixel-space extent for one orientation on one
// facet. The slope-aligned dimension is foreshortened by cos(pitch), since
// the raster sees the roof from above.
type panelFootprint struct {
	pxW, pxH int
	widthM   float64 // physical short/long edge depending on orientation
	heightM  float64
}

func footprint(portrait bool, axis layoutAxis, pitchDeg float64, scale RealWorldScale, cfg LayoutConfig) panelFootprint {
	widthM, heightM := cfg.PanelWidthM, cfg.PanelHeightM
	if !portrait {
		widthM, heightM = heightM, widthM
	}

	foreshorten := math.Cos(pitchDeg * math.Pi / 180)
	alongM := heightM * foreshorten
	acrossM := widthM

	var wM, hM float64
	if axis == axisHorizontal {
		wM, hM = acrossM, alongM
	} else {
		wM, hM = alongM, acrossM
	}

	fp := panelFootprint{widthM: widthM, heightM: heightM}
	fp.pxW = pixelCell(wM, scale.MetersPerPixelX)
	fp.pxH = pixelCell(hM, scale.MetersPerPixelY)
	return fp
}

// FacetLayout is the outcome of optimizing a single facet.
type FacetLayout struct {
	Panels       []Panel
	Obstructions []Obstruction
}

// OptimizeFacet evaluates all twenty grid candidates for one facet and
// returns the one accepting the most panels, ties broken by candidate order.
// The candidates are independent pure computations over read-only inputs,
// so they run concurrently.
func OptimizeFacet(f *RoofFacet, existing []Obstruction, raster *ElevationRaster, scale RealWorldScale, cfg LayoutConfig) (FacetLayout, error) {
	if len(f.PixelRing) < 3 {
		return FacetLayout{}, &FacetError{FacetID: f.ID, Err: ErrInvalidPolygon}
	}

	axis := axisForFacet(f)
	facetObs := filterByFacet(existing, f.ID)
	specs := allCandidates()
	results := make([]candidateResult, len(specs))

	var wg sync.WaitGroup
	for i, spec := range specs {
		wg.Add(1)
		go func(i int, spec candidateSpec) {
			defer wg.Done()
			results[i] = evaluateCandidate(i, spec, f, axis, facetObs, raster, scale, cfg)
		}(i, spec)
	}
	wg.Wait()

	best := results[0]
	for _, r := range results[1:] {
		if len(r.panels) > len(best.panels) {
			best = r
		}
	}

	return FacetLayout{Panels: best.panels, Obstructions: best.obstructions}, nil
}

// evaluateCandidate scans the facet's bounding box in panel-sized strides
// from the candidate's start corner. A cell becomes a panel only when all
// four corners are inside the facet polygon, it overlaps no known
// obstruction, and the block slope check passes; a failed slope check emits
// a candidate-local obstruction instead.
func evaluateCandidate(index int, spec candidateSpec, f *RoofFacet, axis layoutAxis, existing []Obstruction, raster *ElevationRaster, scale RealWorldScale, cfg LayoutConfig) candidateResult {
	fp := footprint(spec.portrait, axis, f.PitchDegrees, scale, cfg)
	bounds := PolygonBounds(f.PixelRing)

	res := candidateResult{index: index}
	ys := gridPositions(bounds.MinY, bounds.MaxY, fp.pxH, 0, vertCorner(spec.corner))
	for row, y := range ys {
		offset := 0
		if spec.staggered && row%2 == 1 {
			offset = fp.pxW / 2
		}
		xs := gridPositions(bounds.MinX, bounds.MaxX, fp.pxW, offset, horizCorner(spec.corner))
		for col, x := range xs {
			ring := RectToPolygon(x, y, fp.pxW, fp.pxH)
			if !ringInsidePolygon(ring, f.PixelRing) {
				continue
			}
			if overlapsAny(ring, existing) || overlapsAny(ring, res.obstructions) {
				continue
			}

			region := PixelBoundingBox{MinX: x, MinY: y, MaxX: x + fp.pxW, MaxY: y + fp.pxH}
			check := CheckBlockSlope(raster, scale, region, f.PitchDegrees, cfg.MaxLocalDevDeg, cfg.MaxGlobalDevDeg)
			if !check.IsValid {
				res.obstructions = append(res.obstructions, Obstruction{
					ID:                 uuid.NewString(),
					FacetID:            f.ID,
					Region:             region,
					Polygon:            ring,
					Kind:               obstructionKind(check.Class),
					LocalDeviationDeg:  check.LocalDeviationDeg,
					GlobalDeviationDeg: check.GlobalDeviationDeg,
				})
				continue
			}

			res.panels = append(res.panels, Panel{
				ID:          uuid.NewString(),
				FacetID:     f.ID,
				X:           x,
				Y:           y,
				Width:       fp.pxW,
				Height:      fp.pxH,
				WidthM:      fp.widthM,
				HeightM:     fp.heightM,
				Pitch:       f.PitchDegrees,
				Azimuth:     f.AzimuthDegrees,
				Row:         row,
				Col:         col,
				Polygon:     ring,
				AvgSlopeDeg: check.GlobalSlopeDeg,
			})
		}
	}
	return res
}

// gridPositions enumerates cell origins along one axis. anchorEnd pins the
// grid to the max edge (right/bottom start corners); anchorCenter splits the
// leftover space evenly on both sides. offset shifts the grid phase in the
// anchor's own frame, so a staggered row keeps its half-panel offset no
// matter which corner the scan started from: start-anchored grids shift
// toward max, end-anchored grids shift inward from max, and centered grids
// shift off the centered phase.
func gridPositions(min, max, size, offset int, anchor gridAnchor) []int {
	span := max - min
	if size <= 0 || span < size {
		return nil
	}
	n := span / size
	var start int
	switch anchor {
	case anchorEnd:
		start = max - n*size - offset
	case anchorCenter:
		start = min + (span-n*size)/2 + offset
	default:
		start = min + offset
	}
	for start < min {
		start += size
	}
	var positions []int
	for x := start; x+size <= max; x += size {
		positions = append(positions, x)
	}
	return positions
}

type gridAnchor int

const (
	anchorStart gridAnchor = iota
	anchorEnd
	anchorCenter
)

func horizCorner(c startCorner) gridAnchor {
	switch c {
	case cornerTopRight, cornerBottomRight:
		return anchorEnd
	case cornerCenter:
		return anchorCenter
	}
	return anchorStart
}

func vertCorner(c startCorner) gridAnchor {
	switch c {
	case cornerBottomLeft, cornerBottomRight:
		return anchorEnd
	case cornerCenter:
		return anchorCenter
	}
	return anchorStart
}

// ringInsidePolygon requires every corner of ring to lie inside the facet
// polygon.
func ringInsidePolygon(ring, polygon orb.Ring) bool {
	for _, p := range ring {
		if !PointInPolygon(p, polygon) {
			return false
		}
	}
	return true
}

func overlapsAny(ring orb.Ring, obstructions []Obstruction) bool {
	for i := range obstructions {
		if RingsOverlap(ring, obstructions[i].Polygon) {
			return true
		}
	}
	return false
}

func filterByFacet(obstructions []Obstruction, facetID string) []Obstruction {
	var out []Obstruction
	for i := range obstructions {
		if obstructions[i].FacetID == facetID {
			out = append(out, obstructions[i])
		}
	}
	return out
}

// OptimizeLayout runs the per-facet grid search across all facets and
// aggregates panels, obstructions and summary metadata. Facets are processed
// sequentially so the obstruction list stays append-only; a facet that fails
// is logged and skipped so the remaining facets' results survive.
func OptimizeLayout(facets []RoofFacet, obstructions []Obstruction, raster *ElevationRaster, scale RealWorldScale, cfg LayoutConfig) ([]Panel, []Obstruction, Metadata) {
	var panels []Panel
	meta := Metadata{FacetCount: len(facets)}

	for i := range facets {
		layout, err := OptimizeFacet(&facets[i], obstructions, raster, scale, cfg)
		if err != nil {
			log.Printf("layout: skipping facet: %v", err)
			meta.SkippedFacets++
			continue
		}
		panels = append(panels, layout.Panels...)
		obstructions = append(obstructions, layout.Obstructions...)
	}

	var areaM2 float64
	for i := range panels {
		areaM2 += panels[i].WidthM * panels[i].HeightM
	}
	meta.PanelCount = len(panels)
	meta.TotalPanelAreaM2 = areaM2
	meta.PotentialKW = areaM2 * cfg.Efficiency * cfg.IrradianceWM2 / 1000
	meta.ObstructionCount = len(obstructions)
	meta.LowConfidenceScale = scale.LowConfidence

	return panels, obstructions, meta
}
