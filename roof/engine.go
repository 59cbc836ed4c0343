package roof

import (
	"log"
)

// Input bundles everything the engine needs for one analysis run. All of it
// is produced by upstream collaborators: facet geometry from the
// segmentation service, the elevation raster from the DSM fetcher, and the
// building bounding box from the building-lookup service.
type Input struct {
	Facets   []RoofFacet     `json:"facets"`
	Raster   ElevationRaster `json:"raster"`
	Building GeoBoundingBox  `json:"building"`
}

// Analyze is the engine's façade: facet grouping and filtering, the
// fine-grained obstruction scan, then the multi-candidate panel grid search.
// It is a pure, synchronous function of its inputs: identical inputs yield
// identical results. The engine favors best-effort partial output over
// all-or-nothing failure, so individual facet problems are logged and
// skipped rather than failing the run.
func Analyze(in *Input, cfg Config) (*Result, error) {
	if len(in.Facets) == 0 {
		return nil, ErrNoFacets
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	scale := ComputeRealWorldScale(in.Raster.Width, in.Raster.Height, in.Building)
	if scale.LowConfidence {
		log.Printf("analyze: building bounds missing or degenerate, using fallback scale (%.2f m/px)", scale.MetersPerPixelX)
	}

	facets := make([]RoofFacet, len(in.Facets))
	copy(facets, in.Facets)
	for i := range facets {
		facets[i].Orientation = OrientationFromAzimuth(facets[i].AzimuthDegrees)
	}

	kept, groups, stats := GroupFacets(facets, cfg.Grouping)
	if stats.DroppedSmall > 0 {
		log.Printf("analyze: dropped %d undersized facets/groups", stats.DroppedSmall)
	}

	for i := range kept {
		ProjectFacet(&kept[i], in.Building, in.Raster.Width, in.Raster.Height)
	}

	obstructions := DetectObstructions(kept, &in.Raster, scale, cfg.Obstruction)
	panels, obstructions, meta := OptimizeLayout(kept, obstructions, &in.Raster, scale, cfg.Layout)

	meta.GroupCount = len(groups)
	meta.DroppedFacets = stats.DroppedSmall
	meta.FacetCount = stats.OutputFacets

	return &Result{
		Panels:       panels,
		Obstructions: obstructions,
		Metadata:     meta,
	}, nil
}
