package roof

import (
	"fmt"
	"math"
)

// cornerMergeTolDeg is the geodesic tolerance (degrees) under which two
// corner points are considered the same when building a group's composite
// polygon. Roughly a decimeter at mid latitudes.
const cornerMergeTolDeg = 1e-6

// GroupingStats reports what grouping did, for diagnostics.
type GroupingStats struct {
	InputFacets   int `json:"inputFacets"`
	Groups        int `json:"groups"`
	GroupedFacets int `json:"groupedFacets"`
	DroppedSmall  int `json:"droppedSmall"`
	OutputFacets  int `json:"outputFacets"`
}

// CircularDiff returns the absolute circular difference between two headings
// in degrees, always in [0, 180].
func CircularDiff(a, b float64) float64 {
	d := math.Mod(math.Abs(a-b), 360)
	if d > 180 {
		d = 360 - d
	}
	return d
}

// Compatible reports whether two facets are close enough in azimuth and
// pitch to belong to the same roof plane.
func Compatible(a, b *RoofFacet, cfg GroupingConfig) bool {
	return CircularDiff(a.AzimuthDegrees, b.AzimuthDegrees) <= cfg.MaxAzimuthDiffDeg &&
		math.Abs(a.PitchDegrees-b.PitchDegrees) <= cfg.MaxPitchDiffDeg
}

// Adjacent reports whether two facets' geodesic bounding boxes overlap or
// touch within the configured tolerance. Facets without usable bounds fall
// back to boxes derived from their corners.
func Adjacent(a, b *RoofFacet, cfg GroupingConfig) bool {
	return facetBounds(a).Intersects(facetBounds(b), cfg.AdjacencyTolDeg)
}

// GroupFacets merges adjacent, compatible facets into composite facets and
// applies the size filter. Grouping runs first so that small facets can
// still combine into a viable group; only then are undersized survivors
// dropped. The returned list contains ungrouped facets plus one composite
// facet per group, all passing the size filter. Input facets that joined a
// group have GroupID set as a side effect.
//
// Components are found with an explicit stack over an index-based adjacency
// list, so large facet counts cannot exhaust the call stack.
func GroupFacets(facets []RoofFacet, cfg GroupingConfig) ([]RoofFacet, []FacetGroup, GroupingStats) {
	stats := GroupingStats{InputFacets: len(facets)}

	adj := make([][]int, len(facets))
	for i := range facets {
		for j := i + 1; j < len(facets); j++ {
			if Compatible(&facets[i], &facets[j], cfg) && Adjacent(&facets[i], &facets[j], cfg) {
				adj[i] = append(adj[i], j)
				adj[j] = append(adj[j], i)
			}
		}
	}

	visited := make([]bool, len(facets))
	var groups []FacetGroup
	var singles []int

	for seed := range facets {
		if visited[seed] {
			continue
		}
		component := []int{}
		stack := []int{seed}
		visited[seed] = true
		for len(stack) > 0 {
			idx := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			component = append(component, idx)
			for _, n := range adj[idx] {
				if !visited[n] {
					visited[n] = true
					stack = append(stack, n)
				}
			}
		}

		if len(component) < 2 {
			singles = append(singles, component[0])
			continue
		}

		group := buildGroup(facets, component, len(groups))
		for _, idx := range component {
			facets[idx].GroupID = group.ID
		}
		stats.GroupedFacets += len(component)
		groups = append(groups, group)
	}
	stats.Groups = len(groups)

	var out []RoofFacet
	for _, idx := range singles {
		f := facets[idx]
		if passesSizeFilter(facetBounds(&f), f.AreaM2, cfg) {
			out = append(out, f)
		} else {
			stats.DroppedSmall++
		}
	}
	for i, g := range groups {
		if passesSizeFilter(g.Bounds, g.AreaM2, cfg) {
			out = append(out, groups[i].ToFacet())
		} else {
			stats.DroppedSmall++
		}
	}
	stats.OutputFacets = len(out)

	return out, groups, stats
}

// buildGroup aggregates a connected component into a FacetGroup. Pitch and
// suitability are area-weighted means. Azimuth uses a circular mean over
// area-weighted sin/cos so headings straddling the 0/360 seam average to a
// northern heading instead of a southern one.
func buildGroup(facets []RoofFacet, component []int, ordinal int) FacetGroup {
	g := FacetGroup{ID: fmt.Sprintf("group-%d", ordinal+1)}

	var totalArea, pitchSum, suitSum, sinSum, cosSum float64
	var corners []GeoPoint
	var bounds GeoBoundingBox

	for _, idx := range component {
		f := &facets[idx]
		g.MemberIDs = append(g.MemberIDs, f.ID)

		area := f.AreaM2
		if area <= 0 {
			area = 1 // degenerate upstream area; weight evenly
		}
		totalArea += area
		pitchSum += f.PitchDegrees * area
		suitSum += f.Suitability * area
		rad := f.AzimuthDegrees * math.Pi / 180
		sinSum += math.Sin(rad) * area
		cosSum += math.Cos(rad) * area

		corners = mergeCorners(corners, f.Corners)
		bounds = extendBounds(bounds, facetBounds(f))
	}

	g.AreaM2 = totalArea
	g.Pitch = pitchSum / totalArea
	g.Suitability = math.Min(1, math.Max(0, suitSum/totalArea))
	az := math.Atan2(sinSum, cosSum) * 180 / math.Pi
	if az < 0 {
		az += 360
	}
	g.Azimuth = az
	g.Corners = corners
	g.Bounds = bounds
	return g
}

// ToFacet converts a group into a composite facet for downstream layout.
// The composite polygon is the tolerance-deduplicated union of member
// corners, not a true polygon union; see DESIGN.md for the tradeoff.
func (g *FacetGroup) ToFacet() RoofFacet {
	center := GeoPoint{}
	if g.Bounds.Complete() {
		center = GeoPoint{
			Latitude:  (g.Bounds.SW.Latitude + g.Bounds.NE.Latitude) / 2,
			Longitude: (g.Bounds.SW.Longitude + g.Bounds.NE.Longitude) / 2,
		}
	}
	return RoofFacet{
		ID:             g.ID,
		PitchDegrees:   g.Pitch,
		AzimuthDegrees: g.Azimuth,
		AreaM2:         g.AreaM2,
		Center:         center,
		Bounds:         g.Bounds,
		Corners:        g.Corners,
		Suitability:    g.Suitability,
		Orientation:    OrientationFromAzimuth(g.Azimuth),
	}
}

// mergeCorners appends points not already present within the merge
// tolerance.
func mergeCorners(existing []GeoPoint, add []GeoPoint) []GeoPoint {
	for _, p := range add {
		dup := false
		for _, q := range existing {
			if math.Abs(p.Latitude-q.Latitude) <= cornerMergeTolDeg &&
				math.Abs(p.Longitude-q.Longitude) <= cornerMergeTolDeg {
				dup = true
				break
			}
		}
		if !dup {
			existing = append(existing, p)
		}
	}
	return existing
}

// facetBounds returns the facet's declared bounding box, or one derived
// from its corners when the declared box is incomplete.
func facetBounds(f *RoofFacet) GeoBoundingBox {
	if f.Bounds.Complete() {
		return f.Bounds
	}
	return boundsFromCorners(f.Corners)
}

func boundsFromCorners(corners []GeoPoint) GeoBoundingBox {
	if len(corners) == 0 {
		return GeoBoundingBox{}
	}
	sw := corners[0]
	ne := corners[0]
	for _, c := range corners[1:] {
		sw.Latitude = math.Min(sw.Latitude, c.Latitude)
		sw.Longitude = math.Min(sw.Longitude, c.Longitude)
		ne.Latitude = math.Max(ne.Latitude, c.Latitude)
		ne.Longitude = math.Max(ne.Longitude, c.Longitude)
	}
	return GeoBoundingBox{SW: &sw, NE: &ne}
}

func extendBounds(b GeoBoundingBox, add GeoBoundingBox) GeoBoundingBox {
	if !add.Complete() {
		return b
	}
	if !b.Complete() {
		sw, ne := *add.SW, *add.NE
		return GeoBoundingBox{SW: &sw, NE: &ne}
	}
	b.SW.Latitude = math.Min(b.SW.Latitude, add.SW.Latitude)
	b.SW.Longitude = math.Min(b.SW.Longitude, add.SW.Longitude)
	b.NE.Latitude = math.Max(b.NE.Latitude, add.NE.Latitude)
	b.NE.Longitude = math.Max(b.NE.Longitude, add.NE.Longitude)
	return b
}

// passesSizeFilter checks the post-grouping minimums: bounding-box minor
// dimension and facet area, both in real-world units.
func passesSizeFilter(bounds GeoBoundingBox, areaM2 float64, cfg GroupingConfig) bool {
	if areaM2 < cfg.MinAreaM2 {
		return false
	}
	if !bounds.Complete() {
		// No usable box; area already passed, give it the benefit.
		return true
	}
	latSpanM := math.Abs(bounds.NE.Latitude-bounds.SW.Latitude) * math.Pi / 180 * EarthRadiusMeters
	meanLat := (bounds.NE.Latitude + bounds.SW.Latitude) / 2 * math.Pi / 180
	lonSpanM := math.Abs(bounds.NE.Longitude-bounds.SW.Longitude) * math.Pi / 180 * EarthRadiusMeters * math.Cos(meanLat)
	return math.Min(latSpanM, lonSpanM) >= cfg.MinMinorDimM
}
