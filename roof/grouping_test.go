package roof

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// facetAt builds a rectangular test facet one bounding box wide in geodesic
// degrees. Longitudes span lonMin..lonMax, latitudes latMin..latMax; at 37N
// a span of 0.0001 degrees is roughly 9-11 m.
func facetAt(id string, latMin, latMax, lonMin, lonMax, pitch, azimuth, area float64) RoofFacet {
	sw := GeoPoint{Latitude: latMin, Longitude: lonMin}
	ne := GeoPoint{Latitude: latMax, Longitude: lonMax}
	return RoofFacet{
		ID:             id,
		PitchDegrees:   pitch,
		AzimuthDegrees: azimuth,
		AreaM2:         area,
		Center:         GeoPoint{Latitude: (latMin + latMax) / 2, Longitude: (lonMin + lonMax) / 2},
		Bounds:         GeoBoundingBox{SW: &sw, NE: &ne},
		Corners: []GeoPoint{
			{Latitude: latMin, Longitude: lonMin},
			{Latitude: latMin, Longitude: lonMax},
			{Latitude: latMax, Longitude: lonMax},
			{Latitude: latMax, Longitude: lonMin},
		},
		Suitability: 0.8,
	}
}

func TestCircularDiff(t *testing.T) {
	tests := []struct {
		a, b, want float64
	}{
		{0, 0, 0},
		{10, 350, 20},
		{358, 0, 2},
		{0, 358, 2},
		{90, 270, 180},
		{359, 1, 2},
	}
	for _, tt := range tests {
		if got := CircularDiff(tt.a, tt.b); !almostEqual(got, tt.want) {
			t.Errorf("CircularDiff(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestGroupFacets_MergesCompatibleNeighbors(t *testing.T) {
	cfg := DefaultConfig().Grouping
	// Two facets sharing the meridian at -122.0009, azimuths straddling
	// the 0/360 seam, pitches within tolerance.
	facets := []RoofFacet{
		facetAt("a", 37.0000, 37.0001, -122.0010, -122.0009, 20, 358, 20),
		facetAt("b", 37.0000, 37.0001, -122.0009, -122.0008, 25, 0, 20),
	}

	out, groups, stats := GroupFacets(facets, cfg)
	require.Len(t, groups, 1)
	assert.Equal(t, 2, stats.GroupedFacets)
	assert.ElementsMatch(t, []string{"a", "b"}, groups[0].MemberIDs)
	assert.Equal(t, groups[0].ID, facets[0].GroupID)
	assert.Equal(t, groups[0].ID, facets[1].GroupID)

	require.Len(t, out, 1, "the composite facet replaces both members")
	assert.Equal(t, 40.0, out[0].AreaM2)
	assert.InDelta(t, 22.5, out[0].PitchDegrees, 1e-9)
}

func TestGroupFacets_CircularAzimuthMean(t *testing.T) {
	// 358 and 0 average to ~359 via the circular mean; a naive arithmetic
	// mean would give 179, pointing the group the wrong way entirely.
	cfg := DefaultConfig().Grouping
	facets := []RoofFacet{
		facetAt("a", 37.0000, 37.0001, -122.0010, -122.0009, 20, 358, 20),
		facetAt("b", 37.0000, 37.0001, -122.0009, -122.0008, 20, 0, 20),
	}

	_, groups, _ := GroupFacets(facets, cfg)
	require.Len(t, groups, 1)
	assert.InDelta(t, 359, groups[0].Azimuth, 0.01)
}

func TestGroupFacets_ThresholdsKeepFacetsApart(t *testing.T) {
	cfg := DefaultConfig().Grouping

	tests := []struct {
		name     string
		azimuthB float64
		pitchB   float64
		lonShift float64
	}{
		{"azimuth over threshold", 10, 20, 0},
		{"pitch over threshold", 0, 33, 0},
		{"not adjacent", 0, 20, 0.001},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			facets := []RoofFacet{
				facetAt("a", 37.0000, 37.0001, -122.0010, -122.0009, 20, 2, 20),
				facetAt("b", 37.0000, 37.0001, -122.0009+tt.lonShift, -122.0008+tt.lonShift, tt.pitchB, tt.azimuthB, 20),
			}
			out, groups, _ := GroupFacets(facets, cfg)
			assert.Empty(t, groups)
			assert.Len(t, out, 2)
		})
	}
}

func TestGroupFacets_TransitiveChain(t *testing.T) {
	// a-b and b-c touch; a and c do not, but connected components pull all
	// three into one group.
	cfg := DefaultConfig().Grouping
	facets := []RoofFacet{
		facetAt("a", 37.0000, 37.0001, -122.0010, -122.0009, 20, 0, 20),
		facetAt("b", 37.0000, 37.0001, -122.0009, -122.0008, 20, 1, 20),
		facetAt("c", 37.0000, 37.0001, -122.0008, -122.0007, 20, 2, 20),
	}
	_, groups, _ := GroupFacets(facets, cfg)
	require.Len(t, groups, 1)
	assert.Len(t, groups[0].MemberIDs, 3)
}

func TestGroupFacets_SizeFilterAfterGrouping(t *testing.T) {
	cfg := DefaultConfig().Grouping
	// Each facet alone is under the 11 m2 minimum, but the pair groups to
	// 14 m2 and survives. The far-away singleton is dropped.
	facets := []RoofFacet{
		facetAt("a", 37.0000, 37.0001, -122.0010, -122.0009, 20, 0, 7),
		facetAt("b", 37.0000, 37.0001, -122.0009, -122.0008, 20, 1, 7),
		facetAt("small", 37.0000, 37.0001, -122.0000, -121.9999, 20, 0, 7),
	}

	out, groups, stats := GroupFacets(facets, cfg)
	require.Len(t, groups, 1)
	require.Len(t, out, 1)
	assert.Equal(t, groups[0].ID, out[0].ID)
	assert.Equal(t, 1, stats.DroppedSmall)
}

func TestGroupFacets_CompositeCornersDeduplicated(t *testing.T) {
	cfg := DefaultConfig().Grouping
	facets := []RoofFacet{
		facetAt("a", 37.0000, 37.0001, -122.0010, -122.0009, 20, 0, 20),
		facetAt("b", 37.0000, 37.0001, -122.0009, -122.0008, 20, 1, 20),
	}
	_, groups, _ := GroupFacets(facets, cfg)
	require.Len(t, groups, 1)
	// 4 + 4 corners with the two shared boundary points merged once each.
	assert.Len(t, groups[0].Corners, 6)
}

func TestGroupFacets_SuitabilityClamped(t *testing.T) {
	cfg := DefaultConfig().Grouping
	facets := []RoofFacet{
		facetAt("a", 37.0000, 37.0001, -122.0010, -122.0009, 20, 0, 20),
		facetAt("b", 37.0000, 37.0001, -122.0009, -122.0008, 20, 1, 20),
	}
	facets[0].Suitability = 1.0
	facets[1].Suitability = 1.0
	_, groups, _ := GroupFacets(facets, cfg)
	require.Len(t, groups, 1)
	assert.LessOrEqual(t, groups[0].Suitability, 1.0)
	assert.GreaterOrEqual(t, groups[0].Suitability, 0.0)
}
