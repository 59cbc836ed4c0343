package roof

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectObstructions_CleanRoof(t *testing.T) {
	cfg := DefaultConfig().Obstruction
	raster := flatRaster(220, 120, 50)
	facets := []RoofFacet{rectFacet("f1", 10, 10, 200, 100, 0, 180)}

	obs := DetectObstructions(facets, raster, layoutScale(), cfg)
	assert.Empty(t, obs)
}

func TestDetectObstructions_FindsSpike(t *testing.T) {
	cfg := DefaultConfig().Obstruction
	raster := flatRaster(220, 120, 50)
	// A 4x4 px chimney, 5 m above the roof plane.
	for y := 60; y < 64; y++ {
		for x := 60; x < 64; x++ {
			raster.Values[y*220+x] = 55
		}
	}
	facets := []RoofFacet{rectFacet("f1", 10, 10, 200, 100, 0, 180)}

	obs := DetectObstructions(facets, raster, layoutScale(), cfg)
	require.NotEmpty(t, obs)
	for _, o := range obs {
		assert.Equal(t, "f1", o.FacetID)
		assert.Equal(t, ObstructionSlopeVariance, o.Kind)
		assert.NotEmpty(t, o.ID)
		// Each detection must sit near the spike.
		cx := float64(o.Region.MinX+o.Region.MaxX) / 2
		cy := float64(o.Region.MinY+o.Region.MaxY) / 2
		assert.InDelta(t, 62, cx, 15)
		assert.InDelta(t, 62, cy, 15)
	}
}

func TestDetectObstructions_DeduplicatesOverlappingStrides(t *testing.T) {
	cfg := DefaultConfig().Obstruction
	raster := flatRaster(220, 120, 50)
	for y := 60; y < 64; y++ {
		for x := 60; x < 64; x++ {
			raster.Values[y*220+x] = 55
		}
	}
	facets := []RoofFacet{rectFacet("f1", 10, 10, 200, 100, 0, 180)}

	obs := DetectObstructions(facets, raster, layoutScale(), cfg)
	require.NotEmpty(t, obs)

	// The 25% stride overlap means several cells see the same chimney;
	// dedup must keep survivors at least one cell width apart.
	cellW := pixelCell(cfg.CellSizeM, layoutScale().MetersPerPixelX)
	for i := 0; i < len(obs); i++ {
		for j := i + 1; j < len(obs); j++ {
			dx := float64(obs[i].Region.MinX-obs[j].Region.MinX) + float64(obs[i].Region.MaxX-obs[j].Region.MaxX)
			dy := float64(obs[i].Region.MinY-obs[j].Region.MinY) + float64(obs[i].Region.MaxY-obs[j].Region.MaxY)
			dist := math.Hypot(dx/2, dy/2)
			assert.Greater(t, dist, float64(cellW)*cfg.DedupDistanceCells,
				"obstructions %d and %d too close", i, j)
		}
	}
}

func TestDetectObstructions_SkipsUnprojectedFacets(t *testing.T) {
	cfg := DefaultConfig().Obstruction
	raster := flatRaster(220, 120, 50)
	facets := []RoofFacet{{ID: "no-ring", PitchDegrees: 10}}

	obs := DetectObstructions(facets, raster, layoutScale(), cfg)
	assert.Empty(t, obs)
}

func TestPixelCellAndStride(t *testing.T) {
	assert.Equal(t, 10, pixelCell(0.5, 0.05))
	assert.Equal(t, 1, pixelCell(0.5, 10), "cells never shrink below one pixel")
	assert.Equal(t, 1, pixelCell(0.5, 0), "zero scale degrades to single pixels")

	assert.Equal(t, 8, cellStride(10, 0.25))
	assert.Equal(t, 1, cellStride(1, 0.9), "stride never reaches zero")
}
