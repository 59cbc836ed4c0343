package roof

import (
	"encoding/json"
	"fmt"
	"os"
)

// LoadInput reads and validates an analysis input document. The document is
// the JSON handoff format from the upstream segmentation and DSM services:
// a facet list, a flat row-major elevation raster, and the building's
// geodesic bounding box.
func LoadInput(path string) (*Input, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading input file: %w", err)
	}
	return ParseInput(data)
}

// ParseInput decodes an analysis input document from JSON bytes.
func ParseInput(data []byte) (*Input, error) {
	var in Input
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("parsing input JSON: %w", err)
	}
	if err := validateInput(&in); err != nil {
		return nil, err
	}
	return &in, nil
}

func validateInput(in *Input) error {
	if len(in.Facets) == 0 {
		return ErrNoFacets
	}
	r := &in.Raster
	if r.Width <= 0 || r.Height <= 0 {
		return fmt.Errorf("raster dimensions must be positive, got %dx%d", r.Width, r.Height)
	}
	if len(r.Values) != r.Width*r.Height {
		return fmt.Errorf("raster has %d values, expected %d", len(r.Values), r.Width*r.Height)
	}
	for i := range in.Facets {
		f := &in.Facets[i]
		if f.ID == "" {
			return fmt.Errorf("facet[%d]: id is required", i)
		}
		if f.Suitability < 0 || f.Suitability > 1 {
			return fmt.Errorf("facet %s: suitability %.3f outside [0,1]", f.ID, f.Suitability)
		}
	}
	return nil
}
