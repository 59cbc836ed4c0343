package roof

import (
	"errors"
	"fmt"
)

// Sentinel errors for conditions callers may want to branch on.
var (
	// ErrInvalidPolygon marks a facet whose polygon has fewer than three
	// vertices. The engine skips such facets and continues.
	ErrInvalidPolygon = errors.New("facet polygon has fewer than 3 vertices")

	// ErrInsufficientSamples marks a slope check with too few valid
	// elevation samples to fit a plane.
	ErrInsufficientSamples = errors.New("insufficient elevation samples")

	// ErrNoFacets is returned when analysis is invoked with no input facets.
	ErrNoFacets = errors.New("no roof facets supplied")
)

// FacetError attributes a failure to the facet it occurred on, so results
// from unaffected facets survive a partial failure.
type FacetError struct {
	FacetID string
	Err     error
}

func (e *FacetError) Error() string {
	return fmt.Sprintf("facet %s: %v", e.FacetID, e.Err)
}

func (e *FacetError) Unwrap() error {
	return e.Err
}
