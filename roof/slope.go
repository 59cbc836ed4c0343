package roof

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// minPlaneSamples is the fewest elevation samples a plane fit will accept.
// Below this the normal-equation system is underdetermined.
const minPlaneSamples = 4

// singularDetThreshold guards the 2x2 normal-equation solve. Determinants
// below it mean the samples are collinear (or a single point) and the fitted
// gradient would be numerically meaningless.
const singularDetThreshold = 1e-10

// ElevationSample is one DSM measurement with its position converted to
// meters via the real-world scale.
type ElevationSample struct {
	X float64 // meters east of region origin
	Y float64 // meters south of region origin
	Z float64 // elevation, meters
}

// PlaneFit is the result of a least-squares plane fit z = A*x + B*y + C.
// When the system is near-singular, Fallback is true and SlopeDeg is derived
// from the sample z-range instead of the fitted gradient.
type PlaneFit struct {
	A        float64
	B        float64
	SlopeDeg float64
	Fallback bool
}

// FitPlane fits a plane to elevation samples by least squares. It builds the
// centered covariance sums and solves the 2x2 normal-equation system for the
// gradient (A, B); the returned slope is atan(|gradient|) in degrees.
// Returns ErrInsufficientSamples for fewer than four samples. A near-singular
// system never errors: the fallback slope spans the z-range over the sample
// spread instead.
func FitPlane(samples []ElevationSample) (PlaneFit, error) {
	if len(samples) < minPlaneSamples {
		return PlaneFit{}, ErrInsufficientSamples
	}

	xs := make([]float64, len(samples))
	ys := make([]float64, len(samples))
	zs := make([]float64, len(samples))
	for i, s := range samples {
		xs[i], ys[i], zs[i] = s.X, s.Y, s.Z
	}
	meanX := stat.Mean(xs, nil)
	meanY := stat.Mean(ys, nil)
	meanZ := stat.Mean(zs, nil)

	var sxx, sxy, syy, sxz, syz float64
	for i := range samples {
		dx := xs[i] - meanX
		dy := ys[i] - meanY
		dz := zs[i] - meanZ
		sxx += dx * dx
		sxy += dx * dy
		syy += dy * dy
		sxz += dx * dz
		syz += dy * dz
	}

	normal := mat.NewDense(2, 2, []float64{sxx, sxy, sxy, syy})
	if math.Abs(mat.Det(normal)) < singularDetThreshold {
		return fallbackFit(xs, ys, zs), nil
	}

	var grad mat.VecDense
	if err := grad.SolveVec(normal, mat.NewVecDense(2, []float64{sxz, syz})); err != nil {
		return fallbackFit(xs, ys, zs), nil
	}

	a, b := grad.AtVec(0), grad.AtVec(1)
	return PlaneFit{
		A:        a,
		B:        b,
		SlopeDeg: math.Atan(math.Hypot(a, b)) * 180 / math.Pi,
	}, nil
}

// fallbackFit approximates slope from the z-range over the horizontal sample
// spread. Deterministic and never fails; used when the normal equations are
// singular.
func fallbackFit(xs, ys, zs []float64) PlaneFit {
	minZ, maxZ := zs[0], zs[0]
	for _, z := range zs[1:] {
		minZ = math.Min(minZ, z)
		maxZ = math.Max(maxZ, z)
	}
	spanX := floatRange(xs)
	spanY := floatRange(ys)
	run := math.Hypot(spanX, spanY)

	fit := PlaneFit{Fallback: true}
	if run > 0 {
		fit.SlopeDeg = math.Atan((maxZ-minZ)/run) * 180 / math.Pi
	}
	return fit
}

func floatRange(vs []float64) float64 {
	lo, hi := vs[0], vs[0]
	for _, v := range vs[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return hi - lo
}

// SlopeClass classifies the outcome of a block slope check.
type SlopeClass string

const (
	SlopeValid          SlopeClass = "valid"
	SlopeLocalVariance  SlopeClass = "local_variance"
	SlopeGlobalMismatch SlopeClass = "global_mismatch"
)

// SlopeCheck is the outcome of CheckBlockSlope.
type SlopeCheck struct {
	IsValid            bool
	Class              SlopeClass
	LocalSlopeDeg      float64
	GlobalSlopeDeg     float64
	LocalDeviationDeg  float64
	GlobalDeviationDeg float64
	SampleCount        int
}

// CheckBlockSlope samples a 3x3 grid inside region and compares two slope
// estimates against a baseline derived from the facet's declared pitch:
//
//   - local-variance slope: elevation range over the region diagonal, a
//     cheap proxy that reacts to chimneys and vents inside the block
//   - global slope: least-squares plane fit over the valid samples
//
// Out-of-bounds and no-data cells are skipped. With fewer than four valid
// samples the check auto-passes: sparse DSM coverage is treated as
// optimistic rather than blocking, per the engine's best-effort contract.
func CheckBlockSlope(raster *ElevationRaster, scale RealWorldScale, region PixelBoundingBox, baselineSlopeDeg, maxLocalDevDeg, maxGlobalDevDeg float64) SlopeCheck {
	w := region.MaxX - region.MinX
	h := region.MaxY - region.MinY
	if w <= 0 || h <= 0 {
		return SlopeCheck{IsValid: true, Class: SlopeValid}
	}

	var samples []ElevationSample
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			px := region.MinX + col*w/2
			py := region.MinY + row*h/2
			z, ok := raster.At(px, py)
			if !ok {
				continue
			}
			samples = append(samples, ElevationSample{
				X: float64(px-region.MinX) * scale.MetersPerPixelX,
				Y: float64(py-region.MinY) * scale.MetersPerPixelY,
				Z: z,
			})
		}
	}

	check := SlopeCheck{SampleCount: len(samples)}
	if len(samples) < minPlaneSamples {
		check.IsValid = true
		check.Class = SlopeValid
		return check
	}

	minZ, maxZ := samples[0].Z, samples[0].Z
	for _, s := range samples[1:] {
		minZ = math.Min(minZ, s.Z)
		maxZ = math.Max(maxZ, s.Z)
	}
	diag := math.Hypot(float64(w)*scale.MetersPerPixelX, float64(h)*scale.MetersPerPixelY)
	if diag > 0 {
		check.LocalSlopeDeg = math.Atan((maxZ-minZ)/diag) * 180 / math.Pi
	}

	fit, err := FitPlane(samples)
	if err != nil {
		// Unreachable given the sample-count guard above, but keep the
		// optimistic contract if it ever fires.
		check.IsValid = true
		check.Class = SlopeValid
		return check
	}
	check.GlobalSlopeDeg = fit.SlopeDeg

	check.LocalDeviationDeg = math.Abs(check.LocalSlopeDeg - baselineSlopeDeg)
	check.GlobalDeviationDeg = math.Abs(check.GlobalSlopeDeg - baselineSlopeDeg)

	switch {
	case check.LocalDeviationDeg > maxLocalDevDeg:
		check.Class = SlopeLocalVariance
	case check.GlobalDeviationDeg > maxGlobalDevDeg:
		check.Class = SlopeGlobalMismatch
	default:
		check.IsValid = true
		check.Class = SlopeValid
	}
	return check
}
