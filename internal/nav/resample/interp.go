package resample

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/interp"
)

// linearResample evaluates piecewise-linear interpolation of (xs, ys) at
// each target. Targets outside [xs[0], xs[n-1]] are linearly extrapolated
// from the nearest boundary segment, never clamped.
//
// gonum's interp.PiecewiseLinear is deliberately not used here: it returns
// the boundary value outside the fitted range, and this pipeline's contract
// is unclamped extrapolation with a warning (see Diagnostics.Extrapolations).
func linearResample(xs, ys, targets []float64) []float64 {
	n := len(xs)
	out := make([]float64, len(targets))
	for i, x := range targets {
		out[i] = lerpAt(xs, ys, n, x)
	}
	return out
}

func lerpAt(xs, ys []float64, n int, x float64) float64 {
	idx := sort.SearchFloat64s(xs, x)
	switch {
	case idx == 0:
		if x == xs[0] {
			return ys[0]
		}
		return lerp(xs[0], xs[1], ys[0], ys[1], x)
	case idx == n:
		return lerp(xs[n-2], xs[n-1], ys[n-2], ys[n-1], x)
	}
	if x == xs[idx] {
		return ys[idx]
	}
	return lerp(xs[idx-1], xs[idx], ys[idx-1], ys[idx], x)
}

func lerp(x0, x1, y0, y1, x float64) float64 {
	return y0 + (y1-y0)*(x-x0)/(x1-x0)
}

// splineResample fits a cubic spline to (xs, ys) with the requested boundary
// condition and evaluates it at each target. Preprocessing guarantees the
// strictly increasing, unique xs the fit requires.
func splineResample(xs, ys, targets []float64, bc Boundary) ([]float64, error) {
	var pred interp.FittablePredictor
	switch bc {
	case BoundaryNatural:
		pred = &interp.NaturalCubic{}
	case BoundaryClamped:
		pred = &interp.ClampedCubic{}
	case BoundaryNotAKnot:
		pred = &interp.NotAKnotCubic{}
	default:
		return nil, fmt.Errorf("resample: unknown boundary condition %d", bc)
	}

	if err := pred.Fit(xs, ys); err != nil {
		return nil, fmt.Errorf("resample: spline fit: %w", err)
	}

	out := make([]float64, len(targets))
	for i, x := range targets {
		out[i] = pred.Predict(x)
	}
	return out, nil
}
