// Package curve provides the piecewise-linear transfer curve and the
// interpolation primitives shared by the automation engine.
package curve

import "math"

// SnapTolerance is the distance, in curve-point units, within which an x
// position is treated as landing exactly on a control point.
const SnapTolerance = 0.00001

// Clamp limits a value to the normalized range [0, 1]. NaN maps to 0.
func Clamp(v float64) float64 {
	if !(v >= 0) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Identity fills points with the identity curve, value(i) = i/(N-1).
func Identity(points []float64) {
	intervals := float64(len(points) - 1)
	for i := range points {
		points[i] = float64(i) / intervals
	}
}

// PointX returns the fixed x coordinate of control point i on an n point curve.
func PointX(i, n int) float64 {
	return float64(i) / float64(n-1)
}

// Evaluate maps x through the curve described by points, which are evenly
// spaced over [0, 1]. x is clamped to [0, 1] and so is the result.
// A curve needs at least two points; shorter slices evaluate to 0.
func Evaluate(points []float64, x float64) float64 {
	n := len(points)
	if n < 2 {
		return 0
	}
	x = Clamp(x)

	cp := x * float64(n-1)
	nearest := int(cp + 0.5)
	if math.Abs(cp-float64(nearest)) <= SnapTolerance {
		return Clamp(points[nearest])
	}

	lo := int(cp)
	hi := lo + 1
	if hi >= n {
		hi = n - 1
	}
	return Clamp(points[lo] + (points[hi]-points[lo])*(cp-float64(lo)))
}

// Lerp interpolates the segment (t0,y0)--(t1,y1) at time t.
//
// A degenerate segment (t0 == t1) is a step: y1 from t1 onwards, y0 before.
// Otherwise the result is clamped to [0, 1]. Time distances are computed in
// float64 so an open-ended segment (t1 = math.MaxInt32) never overflows.
func Lerp(t0 int32, y0 float64, t1 int32, y1 float64, t int32) float64 {
	if t0 == t1 {
		if t >= t1 {
			return y1
		}
		return y0
	}
	frac := (float64(t) - float64(t0)) / (float64(t1) - float64(t0))
	return Clamp(y0 + (y1-y0)*frac)
}

// Between interpolates the line through (x0,y0) and (x1,y1) at x, clamped to
// [0, 1]. When x0 == x1 it returns y0.
func Between(x0, y0, x1, y1, x float64) float64 {
	if x0 == x1 {
		return Clamp(y0)
	}
	return Clamp(y0 + (y1-y0)*((x-x0)/(x1-x0)))
}

// Resample evaluates the curve src at n evenly spaced positions and writes
// them into dst, which must have length n. It is used when a stored curve
// has a different number of control points than the live one.
func Resample(dst, src []float64) {
	if len(dst) == 1 {
		dst[0] = Evaluate(src, 0)
		return
	}
	for i := range dst {
		dst[i] = Evaluate(src, PointX(i, len(dst)))
	}
}
