package engine

import (
	"github.com/juju/errors"

	"github.com/justyntemme/curvego/pkg/curve"
)

// Bounds on the curve size. Per-block storage is sized by these so that
// processing never allocates.
const (
	MaxCurvePoints  = 128
	MaxCurvedParams = 64

	DefaultCurvePoints  = 11
	DefaultCurvedParams = 20
)

// ParamState is the last value consumed from a curved parameter's input and
// the last value produced on its output.
type ParamState struct {
	X float64
	Y float64
}

// CurveState is the state carried from one processing block to the next.
// It is a plain value: copying it snapshots the whole curve.
type CurveState struct {
	numPoints int
	numParams int
	points    [MaxCurvePoints]float64
	params    [MaxCurvedParams]ParamState
}

// NewCurveState returns a state holding the identity curve.
func NewCurveState(numPoints, numParams int) (*CurveState, error) {
	if err := validateSize(numPoints, numParams); err != nil {
		return nil, errors.Trace(err)
	}
	s := &CurveState{
		numPoints: numPoints,
		numParams: numParams,
	}
	s.Reset()
	return s, nil
}

func validateSize(numPoints, numParams int) error {
	if numPoints < 2 || numPoints > MaxCurvePoints {
		return errors.NotValidf("curve point count %d (want 2..%d)", numPoints, MaxCurvePoints)
	}
	if numParams < 0 || numParams > MaxCurvedParams {
		return errors.NotValidf("curved parameter count %d (want 0..%d)", numParams, MaxCurvedParams)
	}
	return nil
}

// Reset restores the identity curve and zeroes every curved parameter.
func (s *CurveState) Reset() {
	curve.Identity(s.Points())
	for i := range s.params {
		s.params[i] = ParamState{}
	}
}

// NumPoints returns the number of control points.
func (s *CurveState) NumPoints() int { return s.numPoints }

// NumParams returns the number of curved parameters.
func (s *CurveState) NumParams() int { return s.numParams }

// Points returns the live control point values.
func (s *CurveState) Points() []float64 {
	return s.points[:s.numPoints]
}

// Point returns the value of control point i.
func (s *CurveState) Point(i int) float64 {
	return s.points[i]
}

// SetPoint sets control point i, clamped to [0, 1].
func (s *CurveState) SetPoint(i int, v float64) {
	s.points[i] = curve.Clamp(v)
}

// Params returns the live curved parameter states.
func (s *CurveState) Params() []ParamState {
	return s.params[:s.numParams]
}

// Param returns the state of curved parameter id.
func (s *CurveState) Param(id int) ParamState {
	return s.params[id]
}

// SetParam sets curved parameter id, clamping both values to [0, 1].
func (s *CurveState) SetParam(id int, p ParamState) {
	s.params[id] = ParamState{X: curve.Clamp(p.X), Y: curve.Clamp(p.Y)}
}

// Evaluate maps x through the current curve.
func (s *CurveState) Evaluate(x float64) float64 {
	return curve.Evaluate(s.Points(), x)
}
