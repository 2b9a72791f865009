// Package engine composes automation signals with an automatable
// piecewise-linear transfer curve, sample-accurately and without latency.
//
// For every curved parameter the engine walks the incoming signal segment by
// segment. Inside a segment it steps to the nearest of three events: the
// signal crossing into a new curve interval, or either bracketing control
// point's own automation reaching a breakpoint. The composed function is
// linear between those events, so emitting a breakpoint at each one
// reproduces it exactly.
package engine

import (
	"errors"
	"math"

	jujuerrors "github.com/juju/errors"

	"github.com/justyntemme/curvego/pkg/automation"
	"github.com/justyntemme/curvego/pkg/curve"
)

// ErrNegativeSampleCount is returned for a block with fewer than zero samples.
var ErrNegativeSampleCount = errors.New("engine: negative sample count")

// Engine holds the persistent curve state and the per-block scratch used to
// route host queues. Process never allocates.
type Engine struct {
	layout Layout
	state  CurveState

	cursors [MaxCurvePoints]automation.Cursor
	inputs  [MaxCurvedParams]automation.ParamQueue
	outputs [MaxCurvedParams]automation.ParamQueue

	initialValuesSent bool
}

// New creates an engine for a curve of numPoints control points shared by
// numParams curved parameters.
func New(numPoints, numParams int) (*Engine, error) {
	s, err := NewCurveState(numPoints, numParams)
	if err != nil {
		return nil, jujuerrors.Trace(err)
	}
	return &Engine{
		layout: Layout{NumPoints: numPoints, NumParams: numParams},
		state:  *s,
	}, nil
}

// Layout returns the parameter id layout.
func (e *Engine) Layout() Layout {
	return e.layout
}

// State returns the persistent curve state. It must not be modified while
// Process runs.
func (e *Engine) State() *CurveState {
	return &e.state
}

// Restore replaces the persistent state. The point and parameter counts of
// s must match the engine's.
func (e *Engine) Restore(s CurveState) error {
	if s.numPoints != e.state.numPoints || s.numParams != e.state.numParams {
		return jujuerrors.NotValidf("state size %dx%d for engine %dx%d",
			s.numPoints, s.numParams, e.state.numPoints, e.state.numParams)
	}
	e.state = s
	return nil
}

// StartProcessing arms the one-shot output of initial values, so the next
// Process call reports every curved parameter's current value to the host.
func (e *Engine) StartProcessing() {
	e.initialValuesSent = false
}

// Process composes one block of numSamples samples. in carries control point
// and input signal queues; composed breakpoints are appended to out. Either
// may be nil.
//
// An unreadable breakpoint aborts the affected curved parameter only; the
// first such error is returned once the whole block has been processed.
func (e *Engine) Process(numSamples int32, in, out automation.ParameterChanges) error {
	if numSamples < 0 {
		return ErrNegativeSampleCount
	}
	if numSamples == 0 {
		return nil
	}

	curveChanged := e.route(in, out)

	var firstErr error
	for id := 0; id < e.layout.NumParams; id++ {
		if automation.Count(e.inputs[id]) == 0 && !curveChanged {
			continue
		}
		if err := e.compose(id, numSamples, out); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	// Only the final value of each control point matters to later blocks.
	if curveChanged {
		for cp := 0; cp < e.layout.NumPoints; cp++ {
			last, ok, err := automation.Last(e.cursors[cp].Source())
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
			if ok {
				e.state.SetPoint(cp, last.Value)
			}
		}
	}

	if out != nil && !e.initialValuesSent {
		if err := e.sendInitialValues(out); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// route binds the host queues of this block and reports whether any control
// point is automated.
func (e *Engine) route(in, out automation.ParameterChanges) bool {
	for cp := 0; cp < e.layout.NumPoints; cp++ {
		e.cursors[cp].Bind(nil, e.state.points[cp])
	}
	for id := 0; id < e.layout.NumParams; id++ {
		e.inputs[id] = nil
		e.outputs[id] = nil
	}

	curveChanged := false
	if in != nil {
		n := in.ParameterCount()
		for i := int32(0); i < n; i++ {
			q := in.ParameterData(i)
			if q == nil {
				continue
			}
			switch role, index := e.layout.Classify(q.ParameterID()); role {
			case RoleControlPoint:
				e.cursors[index].Bind(q, e.state.points[index])
				if automation.Count(q) > 0 {
					curveChanged = true
				}
			case RoleInput:
				e.inputs[index] = q
			}
		}
	}
	if out != nil {
		n := out.ParameterCount()
		for i := int32(0); i < n; i++ {
			q := out.ParameterData(i)
			if q == nil {
				continue
			}
			if role, index := e.layout.Classify(q.ParameterID()); role == RoleOutput {
				e.outputs[index] = q
			}
		}
	}
	return curveChanged
}

// compose translates curved parameter id's input into its output for one block.
func (e *Engine) compose(id int, numSamples int32, out automation.ParameterChanges) error {
	in := e.inputs[id]
	n := automation.Count(in)

	for cp := 0; cp < e.layout.NumPoints; cp++ {
		e.cursors[cp].Reset()
	}

	ps := &e.state.params[id]

	// Segment (t0,x0)--(t1,x1). The first one starts just before the block
	// at the last stored input value; the last one holds to the block end.
	t0, x0 := int32(-1), ps.X
	for i := int32(0); i <= n; i++ {
		t1, x1 := numSamples, x0
		if i < n {
			p, err := in.Point(i)
			if err != nil {
				return jujuerrors.Annotatef(err, "curved parameter %d point %d", id, i)
			}
			t1, x1 = p.Offset, curve.Clamp(p.Value)
			if t1 < t0 {
				t1 = t0
			}
		}

		// (t,x) is the last emitted point.
		t, x := t0, x0
		for {
			// Control points bracketing the interval the segment is moving
			// through, and the time t_cp it leaves that interval.
			cp0, cp1 := e.brackets(x, x1)
			tcp := t1
			if x0 != x1 {
				target := cp1
				if x1 < x0 {
					target = cp0
				}
				xcp := curve.PointX(target, e.layout.NumPoints)
				tcp = int32(math.Round(float64(t0) + (float64(t1)-float64(t0))*((xcp-x0)/(x1-x0))))
				if tcp <= t {
					tcp = t + 1
				}
				if tcp > t1 {
					tcp = t1
				}
			}

			next0, _, err := e.cursors[cp0].AdvanceTo(t)
			if err != nil {
				return jujuerrors.Annotatef(err, "curved parameter %d control point %d", id, cp0)
			}
			next1, _, err := e.cursors[cp1].AdvanceTo(t)
			if err != nil {
				return jujuerrors.Annotatef(err, "curved parameter %d control point %d", id, cp1)
			}

			t = min(tcp, next0, next1)
			x = curve.Lerp(t0, x0, t1, x1, t)
			// A rounded crossing can step x past the target vertex, so y is
			// taken from the interval x actually lies in.
			lo, hi := e.brackets(x, x)
			y, err := e.curveAt(lo, hi, x, t)
			if err != nil {
				return jujuerrors.Annotatef(err, "curved parameter %d", id)
			}

			if t >= 0 && t < numSamples {
				q, err := e.outputQueue(id, out)
				if err != nil {
					return jujuerrors.Annotatef(err, "curved parameter %d", id)
				}
				if q != nil {
					if _, err := q.AddPoint(t, y); err != nil {
						return jujuerrors.Annotatef(err, "curved parameter %d offset %d", id, t)
					}
				}
			}
			ps.X, ps.Y = x, y

			if t >= t1 {
				break
			}
		}
		t0, x0 = t1, x1
	}
	return nil
}

// brackets returns the control points bounding the curve interval that a
// signal at x heading towards target is about to traverse. They are equal
// only when the signal rests on a vertex.
func (e *Engine) brackets(x, target float64) (int, int) {
	c := x * float64(e.layout.NumPoints-1)
	if r := math.Round(c); math.Abs(c-r) <= curve.SnapTolerance {
		v := e.clampPoint(int(r))
		switch {
		case target > x:
			return v, e.clampPoint(v + 1)
		case target < x:
			return e.clampPoint(v - 1), v
		default:
			return v, v
		}
	}
	return e.clampPoint(int(math.Floor(c))), e.clampPoint(int(math.Ceil(c)))
}

// curveAt evaluates the curve at x using the bracketing control points'
// values at time t.
func (e *Engine) curveAt(cp0, cp1 int, x float64, t int32) (float64, error) {
	y0, err := e.cursors[cp0].ValueAt(t)
	if err != nil || cp0 == cp1 {
		return y0, err
	}
	y1, err := e.cursors[cp1].ValueAt(t)
	if err != nil {
		return 0, err
	}
	n := e.layout.NumPoints
	return curve.Between(curve.PointX(cp0, n), y0, curve.PointX(cp1, n), y1, x), nil
}

func (e *Engine) clampPoint(cp int) int {
	if cp < 0 {
		return 0
	}
	if cp >= e.layout.NumPoints {
		return e.layout.NumPoints - 1
	}
	return cp
}

// outputQueue returns the host output queue of curved parameter id, adding
// it to out on first use.
func (e *Engine) outputQueue(id int, out automation.ParameterChanges) (automation.ParamQueue, error) {
	if e.outputs[id] != nil || out == nil {
		return e.outputs[id], nil
	}
	q, _, err := out.AddParameterData(e.layout.OutputID(id))
	if err != nil {
		return nil, err
	}
	e.outputs[id] = q
	return q, nil
}

// sendInitialValues emits the stored value of every curved parameter at
// offset 0, unless something was already emitted for it this block.
func (e *Engine) sendInitialValues(out automation.ParameterChanges) error {
	e.initialValuesSent = true

	var firstErr error
	for id := 0; id < e.layout.NumParams; id++ {
		q, err := e.outputQueue(id, out)
		if err == nil && q != nil && automation.Count(q) == 0 {
			_, err = q.AddPoint(0, e.state.params[id].Y)
		}
		if err != nil && firstErr == nil {
			firstErr = jujuerrors.Annotatef(err, "initial value of curved parameter %d", id)
		}
	}
	return firstErr
}
