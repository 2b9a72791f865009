package curveplugin

import (
	"fmt"
	"io"

	"github.com/juju/errors"

	"github.com/justyntemme/curvego/pkg/curve"
	"github.com/justyntemme/curvego/pkg/engine"
	"github.com/justyntemme/curvego/pkg/framework/debug"
	"github.com/justyntemme/curvego/pkg/framework/param"
	"github.com/justyntemme/curvego/pkg/framework/plugin"
	"github.com/justyntemme/curvego/pkg/framework/state"
)

// Controller exposes the control points and curved parameters to the host.
type Controller struct {
	*plugin.BaseController

	layout engine.Layout
	states *state.Manager
	log    *debug.Logger
}

var _ plugin.Controller = (*Controller)(nil)

// NewController registers the parameters of a curve of numPoints control
// points and numParams curved parameters.
func NewController(numPoints, numParams int) (*Controller, error) {
	if _, err := engine.NewCurveState(numPoints, numParams); err != nil {
		return nil, errors.Trace(err)
	}
	c := &Controller{
		BaseController: plugin.NewBaseController(),
		layout:         engine.Layout{NumPoints: numPoints, NumParams: numParams},
		states:         state.NewManager(),
		log:            debug.New("curvego.curveplugin"),
	}
	if err := c.register(); err != nil {
		return nil, errors.Trace(err)
	}
	return c, nil
}

func (c *Controller) register() error {
	reg := c.GetParameters()
	if err := reg.AddUnit(CurveUnitID, "Curve"); err != nil {
		return errors.Trace(err)
	}
	if err := reg.AddUnit(IOUnitID, "I/O Parameters"); err != nil {
		return errors.Trace(err)
	}

	format := param.FixedFormatter(3)
	for i := 0; i < c.layout.NumPoints; i++ {
		p := param.New(c.layout.ControlPointID(i), fmt.Sprintf("Curve%d", i)).
			Default(curve.PointX(i, c.layout.NumPoints)).
			InUnit(CurveUnitID).
			Formatter(format, param.ParseNormalized).
			Build()
		if err := reg.Add(p); err != nil {
			return errors.Trace(err)
		}
	}
	for i := 0; i < c.layout.NumParams; i++ {
		in := param.New(c.layout.InputID(i), fmt.Sprintf("In%d", i+1)).
			InUnit(IOUnitID).
			Formatter(format, param.ParseNormalized).
			Build()
		out := param.New(c.layout.OutputID(i), fmt.Sprintf("Out%d", i+1)).
			InUnit(IOUnitID).
			Formatter(format, param.ParseNormalized).
			Build()
		if err := reg.Add(in, out); err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}

// Layout returns the parameter id layout.
func (c *Controller) Layout() engine.Layout {
	return c.layout
}

// SetComponentState implements plugin.Controller. Control points take the
// stored curve, resampled if needed; each curved parameter's In and Out take
// its stored x and y.
func (c *Controller) SetComponentState(r io.Reader) error {
	if r == nil {
		return errors.NotValidf("nil state stream")
	}
	s, err := engine.NewCurveState(c.layout.NumPoints, c.layout.NumParams)
	if err != nil {
		return errors.Trace(err)
	}
	if err := c.states.Load(r, s); err != nil {
		return errors.Annotate(err, "cannot mirror processor state")
	}

	reg := c.GetParameters()
	for i, v := range s.Points() {
		reg.Get(c.layout.ControlPointID(i)).SetValue(v)
	}
	for i, ps := range s.Params() {
		reg.Get(c.layout.InputID(i)).SetValue(ps.X)
		reg.Get(c.layout.OutputID(i)).SetValue(ps.Y)
	}
	c.log.Debug("mirrored state of %d points, %d params", s.NumPoints(), s.NumParams())
	return nil
}
