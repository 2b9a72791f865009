// Package curveplugin is the Curve plugin: an automation remapper whose
// transfer curve is itself automatable. The processor wraps the composition
// engine; the controller exposes the curve and the curved parameters to the
// host.
package curveplugin

import (
	"github.com/juju/errors"

	"github.com/justyntemme/curvego/pkg/engine"
	"github.com/justyntemme/curvego/pkg/framework/plugin"
)

// Info describes the Curve plugin.
var Info = plugin.Info{
	ID:       "com.curvego.curve",
	Name:     "Curve",
	Version:  "1.0.0",
	Vendor:   "curvego",
	Category: "Fx",
}

// Unit ids of the controller's parameter groups.
const (
	CurveUnitID int32 = 1
	IOUnitID    int32 = 2
)

// Plugin creates Curve processors and controllers of one size.
type Plugin struct {
	numPoints int
	numParams int
}

// New returns a factory for curves of numPoints control points and
// numParams curved parameters.
func New(numPoints, numParams int) (*Plugin, error) {
	if _, err := engine.NewCurveState(numPoints, numParams); err != nil {
		return nil, errors.Trace(err)
	}
	return &Plugin{numPoints: numPoints, numParams: numParams}, nil
}

// Default returns a factory with the default curve size.
func Default() *Plugin {
	return &Plugin{numPoints: engine.DefaultCurvePoints, numParams: engine.DefaultCurvedParams}
}

// GetInfo implements plugin.Plugin.
func (p *Plugin) GetInfo() plugin.Info {
	return Info
}

// Layout returns the parameter id layout shared by processor and controller.
func (p *Plugin) Layout() engine.Layout {
	return engine.Layout{NumPoints: p.numPoints, NumParams: p.numParams}
}

// CreateProcessor implements plugin.Plugin.
func (p *Plugin) CreateProcessor() plugin.Processor {
	proc, err := NewProcessor(p.numPoints, p.numParams)
	if err != nil {
		// Sizes were validated by New.
		panic(err)
	}
	return proc
}

// CreateController implements plugin.Plugin.
func (p *Plugin) CreateController() plugin.Controller {
	c, err := NewController(p.numPoints, p.numParams)
	if err != nil {
		panic(err)
	}
	return c
}
