package curveplugin

import (
	"io"

	"github.com/juju/errors"

	"github.com/justyntemme/curvego/pkg/engine"
	"github.com/justyntemme/curvego/pkg/framework/debug"
	"github.com/justyntemme/curvego/pkg/framework/plugin"
	"github.com/justyntemme/curvego/pkg/framework/process"
	"github.com/justyntemme/curvego/pkg/framework/state"
)

// Processor is the real-time side of the Curve plugin. It produces no audio;
// its outputs are zeroed every block.
type Processor struct {
	*plugin.BaseProcessor

	engine *engine.Engine
	states *state.Manager
	log    *debug.Logger
}

var _ plugin.Processor = (*Processor)(nil)

// NewProcessor creates a processor holding the identity curve.
func NewProcessor(numPoints, numParams int) (*Processor, error) {
	e, err := engine.New(numPoints, numParams)
	if err != nil {
		return nil, errors.Trace(err)
	}
	p := &Processor{
		BaseProcessor: plugin.NewBaseProcessor(),
		engine:        e,
		states:        state.NewManager(),
		log:           debug.New("curvego.curveplugin"),
	}
	p.OnInitialize(func(sampleRate float64, maxBlockSize int32) error {
		p.engine.State().Reset()
		p.log.Debug("initialized at %.0f Hz, max block %d", sampleRate, maxBlockSize)
		return nil
	})
	p.OnSetProcessing(func(processing bool) error {
		if processing {
			p.engine.StartProcessing()
		}
		p.log.Debug("processing %v", processing)
		return nil
	})
	return p, nil
}

// Engine returns the composition engine.
func (p *Processor) Engine() *engine.Engine {
	return p.engine
}

// Process implements plugin.Processor.
func (p *Processor) Process(ctx *process.Context) error {
	ctx.Clear()
	return p.engine.Process(ctx.NumSamples(), ctx.InputChanges, ctx.OutputChanges)
}

// GetState implements plugin.Processor.
func (p *Processor) GetState(w io.Writer) error {
	return errors.Trace(p.states.Save(w, p.engine.State()))
}

// SetState implements plugin.Processor. The current state is kept if r
// cannot be decoded.
func (p *Processor) SetState(r io.Reader) error {
	s := *p.engine.State()
	if err := p.states.Load(r, &s); err != nil {
		p.log.Warn("rejected state: %v", err)
		return errors.Trace(err)
	}
	return errors.Trace(p.engine.Restore(s))
}
