// Package render is an offline host for the Curve plugin. It slices a
// timeline into process blocks the way a DAW would, feeds each block's
// automation to the processor and stitches the composed output back into
// whole-song lanes.
package render

import (
	"context"
	"fmt"
	"time"

	"github.com/juju/errors"

	"github.com/justyntemme/curvego/pkg/automation"
	"github.com/justyntemme/curvego/pkg/engine"
	"github.com/justyntemme/curvego/pkg/framework/debug"
	"github.com/justyntemme/curvego/pkg/framework/plugin"
	"github.com/justyntemme/curvego/pkg/framework/process"
	"github.com/justyntemme/curvego/pkg/timeline"
)

// NumChannels is the number of audio outputs the host provides.
const NumChannels = 2

// Options configures a render.
type Options struct {
	Layout     engine.Layout
	BlockSize  int
	SampleRate float64

	// Profiler, if set, times every process call.
	Profiler *debug.BlockProfiler
}

// Validate checks the options.
func (o Options) Validate() error {
	if o.BlockSize < 1 {
		return errors.NotValidf("block size %d", o.BlockSize)
	}
	if !(o.SampleRate > 0) {
		return errors.NotValidf("sample rate %v", o.SampleRate)
	}
	if o.Layout.NumPoints < 2 {
		return errors.NotValidf("layout with %d control points", o.Layout.NumPoints)
	}
	return nil
}

// Stats summarizes one render.
type Stats struct {
	Blocks       int
	InputPoints  int
	OutputPoints int
	Elapsed      time.Duration
}

// Renderer drives one processor through a timeline.
type Renderer struct {
	proc plugin.Processor
	opts Options
	log  *debug.Logger

	ctx *process.Context
	in  *automation.Changes
	out *automation.Changes
}

// New initializes proc for offline rendering. State may be restored on proc
// after New and before Render.
func New(proc plugin.Processor, opts Options) (*Renderer, error) {
	if err := opts.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	if err := proc.Initialize(opts.SampleRate, int32(opts.BlockSize)); err != nil {
		return nil, errors.Annotate(err, "cannot initialize processor")
	}
	r := &Renderer{
		proc: proc,
		opts: opts,
		log:  debug.New("curvego.render"),
		ctx:  process.NewContext(opts.SampleRate, opts.BlockSize, NumChannels),
		in:   automation.NewChanges(opts.Layout.NumPoints+opts.Layout.NumParams, opts.BlockSize),
		out:  automation.NewChanges(opts.Layout.NumParams, opts.BlockSize),
	}
	r.ctx.InputChanges = r.in
	r.ctx.OutputChanges = r.out
	return r, nil
}

// Render processes the whole of tl and returns the composed output lanes.
// Lanes of tl that are not control points or curved parameter inputs are
// ignored.
func (r *Renderer) Render(ctx context.Context, tl *timeline.Timeline) (*timeline.Timeline, Stats, error) {
	var stats Stats
	start := time.Now()

	inputs := r.inputLanes(tl)
	result := timeline.New(tl.Length, r.opts.SampleRate)

	if err := r.proc.SetActive(true); err != nil {
		return nil, stats, errors.Annotate(err, "cannot activate processor")
	}
	defer r.proc.SetActive(false)
	if err := r.proc.SetProcessing(true); err != nil {
		return nil, stats, errors.Annotate(err, "cannot start processing")
	}
	defer r.proc.SetProcessing(false)

	bs := int32(r.opts.BlockSize)
	for s := int32(0); s < tl.Length; s += bs {
		if err := ctx.Err(); err != nil {
			return nil, stats, errors.Trace(err)
		}
		n := min(bs, tl.Length-s)

		r.in.Clear()
		r.out.Clear()
		for _, l := range inputs {
			added, err := r.fill(l, s, n)
			if err != nil {
				return nil, stats, errors.Annotatef(err, "block at %d", s)
			}
			stats.InputPoints += added
		}

		r.ctx.SetNumSamples(n)
		if err := r.process(); err != nil {
			return nil, stats, errors.Annotatef(err, "block at %d", s)
		}
		stats.Blocks++

		added, err := r.collect(result, s)
		if err != nil {
			return nil, stats, errors.Annotatef(err, "block at %d", s)
		}
		stats.OutputPoints += added
	}

	result.Sort()
	stats.Elapsed = time.Since(start)
	r.log.Debug("rendered %d samples in %d blocks: %d points in, %d out",
		tl.Length, stats.Blocks, stats.InputPoints, stats.OutputPoints)
	return result, stats, nil
}

func (r *Renderer) process() error {
	if r.opts.Profiler == nil {
		return r.proc.Process(r.ctx)
	}
	stop := r.opts.Profiler.Start(debug.BlockSection)
	defer stop()
	return r.proc.Process(r.ctx)
}

func (r *Renderer) inputLanes(tl *timeline.Timeline) []*timeline.Lane {
	var lanes []*timeline.Lane
	for _, l := range tl.Lanes {
		switch role, _ := r.opts.Layout.Classify(l.Param); role {
		case engine.RoleControlPoint, engine.RoleInput:
			if len(l.Points) > 0 {
				lanes = append(lanes, l)
			}
		default:
			r.log.Warn("ignoring lane for %s parameter %d", role, l.Param)
		}
	}
	return lanes
}

// fill queues the part of lane l inside the block [s, s+n) at block-relative
// offsets. The processor holds a signal's last value to the end of a block,
// so when the lane keeps ramping into the next block its value at the
// block's last sample is added as well. At song start a lane whose first
// breakpoint comes later starts at that breakpoint's value.
func (r *Renderer) fill(l *timeline.Lane, s, n int32) (int, error) {
	pts := l.Range(s, s+n)
	last := s + n - 1

	lead := s == 0 && (len(pts) == 0 || pts[0].Offset > 0)
	trail := l.After(last) && l.Before(last) && (len(pts) == 0 || pts[len(pts)-1].Offset != last)
	if len(pts) == 0 && !lead && !trail {
		return 0, nil
	}

	q, _, err := r.in.Add(l.Param)
	if err != nil {
		return 0, errors.Trace(err)
	}
	added := 0
	add := func(offset int32, value float64) error {
		if _, err := q.AddPoint(offset, value); err != nil {
			return errors.Annotatef(err, "parameter %d offset %d", l.Param, s+offset)
		}
		added++
		return nil
	}
	if lead {
		if err := add(0, l.ValueAt(0)); err != nil {
			return added, err
		}
	}
	for _, p := range pts {
		if err := add(p.Offset-s, p.Value); err != nil {
			return added, err
		}
	}
	if trail {
		if err := add(n-1, l.ValueAt(last)); err != nil {
			return added, err
		}
	}
	return added, nil
}

// collect appends the block's output queues at absolute offsets.
func (r *Renderer) collect(result *timeline.Timeline, s int32) (int, error) {
	added := 0
	for i := 0; i < int(r.out.ParameterCount()); i++ {
		q := r.out.Queue(i)
		role, index := r.opts.Layout.Classify(q.ParameterID())
		if role != engine.RoleOutput {
			continue
		}
		lane := result.AddLane(q.ParameterID(), fmt.Sprintf("Out%d", index+1))
		for _, p := range q.Points() {
			if err := lane.Add(s+p.Offset, p.Value); err != nil {
				return added, errors.Trace(err)
			}
			added++
		}
	}
	return added, nil
}
