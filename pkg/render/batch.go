package render

import (
	"context"

	"github.com/juju/errors"
	"golang.org/x/sync/errgroup"

	"github.com/justyntemme/curvego/pkg/framework/plugin"
	"github.com/justyntemme/curvego/pkg/timeline"
)

// Job is one timeline to render with its own processor instance.
type Job struct {
	Name  string
	Input *timeline.Timeline

	// Setup, if set, runs on the freshly initialized processor before
	// rendering, e.g. to restore a saved state.
	Setup func(plugin.Processor) error
	// Finish, if set, runs on the processor after a successful render,
	// e.g. to save its final state.
	Finish func(plugin.Processor) error

	Output *timeline.Timeline
	Stats  Stats
}

// Batch renders jobs concurrently, at most parallel at a time (unlimited if
// parallel < 1). Each job gets a processor of its own from newProcessor.
// The first failure cancels the remaining jobs.
func Batch(ctx context.Context, newProcessor func() plugin.Processor, opts Options, jobs []*Job, parallel int) error {
	if err := opts.Validate(); err != nil {
		return errors.Trace(err)
	}
	g, ctx := errgroup.WithContext(ctx)
	if parallel > 0 {
		g.SetLimit(parallel)
	}
	for _, job := range jobs {
		job := job
		g.Go(func() error {
			r, err := New(newProcessor(), opts)
			if err != nil {
				return errors.Annotatef(err, "%s", job.Name)
			}
			if job.Setup != nil {
				if err := job.Setup(r.proc); err != nil {
					return errors.Annotatef(err, "%s", job.Name)
				}
			}
			out, stats, err := r.Render(ctx, job.Input)
			if err != nil {
				return errors.Annotatef(err, "%s", job.Name)
			}
			job.Output, job.Stats = out, stats
			if job.Finish != nil {
				return errors.Annotatef(job.Finish(r.proc), "%s", job.Name)
			}
			return nil
		})
	}
	return errors.Trace(g.Wait())
}
