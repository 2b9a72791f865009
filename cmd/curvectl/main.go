// Command curvectl renders automation through the Curve plugin offline.
//
// Each input is a YAML timeline or a Standard MIDI File. Every input is
// rendered with its own plugin instance and the composed output lanes are
// written next to the input's name in the output directory, in the same
// format.
package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/juju/errors"
	flag "github.com/juju/gnuflag"

	"github.com/justyntemme/curvego/pkg/config"
	"github.com/justyntemme/curvego/pkg/curveplugin"
	"github.com/justyntemme/curvego/pkg/framework/debug"
	"github.com/justyntemme/curvego/pkg/framework/plugin"
	"github.com/justyntemme/curvego/pkg/midi"
	"github.com/justyntemme/curvego/pkg/render"
	"github.com/justyntemme/curvego/pkg/timeline"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

type params struct {
	config    string
	state     string
	saveState string
	outDir    string
	block     int
	parallel  int
	verbose   bool
	profile   bool
	inputs    []string
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("curvectl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var p params
	fs.StringVar(&p.config, "config", "", "YAML configuration file")
	fs.StringVar(&p.state, "state", "", "restore plugin state from this file before rendering")
	fs.StringVar(&p.saveState, "save-state", "", "save the final plugin state to this file (single input only)")
	fs.StringVar(&p.outDir, "o", ".", "output directory")
	fs.IntVar(&p.block, "block", 0, "block size in samples (overrides the configuration)")
	fs.IntVar(&p.parallel, "j", 0, "maximum concurrent renders (0 for no limit)")
	fs.BoolVar(&p.verbose, "v", false, "verbose logging")
	fs.BoolVar(&p.profile, "profile", false, "print block timing statistics")
	fs.Usage = func() {
		fmt.Fprintf(stderr, `
Usage: curvectl [OPTION]... INPUT...
Render automation lanes through the Curve transfer curve.

INPUT is a .yaml timeline or a .mid file.
`[1:])
		fs.PrintDefaults()
	}
	if err := fs.Parse(true, args); err != nil {
		return 2
	}
	p.inputs = fs.Args()
	if len(p.inputs) == 0 {
		fs.Usage()
		return 2
	}

	if err := p.run(stdout, stderr); err != nil {
		fmt.Fprintf(stderr, "curvectl: %v\n", err)
		return 1
	}
	return 0
}

func (p *params) run(stdout, stderr io.Writer) error {
	cfg, err := config.Load(p.config)
	if err != nil {
		return errors.Trace(err)
	}
	if p.block > 0 {
		cfg.BlockSize = p.block
		if err := cfg.Validate(); err != nil {
			return errors.Trace(err)
		}
	}
	if err := debug.SetOutput(stderr); err != nil {
		return errors.Trace(err)
	}
	level := cfg.Level()
	if p.verbose {
		level = debug.LogLevelDebug
	}
	debug.SetLevel(level)

	if p.saveState != "" && len(p.inputs) != 1 {
		return errors.NotValidf("--save-state with %d inputs", len(p.inputs))
	}
	var state []byte
	if p.state != "" {
		if state, err = os.ReadFile(p.state); err != nil {
			return errors.Trace(err)
		}
	}

	factory, err := curveplugin.New(cfg.CurvePoints, cfg.CurvedParams)
	if err != nil {
		return errors.Trace(err)
	}
	opts := render.Options{
		Layout:     factory.Layout(),
		BlockSize:  cfg.BlockSize,
		SampleRate: cfg.SampleRate,
	}
	if p.profile {
		opts.Profiler = debug.NewBlockProfiler(cfg.SampleRate, cfg.BlockSize)
	}

	jobs := make([]*render.Job, len(p.inputs))
	for i, path := range p.inputs {
		tl, err := readInput(path, cfg)
		if err != nil {
			return errors.Trace(err)
		}
		jobs[i] = &render.Job{
			Name:  path,
			Input: tl,
			Setup: setup(cfg, state),
		}
	}
	if p.saveState != "" {
		jobs[0].Finish = func(proc plugin.Processor) error {
			var buf bytes.Buffer
			if err := proc.GetState(&buf); err != nil {
				return errors.Trace(err)
			}
			return errors.Trace(os.WriteFile(p.saveState, buf.Bytes(), 0o644))
		}
	}

	if err := render.Batch(context.Background(), factory.CreateProcessor, opts, jobs, p.parallel); err != nil {
		return errors.Trace(err)
	}

	if err := os.MkdirAll(p.outDir, 0o755); err != nil {
		return errors.Trace(err)
	}
	outputs := make([]string, len(jobs))
	for i, job := range jobs {
		outputs[i] = outputPath(p.outDir, job.Name)
		if err := writeOutput(outputs[i], job.Output, cfg); err != nil {
			return errors.Trace(err)
		}
	}

	fmt.Fprintln(stdout, summary(jobs, outputs))
	if opts.Profiler != nil {
		fmt.Fprintln(stdout, opts.Profiler.BlockReport())
	}
	return nil
}

// setup restores the configured initial curve, then the saved state if any.
func setup(cfg *config.Config, state []byte) func(plugin.Processor) error {
	return func(proc plugin.Processor) error {
		if cp, ok := proc.(*curveplugin.Processor); ok && len(cfg.Curve) > 0 {
			s := cp.Engine().State()
			for i, v := range cfg.Curve {
				s.SetPoint(i, v)
			}
		}
		if state == nil {
			return nil
		}
		return errors.Annotate(proc.SetState(bytes.NewReader(state)), "cannot restore state")
	}
}

func isMIDI(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mid", ".midi", ".smf":
		return true
	}
	return false
}

func readInput(path string, cfg *config.Config) (*timeline.Timeline, error) {
	if isMIDI(path) {
		tl, err := midi.ReadFile(path, cfg.MIDIOptions(), cfg.InputControllers())
		return tl, errors.Trace(err)
	}
	tl, err := timeline.Load(path)
	return tl, errors.Trace(err)
}

func outputPath(dir, input string) string {
	base := filepath.Base(input)
	ext := filepath.Ext(base)
	return filepath.Join(dir, strings.TrimSuffix(base, ext)+".out"+ext)
}

func writeOutput(path string, tl *timeline.Timeline, cfg *config.Config) error {
	if isMIDI(path) {
		return errors.Trace(midi.WriteFile(path, tl, cfg.MIDIOptions(), cfg.OutputControllers()))
	}
	return errors.Trace(tl.Save(path))
}
