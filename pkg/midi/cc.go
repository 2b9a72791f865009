// Package midi converts between automation timelines and MIDI control
// change lanes in Standard MIDI Files.
//
// A CC value v maps to the normalized value v/127. Tick positions map to
// sample offsets through a fixed number of samples per tick; tempo changes
// in the file are not followed.
package midi

import (
	"io"
	"math"
	"os"
	"sort"

	"github.com/juju/errors"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/justyntemme/curvego/pkg/curve"
	"github.com/justyntemme/curvego/pkg/framework/debug"
	"github.com/justyntemme/curvego/pkg/timeline"
)

var log = debug.New("curvego.midi")

// DefaultResolution is the ticks per quarter note of written files.
const DefaultResolution = 960

// Options controls the tick and channel mapping.
type Options struct {
	// Channel is the MIDI channel (0-15) lanes are read from and written to.
	Channel uint8
	// SamplesPerTick converts ticks to sample offsets.
	SamplesPerTick float64
	// Resolution is the ticks per quarter note of written files.
	Resolution uint16
}

// Validate checks the options.
func (o Options) Validate() error {
	if o.Channel > 15 {
		return errors.NotValidf("MIDI channel %d", o.Channel)
	}
	if !(o.SamplesPerTick > 0) || math.IsInf(o.SamplesPerTick, 0) {
		return errors.NotValidf("samples per tick %v", o.SamplesPerTick)
	}
	return nil
}

// ToValue converts a 7-bit CC value to a normalized value.
func ToValue(v uint8) float64 {
	if v > 127 {
		v = 127
	}
	return float64(v) / 127
}

// FromValue converts a normalized value to the nearest 7-bit CC value.
func FromValue(v float64) uint8 {
	return uint8(math.Round(curve.Clamp(v) * 127))
}

type ccEvent struct {
	tick  int64
	cc    uint8
	value uint8
}

// Read decodes an SMF and turns every mapped controller on the configured
// channel into a timeline lane. ccToParam maps controller numbers to
// parameter ids.
func Read(r io.Reader, opts Options, ccToParam map[uint8]uint32) (*timeline.Timeline, error) {
	if err := opts.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	s, err := smf.ReadFrom(r)
	if err != nil {
		return nil, errors.Annotate(err, "cannot read MIDI file")
	}

	var events []ccEvent
	var lastTick int64
	for _, track := range s.Tracks {
		var tick int64
		for _, ev := range track {
			tick += int64(ev.Delta)
			var ch, cc, val uint8
			if !gomidi.Message(ev.Message).GetControlChange(&ch, &cc, &val) || ch != opts.Channel {
				continue
			}
			if _, ok := ccToParam[cc]; !ok {
				continue
			}
			events = append(events, ccEvent{tick: tick, cc: cc, value: val})
		}
		if tick > lastTick {
			lastTick = tick
		}
	}
	sort.SliceStable(events, func(i, j int) bool { return events[i].tick < events[j].tick })

	t := timeline.New(offsetOf(lastTick, opts)+1, 0)
	for _, ev := range events {
		l := t.AddLane(ccToParam[ev.cc], "")
		if err := l.Add(offsetOf(ev.tick, opts), ToValue(ev.value)); err != nil {
			return nil, errors.Trace(err)
		}
	}
	t.Sort()
	log.Debug("read %d CC events into %d lanes", len(events), len(t.Lanes))
	return t, nil
}

// ReadFile reads a timeline from a MIDI file.
func ReadFile(path string, opts Options, ccToParam map[uint8]uint32) (*timeline.Timeline, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer f.Close()
	t, err := Read(f, opts, ccToParam)
	return t, errors.Annotatef(err, "%s", path)
}

// Write encodes the mapped lanes of t as control changes in a single-track
// SMF. Ramps are rendered as one event per tick at which the 7-bit value
// changes. paramToCC maps parameter ids to controller numbers.
func Write(w io.Writer, t *timeline.Timeline, opts Options, paramToCC map[uint32]uint8) error {
	if err := opts.Validate(); err != nil {
		return errors.Trace(err)
	}
	var events []ccEvent
	for _, l := range t.Lanes {
		cc, ok := paramToCC[l.Param]
		if !ok || len(l.Points) == 0 {
			continue
		}
		events = appendLane(events, l, cc, opts)
	}
	sort.SliceStable(events, func(i, j int) bool { return events[i].tick < events[j].tick })

	resolution := opts.Resolution
	if resolution == 0 {
		resolution = DefaultResolution
	}
	s := smf.New()
	s.TimeFormat = smf.MetricTicks(resolution)

	var track smf.Track
	var prev int64
	for _, ev := range events {
		track.Add(uint32(ev.tick-prev), gomidi.ControlChange(opts.Channel, ev.cc, ev.value))
		prev = ev.tick
	}
	end := tickOf(t.Length, opts)
	if end < prev {
		end = prev
	}
	track.Close(uint32(end - prev))
	if err := s.Add(track); err != nil {
		return errors.Trace(err)
	}
	if _, err := s.WriteTo(w); err != nil {
		return errors.Annotate(err, "cannot write MIDI file")
	}
	log.Debug("wrote %d CC events", len(events))
	return nil
}

// WriteFile writes the mapped lanes of t to a MIDI file.
func WriteFile(path string, t *timeline.Timeline, opts Options, paramToCC map[uint32]uint8) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Trace(err)
	}
	if err := Write(f, t, opts, paramToCC); err != nil {
		f.Close()
		return errors.Annotatef(err, "%s", path)
	}
	return errors.Trace(f.Close())
}

func appendLane(events []ccEvent, l *timeline.Lane, cc uint8, opts Options) []ccEvent {
	first := tickOf(l.Points[0].Offset, opts)
	last := tickOf(l.Points[len(l.Points)-1].Offset, opts)
	prev := -1
	for tick := first; tick <= last; tick++ {
		v := int(FromValue(l.ValueAt(offsetOf(tick, opts))))
		if v == prev {
			continue
		}
		events = append(events, ccEvent{tick: tick, cc: cc, value: uint8(v)})
		prev = v
	}
	return events
}

func offsetOf(tick int64, opts Options) int32 {
	off := math.Round(float64(tick) * opts.SamplesPerTick)
	if off >= math.MaxInt32-1 {
		return math.MaxInt32 - 2
	}
	return int32(off)
}

func tickOf(offset int32, opts Options) int64 {
	return int64(math.Round(float64(offset) / opts.SamplesPerTick))
}
