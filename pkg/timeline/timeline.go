// Package timeline holds whole-song automation: one lane of breakpoints per
// parameter, at absolute sample offsets. Timelines are stored as YAML.
package timeline

import (
	"math"
	"os"
	"sort"

	"github.com/juju/errors"
	"gopkg.in/yaml.v2"

	"github.com/justyntemme/curvego/pkg/automation"
	"github.com/justyntemme/curvego/pkg/curve"
)

// Timeline is a song's worth of automation lanes.
type Timeline struct {
	// Length is the song length in samples.
	Length     int32   `yaml:"length"`
	SampleRate float64 `yaml:"sample_rate,omitempty"`
	Lanes      []*Lane `yaml:"lanes"`
}

// Lane is the automation of one parameter. Offsets strictly increase.
type Lane struct {
	Param  uint32             `yaml:"param"`
	Name   string             `yaml:"name,omitempty"`
	Points []automation.Point `yaml:"points,flow"`
}

// New returns an empty timeline of length samples.
func New(length int32, sampleRate float64) *Timeline {
	return &Timeline{Length: length, SampleRate: sampleRate}
}

// Parse decodes and validates a YAML timeline.
func Parse(data []byte) (*Timeline, error) {
	var t Timeline
	if err := yaml.UnmarshalStrict(data, &t); err != nil {
		return nil, errors.Annotate(err, "cannot parse timeline")
	}
	if err := t.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	return &t, nil
}

// Load reads a timeline from a YAML file.
func Load(path string) (*Timeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	t, err := Parse(data)
	return t, errors.Annotatef(err, "%s", path)
}

// Marshal encodes the timeline as YAML with lanes ordered by parameter.
func (t *Timeline) Marshal() ([]byte, error) {
	t.Sort()
	data, err := yaml.Marshal(t)
	return data, errors.Trace(err)
}

// Save writes the timeline to a YAML file.
func (t *Timeline) Save(path string) error {
	data, err := t.Marshal()
	if err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(os.WriteFile(path, data, 0o644))
}

// Validate checks lengths, offsets and values.
func (t *Timeline) Validate() error {
	if t.Length < 0 {
		return errors.NotValidf("timeline length %d", t.Length)
	}
	seen := make(map[uint32]bool, len(t.Lanes))
	for _, l := range t.Lanes {
		if l == nil {
			return errors.NotValidf("empty lane")
		}
		if seen[l.Param] {
			return errors.NotValidf("duplicate lane for parameter %d", l.Param)
		}
		seen[l.Param] = true
		for i, p := range l.Points {
			if p.Offset < 0 || p.Offset >= t.Length {
				return errors.NotValidf("parameter %d point %d offset %d outside [0, %d)", l.Param, i, p.Offset, t.Length)
			}
			if i > 0 && p.Offset <= l.Points[i-1].Offset {
				return errors.NotValidf("parameter %d point %d offset %d not after %d", l.Param, i, p.Offset, l.Points[i-1].Offset)
			}
			if math.IsNaN(p.Value) || math.IsInf(p.Value, 0) {
				return errors.NotValidf("parameter %d point %d value %v", l.Param, i, p.Value)
			}
		}
	}
	return nil
}

// Lane returns the lane of parameter id, or nil.
func (t *Timeline) Lane(id uint32) *Lane {
	for _, l := range t.Lanes {
		if l.Param == id {
			return l
		}
	}
	return nil
}

// AddLane returns the lane of parameter id, creating it if needed.
func (t *Timeline) AddLane(id uint32, name string) *Lane {
	if l := t.Lane(id); l != nil {
		return l
	}
	l := &Lane{Param: id, Name: name}
	t.Lanes = append(t.Lanes, l)
	return l
}

// Sort orders lanes by parameter id.
func (t *Timeline) Sort() {
	sort.SliceStable(t.Lanes, func(i, j int) bool { return t.Lanes[i].Param < t.Lanes[j].Param })
}

// Add appends a breakpoint. A point at the last offset replaces it.
func (l *Lane) Add(offset int32, value float64) error {
	if n := len(l.Points); n > 0 {
		last := &l.Points[n-1]
		if offset == last.Offset {
			last.Value = value
			return nil
		}
		if offset < last.Offset {
			return errors.NotValidf("offset %d before %d", offset, last.Offset)
		}
	}
	l.Points = append(l.Points, automation.Point{Offset: offset, Value: value})
	return nil
}

// Range returns the points with start <= offset < end.
func (l *Lane) Range(start, end int32) []automation.Point {
	lo := sort.Search(len(l.Points), func(i int) bool { return l.Points[i].Offset >= start })
	hi := sort.Search(len(l.Points), func(i int) bool { return l.Points[i].Offset >= end })
	if hi < lo {
		hi = lo
	}
	return l.Points[lo:hi]
}

// ValueAt returns the lane's value at offset: linear between breakpoints,
// holding the first and last values outside them. An empty lane is 0.
func (l *Lane) ValueAt(offset int32) float64 {
	n := len(l.Points)
	if n == 0 {
		return 0
	}
	i := sort.Search(n, func(i int) bool { return l.Points[i].Offset > offset })
	switch i {
	case 0:
		return curve.Clamp(l.Points[0].Value)
	case n:
		return curve.Clamp(l.Points[n-1].Value)
	}
	p0, p1 := l.Points[i-1], l.Points[i]
	return curve.Lerp(p0.Offset, curve.Clamp(p0.Value), p1.Offset, curve.Clamp(p1.Value), offset)
}

// After reports whether the lane has a breakpoint later than offset.
func (l *Lane) After(offset int32) bool {
	n := len(l.Points)
	return n > 0 && l.Points[n-1].Offset > offset
}

// Before reports whether the lane has a breakpoint earlier than offset.
func (l *Lane) Before(offset int32) bool {
	return len(l.Points) > 0 && l.Points[0].Offset < offset
}
