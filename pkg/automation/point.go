// Package automation models sample-accurate parameter automation: the
// breakpoint queues a host hands to a plugin for one processing block, and
// the cursors used to walk them.
package automation

import (
	"errors"
	"math"
)

// Infinity is the offset reported when no breakpoint remains.
const Infinity int32 = math.MaxInt32

// Errors returned by queues and cursors. They are plain values so returning
// them from the audio thread never allocates.
var (
	ErrPointUnavailable  = errors.New("automation: point unavailable")
	ErrQueueFull         = errors.New("automation: queue full")
	ErrOutOfOrder        = errors.New("automation: point offset out of order")
	ErrTooManyParameters = errors.New("automation: too many parameter queues")
)

// Point is one breakpoint of a piecewise-linear automation signal.
type Point struct {
	Offset int32   `yaml:"offset"`
	Value  float64 `yaml:"value"`
}

// PointSource is a read-only, time-ordered list of breakpoints.
type PointSource interface {
	PointCount() int32
	Point(index int32) (Point, error)
}

// ParamQueue is the breakpoint list of a single parameter for one block.
type ParamQueue interface {
	PointSource
	ParameterID() uint32
	// AddPoint appends a breakpoint and returns its index.
	AddPoint(offset int32, value float64) (int32, error)
}

// ParameterChanges is the set of parameter queues exchanged with the host
// for one block.
type ParameterChanges interface {
	ParameterCount() int32
	ParameterData(index int32) ParamQueue
	// AddParameterData returns the queue for id, creating it if needed.
	AddParameterData(id uint32) (ParamQueue, int32, error)
}

// Count returns the number of points in src, treating a nil source or a
// negative count (a misbehaving host) as empty.
func Count(src PointSource) int32 {
	if src == nil {
		return 0
	}
	n := src.PointCount()
	if n < 0 {
		return 0
	}
	return n
}

// Last returns the final breakpoint of src, if any.
func Last(src PointSource) (Point, bool, error) {
	n := Count(src)
	if n == 0 {
		return Point{}, false, nil
	}
	p, err := src.Point(n - 1)
	if err != nil {
		return Point{}, false, err
	}
	return p, true, nil
}
