// Package param describes the host-visible parameters of a plugin: their
// names, grouping into units, default values and display formatting.
package param

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/juju/errors"
)

// Parameter represents a plugin parameter. Values are normalized to [0, 1].
type Parameter struct {
	ID           uint32
	Name         string
	ShortName    string
	Unit         string
	DefaultValue float64
	StepCount    int32
	Flags        uint32
	UnitID       int32

	// Atomic value for lock-free access from the processing thread
	value atomic.Uint64

	formatFunc func(float64) string
	parseFunc  func(string) (float64, error)
}

// Flags for parameters
const (
	CanAutomate  uint32 = 1 << 0
	IsReadOnly   uint32 = 1 << 1
	IsWrapAround uint32 = 1 << 2
	IsList       uint32 = 1 << 3
	IsHidden     uint32 = 1 << 4
)

// GetValue returns the current normalized value.
func (p *Parameter) GetValue() float64 {
	return math.Float64frombits(p.value.Load())
}

// SetValue sets the normalized value, clamped to [0, 1].
func (p *Parameter) SetValue(value float64) {
	switch {
	case math.IsNaN(value) || value < 0:
		value = 0
	case value > 1:
		value = 1
	}
	p.value.Store(math.Float64bits(value))
}

// Reset restores the default value.
func (p *Parameter) Reset() {
	p.SetValue(p.DefaultValue)
}

// CanAutomate reports whether the host may automate the parameter.
func (p *Parameter) CanAutomate() bool {
	return p.Flags&CanAutomate != 0
}

// FormatValue returns the display string for a normalized value.
func (p *Parameter) FormatValue(normalized float64) string {
	if p.formatFunc != nil {
		return p.formatFunc(normalized)
	}
	if p.StepCount > 0 {
		return fmt.Sprintf("%.0f", math.Round(normalized*float64(p.StepCount)))
	}
	return strconv.FormatFloat(normalized, 'f', 3, 64)
}

// ParseValue parses a display string back to a normalized value.
func (p *Parameter) ParseValue(str string) (float64, error) {
	parse := p.parseFunc
	if parse == nil {
		parse = ParseNormalized
	}
	v, err := parse(str)
	if err != nil {
		return 0, errors.Annotatef(err, "parameter %q", p.Name)
	}
	if math.IsNaN(v) {
		return 0, errors.NotValidf("parameter %q value %q", p.Name, str)
	}
	return math.Max(0, math.Min(1, v)), nil
}

// ParseNormalized parses a plain number in [0, 1] or a percentage such as
// "25%".
func ParseNormalized(str string) (float64, error) {
	str = strings.TrimSpace(str)
	if pct := strings.TrimSuffix(str, "%"); pct != str {
		v, err := strconv.ParseFloat(strings.TrimSpace(pct), 64)
		return v / 100, errors.Trace(err)
	}
	v, err := strconv.ParseFloat(str, 64)
	return v, errors.Trace(err)
}
