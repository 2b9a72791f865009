// Package plugin defines the interfaces a host drives a plugin through and
// base implementations that reduce boilerplate.
package plugin

import (
	"io"

	"github.com/justyntemme/curvego/pkg/framework/param"
	"github.com/justyntemme/curvego/pkg/framework/process"
)

// Plugin is the factory a host instantiates processors and controllers from.
type Plugin interface {
	// GetInfo returns plugin metadata
	GetInfo() Info

	// CreateProcessor creates a new instance of the processor
	CreateProcessor() Processor

	// CreateController creates a new instance of the edit controller
	CreateController() Controller
}

// Processor handles the real-time side of a plugin.
type Processor interface {
	// Initialize is called once before activation
	Initialize(sampleRate float64, maxBlockSize int32) error

	// SetActive is called when the plugin is switched on or off
	SetActive(active bool) error

	// SetProcessing is called when the host starts or stops calling Process
	SetProcessing(processing bool) error

	// Process handles one block - no allocations
	Process(ctx *process.Context) error

	// GetState writes the persisted state
	GetState(w io.Writer) error

	// SetState restores state written by GetState
	SetState(r io.Reader) error

	// GetLatencySamples returns the plugin's latency in samples
	GetLatencySamples() int32

	// GetTailSamples returns the tail length in samples
	GetTailSamples() int32
}

// Controller handles the parameter side of a plugin.
type Controller interface {
	// GetParameters returns the parameter registry
	GetParameters() *param.Registry

	// SetComponentState mirrors the processor's persisted state into
	// parameter values
	SetComponentState(r io.Reader) error

	// FormatValue returns the display string of a normalized value
	FormatValue(id uint32, normalized float64) (string, error)

	// ParseValue converts a display string to a normalized value
	ParseValue(id uint32, str string) (float64, error)
}

// BaseProcessor provides common lifecycle bookkeeping for processors
type BaseProcessor struct {
	sampleRate   float64
	maxBlockSize int32
	active       bool
	processing   bool

	// Optional callbacks for customization
	onInitialize    func(sampleRate float64, maxBlockSize int32) error
	onSetActive     func(active bool) error
	onSetProcessing func(processing bool) error
	onReset         func()
}

// NewBaseProcessor creates a new base processor
func NewBaseProcessor() *BaseProcessor {
	return &BaseProcessor{}
}

// Initialize implements the Processor interface
func (b *BaseProcessor) Initialize(sampleRate float64, maxBlockSize int32) error {
	b.sampleRate = sampleRate
	b.maxBlockSize = maxBlockSize

	if b.onInitialize != nil {
		return b.onInitialize(sampleRate, maxBlockSize)
	}
	return nil
}

// SetActive implements the Processor interface
func (b *BaseProcessor) SetActive(active bool) error {
	if !active && b.onReset != nil {
		b.onReset()
	}
	b.active = active

	if b.onSetActive != nil {
		return b.onSetActive(active)
	}
	return nil
}

// SetProcessing implements the Processor interface
func (b *BaseProcessor) SetProcessing(processing bool) error {
	b.processing = processing

	if b.onSetProcessing != nil {
		return b.onSetProcessing(processing)
	}
	return nil
}

// GetLatencySamples implements the Processor interface - default no latency
func (b *BaseProcessor) GetLatencySamples() int32 {
	return 0
}

// GetTailSamples implements the Processor interface - default no tail
func (b *BaseProcessor) GetTailSamples() int32 {
	return 0
}

// SampleRate returns the current sample rate
func (b *BaseProcessor) SampleRate() float64 {
	return b.sampleRate
}

// MaxBlockSize returns the block size passed to Initialize
func (b *BaseProcessor) MaxBlockSize() int32 {
	return b.maxBlockSize
}

// IsActive reports whether the processor is active
func (b *BaseProcessor) IsActive() bool {
	return b.active
}

// IsProcessing reports whether the host is calling Process
func (b *BaseProcessor) IsProcessing() bool {
	return b.processing
}

// OnInitialize sets a callback for initialization
func (b *BaseProcessor) OnInitialize(fn func(sampleRate float64, maxBlockSize int32) error) {
	b.onInitialize = fn
}

// OnSetActive sets a callback for activation/deactivation
func (b *BaseProcessor) OnSetActive(fn func(active bool) error) {
	b.onSetActive = fn
}

// OnSetProcessing sets a callback for processing start/stop
func (b *BaseProcessor) OnSetProcessing(fn func(processing bool) error) {
	b.onSetProcessing = fn
}

// OnReset sets a callback for when the processor should reset its state
func (b *BaseProcessor) OnReset(fn func()) {
	b.onReset = fn
}
