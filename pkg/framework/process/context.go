// Package process provides the per-block processing context handed to a
// plugin processor.
package process

import (
	"github.com/justyntemme/curvego/pkg/automation"
)

// Context carries one block's worth of host data with zero allocations.
// Output buffers are allocated once at the maximum block size and resliced
// per block.
type Context struct {
	Output     [][]float32
	SampleRate float64

	// Parameter automation in and out of the plugin for this block
	InputChanges  automation.ParameterChanges
	OutputChanges automation.ParameterChanges

	numSamples int32
	outputs    [][]float32
}

// NewContext creates a context with numChannels output buffers of
// maxBlockSize samples.
func NewContext(sampleRate float64, maxBlockSize, numChannels int) *Context {
	outputs := make([][]float32, numChannels)
	for ch := range outputs {
		outputs[ch] = make([]float32, maxBlockSize)
	}
	c := &Context{
		SampleRate: sampleRate,
		outputs:    outputs,
		Output:     make([][]float32, numChannels),
	}
	c.SetNumSamples(int32(maxBlockSize))
	return c
}

// SetNumSamples sets the current block length. Output buffers are resliced
// to the block, up to their allocated size.
func (c *Context) SetNumSamples(n int32) {
	c.numSamples = n
	size := int(n)
	if size < 0 {
		size = 0
	}
	for ch, buf := range c.outputs {
		if size > cap(buf) {
			size = cap(buf)
		}
		c.Output[ch] = buf[:size]
	}
}

// NumSamples returns the number of samples to process. It may be negative
// when a host passes a malformed block.
func (c *Context) NumSamples() int32 {
	return c.numSamples
}

// NumOutputChannels returns the number of output channels
func (c *Context) NumOutputChannels() int {
	return len(c.Output)
}

// Clear zeros the output buffers
func (c *Context) Clear() {
	for ch := range c.Output {
		clear(c.Output[ch])
	}
}
