package debug

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Profiler collects timing statistics for named sections. It is safe for
// concurrent use; the renderer shares one profiler between batch jobs.
type Profiler struct {
	mu           sync.RWMutex
	measurements map[string]*Measurement
	enabled      atomic.Bool
	window       int
}

// Measurement holds timing statistics for a profiled section. The most
// recent samples are kept in a ring of fixed size for percentiles.
type Measurement struct {
	Name  string
	Count uint64
	Total time.Duration
	Min   time.Duration
	Max   time.Duration
	Last  time.Duration

	recent []time.Duration
	next   int
}

// NewProfiler creates a profiler keeping the last window samples of each
// section for percentile queries.
func NewProfiler(window int) *Profiler {
	if window < 1 {
		window = 1
	}
	p := &Profiler{
		measurements: make(map[string]*Measurement),
		window:       window,
	}
	p.enabled.Store(true)
	return p
}

// SetEnabled enables or disables profiling.
func (p *Profiler) SetEnabled(enabled bool) {
	p.enabled.Store(enabled)
}

// IsEnabled returns whether profiling is enabled.
func (p *Profiler) IsEnabled() bool {
	return p.enabled.Load()
}

// Start begins timing a named section. Calling the returned function ends it.
func (p *Profiler) Start(name string) func() {
	if !p.enabled.Load() {
		return func() {}
	}
	start := time.Now()
	return func() {
		p.Record(name, time.Since(start))
	}
}

// Time measures the execution time of fn.
func (p *Profiler) Time(name string, fn func()) {
	stop := p.Start(name)
	defer stop()
	fn()
}

// Record adds one sample for name.
func (p *Profiler) Record(name string, elapsed time.Duration) {
	if !p.enabled.Load() {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	m, ok := p.measurements[name]
	if !ok {
		m = &Measurement{
			Name:   name,
			Min:    elapsed,
			Max:    elapsed,
			recent: make([]time.Duration, 0, p.window),
		}
		p.measurements[name] = m
	}
	m.Count++
	m.Total += elapsed
	m.Last = elapsed
	if elapsed < m.Min {
		m.Min = elapsed
	}
	if elapsed > m.Max {
		m.Max = elapsed
	}
	if len(m.recent) < p.window {
		m.recent = append(m.recent, elapsed)
	} else {
		m.recent[m.next] = elapsed
	}
	m.next = (m.next + 1) % p.window
}

// Measurement returns a copy of the statistics for name.
func (p *Profiler) Measurement(name string) (Measurement, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	m, ok := p.measurements[name]
	if !ok {
		return Measurement{}, false
	}
	return m.clone(), true
}

// Measurements returns copies of all measurements sorted by name.
func (p *Profiler) Measurements() []Measurement {
	p.mu.RLock()
	defer p.mu.RUnlock()

	result := make([]Measurement, 0, len(p.measurements))
	for _, m := range p.measurements {
		result = append(result, m.clone())
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// Reset clears all measurements.
func (p *Profiler) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.measurements = make(map[string]*Measurement)
}

// Report generates a plain-text performance report.
func (p *Profiler) Report() string {
	ms := p.Measurements()
	if len(ms) == 0 {
		return "No measurements recorded"
	}

	var sb strings.Builder
	sb.WriteString("Performance Report:\n")
	sb.WriteString("==================\n\n")
	for _, m := range ms {
		fmt.Fprintf(&sb, "%s:\n", m.Name)
		fmt.Fprintf(&sb, "  Count:   %d\n", m.Count)
		fmt.Fprintf(&sb, "  Total:   %v\n", m.Total)
		fmt.Fprintf(&sb, "  Average: %v\n", m.Average())
		fmt.Fprintf(&sb, "  Min:     %v\n", m.Min)
		fmt.Fprintf(&sb, "  Max:     %v\n", m.Max)
		fmt.Fprintf(&sb, "  p99:     %v\n", m.Percentile(99))
		sb.WriteString("\n")
	}
	return sb.String()
}

func (m *Measurement) clone() Measurement {
	c := *m
	c.recent = append([]time.Duration(nil), m.recent...)
	return c
}

// Average returns the mean time of all samples.
func (m *Measurement) Average() time.Duration {
	if m.Count == 0 {
		return 0
	}
	return m.Total / time.Duration(m.Count)
}

// Percentile returns the p-th percentile (0..100) of the recent samples.
func (m *Measurement) Percentile(p float64) time.Duration {
	if len(m.recent) == 0 {
		return 0
	}
	sorted := append([]time.Duration(nil), m.recent...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	switch {
	case p <= 0:
		return sorted[0]
	case p >= 100:
		return sorted[len(sorted)-1]
	}
	return sorted[int(float64(len(sorted)-1)*p/100.0)]
}

// BlockSection is the section name BlockProfiler records process calls under.
const BlockSection = "Process"

// BlockProfiler times plugin process calls and relates them to the
// wall-clock duration of the block they render.
type BlockProfiler struct {
	*Profiler
	sampleRate float64
	blockSize  int
}

// NewBlockProfiler creates a profiler for blocks of blockSize samples.
func NewBlockProfiler(sampleRate float64, blockSize int) *BlockProfiler {
	return &BlockProfiler{
		Profiler:   NewProfiler(1000),
		sampleRate: sampleRate,
		blockSize:  blockSize,
	}
}

// BlockDuration is the real time one block represents.
func (b *BlockProfiler) BlockDuration() time.Duration {
	if b.sampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(b.blockSize) / b.sampleRate * float64(time.Second))
}

// Load returns the average process time as a percentage of the block
// duration. A value above 100 would not keep up in real time.
func (b *BlockProfiler) Load() float64 {
	m, ok := b.Measurement(BlockSection)
	d := b.BlockDuration()
	if !ok || m.Count == 0 || d <= 0 {
		return 0
	}
	return float64(m.Average()) / float64(d) * 100.0
}

// BlockReport extends Report with block statistics.
func (b *BlockProfiler) BlockReport() string {
	var sb strings.Builder
	sb.WriteString(b.Report())
	sb.WriteString("\nBlock Processing Stats:\n")
	fmt.Fprintf(&sb, "  Sample Rate:  %.0f Hz\n", b.sampleRate)
	fmt.Fprintf(&sb, "  Block Size:   %d samples\n", b.blockSize)
	fmt.Fprintf(&sb, "  Load:         %.2f%%\n", b.Load())
	return sb.String()
}
