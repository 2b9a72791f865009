package debug

import (
	"strings"
	"testing"
	"time"
)

func TestProfiler(t *testing.T) {
	t.Run("StartStop", func(t *testing.T) {
		p := NewProfiler(100)

		stop := p.Start("test")
		time.Sleep(2 * time.Millisecond)
		stop()

		m, exists := p.Measurement("test")
		if !exists {
			t.Fatal("Measurement not found")
		}
		if m.Count != 1 {
			t.Errorf("Expected count 1, got %d", m.Count)
		}
		if m.Last < 2*time.Millisecond {
			t.Errorf("Timing seems too short: %v", m.Last)
		}
	})

	t.Run("Statistics", func(t *testing.T) {
		p := NewProfiler(100)
		for _, d := range []time.Duration{3, 1, 4, 1, 5} {
			p.Record("stats", d*time.Millisecond)
		}

		m, _ := p.Measurement("stats")
		if m.Count != 5 {
			t.Errorf("Expected count 5, got %d", m.Count)
		}
		if m.Min != time.Millisecond || m.Max != 5*time.Millisecond {
			t.Errorf("Expected min 1ms max 5ms, got %v %v", m.Min, m.Max)
		}
		if avg := m.Average(); avg != 2800*time.Microsecond {
			t.Errorf("Expected average 2.8ms, got %v", avg)
		}
		if p50 := m.Percentile(50); p50 != 3*time.Millisecond {
			t.Errorf("Expected median 3ms, got %v", p50)
		}
		if p100 := m.Percentile(100); p100 != 5*time.Millisecond {
			t.Errorf("Expected p100 5ms, got %v", p100)
		}
	})

	t.Run("WindowKeepsRecentSamples", func(t *testing.T) {
		p := NewProfiler(2)
		p.Record("w", 9*time.Millisecond)
		p.Record("w", 1*time.Millisecond)
		p.Record("w", 2*time.Millisecond)

		m, _ := p.Measurement("w")
		if got := m.Percentile(100); got != 2*time.Millisecond {
			t.Errorf("Expected oldest sample evicted, p100 = %v", got)
		}
		if m.Max != 9*time.Millisecond {
			t.Errorf("Expected max over all samples, got %v", m.Max)
		}
	})

	t.Run("CopiesAreIndependent", func(t *testing.T) {
		p := NewProfiler(10)
		p.Record("c", time.Millisecond)
		m, _ := p.Measurement("c")
		p.Record("c", time.Second)
		if m.Count != 1 || m.Percentile(100) != time.Millisecond {
			t.Error("Copy changed after further recording")
		}
	})

	t.Run("Disabled", func(t *testing.T) {
		p := NewProfiler(100)
		p.SetEnabled(false)

		p.Time("disabled", func() {})
		p.Record("disabled", time.Millisecond)

		if _, exists := p.Measurement("disabled"); exists {
			t.Error("Measurement should not exist when disabled")
		}
	})

	t.Run("Reset", func(t *testing.T) {
		p := NewProfiler(100)
		p.Time("reset", func() {})
		p.Reset()
		if n := len(p.Measurements()); n != 0 {
			t.Errorf("Expected no measurements, got %d", n)
		}
	})

	t.Run("Report", func(t *testing.T) {
		p := NewProfiler(100)
		p.Record("task2", time.Millisecond)
		p.Record("task1", time.Millisecond)

		report := p.Report()
		i1, i2 := strings.Index(report, "task1"), strings.Index(report, "task2")
		if i1 < 0 || i2 < 0 {
			t.Fatalf("Report missing tasks:\n%s", report)
		}
		if i1 > i2 {
			t.Error("Report not sorted by name")
		}
		if !strings.Contains(report, "Count:") {
			t.Error("Report missing count")
		}
		if got := NewProfiler(1).Report(); got != "No measurements recorded" {
			t.Errorf("Unexpected empty report %q", got)
		}
	})
}

func TestBlockProfiler(t *testing.T) {
	t.Run("Load", func(t *testing.T) {
		p := NewBlockProfiler(48000, 480)
		if d := p.BlockDuration(); d != 10*time.Millisecond {
			t.Fatalf("Expected 10ms block, got %v", d)
		}
		if load := p.Load(); load != 0 {
			t.Errorf("Expected zero load before any block, got %v", load)
		}
		p.Record(BlockSection, 4*time.Millisecond)
		p.Record(BlockSection, 6*time.Millisecond)
		if load := p.Load(); load < 49.99 || load > 50.01 {
			t.Errorf("Expected 50%% load, got %.2f", load)
		}
	})

	t.Run("BlockReport", func(t *testing.T) {
		p := NewBlockProfiler(44100, 256)
		p.Record(BlockSection, time.Microsecond)

		report := p.BlockReport()
		for _, want := range []string{"44100 Hz", "256 samples", "Load:"} {
			if !strings.Contains(report, want) {
				t.Errorf("Report missing %q", want)
			}
		}
	})
}

func BenchmarkProfiler(b *testing.B) {
	p := NewProfiler(1000)

	b.Run("StartStop", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			stop := p.Start("bench")
			stop()
		}
	})

	b.Run("Disabled", func(b *testing.B) {
		p.SetEnabled(false)
		for i := 0; i < b.N; i++ {
			stop := p.Start("bench")
			stop()
		}
	})
}
