package process

import (
	"testing"

	"github.com/justyntemme/curvego/pkg/automation"
)

func TestContext(t *testing.T) {
	ctx := NewContext(48000, 64, 2)
	if ctx.NumOutputChannels() != 2 || ctx.NumSamples() != 64 {
		t.Fatalf("Unexpected context %d channels, %d samples", ctx.NumOutputChannels(), ctx.NumSamples())
	}

	t.Run("Reslice", func(t *testing.T) {
		ctx.SetNumSamples(10)
		for ch, buf := range ctx.Output {
			if len(buf) != 10 {
				t.Errorf("Channel %d: expected 10 samples, got %d", ch, len(buf))
			}
		}
		ctx.SetNumSamples(1000)
		if len(ctx.Output[0]) != 64 {
			t.Errorf("Expected buffers capped at 64, got %d", len(ctx.Output[0]))
		}
		ctx.SetNumSamples(-3)
		if ctx.NumSamples() != -3 || len(ctx.Output[0]) != 0 {
			t.Errorf("Expected empty buffers for negative count")
		}
	})

	t.Run("Clear", func(t *testing.T) {
		ctx.SetNumSamples(64)
		for ch := range ctx.Output {
			for i := range ctx.Output[ch] {
				ctx.Output[ch][i] = 1
			}
		}
		ctx.Clear()
		for ch := range ctx.Output {
			for i, v := range ctx.Output[ch] {
				if v != 0 {
					t.Fatalf("Channel %d sample %d not cleared: %v", ch, i, v)
				}
			}
		}
	})

	t.Run("Changes", func(t *testing.T) {
		in := automation.NewChanges(4, 8)
		ctx.InputChanges = in
		if ctx.InputChanges.ParameterCount() != 0 {
			t.Error("Expected empty input changes")
		}
	})
}

func BenchmarkClear(b *testing.B) {
	ctx := NewContext(48000, 512, 2)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		ctx.Clear()
	}
}
