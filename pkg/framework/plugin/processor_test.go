package plugin

import (
	"errors"
	"testing"

	jujuerrors "github.com/juju/errors"

	"github.com/justyntemme/curvego/pkg/framework/param"
)

func TestBaseProcessor(t *testing.T) {
	b := NewBaseProcessor()

	var calls []string
	b.OnInitialize(func(sampleRate float64, maxBlockSize int32) error {
		calls = append(calls, "init")
		return nil
	})
	b.OnSetActive(func(active bool) error {
		calls = append(calls, "active")
		return nil
	})
	b.OnReset(func() { calls = append(calls, "reset") })
	failure := errors.New("boom")
	b.OnSetProcessing(func(processing bool) error {
		calls = append(calls, "processing")
		return failure
	})

	if err := b.Initialize(44100, 256); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if b.SampleRate() != 44100 || b.MaxBlockSize() != 256 {
		t.Errorf("Expected 44100/256, got %v/%d", b.SampleRate(), b.MaxBlockSize())
	}
	if err := b.SetActive(true); err != nil || !b.IsActive() {
		t.Errorf("SetActive(true) = %v, active %v", err, b.IsActive())
	}
	if err := b.SetProcessing(true); err != failure || !b.IsProcessing() {
		t.Errorf("SetProcessing(true) = %v, processing %v", err, b.IsProcessing())
	}
	if err := b.SetActive(false); err != nil || b.IsActive() {
		t.Errorf("SetActive(false) = %v, active %v", err, b.IsActive())
	}

	want := []string{"init", "active", "processing", "reset", "active"}
	if len(calls) != len(want) {
		t.Fatalf("Expected calls %v, got %v", want, calls)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("Call %d: expected %s, got %s", i, want[i], calls[i])
		}
	}
	if b.GetLatencySamples() != 0 || b.GetTailSamples() != 0 {
		t.Error("Expected no latency or tail")
	}
}

func TestBaseController(t *testing.T) {
	c := NewBaseController()
	if err := c.GetParameters().Add(param.New(1, "Mix").Formatter(param.PercentFormatter, param.PercentParser).Build()); err != nil {
		t.Fatal(err)
	}

	s, err := c.FormatValue(1, 0.5)
	if err != nil || s != "50.0%" {
		t.Errorf("FormatValue = %q, %v", s, err)
	}
	v, err := c.ParseValue(1, "25%")
	if err != nil || v != 0.25 {
		t.Errorf("ParseValue = %v, %v", v, err)
	}
	if _, err := c.FormatValue(2, 0); !jujuerrors.IsNotFound(err) {
		t.Errorf("Expected not found, got %v", err)
	}
	if _, err := c.ParseValue(2, "1"); !jujuerrors.IsNotFound(err) {
		t.Errorf("Expected not found, got %v", err)
	}
}
