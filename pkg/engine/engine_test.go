package engine

import (
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/juju/errors"
	"github.com/kr/pretty"

	"github.com/justyntemme/curvego/pkg/automation"
	"github.com/justyntemme/curvego/pkg/curve"
)

const tolerance = 1e-9

type lane struct {
	id     uint32
	points []automation.Point
}

func newChanges(lanes ...lane) *automation.Changes {
	c := automation.NewChanges(MaxCurvePoints+2*MaxCurvedParams, 256)
	for _, l := range lanes {
		q, _, err := c.Add(l.id)
		if err != nil {
			panic(err)
		}
		for _, p := range l.points {
			if _, err := q.AddPoint(p.Offset, p.Value); err != nil {
				panic(err)
			}
		}
	}
	return c
}

func outputPoints(c *automation.Changes, id uint32) []automation.Point {
	q := c.Find(id)
	if q == nil {
		return nil
	}
	return append([]automation.Point(nil), q.Points()...)
}

func assertPoints(t *testing.T, got, want []automation.Point) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("point count mismatch:\n%s", pretty.Diff(got, want))
	}
	for i := range got {
		if got[i].Offset != want[i].Offset || math.Abs(got[i].Value-want[i].Value) > tolerance {
			t.Fatalf("point %d mismatch:\n%s", i, pretty.Diff(got, want))
		}
	}
}

func mustEngine(t *testing.T, points []float64, numParams int) *Engine {
	t.Helper()
	e, err := New(len(points), numParams)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for i, v := range points {
		e.State().SetPoint(i, v)
	}
	return e
}

func TestNewValidatesSize(t *testing.T) {
	tests := []struct {
		points, params int
	}{
		{1, 1},
		{MaxCurvePoints + 1, 1},
		{3, -1},
		{3, MaxCurvedParams + 1},
	}
	for _, tt := range tests {
		if _, err := New(tt.points, tt.params); !errors.IsNotValid(err) {
			t.Errorf("New(%d, %d): expected a NotValid error, got %v", tt.points, tt.params, err)
		}
	}

	e, err := New(3, 2)
	if err != nil {
		t.Fatalf("New(3, 2): %v", err)
	}
	want := []float64{0, 0.5, 1}
	for i, v := range e.State().Points() {
		if v != want[i] {
			t.Errorf("default point %d: expected %v, got %v", i, want[i], v)
		}
	}
}

func TestIdentityRampCrossesMidpoint(t *testing.T) {
	e := mustEngine(t, []float64{0, 0.5, 1}, 1)
	layout := e.Layout()

	in := newChanges(lane{layout.InputID(0), []automation.Point{{0, 0}, {100, 1}}})
	out := newChanges()
	if err := e.Process(100, in, out); err != nil {
		t.Fatalf("Process: %v", err)
	}

	assertPoints(t, outputPoints(out, layout.OutputID(0)), []automation.Point{
		{0, 0},
		{50, 0.5},
	})
	if ps := e.State().Param(0); ps.X != 1 || ps.Y != 1 {
		t.Errorf("expected stored (1, 1), got %+v", ps)
	}
}

func TestCurveMotionWithStaticInput(t *testing.T) {
	e := mustEngine(t, []float64{0, 0.5, 1}, 1)
	e.State().SetParam(0, ParamState{X: 0.5, Y: 0.5})
	e.StartProcessing()
	layout := e.Layout()

	in := newChanges(lane{layout.ControlPointID(1), []automation.Point{{50, 0.9}}})
	out := newChanges()
	if err := e.Process(100, in, out); err != nil {
		t.Fatalf("Process: %v", err)
	}

	assertPoints(t, outputPoints(out, layout.OutputID(0)), []automation.Point{{50, 0.9}})
	if got := e.State().Point(1); got != 0.9 {
		t.Errorf("expected control point 1 to settle at 0.9, got %v", got)
	}
	if ps := e.State().Param(0); ps.X != 0.5 || ps.Y != 0.9 {
		t.Errorf("expected stored (0.5, 0.9), got %+v", ps)
	}
}

func TestSingleIntervalCrossing(t *testing.T) {
	e := mustEngine(t, []float64{0, 0.8, 1}, 1)
	e.State().SetParam(0, ParamState{X: 0.2, Y: 0.32})
	layout := e.Layout()

	in := newChanges(lane{layout.InputID(0), []automation.Point{{0, 0.2}, {80, 0.6}}})
	out := newChanges()
	if err := e.Process(100, in, out); err != nil {
		t.Fatalf("Process: %v", err)
	}

	// Breakpoints at the incoming points plus exactly one at the crossing of x=0.5.
	assertPoints(t, outputPoints(out, layout.OutputID(0)), []automation.Point{
		{0, 0.32},
		{60, 0.8},
		{80, 0.84},
	})
}

func TestDescendingSegment(t *testing.T) {
	e := mustEngine(t, []float64{1, 0.2, 0.6}, 1)
	e.State().SetParam(0, ParamState{X: 1, Y: 0.6})
	layout := e.Layout()

	in := newChanges(lane{layout.InputID(0), []automation.Point{{10, 0}}})
	out := newChanges()
	if err := e.Process(20, in, out); err != nil {
		t.Fatalf("Process: %v", err)
	}

	// The leading segment runs from (-1, 1) to (10, 0), crossing x=0.5 at t=4.5.
	got := outputPoints(out, layout.OutputID(0))
	if len(got) != 2 {
		t.Fatalf("expected 2 points, got %# v", pretty.Formatter(got))
	}
	if got[0].Offset != 5 {
		t.Errorf("expected the crossing breakpoint at offset 5, got %d", got[0].Offset)
	}
	if got[1].Offset != 10 || got[1].Value != 1 {
		t.Errorf("expected (10, 1), got %+v", got[1])
	}
}

func TestStaticInputWithoutCurveMotion(t *testing.T) {
	e := mustEngine(t, []float64{0, 0.3, 1}, 2)
	e.State().SetParam(0, ParamState{X: 0.25, Y: 0.15})
	e.State().SetParam(1, ParamState{X: 0.75, Y: 0.65})
	before := *e.State()
	layout := e.Layout()

	e.StartProcessing()
	out := newChanges()
	if err := e.Process(64, nil, out); err != nil {
		t.Fatalf("Process: %v", err)
	}
	assertPoints(t, outputPoints(out, layout.OutputID(0)), []automation.Point{{0, 0.15}})
	assertPoints(t, outputPoints(out, layout.OutputID(1)), []automation.Point{{0, 0.65}})

	for block := 0; block < 3; block++ {
		out.Clear()
		if err := e.Process(64, newChanges(), out); err != nil {
			t.Fatalf("Process: %v", err)
		}
		if out.ParameterCount() != 0 {
			t.Errorf("block %d: expected no output, got %d queues", block, out.ParameterCount())
		}
	}
	if *e.State() != before {
		t.Errorf("state changed:\n%s", pretty.Diff(*e.State(), before))
	}
}

func TestInitialValuesOnlyOnce(t *testing.T) {
	e := mustEngine(t, []float64{0, 1}, 1)
	layout := e.Layout()
	e.StartProcessing()

	out := newChanges()
	if err := e.Process(0, nil, out); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if out.ParameterCount() != 0 {
		t.Error("an empty block should not consume the initial value output")
	}

	e.Process(32, nil, out)
	assertPoints(t, outputPoints(out, layout.OutputID(0)), []automation.Point{{0, 0}})

	out.Clear()
	e.Process(32, nil, out)
	if out.ParameterCount() != 0 {
		t.Error("initial values should be sent only once per StartProcessing")
	}

	e.StartProcessing()
	out.Clear()
	e.Process(32, nil, out)
	assertPoints(t, outputPoints(out, layout.OutputID(0)), []automation.Point{{0, 0}})
}

func TestNegativeSampleCount(t *testing.T) {
	e := mustEngine(t, []float64{0, 1}, 1)
	if err := e.Process(-1, nil, nil); err != ErrNegativeSampleCount {
		t.Errorf("expected ErrNegativeSampleCount, got %v", err)
	}
}

func TestReusesHostOutputQueue(t *testing.T) {
	e := mustEngine(t, []float64{0, 1}, 1)
	layout := e.Layout()

	in := newChanges(lane{layout.InputID(0), []automation.Point{{4, 0.5}}})
	out := newChanges(lane{id: layout.OutputID(0)})
	if err := e.Process(8, in, out); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if out.ParameterCount() != 1 {
		t.Fatalf("expected the existing output queue to be reused, got %d queues", out.ParameterCount())
	}
	assertPoints(t, outputPoints(out, layout.OutputID(0)), []automation.Point{{4, 0.5}})
}

// failingQueue reports a point count it cannot deliver.
type failingQueue struct {
	id uint32
}

func (f failingQueue) ParameterID() uint32 { return f.id }
func (f failingQueue) PointCount() int32   { return 2 }
func (f failingQueue) Point(int32) (automation.Point, error) {
	return automation.Point{}, automation.ErrPointUnavailable
}
func (f failingQueue) AddPoint(int32, float64) (int32, error) {
	return -1, automation.ErrQueueFull
}

type changesWith struct {
	*automation.Changes
	extra automation.ParamQueue
}

func (c changesWith) ParameterCount() int32 {
	return c.Changes.ParameterCount() + 1
}

func (c changesWith) ParameterData(index int32) automation.ParamQueue {
	if index == c.Changes.ParameterCount() {
		return c.extra
	}
	return c.Changes.ParameterData(index)
}

func TestUnreadablePointAbortsOnlyItsParameter(t *testing.T) {
	e := mustEngine(t, []float64{0, 1}, 2)
	layout := e.Layout()

	in := changesWith{
		Changes: newChanges(lane{layout.InputID(1), []automation.Point{{3, 0.75}}}),
		extra:   failingQueue{id: layout.InputID(0)},
	}
	out := newChanges()
	err := e.Process(8, in, out)
	if errors.Cause(err) != automation.ErrPointUnavailable {
		t.Fatalf("expected ErrPointUnavailable, got %v", err)
	}
	assertPoints(t, outputPoints(out, layout.OutputID(1)), []automation.Point{{3, 0.75}})
}

func TestOutputQueueFull(t *testing.T) {
	e := mustEngine(t, []float64{0, 1}, 1)
	layout := e.Layout()

	in := newChanges(lane{layout.InputID(0), []automation.Point{{1, 0.1}, {2, 0.2}, {3, 0.3}}})
	out := automation.NewChanges(1, 2)
	err := e.Process(8, in, out)
	if errors.Cause(err) != automation.ErrQueueFull {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
}

func TestHostValuesAreClamped(t *testing.T) {
	e := mustEngine(t, []float64{0, 1}, 1)
	layout := e.Layout()

	in := newChanges(
		lane{layout.InputID(0), []automation.Point{{2, 3.5}}},
		lane{layout.ControlPointID(1), []automation.Point{{4, -1}}},
	)
	out := newChanges()
	if err := e.Process(8, in, out); err != nil {
		t.Fatalf("Process: %v", err)
	}
	for _, p := range outputPoints(out, layout.OutputID(0)) {
		if p.Value < 0 || p.Value > 1 {
			t.Errorf("value out of range: %+v", p)
		}
	}
	if got := e.State().Point(1); got != 0 {
		t.Errorf("expected control point clamped to 0, got %v", got)
	}
}

func TestNonFiniteHostValues(t *testing.T) {
	tests := []struct {
		name     string
		value    float64
		expected float64
	}{
		{"NaN", math.NaN(), 0},
		{"PositiveInf", math.Inf(1), 1},
		{"NegativeInf", math.Inf(-1), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := mustEngine(t, []float64{0, 0.5, 1}, 1)
			layout := e.Layout()
			in := newChanges(
				lane{layout.InputID(0), []automation.Point{{4, tt.value}}},
				lane{layout.ControlPointID(1), []automation.Point{{2, tt.value}}},
			)
			out := newChanges()
			if err := e.Process(8, in, out); err != nil {
				t.Fatalf("Process: %v", err)
			}

			pts := outputPoints(out, layout.OutputID(0))
			if len(pts) >= 8 {
				t.Errorf("Expected a few breakpoints, got %d", len(pts))
			}
			for _, p := range pts {
				if !(p.Value >= 0 && p.Value <= 1) {
					t.Errorf("Value out of range: %+v", p)
				}
			}
			if got := e.State().Param(0); got != (ParamState{X: tt.expected, Y: tt.expected}) {
				t.Errorf("Expected stored (%v, %v), got %+v", tt.expected, tt.expected, got)
			}
			if got := e.State().Point(1); got != tt.expected {
				t.Errorf("Expected control point %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestRoundedCrossingUsesActualInterval(t *testing.T) {
	e := mustEngine(t, []float64{0, 1, 0}, 1)
	layout := e.Layout()

	// The crossing of x = 0.5 at t = 1.5 rounds to t = 2, where x = 2/3
	// already lies in the falling interval.
	in := newChanges(lane{layout.InputID(0), []automation.Point{{0, 0}, {3, 1}}})
	out := newChanges()
	if err := e.Process(8, in, out); err != nil {
		t.Fatalf("Process: %v", err)
	}
	assertPoints(t, outputPoints(out, layout.OutputID(0)), []automation.Point{
		{0, 0}, {2, 2.0 / 3}, {3, 0},
	})
	if got := e.State().Param(0); got != (ParamState{X: 1, Y: 0}) {
		t.Errorf("Expected stored (1, 0), got %+v", got)
	}
}

// composeReference evaluates the composed function directly at time t.
func composeReference(points []float64, cursors []automation.Cursor, x float64, t int32) float64 {
	live := make([]float64, len(points))
	for i := range points {
		v, err := cursors[i].ValueAt(t)
		if err != nil {
			panic(err)
		}
		live[i] = v
	}
	return curve.Evaluate(live, x)
}

func inputAt(x0 float64, in []automation.Point, t int32) float64 {
	t0, y0 := int32(-1), x0
	for _, p := range in {
		if p.Offset > t {
			return curve.Lerp(t0, y0, p.Offset, p.Value, t)
		}
		t0, y0 = p.Offset, p.Value
	}
	return y0
}

func TestRandomBlocksMatchReference(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	const numSamples = 200
	grid := []float64{0, 0.5, 1}

	for trial := 0; trial < 400; trial++ {
		// Odd trials use arbitrary values and offsets, so crossings fall
		// between samples.
		offGrid := trial%2 == 1
		points := []float64{rng.Float64(), rng.Float64(), rng.Float64()}
		e := mustEngine(t, points, 1)
		layout := e.Layout()
		x0 := grid[rng.Intn(3)]
		if offGrid {
			x0 = rng.Float64()
		}
		e.State().SetParam(0, ParamState{X: x0})

		var input []automation.Point
		if offGrid {
			for off := int32(rng.Intn(7)); off < numSamples; off += 1 + int32(rng.Intn(23)) {
				input = append(input, automation.Point{Offset: off, Value: rng.Float64()})
			}
		} else {
			// Input segments are 20 samples long between vertices, so every
			// interval crossing lands on an integer offset.
			for off := int32(19); off < numSamples; off += 20 {
				if rng.Intn(3) > 0 {
					input = append(input, automation.Point{Offset: off, Value: grid[rng.Intn(3)]})
				}
			}
		}

		lanes := []lane{{layout.InputID(0), input}}
		for cp := range points {
			var cpPoints []automation.Point
			used := map[int32]bool{}
			for k := rng.Intn(4); k > 0; k-- {
				off := int32(rng.Intn(numSamples))
				if !used[off] {
					used[off] = true
					cpPoints = append(cpPoints, automation.Point{Offset: off, Value: rng.Float64()})
				}
			}
			sort.Slice(cpPoints, func(i, j int) bool { return cpPoints[i].Offset < cpPoints[j].Offset })
			lanes = append(lanes, lane{layout.ControlPointID(cp), cpPoints})
		}

		in := newChanges(lanes...)
		out := newChanges()
		if err := e.Process(numSamples, in, out); err != nil {
			t.Fatalf("trial %d: Process: %v", trial, err)
		}

		cursors := make([]automation.Cursor, len(points))
		for cp := range points {
			cursors[cp].Bind(in.Find(layout.ControlPointID(cp)), points[cp])
		}

		prev := int32(-1)
		for _, p := range outputPoints(out, layout.OutputID(0)) {
			if p.Offset <= prev || p.Offset >= numSamples {
				t.Fatalf("trial %d: offset %d out of order or range", trial, p.Offset)
			}
			prev = p.Offset
			want := composeReference(points, cursors, inputAt(x0, input, p.Offset), p.Offset)
			if math.Abs(p.Value-want) > 1e-9 {
				t.Fatalf("trial %d: at %d expected %v, got %v", trial, p.Offset, want, p.Value)
			}
		}
	}
}

func TestProcessDoesNotAllocate(t *testing.T) {
	e := mustEngine(t, []float64{0, 0.2, 0.9, 1}, 2)
	layout := e.Layout()
	in := newChanges(
		lane{layout.InputID(0), []automation.Point{{0, 0}, {100, 1}, {200, 0.3}}},
		lane{layout.InputID(1), []automation.Point{{50, 0.7}}},
		lane{layout.ControlPointID(2), []automation.Point{{30, 0.1}, {120, 0.8}}},
	)
	out := newChanges()

	allocs := testing.AllocsPerRun(100, func() {
		out.Clear()
		if err := e.Process(256, in, out); err != nil {
			t.Fatal(err)
		}
	})
	if allocs != 0 {
		t.Errorf("expected no allocations, got %v per block", allocs)
	}
}

func BenchmarkProcess(b *testing.B) {
	e, _ := New(DefaultCurvePoints, DefaultCurvedParams)
	layout := e.Layout()
	in := automation.NewChanges(MaxCurvePoints+2*MaxCurvedParams, 64)
	for p := 0; p < DefaultCurvedParams; p++ {
		q, _, _ := in.Add(layout.InputID(p))
		q.AddPoint(0, 0)
		q.AddPoint(511, 1)
	}
	q, _, _ := in.Add(layout.ControlPointID(5))
	q.AddPoint(256, 0.9)
	out := automation.NewChanges(MaxCurvedParams, 64)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		out.Clear()
		e.Process(512, in, out)
	}
}
