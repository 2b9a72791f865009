package automation

import "github.com/justyntemme/curvego/pkg/curve"

// Cursor walks the automation of a single control point within one block.
//
// Index always names the first breakpoint whose offset is greater than the
// last queried time. Queries may move backwards as well as forwards; a
// forward walk is amortized O(1), a reversal costs the distance walked.
type Cursor struct {
	src   PointSource
	index int32
	initY float64
}

// Bind attaches the cursor to src (which may be nil) and sets the value
// assumed before the first breakpoint.
func (c *Cursor) Bind(src PointSource, initY float64) {
	c.src = src
	c.initY = initY
	c.index = 0
}

// Reset rewinds the cursor to the start of the block.
func (c *Cursor) Reset() {
	c.index = 0
}

// Source returns the bound point source.
func (c *Cursor) Source() PointSource {
	return c.src
}

// InitY returns the value assumed before the first breakpoint.
func (c *Cursor) InitY() float64 {
	return c.initY
}

// Index returns the current cursor position.
func (c *Cursor) Index() int32 {
	return c.index
}

func (c *Cursor) point(i int32) (Point, error) {
	p, err := c.src.Point(i)
	if err != nil {
		return Point{}, err
	}
	p.Value = curve.Clamp(p.Value)
	return p, nil
}

// AdvanceTo returns the first breakpoint offset strictly after t, together
// with the value at that breakpoint, and repositions the cursor there.
// When no breakpoint follows t the offset is Infinity and the value is the
// last breakpoint's value (or the initial value if there are none).
func (c *Cursor) AdvanceTo(t int32) (int32, float64, error) {
	if c.src == nil {
		return Infinity, c.initY, nil
	}
	n := Count(c.src)

	t1 := Infinity
	y := c.initY
	if c.index < n {
		p, err := c.point(c.index)
		if err != nil {
			return Infinity, c.initY, err
		}
		t1, y = p.Offset, p.Value
	} else if n > 0 {
		p, err := c.point(n - 1)
		if err != nil {
			return Infinity, c.initY, err
		}
		y = p.Value
	}

	if t1 <= t {
		// Walk forward to the first breakpoint after t.
		for c.index++; c.index < n; c.index++ {
			p, err := c.point(c.index)
			if err != nil {
				return Infinity, y, err
			}
			y = p.Value
			if p.Offset > t {
				return p.Offset, y, nil
			}
		}
		c.index = n
		return Infinity, y, nil
	}

	// Walk backward while the preceding breakpoint is still after t.
	for c.index--; c.index >= 0; c.index-- {
		p, err := c.point(c.index)
		if err != nil {
			return Infinity, y, err
		}
		if p.Offset <= t {
			c.index++
			return t1, y, nil
		}
		t1, y = p.Offset, p.Value
	}
	c.index = 0
	return t1, y, nil
}

// ValueAt returns the interpolated automation value at time t.
func (c *Cursor) ValueAt(t int32) (float64, error) {
	t1, y1, err := c.AdvanceTo(t)
	if err != nil {
		return c.initY, err
	}
	t0, y0 := int32(-1), c.initY
	if c.index > 0 {
		p, err := c.point(c.index - 1)
		if err != nil {
			return c.initY, err
		}
		t0, y0 = p.Offset, p.Value
	}
	return curve.Lerp(t0, y0, t1, y1, t), nil
}
