package automation

// Queue is a fixed-capacity breakpoint list. All storage is allocated up
// front so a Queue can be filled and drained on the audio thread.
type Queue struct {
	id     uint32
	points []Point
}

// NewQueue creates a queue for parameter id holding up to capacity points.
func NewQueue(id uint32, capacity int) *Queue {
	return &Queue{
		id:     id,
		points: make([]Point, 0, capacity),
	}
}

// ParameterID returns the parameter this queue automates.
func (q *Queue) ParameterID() uint32 {
	return q.id
}

// PointCount returns the number of breakpoints.
func (q *Queue) PointCount() int32 {
	return int32(len(q.points))
}

// Point returns breakpoint index.
func (q *Queue) Point(index int32) (Point, error) {
	if index < 0 || int(index) >= len(q.points) {
		return Point{}, ErrPointUnavailable
	}
	return q.points[index], nil
}

// AddPoint appends a breakpoint. A point at the same offset as the last one
// replaces its value; an earlier offset is rejected.
func (q *Queue) AddPoint(offset int32, value float64) (int32, error) {
	if n := len(q.points); n > 0 {
		last := &q.points[n-1]
		if offset == last.Offset {
			last.Value = value
			return int32(n - 1), nil
		}
		if offset < last.Offset {
			return -1, ErrOutOfOrder
		}
	}
	if len(q.points) == cap(q.points) {
		return -1, ErrQueueFull
	}
	q.points = append(q.points, Point{Offset: offset, Value: value})
	return int32(len(q.points) - 1), nil
}

// Points returns the stored breakpoints. The slice is only valid until the
// queue is next modified.
func (q *Queue) Points() []Point {
	return q.points
}

// Reset empties the queue and rebinds it to id.
func (q *Queue) Reset(id uint32) {
	q.id = id
	q.points = q.points[:0]
}

// Capacity returns the maximum number of breakpoints the queue holds.
func (q *Queue) Capacity() int {
	return cap(q.points)
}
