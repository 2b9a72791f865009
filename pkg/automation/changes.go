package automation

// Changes is a fixed-capacity ParameterChanges implementation. Hosts (and
// the offline renderer) fill one per block for input and hand an empty one
// over for output.
type Changes struct {
	queues []*Queue
	used   int
}

// NewChanges pre-allocates room for maxParams queues of maxPoints each.
func NewChanges(maxParams, maxPoints int) *Changes {
	c := &Changes{
		queues: make([]*Queue, maxParams),
	}
	for i := range c.queues {
		c.queues[i] = NewQueue(0, maxPoints)
	}
	return c
}

// ParameterCount returns the number of queues in use.
func (c *Changes) ParameterCount() int32 {
	return int32(c.used)
}

// ParameterData returns the queue at index, or nil.
func (c *Changes) ParameterData(index int32) ParamQueue {
	if index < 0 || int(index) >= c.used {
		return nil
	}
	return c.queues[index]
}

// Queue returns the concrete queue at index, or nil.
func (c *Changes) Queue(index int) *Queue {
	if index < 0 || index >= c.used {
		return nil
	}
	return c.queues[index]
}

// AddParameterData returns the queue for id, claiming a free one if no queue
// is bound to id yet.
func (c *Changes) AddParameterData(id uint32) (ParamQueue, int32, error) {
	q, index, err := c.Add(id)
	if err != nil {
		return nil, -1, err
	}
	return q, index, nil
}

// Add is AddParameterData returning the concrete queue.
func (c *Changes) Add(id uint32) (*Queue, int32, error) {
	for i := 0; i < c.used; i++ {
		if c.queues[i].id == id {
			return c.queues[i], int32(i), nil
		}
	}
	if c.used == len(c.queues) {
		return nil, -1, ErrTooManyParameters
	}
	q := c.queues[c.used]
	q.Reset(id)
	c.used++
	return q, int32(c.used - 1), nil
}

// Find returns the queue bound to id, or nil.
func (c *Changes) Find(id uint32) *Queue {
	for i := 0; i < c.used; i++ {
		if c.queues[i].id == id {
			return c.queues[i]
		}
	}
	return nil
}

// Clear releases every queue for reuse.
func (c *Changes) Clear() {
	for i := 0; i < c.used; i++ {
		c.queues[i].Reset(0)
	}
	c.used = 0
}
