package param

import (
	"sync"

	"github.com/juju/errors"
)

// RootUnitID is the unit every other unit hangs off.
const RootUnitID int32 = 0

// Unit groups parameters for display in the host.
type Unit struct {
	ID       int32
	Name     string
	ParentID int32
}

// Registry manages plugin parameters
type Registry struct {
	params map[uint32]*Parameter
	order  []uint32 // Maintain order for indexed access
	units  []Unit
	mu     sync.RWMutex
}

// NewRegistry creates a new parameter registry holding the root unit.
func NewRegistry() *Registry {
	return &Registry{
		params: make(map[uint32]*Parameter),
		units:  []Unit{{ID: RootUnitID, Name: "Root", ParentID: -1}},
	}
}

// AddUnit registers a unit below the root.
func (r *Registry) AddUnit(id int32, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.units {
		if u.ID == id {
			return errors.AlreadyExistsf("unit %d", id)
		}
	}
	r.units = append(r.units, Unit{ID: id, Name: name, ParentID: RootUnitID})
	return nil
}

// Units returns the registered units, root first.
func (r *Registry) Units() []Unit {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Unit(nil), r.units...)
}

// Add registers parameters in order.
func (r *Registry) Add(params ...*Parameter) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range params {
		if _, exists := r.params[p.ID]; exists {
			return errors.AlreadyExistsf("parameter %d (%s)", p.ID, p.Name)
		}
		r.params[p.ID] = p
		r.order = append(r.order, p.ID)
	}
	return nil
}

// Get retrieves a parameter by ID
func (r *Registry) Get(id uint32) *Parameter {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.params[id]
}

// GetByIndex retrieves a parameter by index
func (r *Registry) GetByIndex(index int32) *Parameter {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if index < 0 || index >= int32(len(r.order)) {
		return nil
	}
	return r.params[r.order[index]]
}

// Count returns the number of parameters
func (r *Registry) Count() int32 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return int32(len(r.order))
}

// All returns all parameters in order
func (r *Registry) All() []*Parameter {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*Parameter, len(r.order))
	for i, id := range r.order {
		result[i] = r.params[id]
	}
	return result
}

// SetValue sets the normalized value of parameter id.
func (r *Registry) SetValue(id uint32, value float64) error {
	p := r.Get(id)
	if p == nil {
		return errors.NotFoundf("parameter %d", id)
	}
	p.SetValue(value)
	return nil
}

// ResetAll restores every parameter's default value.
func (r *Registry) ResetAll() {
	for _, p := range r.All() {
		p.Reset()
	}
}
