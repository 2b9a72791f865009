package engine

// Role identifies what a parameter id controls.
type Role int

const (
	// RoleUnknown is an id outside the layout.
	RoleUnknown Role = iota
	// RoleControlPoint is a transfer curve vertex.
	RoleControlPoint
	// RoleInput is the incoming signal of a curved parameter.
	RoleInput
	// RoleOutput is the composed signal of a curved parameter.
	RoleOutput
)

// String returns the role name.
func (r Role) String() string {
	switch r {
	case RoleControlPoint:
		return "curve"
	case RoleInput:
		return "in"
	case RoleOutput:
		return "out"
	default:
		return "unknown"
	}
}

// Layout maps parameter ids to roles. Control points occupy ids
// [0, NumPoints); curved parameter p owns the pair NumPoints+2p (input) and
// NumPoints+2p+1 (output).
type Layout struct {
	NumPoints int
	NumParams int
}

// ControlPointID returns the id of control point i.
func (l Layout) ControlPointID(i int) uint32 {
	return uint32(i)
}

// InputID returns the id of curved parameter p's incoming signal.
func (l Layout) InputID(p int) uint32 {
	return uint32(l.NumPoints + 2*p)
}

// OutputID returns the id of curved parameter p's outgoing signal.
func (l Layout) OutputID(p int) uint32 {
	return uint32(l.NumPoints + 2*p + 1)
}

// NumIDs returns the number of ids in the layout.
func (l Layout) NumIDs() int {
	return l.NumPoints + 2*l.NumParams
}

// Classify returns the role of id and the control point or curved parameter
// index it refers to.
func (l Layout) Classify(id uint32) (Role, int) {
	if int64(id) < int64(l.NumPoints) {
		return RoleControlPoint, int(id)
	}
	rel := int64(id) - int64(l.NumPoints)
	if rel >= int64(2*l.NumParams) {
		return RoleUnknown, -1
	}
	if rel%2 == 0 {
		return RoleInput, int(rel / 2)
	}
	return RoleOutput, int(rel / 2)
}
