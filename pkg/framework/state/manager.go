// Package state persists the curve state as a flat little-endian stream:
//
//	int32      C           number of stored control points
//	C float64              control point values
//	M × 2 float64          (x, y) per curved parameter
//
// The parameter section may be shorter than M pairs; parameters missing
// from the stream start from their defaults.
package state

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/juju/errors"

	"github.com/justyntemme/curvego/pkg/curve"
	"github.com/justyntemme/curvego/pkg/engine"
	"github.com/justyntemme/curvego/pkg/framework/debug"
)

// MaxStoredPoints bounds the control point count accepted from a stream.
const MaxStoredPoints = 1 << 16

var order = binary.LittleEndian

// Manager handles curve state saving and loading.
type Manager struct {
	log *debug.Logger
}

// NewManager creates a new state manager.
func NewManager() *Manager {
	return &Manager{log: debug.New("curvego.state")}
}

// Save writes s to w.
func (m *Manager) Save(w io.Writer, s *engine.CurveState) error {
	if err := binary.Write(w, order, int32(s.NumPoints())); err != nil {
		return errors.Annotate(err, "cannot write point count")
	}
	if err := binary.Write(w, order, s.Points()); err != nil {
		return errors.Annotate(err, "cannot write control points")
	}
	params := make([]float64, 0, 2*s.NumParams())
	for _, p := range s.Params() {
		params = append(params, p.X, p.Y)
	}
	if err := binary.Write(w, order, params); err != nil {
		return errors.Annotate(err, "cannot write curved parameters")
	}
	m.log.Debug("saved %d points, %d params", s.NumPoints(), s.NumParams())
	return nil
}

// Load reads a state written by Save into s. A stream holding a different
// number of control points is resampled onto s's point count. On error s
// is left untouched.
func (m *Manager) Load(r io.Reader, s *engine.CurveState) error {
	snapshot := *s
	snapshot.Reset()

	var count int32
	if err := binary.Read(r, order, &count); err != nil {
		return errors.NewNotValid(err, "missing control point count")
	}
	if count < 2 || count > MaxStoredPoints {
		return errors.NotValidf("control point count %d", count)
	}

	stored := make([]float64, count)
	if err := binary.Read(r, order, stored); err != nil {
		return errors.NewNotValid(err, "truncated control points")
	}
	for i, v := range stored {
		if !finite(v) {
			return errors.NotValidf("control point %d value %v", i, v)
		}
		stored[i] = curve.Clamp(v)
	}
	if int(count) == snapshot.NumPoints() {
		copy(snapshot.Points(), stored)
	} else {
		m.log.Info("resampling curve from %d to %d points", count, snapshot.NumPoints())
		curve.Resample(snapshot.Points(), stored)
	}

	loaded := 0
	for id := 0; id < snapshot.NumParams(); id++ {
		var xy [2]float64
		err := binary.Read(r, order, &xy)
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			break
		}
		if err != nil {
			return errors.Annotatef(err, "cannot read curved parameter %d", id)
		}
		if !finite(xy[0]) || !finite(xy[1]) {
			return errors.NotValidf("curved parameter %d state (%v, %v)", id, xy[0], xy[1])
		}
		snapshot.SetParam(id, engine.ParamState{X: xy[0], Y: xy[1]})
		loaded++
	}
	if loaded < snapshot.NumParams() {
		m.log.Debug("state holds %d of %d curved parameters", loaded, snapshot.NumParams())
	}

	*s = snapshot
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
