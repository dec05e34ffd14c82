// Package labels holds the authoritative in-memory label layout and applies
// targeted edits to it.
package labels

import (
	"math"

	"github.com/gymjs/muscle-selector/internal/util"
	"github.com/gymjs/muscle-selector/pkg/core"
)

// Limits are the lower bounds applied to label sizes.
type Limits struct {
	MinWidth  float64
	MinHeight float64
}

// DefaultLimits returns the standard size floors.
func DefaultLimits() Limits {
	return Limits{MinWidth: DefaultMinWidth, MinHeight: DefaultMinHeight}
}

func (l Limits) normalized() Limits {
	return Limits{
		MinWidth:  util.PositiveOr(l.MinWidth, DefaultMinWidth),
		MinHeight: util.PositiveOr(l.MinHeight, DefaultMinHeight),
	}
}

// Store owns a LabelCollection. Every update copies the affected view slice
// and swaps it in, so slices handed out earlier never change underneath a
// reader. Store is not safe for concurrent use; the owning session serializes
// access.
type Store struct {
	collection core.LabelCollection
	limits     Limits
}

// NewStore creates a store holding a copy of initial.
func NewStore(initial core.LabelCollection, limits Limits) *Store {
	return &Store{
		collection: initial.Clone(),
		limits:     limits.normalized(),
	}
}

// Limits returns the size floors in effect.
func (s *Store) Limits() Limits {
	return s.limits
}

// Collection returns a copy of the full layout.
func (s *Store) Collection() core.LabelCollection {
	return s.collection.Clone()
}

// Labels returns a copy of the labels of one view.
func (s *Store) Labels(view core.View) []core.Label {
	return append([]core.Label(nil), s.collection.ForView(view)...)
}

// Label finds a label by id in either view.
func (s *Store) Label(id core.LabelID) (core.Label, bool) {
	return s.collection.Find(id)
}

// Replace swaps in a whole new layout.
func (s *Store) Replace(c core.LabelCollection) {
	s.collection = c.Clone()
}

// UpdatePosition moves a label, clamping both axes to [0,100]. A NaN axis
// keeps its current value. Returns false for unknown ids.
func (s *Store) UpdatePosition(id core.LabelID, x, y float64) bool {
	return s.update(id, func(l *core.Label) {
		if !math.IsNaN(x) {
			l.Position.X = util.Clamp(x, 0, 100)
		}
		if !math.IsNaN(y) {
			l.Position.Y = util.Clamp(y, 0, 100)
		}
	})
}

// UpdateRotation adds delta degrees and normalizes into [0,360).
func (s *Store) UpdateRotation(id core.LabelID, delta float64) bool {
	if !util.IsFinite(delta) {
		return s.has(id)
	}
	return s.update(id, func(l *core.Label) {
		l.Rotation = util.NormalizeDegrees(l.Rotation + delta)
	})
}

// UpdateSize adds the deltas and enforces the size floors.
func (s *Store) UpdateSize(id core.LabelID, dw, dh float64) bool {
	if !util.IsFinite(dw) {
		dw = 0
	}
	if !util.IsFinite(dh) {
		dh = 0
	}
	return s.update(id, func(l *core.Label) {
		l.Size = s.FloorSize(core.Size{Width: l.Size.Width + dw, Height: l.Size.Height + dh})
	})
}

// UpdateColor sets the label's theme token.
func (s *Store) UpdateColor(id core.LabelID, token string) bool {
	return s.update(id, func(l *core.Label) {
		l.Color = token
	})
}

// FloorSize raises each dimension to its floor.
func (s *Store) FloorSize(size core.Size) core.Size {
	return ApplyFloor(size, s.limits)
}

// ApplyFloor raises each dimension of size to the floor in limits. Non-finite
// dimensions collapse to the floor.
func ApplyFloor(size core.Size, limits Limits) core.Size {
	limits = limits.normalized()
	if !util.IsFinite(size.Width) || size.Width < limits.MinWidth {
		size.Width = limits.MinWidth
	}
	if !util.IsFinite(size.Height) || size.Height < limits.MinHeight {
		size.Height = limits.MinHeight
	}
	return size
}

func (s *Store) has(id core.LabelID) bool {
	_, ok := s.collection.Find(id)
	return ok
}

func (s *Store) update(id core.LabelID, fn func(*core.Label)) bool {
	for _, view := range core.Views {
		current := s.collection.ForView(view)
		for i := range current {
			if current[i].ID != id {
				continue
			}
			next := append([]core.Label(nil), current...)
			fn(&next[i])
			s.collection = s.collection.WithView(view, next)
			return true
		}
	}
	return false
}
