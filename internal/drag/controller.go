// Package drag implements the edit-mode gesture state machine: pointer drags
// that relocate a label, plus one-shot rotate and resize actions.
package drag

import (
	geom "github.com/peterstace/simplefeatures/geom"

	"github.com/gymjs/muscle-selector/internal/coords"
	"github.com/gymjs/muscle-selector/internal/labels"
	"github.com/gymjs/muscle-selector/internal/util"
	"github.com/gymjs/muscle-selector/pkg/core"
)

// State is the controller's gesture state.
type State int

const (
	Idle State = iota
	Dragging
)

func (s State) String() string {
	if s == Dragging {
		return "dragging"
	}
	return "idle"
}

// Direction selects whether a resize grows or shrinks a label.
type Direction int

const (
	Grow Direction = iota
	Shrink
)

const (
	DefaultRotationStep     = 15.0
	DefaultResizeWidthStep  = 10.0
	DefaultResizeHeightStep = 5.0
)

// Steps are the increments applied by the one-shot actions.
type Steps struct {
	Rotation     float64
	ResizeWidth  float64
	ResizeHeight float64
}

// DefaultSteps returns the standard increments.
func DefaultSteps() Steps {
	return Steps{
		Rotation:     DefaultRotationStep,
		ResizeWidth:  DefaultResizeWidthStep,
		ResizeHeight: DefaultResizeHeightStep,
	}
}

func (s Steps) normalized() Steps {
	return Steps{
		Rotation:     util.PositiveOr(s.Rotation, DefaultRotationStep),
		ResizeWidth:  util.PositiveOr(s.ResizeWidth, DefaultResizeWidthStep),
		ResizeHeight: util.PositiveOr(s.ResizeHeight, DefaultResizeHeightStep),
	}
}

// Interaction is the transient record of an in-progress drag.
type Interaction struct {
	LabelID    core.LabelID
	GrabOffset geom.XY
	Start      core.Position
}

// Controller drives label edits through a Store. It does not lock; the
// owning session serializes calls.
type Controller struct {
	store  *labels.Store
	steps  Steps
	active *Interaction
}

// NewController creates an idle controller writing through store.
func NewController(store *labels.Store, steps Steps) *Controller {
	return &Controller{store: store, steps: steps.normalized()}
}

// State returns Idle or Dragging.
func (c *Controller) State() State {
	if c.active != nil {
		return Dragging
	}
	return Idle
}

// Active returns the in-progress drag, if any.
func (c *Controller) Active() (Interaction, bool) {
	if c.active == nil {
		return Interaction{}, false
	}
	return *c.active, true
}

// PointerDown starts a drag on id when editMode is set. It returns true when
// the gesture was consumed, meaning the caller must not treat it as a click.
// A pointer-down while already dragging replaces the stale interaction.
func (c *Controller) PointerDown(id core.LabelID, client geom.XY, vp coords.Viewport, editMode bool) bool {
	if !editMode || !coords.Finite(client) {
		return false
	}
	l, ok := c.store.Label(id)
	if !ok {
		return false
	}
	pointer := vp.ToLabelSpace(client)
	c.active = &Interaction{
		LabelID:    id,
		GrabOffset: coords.GrabOffset(pointer, l.Position),
		Start:      l.Position,
	}
	return true
}

// PointerMove relocates the dragged label so the grab offset is preserved.
// Returns false when idle or when the move could not be applied.
func (c *Controller) PointerMove(client geom.XY, vp coords.Viewport) bool {
	if c.active == nil || !coords.Finite(client) {
		return false
	}
	pos := coords.ApplyGrab(vp.ToLabelSpace(client), c.active.GrabOffset)
	return c.store.UpdatePosition(c.active.LabelID, pos.X, pos.Y)
}

// PointerUp ends the drag and returns the finished interaction together with
// the label's final position. Nothing is saved.
func (c *Controller) PointerUp() (Interaction, core.Position, bool) {
	if c.active == nil {
		return Interaction{}, core.Position{}, false
	}
	done := *c.active
	c.active = nil
	l, ok := c.store.Label(done.LabelID)
	if !ok {
		return done, done.Start, true
	}
	return done, l.Position, true
}

// PointerLeave behaves like PointerUp.
func (c *Controller) PointerLeave() (Interaction, core.Position, bool) {
	return c.PointerUp()
}

// Cancel discards any in-progress drag.
func (c *Controller) Cancel() {
	c.active = nil
}

// Rotate turns the label by one rotation step. Any drag in progress ends.
func (c *Controller) Rotate(id core.LabelID, editMode bool) bool {
	if !editMode {
		return false
	}
	c.active = nil
	return c.store.UpdateRotation(id, c.steps.Rotation)
}

// Resize grows or shrinks the label by one step on each axis. Any drag in
// progress ends.
func (c *Controller) Resize(id core.LabelID, dir Direction, editMode bool) bool {
	if !editMode {
		return false
	}
	c.active = nil
	dw, dh := c.steps.ResizeWidth, c.steps.ResizeHeight
	if dir == Shrink {
		dw, dh = -dw, -dh
	}
	return c.store.UpdateSize(id, dw, dh)
}

// SetColor recolors the label. Edit mode only.
func (c *Controller) SetColor(id core.LabelID, token string, editMode bool) bool {
	if !editMode {
		return false
	}
	return c.store.UpdateColor(id, token)
}
