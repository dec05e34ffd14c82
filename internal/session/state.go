package session

import (
	"github.com/gymjs/muscle-selector/internal/coords"
	"github.com/gymjs/muscle-selector/internal/drag"
	"github.com/gymjs/muscle-selector/pkg/core"
)

// DragState is the rendered view of an in-progress drag.
type DragState struct {
	LabelID    core.LabelID `json:"labelId"`
	GrabOffset core.Position `json:"grabOffset"`
}

// State is a point-in-time snapshot of a session, shaped for rendering.
type State struct {
	ID        string          `json:"id"`
	View      core.View       `json:"view"`
	EditMode  bool            `json:"editMode"`
	Drag      *DragState      `json:"drag,omitempty"`
	Labels    []core.Label    `json:"labels"`
	Selected  []core.LabelID  `json:"selected"`
	Chosen    *core.Label     `json:"chosen,omitempty"`
	Exercises []string        `json:"exercises"`
	Viewport  coords.Viewport `json:"viewport"`
	Dirty     bool            `json:"dirty"`
	Restored  bool            `json:"restored"`
}

// State returns a snapshot. Labels are those of the current view.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	view := s.sel.View()
	st := State{
		ID:        s.id,
		View:      view,
		EditMode:  s.editMode,
		Labels:    s.store.Labels(view),
		Selected:  s.sel.Selected(),
		Exercises: s.sel.Exercises(),
		Viewport:  s.viewport,
		Dirty:     s.dirty,
		Restored:  s.restored,
	}
	if st.Exercises == nil {
		st.Exercises = []string{}
	}
	if active, ok := s.drag.Active(); ok {
		st.Drag = &DragState{
			LabelID:    active.LabelID,
			GrabOffset: core.Position{X: active.GrabOffset.X, Y: active.GrabOffset.Y},
		}
	}
	if chosen, ok := s.sel.Chosen(); ok {
		st.Chosen = &chosen
	}
	return st
}

// DragState reports the controller's gesture state.
func (s *Session) DragState() drag.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.drag.State()
}

// EditMode reports whether edit mode is on.
func (s *Session) EditMode() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editMode
}
