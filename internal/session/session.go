// Package session owns the per-editor state container. Every operation runs
// under the session lock against the latest stored state, so events arriving
// from several goroutines apply in a single order.
package session

import (
	"errors"
	"sync"
	"time"

	geom "github.com/peterstace/simplefeatures/geom"

	"github.com/gymjs/muscle-selector/internal/coords"
	"github.com/gymjs/muscle-selector/internal/drag"
	"github.com/gymjs/muscle-selector/internal/labels"
	"github.com/gymjs/muscle-selector/internal/persistence"
	"github.com/gymjs/muscle-selector/internal/selection"
	"github.com/gymjs/muscle-selector/internal/util"
	"github.com/gymjs/muscle-selector/pkg/core"
)

// ErrUnknownSession is returned when a session id is not registered.
var ErrUnknownSession = errors.New("unknown session")

// Config holds the editing constants applied to new sessions.
type Config struct {
	Limits      labels.Limits
	Steps       drag.Steps
	DeviceScale float64
}

// DefaultConfig returns the standard editing constants.
func DefaultConfig() Config {
	return Config{
		Limits:      labels.DefaultLimits(),
		Steps:       drag.DefaultSteps(),
		DeviceScale: 1,
	}
}

// DragResult describes a finished drag.
type DragResult struct {
	LabelID core.LabelID
	From    core.Position
	To      core.Position
}

// Session is one editor's label layout plus its interaction state.
type Session struct {
	mu sync.Mutex

	id        string
	createdAt time.Time
	cfg       Config

	store   *labels.Store
	drag    *drag.Controller
	sel     *selection.Controller
	gateway *persistence.Gateway

	editMode      bool
	viewport      coords.Viewport
	suppressClick bool
	dirty         bool
	restored      bool
}

// New creates a session and restores the stored layout through gateway,
// falling back to the defaults.
func New(id string, cfg Config, gateway *persistence.Gateway, lookup selection.ExerciseLookup) *Session {
	initial, restored := gateway.Load()
	store := labels.NewStore(initial, cfg.Limits)
	s := &Session{
		id:        id,
		createdAt: time.Now().UTC(),
		cfg:       cfg,
		store:     store,
		drag:      drag.NewController(store, cfg.Steps),
		sel:       selection.NewController(store, lookup),
		gateway:   gateway,
		viewport:  coords.Viewport{Zoom: 1, DeviceScale: util.PositiveOr(cfg.DeviceScale, 1)},
		restored:  restored,
	}
	return s
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.id
}

// CreatedAt returns when the session was opened.
func (s *Session) CreatedAt() time.Time {
	return s.createdAt
}

// SetViewport records the container geometry used for pointer conversion.
// A missing device scale keeps the configured one.
func (s *Session) SetViewport(vp coords.Viewport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !util.IsFinite(vp.DeviceScale) || vp.DeviceScale <= 0 {
		vp.DeviceScale = util.PositiveOr(s.cfg.DeviceScale, 1)
	}
	s.viewport = vp
}

// SetEditMode switches edit mode. Leaving edit mode ends any drag but keeps
// unsaved edits and the selection.
func (s *Session) SetEditMode(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setEditMode(on)
}

// ToggleEditMode flips edit mode and returns the new value.
func (s *Session) ToggleEditMode() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setEditMode(!s.editMode)
	return s.editMode
}

func (s *Session) setEditMode(on bool) {
	s.editMode = on
	if !on {
		s.drag.Cancel()
		s.suppressClick = false
	}
}

// visible reports whether id belongs to the view on screen. Edits to labels
// of the other view are refused.
func (s *Session) visible(id core.LabelID) bool {
	for _, l := range s.store.Labels(s.sel.View()) {
		if l.ID == id {
			return true
		}
	}
	return false
}

// PointerDown starts a drag in edit mode on a visible label. When the
// gesture is consumed the click that follows it is swallowed.
func (s *Session) PointerDown(id core.LabelID, client geom.XY) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	consumed := s.visible(id) && s.drag.PointerDown(id, client, s.viewport, s.editMode)
	s.suppressClick = consumed
	return consumed
}

// PointerMove moves the dragged label.
func (s *Session) PointerMove(client geom.XY) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	moved := s.drag.PointerMove(client, s.viewport)
	if moved {
		s.dirty = true
	}
	return moved
}

// PointerUp ends the drag. Nothing is saved.
func (s *Session) PointerUp() (DragResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finishDrag(s.drag.PointerUp())
}

// PointerLeave ends the drag like PointerUp.
func (s *Session) PointerLeave() (DragResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finishDrag(s.drag.PointerLeave())
}

func (s *Session) finishDrag(done drag.Interaction, final core.Position, ok bool) (DragResult, bool) {
	if !ok {
		return DragResult{}, false
	}
	return DragResult{LabelID: done.LabelID, From: done.Start, To: final}, true
}

// Click toggles selection of id unless it ends a consumed drag gesture.
func (s *Session) Click(id core.LabelID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.suppressClick {
		s.suppressClick = false
		return false
	}
	return s.sel.ToggleSelection(id, s.editMode)
}

// Rotate turns a visible label by one step. Edit mode only.
func (s *Session) Rotate(id core.LabelID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visible(id) && s.markDirty(s.drag.Rotate(id, s.editMode))
}

// Resize grows or shrinks a label by one step. Edit mode only.
func (s *Session) Resize(id core.LabelID, dir drag.Direction) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visible(id) && s.markDirty(s.drag.Resize(id, dir, s.editMode))
}

// SetColor recolors a label. Edit mode only.
func (s *Session) SetColor(id core.LabelID, token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visible(id) && s.markDirty(s.drag.SetColor(id, token, s.editMode))
}

func (s *Session) markDirty(changed bool) bool {
	if changed {
		s.dirty = true
	}
	return changed
}

// ToggleView flips front and back. A drag in progress is dropped since its
// label leaves the screen. Selection and edit mode are kept.
func (s *Session) ToggleView() core.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drag.Cancel()
	return s.sel.ToggleView()
}

// ClearSelection empties the selection set.
func (s *Session) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sel.ClearSelection()
}

// Save writes the current layout through the gateway.
func (s *Session) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.gateway.Save(s.store.Collection()); err != nil {
		return err
	}
	s.dirty = false
	return nil
}

// ResetLayout discards in-memory edits and returns to the built-in layout.
// Storage is untouched until the next Save.
func (s *Session) ResetLayout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drag.Cancel()
	s.store.Replace(s.gateway.Defaults())
	s.dirty = true
}

// Layout returns a copy of the full label collection.
func (s *Session) Layout() core.LabelCollection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Collection()
}
