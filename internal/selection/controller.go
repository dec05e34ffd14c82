// Package selection tracks which side of the diagram is shown, which labels
// are selected, and the exercises for the most recently toggled label.
package selection

import (
	"sort"

	"github.com/gymjs/muscle-selector/pkg/core"
)

// ExerciseLookup resolves a muscle name to exercise names. Unknown names
// yield an empty result.
type ExerciseLookup interface {
	Lookup(muscle string) []string
}

// LabelReader exposes the labels of a view.
type LabelReader interface {
	Labels(view core.View) []core.Label
}

// Controller is the view-mode counterpart of the drag controller. It does
// not lock; the owning session serializes calls.
type Controller struct {
	labels    LabelReader
	lookup    ExerciseLookup
	view      core.View
	selected  map[core.LabelID]struct{}
	chosen    *core.Label
	exercises []string
}

// NewController starts on the front view with nothing selected.
func NewController(labels LabelReader, lookup ExerciseLookup) *Controller {
	return &Controller{
		labels:   labels,
		lookup:   lookup,
		view:     core.ViewFront,
		selected: make(map[core.LabelID]struct{}),
	}
}

// View returns the side currently shown.
func (c *Controller) View() core.View {
	return c.view
}

// ToggleView flips front and back. The chosen label and its exercises are
// cleared; the selection set is kept.
func (c *Controller) ToggleView() core.View {
	c.view = c.view.Opposite()
	c.chosen = nil
	c.exercises = nil
	return c.view
}

// ToggleSelection adds or removes id from the selection and looks up
// exercises for it. Ignored in edit mode and for labels outside the current
// view.
func (c *Controller) ToggleSelection(id core.LabelID, editMode bool) bool {
	if editMode {
		return false
	}
	var target *core.Label
	for _, l := range c.labels.Labels(c.view) {
		if l.ID == id {
			l := l
			target = &l
			break
		}
	}
	if target == nil {
		return false
	}

	if _, ok := c.selected[id]; ok {
		delete(c.selected, id)
	} else {
		c.selected[id] = struct{}{}
	}

	c.chosen = target
	c.exercises = nil
	if c.lookup != nil {
		c.exercises = append([]string(nil), c.lookup.Lookup(target.Name)...)
	}
	return true
}

// ClearSelection empties the selection set, regardless of edit mode.
func (c *Controller) ClearSelection() {
	c.selected = make(map[core.LabelID]struct{})
}

// IsSelected reports whether id is in the selection set.
func (c *Controller) IsSelected(id core.LabelID) bool {
	_, ok := c.selected[id]
	return ok
}

// Selected returns the selected ids in sorted order.
func (c *Controller) Selected() []core.LabelID {
	ids := make([]core.LabelID, 0, len(c.selected))
	for id := range c.selected {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Chosen returns the label whose exercises are being shown.
func (c *Controller) Chosen() (core.Label, bool) {
	if c.chosen == nil {
		return core.Label{}, false
	}
	return *c.chosen, true
}

// Exercises returns a copy of the exercise list for the chosen label.
func (c *Controller) Exercises() []string {
	return append([]string(nil), c.exercises...)
}
