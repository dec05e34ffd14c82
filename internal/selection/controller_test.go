package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gymjs/muscle-selector/pkg/core"
)

type staticLabels core.LabelCollection

func (s staticLabels) Labels(v core.View) []core.Label {
	return core.LabelCollection(s).ForView(v)
}

type mapLookup struct {
	entries map[string][]string
	calls   []string
}

func (m *mapLookup) Lookup(name string) []string {
	m.calls = append(m.calls, name)
	return m.entries[name]
}

func newTestController() (*Controller, *mapLookup) {
	lookup := &mapLookup{entries: map[string][]string{
		"Ombros":  {"Desenvolvimento", "Elevação lateral"},
		"Dorsais": {"Puxada frontal"},
	}}
	labels := staticLabels{
		Front: []core.Label{
			{ID: "1", Name: "Ombros", View: core.ViewFront},
			{ID: "2", Name: "Peitoral", View: core.ViewFront},
		},
		Back: []core.Label{
			{ID: "3", Name: "Dorsais", View: core.ViewBack},
		},
	}
	return NewController(labels, lookup), lookup
}

func TestController_StartsOnFrontWithEmptySelection(t *testing.T) {
	c, _ := newTestController()
	assert.Equal(t, core.ViewFront, c.View())
	assert.Empty(t, c.Selected())
	_, ok := c.Chosen()
	assert.False(t, ok)
}

func TestController_ToggleSelection_AddRemove(t *testing.T) {
	c, lookup := newTestController()

	require.True(t, c.ToggleSelection("1", false))
	assert.True(t, c.IsSelected("1"))
	assert.Equal(t, []string{"Desenvolvimento", "Elevação lateral"}, c.Exercises())
	chosen, ok := c.Chosen()
	require.True(t, ok)
	assert.Equal(t, "Ombros", chosen.Name)

	require.True(t, c.ToggleSelection("1", false))
	assert.False(t, c.IsSelected("1"))
	assert.Equal(t, []string{"Ombros", "Ombros"}, lookup.calls)
}

func TestController_ToggleSelection_EditModeNeverMutates(t *testing.T) {
	c, lookup := newTestController()

	for i := 0; i < 3; i++ {
		assert.False(t, c.ToggleSelection("1", true))
	}
	assert.Empty(t, c.Selected())
	assert.Empty(t, lookup.calls)
}

func TestController_ToggleSelection_OtherViewIsNoop(t *testing.T) {
	c, lookup := newTestController()
	assert.False(t, c.ToggleSelection("3", false))
	assert.Empty(t, c.Selected())
	assert.Empty(t, lookup.calls)
}

func TestController_ToggleSelection_UnknownLabelEmptyExercises(t *testing.T) {
	c, _ := newTestController()
	require.True(t, c.ToggleSelection("2", false))
	assert.Empty(t, c.Exercises())
}

func TestController_ToggleView_PreservesSelection(t *testing.T) {
	c, _ := newTestController()
	require.True(t, c.ToggleSelection("1", false))

	assert.Equal(t, core.ViewBack, c.ToggleView())
	assert.Equal(t, []core.LabelID{"1"}, c.Selected())
	_, ok := c.Chosen()
	assert.False(t, ok)
	assert.Empty(t, c.Exercises())

	assert.Equal(t, core.ViewFront, c.ToggleView())
	assert.Equal(t, []core.LabelID{"1"}, c.Selected())
}

func TestController_ClearSelection(t *testing.T) {
	c, _ := newTestController()
	c.ToggleSelection("1", false)
	c.ToggleSelection("2", false)
	assert.Equal(t, []core.LabelID{"1", "2"}, c.Selected())

	c.ClearSelection()
	assert.Empty(t, c.Selected())
}

func TestController_ExercisesReturnsCopy(t *testing.T) {
	c, _ := newTestController()
	c.ToggleSelection("1", false)
	ex := c.Exercises()
	ex[0] = "changed"
	assert.Equal(t, "Desenvolvimento", c.Exercises()[0])
}

func TestController_NilLookup(t *testing.T) {
	c := NewController(staticLabels{Front: []core.Label{{ID: "1", Name: "Ombros"}}}, nil)
	require.True(t, c.ToggleSelection("1", false))
	assert.Empty(t, c.Exercises())
}
