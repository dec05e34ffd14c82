package coords

import (
	"math"
	"testing"

	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/stretchr/testify/assert"

	"github.com/gymjs/muscle-selector/pkg/core"
)

func TestViewport_Factor(t *testing.T) {
	tests := []struct {
		name     string
		vp       Viewport
		expected float64
	}{
		{"unset", Viewport{}, 1},
		{"zoom only", Viewport{Zoom: 2}, 2},
		{"zoom and scale", Viewport{Zoom: 2, DeviceScale: 0.5}, 1},
		{"mobile scale", Viewport{Zoom: 1, DeviceScale: 0.8}, 0.8},
		{"negative zoom", Viewport{Zoom: -3, DeviceScale: 2}, 2},
		{"nan zoom", Viewport{Zoom: math.NaN(), DeviceScale: 2}, 2},
		{"inf scale", Viewport{Zoom: 4, DeviceScale: math.Inf(1)}, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, tt.vp.Factor(), 1e-12)
		})
	}
}

func TestViewport_Unscaled(t *testing.T) {
	vp := Viewport{Left: 100, Top: 50, Zoom: 2, DeviceScale: 1}
	got := vp.Unscaled(geom.XY{X: 300, Y: 150})
	assert.InDelta(t, 100, got.X, 1e-12)
	assert.InDelta(t, 50, got.Y, 1e-12)
}

func TestViewport_ToLabelSpace_Percent(t *testing.T) {
	vp := Viewport{Left: 10, Top: 20, BaseWidth: 400, BaseHeight: 800, Zoom: 1, DeviceScale: 0.5}

	// (210-10)/0.5 = 400 -> 100%, (420-20)/0.5 = 800 -> 100%
	got := vp.ToLabelSpace(geom.XY{X: 210, Y: 420})
	assert.InDelta(t, 100, got.X, 1e-9)
	assert.InDelta(t, 100, got.Y, 1e-9)

	got = vp.ToLabelSpace(geom.XY{X: 110, Y: 220})
	assert.InDelta(t, 50, got.X, 1e-9)
	assert.InDelta(t, 50, got.Y, 1e-9)
}

func TestViewport_ToLabelSpace_UnknownBaseKeepsPixels(t *testing.T) {
	vp := Viewport{Zoom: 2}
	got := vp.ToLabelSpace(geom.XY{X: 40, Y: 80})
	assert.InDelta(t, 20, got.X, 1e-12)
	assert.InDelta(t, 40, got.Y, 1e-12)
}

func TestViewport_SameLabelPointAcrossScales(t *testing.T) {
	desktop := Viewport{Left: 0, Top: 0, BaseWidth: 500, BaseHeight: 1000, Zoom: 1, DeviceScale: 1}
	mobile := Viewport{Left: 0, Top: 0, BaseWidth: 500, BaseHeight: 1000, Zoom: 1, DeviceScale: 0.6}

	label := geom.XY{X: 37, Y: 64}
	fromDesktop := desktop.ToLabelSpace(desktop.ToClient(label))
	fromMobile := mobile.ToLabelSpace(mobile.ToClient(label))

	assert.InDelta(t, label.X, fromDesktop.X, 1e-9)
	assert.InDelta(t, label.Y, fromDesktop.Y, 1e-9)
	assert.InDelta(t, label.X, fromMobile.X, 1e-9)
	assert.InDelta(t, label.Y, fromMobile.Y, 1e-9)
}

func TestToPosition_Clamps(t *testing.T) {
	tests := []struct {
		name     string
		in       geom.XY
		expected core.Position
	}{
		{"inside", geom.XY{X: 12, Y: 88}, core.Position{X: 12, Y: 88}},
		{"negative", geom.XY{X: -5, Y: -0.1}, core.Position{X: 0, Y: 0}},
		{"over", geom.XY{X: 150, Y: 100.5}, core.Position{X: 100, Y: 100}},
		{"infinite", geom.XY{X: math.Inf(-1), Y: math.Inf(1)}, core.Position{X: 0, Y: 100}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ToPosition(tt.in))
		})
	}
}

func TestGrabOffsetLaw(t *testing.T) {
	anchor := core.Position{X: 50, Y: 50}
	offset := GrabOffset(geom.XY{X: 55, Y: 52}, anchor)
	assert.InDelta(t, 5, offset.X, 1e-12)
	assert.InDelta(t, 2, offset.Y, 1e-12)

	got := ApplyGrab(geom.XY{X: 60, Y: 58}, offset)
	assert.InDelta(t, 55, got.X, 1e-12)
	assert.InDelta(t, 56, got.Y, 1e-12)
}

func TestApplyGrab_ClampsToBounds(t *testing.T) {
	offset := geom.XY{X: 5, Y: 5}
	got := ApplyGrab(geom.XY{X: 200, Y: -40}, offset)
	assert.Equal(t, core.Position{X: 100, Y: 0}, got)
}

func TestFinite(t *testing.T) {
	assert.True(t, Finite(geom.XY{X: 1, Y: 2}))
	assert.False(t, Finite(geom.XY{X: math.NaN(), Y: 2}))
	assert.False(t, Finite(geom.XY{X: 1, Y: math.Inf(1)}))
}
