// Package coords converts pointer positions reported by the browser into the
// percent space labels are stored in.
//
// Client space is device pixels relative to the page. Label space is percent
// of the container's unscaled base size, so a layout edited at one zoom level
// renders identically at any other.
package coords

import (
	geom "github.com/peterstace/simplefeatures/geom"

	"github.com/gymjs/muscle-selector/internal/util"
	"github.com/gymjs/muscle-selector/pkg/core"
)

const (
	// MinPercent and MaxPercent bound stored positions.
	MinPercent = 0.0
	MaxPercent = 100.0
)

// Viewport describes the label container as the browser currently lays it out.
type Viewport struct {
	// Left and Top are the container's bounding rect origin in client pixels.
	Left float64 `json:"left"`
	Top  float64 `json:"top"`
	// BaseWidth and BaseHeight are the container size before zoom and device
	// scale. Zero or negative means unknown; offsets then stay in unscaled pixels.
	BaseWidth  float64 `json:"baseWidth"`
	BaseHeight float64 `json:"baseHeight"`
	// Zoom is the CSS zoom applied to the container.
	Zoom float64 `json:"zoom"`
	// DeviceScale is the extra scale the layout applies on small screens.
	DeviceScale float64 `json:"deviceScale"`
}

// Factor returns z*s, treating any non-positive or non-finite component as 1.
func (v Viewport) Factor() float64 {
	return util.PositiveOr(v.Zoom, 1) * util.PositiveOr(v.DeviceScale, 1)
}

// Unscaled returns the pointer offset from the container origin with zoom and
// device scale removed.
func (v Viewport) Unscaled(client geom.XY) geom.XY {
	origin := geom.XY{X: finiteOr(v.Left, 0), Y: finiteOr(v.Top, 0)}
	return client.Sub(origin).Scale(1 / v.Factor())
}

// ToLabelSpace maps a client pointer position to label space.
func (v Viewport) ToLabelSpace(client geom.XY) geom.XY {
	local := v.Unscaled(client)
	if w := util.PositiveOr(v.BaseWidth, 0); w > 0 {
		local.X = local.X / w * MaxPercent
	}
	if h := util.PositiveOr(v.BaseHeight, 0); h > 0 {
		local.Y = local.Y / h * MaxPercent
	}
	return local
}

// ToClient is the inverse of ToLabelSpace.
func (v Viewport) ToClient(label geom.XY) geom.XY {
	local := label
	if w := util.PositiveOr(v.BaseWidth, 0); w > 0 {
		local.X = local.X * w / MaxPercent
	}
	if h := util.PositiveOr(v.BaseHeight, 0); h > 0 {
		local.Y = local.Y * h / MaxPercent
	}
	origin := geom.XY{X: finiteOr(v.Left, 0), Y: finiteOr(v.Top, 0)}
	return local.Scale(v.Factor()).Add(origin)
}

// FromPosition lifts a stored label position into the geometry type.
func FromPosition(p core.Position) geom.XY {
	return geom.XY{X: p.X, Y: p.Y}
}

// ToPosition clamps xy into [0,100] on both axes.
func ToPosition(xy geom.XY) core.Position {
	return core.Position{
		X: util.Clamp(xy.X, MinPercent, MaxPercent),
		Y: util.Clamp(xy.Y, MinPercent, MaxPercent),
	}
}

// GrabOffset is the distance between the pointer and the label anchor at
// pointer-down.
func GrabOffset(pointer geom.XY, anchor core.Position) geom.XY {
	return pointer.Sub(FromPosition(anchor))
}

// ApplyGrab returns where the label anchor lands when the pointer is at
// pointer, keeping the grab offset recorded at pointer-down.
func ApplyGrab(pointer, offset geom.XY) core.Position {
	return ToPosition(pointer.Sub(offset))
}

// Finite reports whether both components of xy are finite.
func Finite(xy geom.XY) bool {
	return util.IsFinite(xy.X) && util.IsFinite(xy.Y)
}

func finiteOr(v, fallback float64) float64 {
	if !util.IsFinite(v) {
		return fallback
	}
	return v
}
