package labels

import "github.com/gymjs/muscle-selector/pkg/core"

const (
	// DefaultMinWidth and DefaultMinHeight are the size floors applied to every label.
	DefaultMinWidth  = 30.0
	DefaultMinHeight = 18.0
)

func label(id, name string, view core.View, x, y, w, h float64, side string) core.Label {
	return core.Label{
		ID:       core.LabelID(id),
		Name:     name,
		View:     view,
		Position: core.Position{X: x, Y: y},
		Size:     core.Size{Width: w, Height: h},
		Side:     side,
	}
}

// Defaults returns the built-in layout. Each call returns fresh slices.
func Defaults() core.LabelCollection {
	return core.LabelCollection{
		Front: []core.Label{
			label("1", "Peitoral", core.ViewFront, 50, 24, 80, 24, ""),
			label("2", "Ombros", core.ViewFront, 22, 20, 70, 24, "left"),
			label("3", "Bíceps", core.ViewFront, 18, 33, 64, 24, "left"),
			label("4", "Antebraço", core.ViewFront, 80, 44, 84, 24, "right"),
			label("5", "Abdômen", core.ViewFront, 50, 38, 80, 24, ""),
			label("6", "Oblíquos", core.ViewFront, 68, 40, 76, 24, "right"),
			label("7", "Quadríceps", core.ViewFront, 38, 62, 90, 24, "left"),
			label("8", "Adutores", core.ViewFront, 60, 58, 76, 24, "right"),
			label("9", "Tibial", core.ViewFront, 40, 82, 60, 24, "left"),
		},
		Back: []core.Label{
			label("10", "Trapézio", core.ViewBack, 50, 16, 84, 24, ""),
			label("11", "Dorsais", core.ViewBack, 34, 30, 72, 24, "left"),
			label("12", "Tríceps", core.ViewBack, 80, 32, 70, 24, "right"),
			label("13", "Lombar", core.ViewBack, 50, 44, 70, 24, ""),
			label("14", "Glúteos", core.ViewBack, 50, 54, 72, 24, ""),
			label("15", "Posteriores", core.ViewBack, 36, 66, 90, 24, "left"),
			label("16", "Panturrilhas", core.ViewBack, 62, 82, 96, 24, "right"),
		},
	}
}
