// pkg/core/label.go
package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// View identifies one side of the body diagram.
type View string

const (
	ViewFront View = "front"
	ViewBack  View = "back"
)

// Valid reports whether v is one of the known views.
func (v View) Valid() bool {
	return v == ViewFront || v == ViewBack
}

// Opposite returns the other side of the diagram.
func (v View) Opposite() View {
	if v == ViewBack {
		return ViewFront
	}
	return ViewBack
}

// Views lists both views in render order.
var Views = []View{ViewFront, ViewBack}

// LabelID is a stable label identifier. Persisted layouts may carry it as a
// JSON number or string; both decode to the same id.
type LabelID string

// UnmarshalJSON accepts "7" and 7 alike. Numbers are written in their
// shortest decimal form, so 7.0 and 7e0 are also "7".
func (id *LabelID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return fmt.Errorf("label id is null")
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return fmt.Errorf("label id is empty")
		}
		*id = LabelID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("label id must be a string or number: %w", err)
	}
	*id = LabelID(canonicalNumber(n))
	return nil
}

func canonicalNumber(n json.Number) string {
	if i, err := n.Int64(); err == nil {
		return strconv.FormatInt(i, 10)
	}
	f, err := n.Float64()
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return n.String()
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Position is a label anchor in percent of the container, both axes in [0,100].
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Size is a label box in unscaled pixels.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Label is one positionable muscle tag on the diagram.
type Label struct {
	ID       LabelID  `json:"id"`
	Name     string   `json:"name"`
	View     View     `json:"view"`
	Position Position `json:"position"`
	Size     Size     `json:"size"`
	Rotation float64  `json:"rotation"`
	Color    string   `json:"color"`
	Side     string   `json:"side"`
}

// LabelCollection holds every label grouped by view.
type LabelCollection struct {
	Front []Label `json:"front"`
	Back  []Label `json:"back"`
}

// ForView returns the slice backing the given view. The result is shared.
func (c LabelCollection) ForView(v View) []Label {
	if v == ViewBack {
		return c.Back
	}
	return c.Front
}

// WithView returns a copy of c whose given view is replaced by labels.
func (c LabelCollection) WithView(v View, labels []Label) LabelCollection {
	if v == ViewBack {
		c.Back = labels
	} else {
		c.Front = labels
	}
	return c
}

// Clone deep-copies both view slices.
func (c LabelCollection) Clone() LabelCollection {
	return LabelCollection{
		Front: append([]Label(nil), c.Front...),
		Back:  append([]Label(nil), c.Back...),
	}
}

// Find looks a label up by id across both views.
func (c LabelCollection) Find(id LabelID) (Label, bool) {
	for _, v := range Views {
		for _, l := range c.ForView(v) {
			if l.ID == id {
				return l, true
			}
		}
	}
	return Label{}, false
}

// Len returns the number of labels across both views.
func (c LabelCollection) Len() int {
	return len(c.Front) + len(c.Back)
}
