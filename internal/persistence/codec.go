package persistence

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gymjs/muscle-selector/internal/labels"
	"github.com/gymjs/muscle-selector/internal/util"
	"github.com/gymjs/muscle-selector/pkg/core"
)

// SchemaVersion is the version tag written by Encode.
const SchemaVersion = 1

var (
	// ErrMalformed is returned for payloads that do not match the layout schema.
	ErrMalformed = errors.New("malformed layout")
	// ErrUnsupportedVersion is returned for payloads written by a newer schema.
	ErrUnsupportedVersion = errors.New("unsupported layout version")
	// ErrEmpty is returned for a zero-length payload.
	ErrEmpty = errors.New("empty layout")
)

type document struct {
	Version int          `json:"version"`
	Front   []core.Label `json:"front"`
	Back    []core.Label `json:"back"`
}

// Encode serializes both views with the current version tag.
func Encode(c core.LabelCollection) ([]byte, error) {
	doc := document{Version: SchemaVersion, Front: c.Front, Back: c.Back}
	if doc.Front == nil {
		doc.Front = []core.Label{}
	}
	if doc.Back == nil {
		doc.Back = []core.Label{}
	}
	return json.Marshal(doc)
}

// Decode parses a stored layout. Both the versioned object form and the bare
// array form are accepted. Fields missing from a label are taken from the
// default label with the same id; a label with no default counterpart must
// carry every required field. Values are clamped and normalized. Any schema
// violation fails the whole payload.
func Decode(data []byte, defaults core.LabelCollection, limits labels.Limits) (core.LabelCollection, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return core.LabelCollection{}, ErrEmpty
	}

	d := &decoder{defaults: indexByID(defaults), limits: limits, seen: make(map[core.LabelID]bool)}

	switch data[0] {
	case '[':
		var raws []json.RawMessage
		if err := json.Unmarshal(data, &raws); err != nil {
			return core.LabelCollection{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return d.decodeLabels(raws, "")
	case '{':
		return d.decodeDocument(data)
	default:
		return core.LabelCollection{}, fmt.Errorf("%w: expected object or array", ErrMalformed)
	}
}

type decoder struct {
	defaults map[core.LabelID]core.Label
	limits   labels.Limits
	seen     map[core.LabelID]bool
}

func (d *decoder) decodeDocument(data []byte) (core.LabelCollection, error) {
	var doc struct {
		Version *json.Number       `json:"version"`
		Front   *[]json.RawMessage `json:"front"`
		Back    *[]json.RawMessage `json:"back"`
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return core.LabelCollection{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	if doc.Version != nil {
		v, err := doc.Version.Int64()
		if err != nil || v < 1 {
			return core.LabelCollection{}, fmt.Errorf("%w: version %s", ErrMalformed, doc.Version.String())
		}
		if v > SchemaVersion {
			return core.LabelCollection{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, v)
		}
	}
	if doc.Front == nil || doc.Back == nil {
		return core.LabelCollection{}, fmt.Errorf("%w: both front and back are required", ErrMalformed)
	}

	front, err := d.decodeLabels(*doc.Front, core.ViewFront)
	if err != nil {
		return core.LabelCollection{}, err
	}
	back, err := d.decodeLabels(*doc.Back, core.ViewBack)
	if err != nil {
		return core.LabelCollection{}, err
	}
	return core.LabelCollection{Front: front.Front, Back: back.Back}, nil
}

// decodeLabels decodes raws and groups them by view. implied is the view the
// containing array stands for, empty for the bare array form.
func (d *decoder) decodeLabels(raws []json.RawMessage, implied core.View) (core.LabelCollection, error) {
	out := core.LabelCollection{Front: []core.Label{}, Back: []core.Label{}}
	for i, raw := range raws {
		l, err := d.decodeLabel(raw, implied)
		if err != nil {
			return core.LabelCollection{}, fmt.Errorf("%w: label %d: %v", ErrMalformed, i, err)
		}
		if d.seen[l.ID] {
			return core.LabelCollection{}, fmt.Errorf("%w: duplicate label id %q", ErrMalformed, l.ID)
		}
		d.seen[l.ID] = true
		out = out.WithView(l.View, append(out.ForView(l.View), l))
	}
	return out, nil
}

func (d *decoder) decodeLabel(raw json.RawMessage, implied core.View) (core.Label, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return core.Label{}, errors.New("label is not an object")
	}

	idRaw, ok := present(fields, "id")
	if !ok {
		return core.Label{}, errors.New("missing id")
	}
	var id core.LabelID
	if err := json.Unmarshal(idRaw, &id); err != nil {
		return core.Label{}, err
	}

	base, hasBase := d.defaults[id]
	l := core.Label{ID: id}
	if hasBase {
		l = base
	}

	if err := decodeString(fields, "name", &l.Name, hasBase); err != nil {
		return core.Label{}, err
	}
	if l.Name == "" {
		return core.Label{}, errors.New("empty name")
	}

	if err := d.decodeView(fields, implied, &l, hasBase); err != nil {
		return core.Label{}, err
	}

	if err := decodePair(fields, "position", "x", "y", &l.Position.X, &l.Position.Y, hasBase); err != nil {
		return core.Label{}, err
	}
	if err := decodePair(fields, "size", "width", "height", &l.Size.Width, &l.Size.Height, hasBase); err != nil {
		return core.Label{}, err
	}

	// optional everywhere
	if err := decodeFloat(fields, "rotation", &l.Rotation, true); err != nil {
		return core.Label{}, err
	}
	if err := decodeString(fields, "color", &l.Color, true); err != nil {
		return core.Label{}, err
	}
	if err := decodeString(fields, "side", &l.Side, true); err != nil {
		return core.Label{}, err
	}

	l.Position.X = util.Clamp(l.Position.X, 0, 100)
	l.Position.Y = util.Clamp(l.Position.Y, 0, 100)
	l.Rotation = util.NormalizeDegrees(l.Rotation)
	l.Size = labels.ApplyFloor(l.Size, d.limits)
	return l, nil
}

func (d *decoder) decodeView(fields map[string]json.RawMessage, implied core.View, l *core.Label, hasBase bool) error {
	raw, ok := present(fields, "view")
	if !ok {
		switch {
		case implied != "":
			l.View = implied
		case !hasBase:
			return errors.New("missing view")
		}
		return nil
	}
	var v core.View
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("view: %v", err)
	}
	if !v.Valid() {
		return fmt.Errorf("unknown view %q", v)
	}
	if implied != "" && v != implied {
		return fmt.Errorf("view %q listed under %q", v, implied)
	}
	l.View = v
	return nil
}

// present returns a field's raw value, treating JSON null as absent.
func present(fields map[string]json.RawMessage, key string) (json.RawMessage, bool) {
	raw, ok := fields[key]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, false
	}
	return raw, true
}

func decodeString(fields map[string]json.RawMessage, key string, dst *string, optional bool) error {
	raw, ok := present(fields, key)
	if !ok {
		if optional {
			return nil
		}
		return fmt.Errorf("missing %s", key)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%s: %v", key, err)
	}
	return nil
}

func decodeFloat(fields map[string]json.RawMessage, key string, dst *float64, optional bool) error {
	raw, ok := present(fields, key)
	if !ok {
		if optional {
			return nil
		}
		return fmt.Errorf("missing %s", key)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%s: %v", key, err)
	}
	return nil
}

// decodePair reads a nested {a, b} object such as position or size. With
// optional set, missing members keep the values already in dst.
func decodePair(fields map[string]json.RawMessage, key, a, b string, dstA, dstB *float64, optional bool) error {
	raw, ok := present(fields, key)
	if !ok {
		if optional {
			return nil
		}
		return fmt.Errorf("missing %s", key)
	}
	var inner map[string]json.RawMessage
	if err := json.Unmarshal(raw, &inner); err != nil || inner == nil {
		return fmt.Errorf("%s is not an object", key)
	}
	if err := decodeFloat(inner, a, dstA, optional); err != nil {
		return fmt.Errorf("%s.%v", key, err)
	}
	if err := decodeFloat(inner, b, dstB, optional); err != nil {
		return fmt.Errorf("%s.%v", key, err)
	}
	return nil
}

func indexByID(c core.LabelCollection) map[core.LabelID]core.Label {
	idx := make(map[core.LabelID]core.Label, c.Len())
	for _, v := range core.Views {
		for _, l := range c.ForView(v) {
			idx[l.ID] = l
		}
	}
	return idx
}
