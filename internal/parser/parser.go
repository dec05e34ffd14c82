package parser

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	geom "github.com/peterstace/simplefeatures/geom"

	"github.com/gymjs/muscle-selector/internal/coords"
	"github.com/gymjs/muscle-selector/internal/drag"
	"github.com/gymjs/muscle-selector/internal/util"
	"github.com/gymjs/muscle-selector/pkg/core"
	"github.com/gymjs/muscle-selector/pkg/protocol"
)

// ErrInvalidPayload wraps every payload the parser rejects.
var ErrInvalidPayload = errors.New("invalid payload")

// Pointer is a parsed pointer event.
type Pointer struct {
	LabelID core.LabelID
	Client  geom.XY
}

// Resize is a parsed resize command.
type Resize struct {
	LabelID   core.LabelID
	Direction drag.Direction
}

// Color is a parsed set_color command.
type Color struct {
	LabelID core.LabelID
	Token   string
}

// Parser provides pure JSON payload -> typed command conversion.
// It has zero external dependencies beyond a logger.
type Parser struct {
	logger *slog.Logger
}

// NewParser creates a new parser with only a logger dependency
func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{logger: logger}
}

// ParsePointer parses pointer_down/move/up payloads. requireLabel is set for
// pointer_down, which must name the label being grabbed.
func (p *Parser) ParsePointer(raw json.RawMessage, requireLabel bool) (Pointer, error) {
	var in struct {
		LabelID *core.LabelID `json:"labelId"`
		ClientX *float64      `json:"clientX"`
		ClientY *float64      `json:"clientY"`
	}
	if err := decode(raw, &in); err != nil {
		return Pointer{}, err
	}
	if in.ClientX == nil || in.ClientY == nil {
		return Pointer{}, invalid("clientX and clientY are required")
	}
	if !util.IsFinite(*in.ClientX) || !util.IsFinite(*in.ClientY) {
		return Pointer{}, invalid("pointer coordinates must be finite")
	}
	out := Pointer{Client: geom.XY{X: *in.ClientX, Y: *in.ClientY}}
	if in.LabelID != nil {
		out.LabelID = *in.LabelID
	}
	if requireLabel && out.LabelID == "" {
		return Pointer{}, invalid("labelId is required")
	}
	return out, nil
}

// ParseLabel parses payloads that only target a label.
func (p *Parser) ParseLabel(raw json.RawMessage) (core.LabelID, error) {
	var in struct {
		LabelID *core.LabelID `json:"labelId"`
	}
	if err := decode(raw, &in); err != nil {
		return "", err
	}
	if in.LabelID == nil {
		return "", invalid("labelId is required")
	}
	return *in.LabelID, nil
}

// ParseResize parses a resize payload. Direction defaults to grow.
func (p *Parser) ParseResize(raw json.RawMessage) (Resize, error) {
	var in struct {
		LabelID   *core.LabelID `json:"labelId"`
		Direction string        `json:"direction"`
	}
	if err := decode(raw, &in); err != nil {
		return Resize{}, err
	}
	if in.LabelID == nil {
		return Resize{}, invalid("labelId is required")
	}
	out := Resize{LabelID: *in.LabelID}
	switch strings.ToLower(strings.TrimSpace(in.Direction)) {
	case "", protocol.DirectionGrow:
		out.Direction = drag.Grow
	case protocol.DirectionShrink:
		out.Direction = drag.Shrink
	default:
		return Resize{}, invalid(fmt.Sprintf("unknown resize direction %q", in.Direction))
	}
	return out, nil
}

// ParseColor parses a set_color payload.
func (p *Parser) ParseColor(raw json.RawMessage) (Color, error) {
	var in struct {
		LabelID *core.LabelID `json:"labelId"`
		Color   *string       `json:"color"`
	}
	if err := decode(raw, &in); err != nil {
		return Color{}, err
	}
	if in.LabelID == nil || in.Color == nil {
		return Color{}, invalid("labelId and color are required")
	}
	return Color{LabelID: *in.LabelID, Token: strings.TrimSpace(*in.Color)}, nil
}

// ParseEditMode returns the requested edit mode, or nil to toggle.
func (p *Parser) ParseEditMode(raw json.RawMessage) (*bool, error) {
	if isEmpty(raw) {
		return nil, nil
	}
	var in protocol.EditModePayload
	if err := decode(raw, &in); err != nil {
		return nil, err
	}
	return in.Enabled, nil
}

// ParseViewport parses a set_viewport payload. Base size, zoom and device
// scale may be left out; coords treats them as unknown.
func (p *Parser) ParseViewport(raw json.RawMessage) (coords.Viewport, error) {
	var in protocol.ViewportPayload
	if err := decode(raw, &in); err != nil {
		return coords.Viewport{}, err
	}
	for _, v := range []float64{in.Left, in.Top, in.BaseWidth, in.BaseHeight, in.Zoom, in.DeviceScale} {
		if !util.IsFinite(v) {
			return coords.Viewport{}, invalid("viewport values must be finite")
		}
	}
	if in.BaseWidth < 0 || in.BaseHeight < 0 || in.Zoom < 0 || in.DeviceScale < 0 {
		p.logger.Debug("Negative viewport dimension, treating as unknown", "viewport", in)
	}
	return coords.Viewport{
		Left:        in.Left,
		Top:         in.Top,
		BaseWidth:   in.BaseWidth,
		BaseHeight:  in.BaseHeight,
		Zoom:        in.Zoom,
		DeviceScale: in.DeviceScale,
	}, nil
}

func decode(raw json.RawMessage, v any) error {
	if isEmpty(raw) {
		return invalid("payload is required")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	return nil
}

func isEmpty(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidPayload, msg)
}
