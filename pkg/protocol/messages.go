package protocol

import (
	"encoding/json"
)

// Command type constants for editor events.
const (
	TypePointerDown    = "pointer_down"
	TypePointerMove    = "pointer_move"
	TypePointerUp      = "pointer_up"
	TypePointerLeave   = "pointer_leave"
	TypeClick          = "click"
	TypeRotate         = "rotate"
	TypeResize         = "resize"
	TypeSetColor       = "set_color"
	TypeToggleView     = "toggle_view"
	TypeSetEditMode    = "set_edit_mode"
	TypeClearSelection = "clear_selection"
	TypeSetViewport    = "set_viewport"
	TypeSave           = "save"
	TypeResetLayout    = "reset_layout"
)

// Commands lists every command type the server understands.
var Commands = []string{
	TypePointerDown, TypePointerMove, TypePointerUp, TypePointerLeave,
	TypeClick, TypeRotate, TypeResize, TypeSetColor,
	TypeToggleView, TypeSetEditMode, TypeClearSelection, TypeSetViewport,
	TypeSave, TypeResetLayout,
}

// TypePing is answered with an ack on the WebSocket stream without touching
// the session.
const TypePing = "ping"

// Reply types sent back to the client.
const (
	ReplyState = "state"
	ReplyError = "error"
	ReplyAck   = "ack"
)

// Envelope wraps all messages sent by the client.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Reply is the server's response to one envelope.
type Reply struct {
	Type  string `json:"type"`
	For   string `json:"for,omitempty"` // the command being answered
	State any    `json:"state,omitempty"`
	Error string `json:"error,omitempty"`
}

// PointerPayload carries a pointer position in client pixels. LabelID is
// only read by pointer_down.
type PointerPayload struct {
	LabelID string  `json:"labelId,omitempty"`
	ClientX float64 `json:"clientX"`
	ClientY float64 `json:"clientY"`
}

// LabelPayload targets a single label.
type LabelPayload struct {
	LabelID string `json:"labelId"`
}

// Resize directions.
const (
	DirectionGrow   = "grow"
	DirectionShrink = "shrink"
)

// ResizePayload grows or shrinks a label by one step.
type ResizePayload struct {
	LabelID   string `json:"labelId"`
	Direction string `json:"direction"`
}

// ColorPayload sets a label's theme color token. An empty token clears it.
type ColorPayload struct {
	LabelID string `json:"labelId"`
	Color   string `json:"color"`
}

// EditModePayload sets edit mode. A missing value toggles it.
type EditModePayload struct {
	Enabled *bool `json:"enabled,omitempty"`
}

// ViewportPayload describes the label container as laid out by the client.
type ViewportPayload struct {
	Left        float64 `json:"left"`
	Top         float64 `json:"top"`
	BaseWidth   float64 `json:"baseWidth"`
	BaseHeight  float64 `json:"baseHeight"`
	Zoom        float64 `json:"zoom"`
	DeviceScale float64 `json:"deviceScale"`
}
