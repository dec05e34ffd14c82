package parser

import (
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gymjs/muscle-selector/internal/drag"
	"github.com/gymjs/muscle-selector/pkg/core"
)

func newTestParser() *Parser {
	return NewParser(slog.Default())
}

func TestNewParser(t *testing.T) {
	require.NotNil(t, NewParser(nil))
}

func TestParsePointer(t *testing.T) {
	p := newTestParser()

	tests := []struct {
		name         string
		input        string
		requireLabel bool
		check        func(t *testing.T, got Pointer)
		wantErr      bool
	}{
		{
			name:         "down with string id",
			input:        `{"labelId":"4","clientX":120.5,"clientY":80}`,
			requireLabel: true,
			check: func(t *testing.T, got Pointer) {
				assert.Equal(t, core.LabelID("4"), got.LabelID)
				assert.Equal(t, 120.5, got.Client.X)
				assert.Equal(t, 80.0, got.Client.Y)
			},
		},
		{
			name:         "down with numeric id",
			input:        `{"labelId":4,"clientX":1,"clientY":2}`,
			requireLabel: true,
			check: func(t *testing.T, got Pointer) {
				assert.Equal(t, core.LabelID("4"), got.LabelID)
			},
		},
		{
			name:  "move without id",
			input: `{"clientX":-5,"clientY":2000}`,
			check: func(t *testing.T, got Pointer) {
				assert.Empty(t, got.LabelID)
				assert.Equal(t, -5.0, got.Client.X)
			},
		},
		{name: "down missing id", input: `{"clientX":1,"clientY":2}`, requireLabel: true, wantErr: true},
		{name: "missing coordinate", input: `{"labelId":"1","clientX":1}`, wantErr: true},
		{name: "overflowing number", input: `{"clientX":1e400,"clientY":1}`, wantErr: true},
		{name: "string coordinate", input: `{"clientX":"1","clientY":1}`, wantErr: true},
		{name: "empty", input: ``, wantErr: true},
		{name: "null", input: `null`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.ParsePointer(json.RawMessage(tt.input), tt.requireLabel)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidPayload)
				return
			}
			require.NoError(t, err)
			tt.check(t, got)
		})
	}
}

func TestParseLabel(t *testing.T) {
	p := newTestParser()

	id, err := p.ParseLabel(json.RawMessage(`{"labelId":12}`))
	require.NoError(t, err)
	assert.Equal(t, core.LabelID("12"), id)

	_, err = p.ParseLabel(json.RawMessage(`{}`))
	assert.ErrorIs(t, err, ErrInvalidPayload)

	_, err = p.ParseLabel(json.RawMessage(`{"labelId":null}`))
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestParseResize(t *testing.T) {
	p := newTestParser()

	tests := []struct {
		input   string
		want    drag.Direction
		wantErr bool
	}{
		{`{"labelId":"1"}`, drag.Grow, false},
		{`{"labelId":"1","direction":"grow"}`, drag.Grow, false},
		{`{"labelId":"1","direction":"Shrink"}`, drag.Shrink, false},
		{`{"labelId":"1","direction":"sideways"}`, 0, true},
		{`{"direction":"grow"}`, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := p.ParseResize(json.RawMessage(tt.input))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidPayload)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Direction)
			assert.Equal(t, core.LabelID("1"), got.LabelID)
		})
	}
}

func TestParseColor(t *testing.T) {
	p := newTestParser()

	got, err := p.ParseColor(json.RawMessage(`{"labelId":"2","color":" accent "}`))
	require.NoError(t, err)
	assert.Equal(t, Color{LabelID: "2", Token: "accent"}, got)

	got, err = p.ParseColor(json.RawMessage(`{"labelId":"2","color":""}`))
	require.NoError(t, err)
	assert.Empty(t, got.Token)

	_, err = p.ParseColor(json.RawMessage(`{"labelId":"2"}`))
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestParseEditMode(t *testing.T) {
	p := newTestParser()

	got, err := p.ParseEditMode(nil)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = p.ParseEditMode(json.RawMessage(`{"enabled":true}`))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, *got)

	got, err = p.ParseEditMode(json.RawMessage(`{}`))
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = p.ParseEditMode(json.RawMessage(`{"enabled":"yes"}`))
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestParseViewport(t *testing.T) {
	p := newTestParser()

	vp, err := p.ParseViewport(json.RawMessage(`{"left":10,"top":20,"baseWidth":400,"baseHeight":600,"zoom":1.25,"deviceScale":0.85}`))
	require.NoError(t, err)
	assert.Equal(t, 10.0, vp.Left)
	assert.Equal(t, 600.0, vp.BaseHeight)
	assert.Equal(t, 1.25, vp.Zoom)
	assert.Equal(t, 0.85, vp.DeviceScale)

	vp, err = p.ParseViewport(json.RawMessage(`{"left":1,"top":2}`))
	require.NoError(t, err)
	assert.Zero(t, vp.Zoom)

	_, err = p.ParseViewport(json.RawMessage(`[]`))
	assert.ErrorIs(t, err, ErrInvalidPayload)
}
