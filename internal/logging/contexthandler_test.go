package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextWith(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, ctx, ContextWith(ctx))
	assert.Empty(t, AttrsFrom(ctx))

	ctx = ContextWith(ctx, slog.String("requestId", "req-1"))
	child := ContextWith(ctx, slog.String("session", "abc"))

	assert.Len(t, AttrsFrom(ctx), 1)
	assert.Len(t, AttrsFrom(child), 2)
}

func TestContextHandler_AddsAttrs(t *testing.T) {
	var buf bytes.Buffer
	sessions := 1
	h := NewContextHandler(slog.NewTextHandler(&buf, nil), func() []slog.Attr {
		return []slog.Attr{slog.Int("activeSessions", sessions)}
	})

	assert.Same(t, h, h.WithGroup(""))

	logger := slog.New(h.WithAttrs([]slog.Attr{slog.String("component", "server")}))
	sessions = 2
	ctx := ContextWith(context.Background(), slog.String("requestId", "req-7"))
	logger.InfoContext(ctx, "request handled")

	out := buf.String()
	assert.Contains(t, out, "component=server")
	assert.Contains(t, out, "activeSessions=2")
	assert.Contains(t, out, "requestId=req-7")
}

func TestContextHandler_NilProvider(t *testing.T) {
	var buf bytes.Buffer
	slog.New(NewContextHandler(slog.NewTextHandler(&buf, nil), nil)).Info("plain")
	assert.Contains(t, buf.String(), "plain")
}
