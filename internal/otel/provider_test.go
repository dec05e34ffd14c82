package otel

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	otellog "go.opentelemetry.io/otel/log"

	"github.com/gymjs/muscle-selector/internal/config"
)

func TestNew_Disabled(t *testing.T) {
	p, err := New(Config{LogWriter: &bytes.Buffer{}})
	require.NoError(t, err)

	assert.Nil(t, p.LoggerProvider())
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestNew_EnabledWithoutSink(t *testing.T) {
	_, err := New(Config{Enabled: true, ServiceName: "muscle-selector"})
	assert.ErrorIs(t, err, ErrNoSink)
}

func TestNew_WritesToLogWriter(t *testing.T) {
	var buf bytes.Buffer
	p, err := New(Config{
		Enabled:        true,
		ServiceName:    "muscle-selector",
		ServiceVersion: "1.2.3",
		LogWriter:      &buf,
		ExportTimeout:  time.Second,
	})
	require.NoError(t, err)
	require.NotNil(t, p.LoggerProvider())

	var rec otellog.Record
	rec.SetBody(otellog.StringValue("layout saved"))
	p.LoggerProvider().Logger("test").Emit(context.Background(), rec)

	// shutdown drains the batch processor
	require.NoError(t, p.Shutdown(context.Background()))
	assert.Contains(t, buf.String(), "layout saved")
}

func TestFromConfig(t *testing.T) {
	var buf bytes.Buffer
	cfg := FromConfig(config.OTelConfig{
		Enabled:      true,
		ServiceName:  "svc",
		BatchTimeout: 2 * time.Second,
		Endpoint:     "collector:4318",
		Insecure:     true,
	}, "dev", &buf)

	assert.Equal(t, Config{
		Enabled:        true,
		ServiceName:    "svc",
		ServiceVersion: "dev",
		ExportTimeout:  2 * time.Second,
		LogWriter:      &buf,
		Endpoint:       "collector:4318",
		Insecure:       true,
	}, cfg)
}
