package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// instrumentationName is the scope reported through the OTel bridge and the
// GELF facility.
const instrumentationName = "muscle-selector"

// SlogManager owns the service logger. It writes text records to a log file
// or the console and can mirror them to Graylog and an OTel log provider.
type SlogManager struct {
	logger   *slog.Logger
	provider *sdklog.LoggerProvider

	// console receives records when Setup is given no file.
	console io.Writer
}

// Option adds an extra sink or decorator to Setup.
type Option func(*setupOptions)

type setupOptions struct {
	gelf    io.Writer
	context ContextProvider
}

// WithGELF mirrors every record to a Graylog GELF writer.
func WithGELF(w io.Writer) Option {
	return func(o *setupOptions) {
		o.gelf = w
	}
}

// WithContextProvider injects dynamic attributes into every record.
func WithContextProvider(p ContextProvider) Option {
	return func(o *setupOptions) {
		o.context = p
	}
}

func NewSlogManager() *SlogManager {
	return &SlogManager{console: os.Stdout}
}

// parseLevel accepts the slog level names in any case. Anything else is INFO.
func parseLevel(level string) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

func utcTimestamps(_ []string, a slog.Attr) slog.Attr {
	if a.Key != slog.TimeKey {
		return a
	}
	if t, ok := a.Value.Any().(time.Time); ok {
		a.Value = slog.StringValue(t.UTC().Format(time.RFC3339))
	}
	return a
}

// Setup (re)builds the logger. Records go to file, or to the console when
// file is nil. A nil provider leaves the OTel bridge out.
func (m *SlogManager) Setup(file io.Writer, level string, provider *sdklog.LoggerProvider, opts ...Option) {
	var o setupOptions
	for _, opt := range opts {
		opt(&o)
	}
	m.provider = provider

	textOpts := &slog.HandlerOptions{Level: parseLevel(level), ReplaceAttr: utcTimestamps}
	primary := file
	if primary == nil {
		primary = m.console
	}

	sinks := []slog.Handler{slog.NewTextHandler(primary, textOpts)}
	if o.gelf != nil {
		sinks = append(sinks, slog.NewTextHandler(o.gelf, textOpts))
	}
	if provider != nil {
		sinks = append(sinks, otelslog.NewHandler(instrumentationName, otelslog.WithLoggerProvider(provider)))
	}

	m.logger = slog.New(NewContextHandler(NewMultiHandler(sinks...), o.context))
	m.logger.Info("Logging initialized", "level", level, "sinks", len(sinks))
}

// Logger returns the configured logger, or slog.Default before Setup.
func (m *SlogManager) Logger() *slog.Logger {
	if m.logger == nil {
		return slog.Default()
	}
	return m.logger
}

// Flush pushes buffered OTel records to their exporter.
func (m *SlogManager) Flush(ctx context.Context) error {
	if m.provider == nil {
		return nil
	}
	return m.provider.ForceFlush(ctx)
}

// WriteLog logs data tagged with the calling function name. It is a no-op
// before Setup.
func (m *SlogManager) WriteLog(functionName, data, level string) {
	if m.logger == nil {
		return
	}
	m.logger.Log(context.Background(), parseLevel(level), data, "function", functionName)
}
