package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/rs/zerolog"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"github.com/gymjs/muscle-selector/internal/config"
	"github.com/gymjs/muscle-selector/internal/handlers"
	"github.com/gymjs/muscle-selector/internal/logging"
	intOtel "github.com/gymjs/muscle-selector/internal/otel"
)

// module defs - BuildDate can be set at build time via ldflags
var (
	CurrentVersion string = "0.0.1"
	BuildDate      string = "unknown"

	ServiceName string = "muscle_selector"
)

// global variables
var (
	// SlogManager handles all slog-based logging
	SlogManager *logging.SlogManager = logging.NewSlogManager()

	// Logger is the slog logger (convenience reference)
	Logger *slog.Logger = slog.Default()

	// ZLogger feeds the database and metrics managers
	ZLogger zerolog.Logger = zerolog.Nop()

	// OTelProvider handles OpenTelemetry
	OTelProvider *intOtel.Provider

	LogFilePath string
	LogFile     *os.File

	SessionStartTime time.Time = time.Now()

	// handlerService is set by serve and read by the log context provider
	handlerService *handlers.Service
)

func main() {
	if err := rootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

// setupLogging opens the session log file and wires console, file, OTel
// and GELF sinks.
func setupLogging() error {
	logCfg := config.GetLoggingConfig()
	if err := os.MkdirAll(logCfg.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create logs directory: %w", err)
	}

	LogFilePath = logging.LogFilePath(logCfg.Dir, ServiceName, SessionStartTime)
	if _, err := os.Stat(LogFilePath); err == nil {
		_ = os.Rename(LogFilePath, LogFilePath+".old")
	}
	var err error
	LogFile, err = os.OpenFile(LogFilePath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", LogFilePath, err)
	}

	otelCfg := config.GetOTelConfig()
	if otelCfg.Enabled {
		OTelProvider, err = intOtel.New(intOtel.FromConfig(otelCfg, CurrentVersion, LogFile))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to initialize OTel provider: %v\n", err)
		}
	}
	var otelLogProvider *sdklog.LoggerProvider
	if OTelProvider != nil {
		otelLogProvider = OTelProvider.LoggerProvider()
	}

	opts := []logging.Option{logging.WithContextProvider(runtimeAttrs)}
	var gelfErr error
	if logCfg.GraylogEnabled {
		w, err := logging.NewGELFWriter(logCfg.GraylogAddress)
		if err != nil {
			gelfErr = err
		} else {
			opts = append(opts, logging.WithGELF(w))
		}
	}

	SlogManager.Setup(LogFile, logCfg.Level, otelLogProvider, opts...)
	Logger = SlogManager.Logger()
	slog.SetDefault(Logger)
	ZLogger = newZeroLogger(LogFile, logCfg.Level)

	Logger.Info("Logging to file", "path", LogFilePath, "version", CurrentVersion, "buildDate", BuildDate)
	if gelfErr != nil {
		Logger.Warn("Graylog shipping disabled", "address", logCfg.GraylogAddress, "error", gelfErr)
	}
	return nil
}

// newZeroLogger writes console format to stdout and, without colors, to the
// log file.
func newZeroLogger(file *os.File, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.TimestampFunc = func() time.Time {
		return time.Now().UTC()
	}

	mlw := zerolog.MultiLevelWriter(
		zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		},
		zerolog.ConsoleWriter{
			Out:        file,
			TimeFormat: time.RFC3339,
			NoColor:    true,
		},
	)

	return zerolog.New(mlw).Level(lvl).With().Timestamp().Logger().
		Hook(zerolog.HookFunc(func(e *zerolog.Event, level zerolog.Level, msg string) {
			if handlerService != nil {
				e.Int("activeSessions", handlerService.Sessions().Len())
			}
		}))
}

// runtimeAttrs decorates every slog record with live service state.
func runtimeAttrs() []slog.Attr {
	if handlerService == nil {
		return nil
	}
	return []slog.Attr{slog.Int("activeSessions", handlerService.Sessions().Len())}
}

// shutdownLogging flushes the OTel pipeline and closes the log file.
func shutdownLogging() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := SlogManager.Flush(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to flush logs: %v\n", err)
	}
	if OTelProvider != nil {
		if err := OTelProvider.Shutdown(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to shut down OTel provider: %v\n", err)
		}
	}
	if LogFile != nil {
		_ = LogFile.Close()
	}
}
