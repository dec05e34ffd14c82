package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gymjs/muscle-selector/internal/api"
	"github.com/gymjs/muscle-selector/internal/config"
	"github.com/gymjs/muscle-selector/internal/dispatcher"
	"github.com/gymjs/muscle-selector/internal/drag"
	"github.com/gymjs/muscle-selector/internal/exercises"
	"github.com/gymjs/muscle-selector/internal/handlers"
	"github.com/gymjs/muscle-selector/internal/influx"
	"github.com/gymjs/muscle-selector/internal/labels"
	"github.com/gymjs/muscle-selector/internal/logging"
	"github.com/gymjs/muscle-selector/internal/monitor"
	"github.com/gymjs/muscle-selector/internal/persistence"
	"github.com/gymjs/muscle-selector/internal/profile"
	intSentry "github.com/gymjs/muscle-selector/internal/sentry"
	"github.com/gymjs/muscle-selector/internal/server"
	"github.com/gymjs/muscle-selector/internal/session"
	"github.com/gymjs/muscle-selector/internal/storage"
)

const defaultServerURL = "http://localhost:8080"

// rootCommand builds the CLI. Every subcommand loads the config file and
// sets up logging first.
func rootCommand() *cobra.Command {
	var configDir string

	root := &cobra.Command{
		Use:           ServiceName,
		Short:         "Muscle label editor service",
		Version:       CurrentVersion,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loadErr := config.Load(configDir)
			if err := setupLogging(); err != nil {
				return err
			}
			if loadErr != nil {
				Logger.Warn("Failed to load config, using defaults!", "error", loadErr)
			} else {
				Logger.Info("Loaded config", "dir", configDir)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			shutdownLogging()
		},
	}
	root.PersistentFlags().StringVar(&configDir, "config-dir", ".", "directory containing "+config.FileName)

	root.AddCommand(serveCommand(), layoutCommand(), statusCommand())
	return root
}

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve editor sessions over HTTP and WebSocket",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx)
		},
	}
}

func statusCommand() *cobra.Command {
	var serverURL string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Query a running server's health",
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := api.New(serverURL).Healthcheck()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s, %d active sessions\n", serverURL, h.Status, h.Sessions)
			return nil
		},
	}
	cmd.Flags().StringVar(&serverURL, "server", defaultServerURL, "base URL of the running server")
	return cmd
}

func layoutCommand() *cobra.Command {
	var serverURL string
	push := &cobra.Command{
		Use:   "push <file>",
		Short: "Upload a layout file to a running server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := api.New(serverURL).UploadLayout(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Uploaded %d labels to slot %q\n", result.Labels, result.Key)
			return nil
		},
	}
	push.Flags().StringVar(&serverURL, "server", defaultServerURL, "base URL of the running server")

	layout := &cobra.Command{
		Use:   "layout",
		Short: "Inspect or reset the persisted label layout",
	}
	layout.AddCommand(
		push,
		&cobra.Command{
			Use:   "import <file>",
			Short: "Validate a layout file and write it to the configured storage",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withGateway(func(g *persistence.Gateway) error {
					return importLayout(g, args[0], cmd.OutOrStdout())
				})
			},
		},
		&cobra.Command{
			Use:   "export",
			Short: "Print the persisted layout JSON",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withGateway(func(g *persistence.Gateway) error {
					return exportLayout(g, cmd.OutOrStdout())
				})
			},
		},
		&cobra.Command{
			Use:   "reset",
			Short: "Overwrite the persisted layout with the built-in defaults",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withGateway(func(g *persistence.Gateway) error {
					if err := g.Reset(); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Reset layout slot %q\n", g.Key())
					return nil
				})
			},
		},
	)
	return layout
}

// exportLayout writes the stored slot indented, or the defaults when nothing
// has been saved yet.
func exportLayout(g *persistence.Gateway, w io.Writer) error {
	raw, err := g.Raw()
	if errors.Is(err, storage.ErrNotFound) {
		raw, err = persistence.Encode(g.Defaults())
	}
	if err != nil {
		return fmt.Errorf("failed to read layout: %w", err)
	}
	var out bytes.Buffer
	if err := json.Indent(&out, raw, "", "  "); err != nil {
		return fmt.Errorf("stored layout is not JSON: %w", err)
	}
	out.WriteByte('\n')
	_, err = out.WriteTo(w)
	return err
}

// importLayout validates the file at path and stores it in g's slot.
func importLayout(g *persistence.Gateway, path string, w io.Writer) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read layout file: %w", err)
	}
	layout, err := g.Import(data)
	if err != nil {
		return fmt.Errorf("layout rejected: %w", err)
	}
	fmt.Fprintf(w, "Imported %d labels into slot %q\n", layout.Len(), g.Key())
	return nil
}

// withGateway opens the configured backend for the duration of fn.
func withGateway(fn func(*persistence.Gateway) error) error {
	storageCfg := config.GetStorageConfig()
	backend, err := createStorageBackend(storageCfg)
	if err != nil {
		return err
	}
	if err := backend.Init(); err != nil {
		return fmt.Errorf("failed to initialize storage backend: %w", err)
	}
	defer closeBackend(backend)

	editorCfg := config.GetEditorConfig()
	return fn(persistence.New(backend, layoutConfig(storageCfg, editorCfg), Logger))
}

func runServe(ctx context.Context) error {
	storageCfg := config.GetStorageConfig()
	editorCfg := config.GetEditorConfig()
	serverCfg := config.GetServerConfig()

	backend, err := createStorageBackend(storageCfg)
	if err != nil {
		Logger.Error("Failed to create storage backend", "error", err)
		return err
	}
	if err := backend.Init(); err != nil {
		Logger.Error("Failed to initialize storage backend", "error", err)
		return err
	}
	defer closeBackend(backend)
	if d, ok := backend.(storage.Describer); ok {
		Logger.Info("Storage backend initialized", "type", storageCfg.Type, "location", d.Describe())
	}

	reporter, err := intSentry.Init(config.GetSentryConfig(), Logger)
	if err != nil {
		reporter, _ = intSentry.Init(config.SentryConfig{}, Logger)
	}
	defer reporter.Flush(2 * time.Second)

	recorder, closeRecorder := startRecorder(ctx)
	defer closeRecorder()

	eventDispatcher, err := dispatcher.New(logging.NewDispatcherLogger(Logger))
	if err != nil {
		return fmt.Errorf("failed to create dispatcher: %w", err)
	}
	defer eventDispatcher.Close()

	handlerService = handlers.NewService(handlers.Dependencies{
		Storage:       backend,
		Exercises:     exercises.NewBuiltin(config.GetExerciseCacheTTL()),
		Profiles:      profile.NewService(createProfileStore(backend)),
		Metrics:       recorder,
		Reporter:      reporter,
		LogManager:    SlogManager,
		SessionConfig: sessionConfig(editorCfg),
		Layout:        layoutConfig(storageCfg, editorCfg),
	})
	handlerService.RegisterHandlers(eventDispatcher)
	Logger.Info("Handlers registered with dispatcher", "commands", len(eventDispatcher.Commands()))

	monitorCfg := config.GetMonitorConfig()
	if monitorCfg.Enabled {
		statusMonitor := monitor.NewService(monitor.Dependencies{
			LogManager: SlogManager,
			Service:    handlerService,
			Recorder:   recorder,
			Dir:        monitorCfg.Dir,
			Interval:   monitorCfg.Interval,
		})
		if err := statusMonitor.Start(); err != nil {
			Logger.Warn("Status monitor disabled", "error", err)
		} else {
			defer statusMonitor.Stop()
		}
	}

	srv := server.New(serverCfg, handlerService, eventDispatcher, Logger)
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			Logger.Error("HTTP server failed", "error", err)
		}
		return err
	case <-ctx.Done():
	}

	Logger.Info("Shutting down", "timeout", serverCfg.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), serverCfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		Logger.Error("Graceful shutdown failed", "error", err)
		return err
	}
	Logger.Info("Shutdown complete", "commandsHandled", handlerService.Handled())
	return nil
}

// startRecorder connects to InfluxDB when metrics are enabled. The returned
// recorder is always usable; without a connection it drops every point.
func startRecorder(ctx context.Context) (*influx.Recorder, func()) {
	cfg := config.GetMetricsConfig()
	if !cfg.Enabled {
		return influx.NewRecorder(nil, cfg.FlushInterval, ZLogger), func() {}
	}

	manager := influx.NewManager(ZLogger, cfg)
	if err := manager.Connect(ctx); err != nil {
		Logger.Warn("Interaction metrics disabled", "error", err)
		return influx.NewRecorder(nil, cfg.FlushInterval, ZLogger), func() {}
	}

	recorder := influx.NewRecorder(manager, cfg.FlushInterval, ZLogger)
	recorder.Start()
	return recorder, func() {
		recorder.Close()
		if err := manager.Close(); err != nil {
			Logger.Warn("Failed to close InfluxDB manager", "error", err)
		}
	}
}

func sessionConfig(c config.EditorConfig) session.Config {
	return session.Config{
		Limits: labels.Limits{MinWidth: c.MinWidth, MinHeight: c.MinHeight},
		Steps: drag.Steps{
			Rotation:     c.RotationStep,
			ResizeWidth:  c.ResizeWidthStep,
			ResizeHeight: c.ResizeHeightStep,
		},
		DeviceScale: c.DeviceScale,
	}
}

func layoutConfig(s config.StorageConfig, e config.EditorConfig) persistence.Config {
	return persistence.Config{
		Key:    s.LayoutKey,
		Limits: labels.Limits{MinWidth: e.MinWidth, MinHeight: e.MinHeight},
	}
}
