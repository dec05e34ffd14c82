// Package sentry reports persistence and handler failures to Sentry. With no
// DSN configured every call is a no-op.
package sentry

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/gymjs/muscle-selector/internal/config"
)

// Reporter captures errors on its own hub.
type Reporter struct {
	hub    *sentry.Hub
	logger *slog.Logger
}

// Init builds a reporter from the loaded settings.
func Init(cfg config.SentryConfig, logger *slog.Logger) (*Reporter, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.DSN == "" {
		logger.Debug("Sentry DSN not configured - error tracking disabled")
		return &Reporter{logger: logger}, nil
	}
	r, err := New(sentry.ClientOptions{
		Dsn:         cfg.DSN,
		Environment: cfg.Environment,
		Release:     cfg.Release,
		SampleRate:  cfg.SampleRate,
	}, logger)
	if err != nil {
		logger.Error("Failed to initialize Sentry", "error", err)
		return nil, err
	}
	logger.Info("Sentry initialized", "environment", cfg.Environment, "release", cfg.Release)
	return r, nil
}

// New builds a reporter from explicit client options.
func New(opts sentry.ClientOptions, logger *slog.Logger) (*Reporter, error) {
	if logger == nil {
		logger = slog.Default()
	}
	opts.BeforeSend = scrub
	client, err := sentry.NewClient(opts)
	if err != nil {
		return nil, fmt.Errorf("sentry init: %w", err)
	}
	return &Reporter{
		hub:    sentry.NewHub(client, sentry.NewScope()),
		logger: logger,
	}, nil
}

func scrub(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
	if event.Request != nil && event.Request.Headers != nil {
		delete(event.Request.Headers, "Authorization")
		delete(event.Request.Headers, "Cookie")
	}
	return event
}

// Enabled reports whether events are sent anywhere.
func (r *Reporter) Enabled() bool {
	return r != nil && r.hub != nil
}

// CaptureException sends err with the given tags.
func (r *Reporter) CaptureException(err error, tags map[string]string) {
	if err == nil || !r.Enabled() {
		return
	}
	r.hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTags(tags)
		r.hub.CaptureException(err)
	})
	r.logger.Debug("Exception captured in Sentry", "error", err.Error())
}

// Flush waits for queued events to be delivered.
func (r *Reporter) Flush(timeout time.Duration) bool {
	if !r.Enabled() {
		return true
	}
	return r.hub.Flush(timeout)
}
