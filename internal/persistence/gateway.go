// Package persistence saves and restores label layouts through a storage
// backend slot.
package persistence

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gymjs/muscle-selector/internal/labels"
	"github.com/gymjs/muscle-selector/internal/storage"
	"github.com/gymjs/muscle-selector/pkg/core"
)

// DefaultKey is the slot used when none is configured.
const DefaultKey = "muscle-labels-layout"

// Config holds gateway settings.
type Config struct {
	Key      string
	Limits   labels.Limits
	Defaults func() core.LabelCollection
}

// Gateway reads and writes one layout slot.
type Gateway struct {
	backend  storage.Backend
	key      string
	limits   labels.Limits
	defaults func() core.LabelCollection
	logger   *slog.Logger
}

// New creates a gateway over backend. Empty config fields fall back to the
// built-in key, limits and default layout.
func New(backend storage.Backend, cfg Config, logger *slog.Logger) *Gateway {
	if cfg.Key == "" {
		cfg.Key = DefaultKey
	}
	if cfg.Defaults == nil {
		cfg.Defaults = labels.Defaults
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		backend:  backend,
		key:      cfg.Key,
		limits:   cfg.Limits,
		defaults: cfg.Defaults,
		logger:   logger,
	}
}

// Key returns the slot name.
func (g *Gateway) Key() string {
	return g.key
}

// Defaults returns a fresh copy of the built-in layout.
func (g *Gateway) Defaults() core.LabelCollection {
	return g.defaults().Clone()
}

// Save serializes c into the slot. Errors are returned as-is; there is no retry.
func (g *Gateway) Save(c core.LabelCollection) error {
	data, err := Encode(c)
	if err != nil {
		return fmt.Errorf("failed to encode layout: %w", err)
	}
	if err := g.backend.Put(g.key, data); err != nil {
		return fmt.Errorf("failed to save layout: %w", err)
	}
	return nil
}

// Load returns the stored layout, or the defaults when the slot is absent,
// unreadable or malformed. The bool reports whether the stored layout was used.
func (g *Gateway) Load() (core.LabelCollection, bool) {
	data, err := g.backend.Get(g.key)
	if errors.Is(err, storage.ErrNotFound) {
		return g.Defaults(), false
	}
	if err != nil {
		g.logger.Warn("Failed to read stored layout, using defaults", "key", g.key, "error", err)
		return g.Defaults(), false
	}

	c, err := Decode(data, g.defaults(), g.limits)
	if err != nil {
		if !errors.Is(err, ErrEmpty) {
			g.logger.Warn("Discarding stored layout, using defaults", "key", g.key, "error", err)
		}
		return g.Defaults(), false
	}
	return c, true
}

// Raw returns the slot's bytes unparsed.
func (g *Gateway) Raw() ([]byte, error) {
	return g.backend.Get(g.key)
}

// Reset overwrites the slot with the defaults.
func (g *Gateway) Reset() error {
	return g.Save(g.Defaults())
}

// Import validates data against the layout schema and saves the result. The
// slot is untouched when data is rejected.
func (g *Gateway) Import(data []byte) (core.LabelCollection, error) {
	c, err := Decode(data, g.defaults(), g.limits)
	if err != nil {
		return core.LabelCollection{}, err
	}
	if err := g.Save(c); err != nil {
		return core.LabelCollection{}, err
	}
	return c, nil
}
