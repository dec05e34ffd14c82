// internal/storage/memory/memory.go
package memory

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/gymjs/muscle-selector/internal/config"
	"github.com/gymjs/muscle-selector/internal/storage"
)

// Backend keeps slots in a map and mirrors each write to a JSON file in
// OutputDir when one is configured.
type Backend struct {
	cfg   config.MemoryConfig
	slots map[string][]byte
	mu    sync.RWMutex
}

// New creates a new memory backend
func New(cfg config.MemoryConfig) *Backend {
	return &Backend{
		cfg:   cfg,
		slots: make(map[string][]byte),
	}
}

// Init creates the output directory if one is configured
func (b *Backend) Init() error {
	if b.cfg.OutputDir == "" {
		return nil
	}
	if err := os.MkdirAll(b.cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return nil
}

// Close cleans up resources
func (b *Backend) Close() error {
	return nil
}

// Describe reports where slots are mirrored.
func (b *Backend) Describe() string {
	if b.cfg.OutputDir == "" {
		return "memory"
	}
	return "memory+files:" + b.cfg.OutputDir
}

// Get returns the value for key, reading the mirrored file on a cache miss.
func (b *Backend) Get(key string) ([]byte, error) {
	b.mu.RLock()
	v, ok := b.slots[key]
	b.mu.RUnlock()
	if ok {
		return append([]byte(nil), v...), nil
	}

	if b.cfg.OutputDir == "" {
		return nil, storage.ErrNotFound
	}

	data, err := b.readSlot(key)
	if errors.Is(err, os.ErrNotExist) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	b.slots[key] = data
	b.mu.Unlock()
	return append([]byte(nil), data...), nil
}

// Put stores value under key.
func (b *Backend) Put(key string, value []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.cfg.OutputDir != "" {
		if err := b.writeSlot(key, value); err != nil {
			return err
		}
	}
	b.slots[key] = append([]byte(nil), value...)
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (b *Backend) Delete(key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.slots, key)
	if b.cfg.OutputDir == "" {
		return nil
	}
	if err := os.Remove(b.slotPath(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove slot file: %w", err)
	}
	return nil
}
