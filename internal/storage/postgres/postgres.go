// Package postgres implements the storage.Backend interface on PostgreSQL.
// Connection and schema handling go through database.Manager so a Postgres
// outage falls back to a local SQLite file.
package postgres

import (
	"fmt"

	"github.com/gymjs/muscle-selector/internal/database"
	"github.com/gymjs/muscle-selector/internal/logging"
	gormstorage "github.com/gymjs/muscle-selector/internal/storage/gorm"
)

// Dependencies holds all dependencies for the Postgres storage backend.
type Dependencies struct {
	Manager    *database.Manager
	LogManager *logging.SlogManager
}

// Backend wraps the GORM backend with connection management.
type Backend struct {
	*gormstorage.Backend
	deps Dependencies
}

// New creates a new Postgres storage backend. The connection is opened in Init.
func New(deps Dependencies) *Backend {
	return &Backend{deps: deps}
}

// Init connects (falling back to SQLite if Postgres is unreachable),
// migrates and readies the embedded GORM backend.
func (b *Backend) Init() error {
	m := b.deps.Manager
	if m == nil {
		return fmt.Errorf("postgres backend has no database manager")
	}
	if m.DB == nil {
		if err := m.Connect(); err != nil {
			return fmt.Errorf("failed to connect: %w", err)
		}
	}
	if err := m.Setup(); err != nil {
		return err
	}

	b.Backend = gormstorage.New(gormstorage.Dependencies{
		DB:         m.DB,
		LogManager: b.deps.LogManager,
	})
	return b.Backend.Init()
}

// Close closes the embedded GORM backend.
func (b *Backend) Close() error {
	if b.Backend == nil {
		return nil
	}
	return b.Backend.Close()
}

// Describe reports whether the backend runs on Postgres or the local fallback.
func (b *Backend) Describe() string {
	if b.deps.Manager != nil && b.deps.Manager.Fallback {
		return "postgres(fallback sqlite)"
	}
	return "postgres"
}

// Get delegates to the embedded GORM backend.
func (b *Backend) Get(key string) ([]byte, error) {
	if b.Backend == nil {
		return nil, fmt.Errorf("database not ready")
	}
	return b.Backend.Get(key)
}

// Put delegates to the embedded GORM backend.
func (b *Backend) Put(key string, value []byte) error {
	if b.Backend == nil {
		return fmt.Errorf("database not ready")
	}
	return b.Backend.Put(key, value)
}

// Delete delegates to the embedded GORM backend.
func (b *Backend) Delete(key string) error {
	if b.Backend == nil {
		return fmt.Errorf("database not ready")
	}
	return b.Backend.Delete(key)
}
