package main

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/gymjs/muscle-selector/internal/config"
	"github.com/gymjs/muscle-selector/internal/database"
	"github.com/gymjs/muscle-selector/internal/profile"
	"github.com/gymjs/muscle-selector/internal/storage"
	"github.com/gymjs/muscle-selector/internal/storage/memory"
	pgstorage "github.com/gymjs/muscle-selector/internal/storage/postgres"
	sqlitestorage "github.com/gymjs/muscle-selector/internal/storage/sqlite"
)

func createStorageBackend(storageCfg config.StorageConfig) (storage.Backend, error) {
	switch storageCfg.Type {
	case "postgres":
		manager := database.NewManager(config.GetDBConfig(), ZLogger)
		manager.FallbackPath = storageCfg.SQLite.Path
		Logger.Info("Postgres storage backend selected")
		return pgstorage.New(pgstorage.Dependencies{
			Manager:    manager,
			LogManager: SlogManager,
		}), nil

	case "sqlite":
		backend, err := sqlitestorage.New(storageCfg.SQLite, SlogManager)
		if err != nil {
			return nil, fmt.Errorf("failed to create SQLite backend: %w", err)
		}
		Logger.Info("SQLite storage backend selected")
		return backend, nil

	case "memory", "":
		Logger.Info("Memory storage backend selected")
		return memory.New(storageCfg.Memory), nil

	default:
		return nil, fmt.Errorf("unknown storage type %q", storageCfg.Type)
	}
}

// dbBackend is satisfied by the gorm-based backends once initialized.
type dbBackend interface {
	DB() *gorm.DB
}

// createProfileStore keeps profiles next to the layout when the backend is
// a database, and in memory otherwise. Call after backend.Init.
func createProfileStore(backend storage.Backend) profile.Store {
	if b, ok := backend.(dbBackend); ok {
		if db := b.DB(); db != nil {
			return profile.NewGormStore(db)
		}
	}
	return profile.NewMemoryStore()
}

func closeBackend(backend storage.Backend) {
	if err := backend.Close(); err != nil {
		Logger.Warn("Failed to close storage backend", "error", err)
	}
}
