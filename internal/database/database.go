// Package database opens the gorm connection shared by the layout and
// profile tables. Postgres is preferred; when it cannot be reached the
// manager falls back to a local SQLite file.
package database

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/gymjs/muscle-selector/internal/config"
	"github.com/gymjs/muscle-selector/internal/model"
)

// SchemaVersion is the table layout this build reads and writes.
const SchemaVersion = 1

// ErrSchemaTooNew is returned by Migrate when the database was created by a
// newer build.
var ErrSchemaTooNew = errors.New("database schema is newer than this build")

// memoryDSN is a process-wide shared in-memory database.
const memoryDSN = "file::memory:?cache=shared"

// Manager owns the connection and tracks whether it fell back to SQLite.
type Manager struct {
	DB *gorm.DB

	// FallbackPath is the SQLite file used when Postgres is unreachable.
	// Empty means an in-memory database.
	FallbackPath string
	// Fallback is set once the manager is running on SQLite.
	Fallback bool

	cfg config.DBConfig
	log zerolog.Logger
}

// NewManager creates a manager for cfg. Nothing is opened until Connect.
func NewManager(cfg config.DBConfig, log zerolog.Logger) *Manager {
	return &Manager{cfg: cfg, log: log}
}

// Connect opens Postgres and pings it within the configured timeout. Any
// failure switches to SQLite at FallbackPath.
func (m *Manager) Connect() error {
	err := m.connectPostgres()
	if err == nil {
		m.log.Info().Str("host", m.cfg.Host).Str("database", m.cfg.Database).Msg("Connected to Postgres")
		return nil
	}
	m.log.Error().Err(err).Msg("Postgres unavailable, falling back to SQLite")

	db, err := OpenSQLite(m.FallbackPath)
	if err != nil {
		return fmt.Errorf("failed to open fallback SQLite DB: %w", err)
	}
	m.DB = db
	m.Fallback = true
	if m.FallbackPath != "" {
		m.log.Info().Str("path", m.FallbackPath).Msg("Using local SQLite DB")
	} else {
		m.log.Warn().Msg("Using in-memory SQLite DB, layouts will not survive a restart")
	}
	return nil
}

func (m *Manager) connectPostgres() error {
	db, err := OpenPostgres(m.cfg)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to access sql interface: %w", err)
	}

	timeout := m.cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return fmt.Errorf("ping failed: %w", err)
	}

	if m.cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(m.cfg.MaxOpenConns)
	}
	m.DB = db
	return nil
}

// Setup migrates the schema on the open connection.
func (m *Manager) Setup() error {
	if m.DB == nil {
		return fmt.Errorf("database not connected")
	}
	start := time.Now()
	if err := Migrate(m.DB); err != nil {
		return err
	}
	m.log.Info().Dur("took", time.Since(start)).Bool("fallback", m.Fallback).Msg("Database schema ready")
	return nil
}

// Close releases the connection pool.
func (m *Manager) Close() error {
	if m.DB == nil {
		return nil
	}
	sqlDB, err := m.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Migrate creates the service tables and stamps service_infos with
// SchemaVersion. Databases stamped by a newer build are refused.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(model.DatabaseModels...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	var info model.ServiceInfo
	err := db.Order("id").Limit(1).Find(&info).Error
	if err != nil {
		return fmt.Errorf("failed to read service_infos: %w", err)
	}
	switch {
	case info.ID == 0:
		if err := db.Create(&model.ServiceInfo{SchemaVersion: SchemaVersion}).Error; err != nil {
			return fmt.Errorf("failed to create service_infos entry: %w", err)
		}
	case info.SchemaVersion > SchemaVersion:
		return fmt.Errorf("%w: found %d, support %d", ErrSchemaTooNew, info.SchemaVersion, SchemaVersion)
	case info.SchemaVersion < SchemaVersion:
		if err := db.Model(&info).Update("schema_version", SchemaVersion).Error; err != nil {
			return fmt.Errorf("failed to update schema version: %w", err)
		}
	}
	return nil
}

// DSN builds the Postgres connection string.
func DSN(cfg config.DBConfig) string {
	return fmt.Sprintf(`host=%s port=%s user=%s password=%s dbname=%s sslmode=%s`,
		cfg.Host, cfg.Port, cfg.Username, cfg.Password, cfg.Database, cfg.SSLMode)
}

// OpenPostgres opens a gorm handle on cfg. The connection is lazy; callers
// ping it themselves.
func OpenPostgres(cfg config.DBConfig) (*gorm.DB, error) {
	return gorm.Open(postgres.New(postgres.Config{
		DSN:                  DSN(cfg),
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
}

// OpenSQLite opens a SQLite database at path, or the shared in-memory
// database when path is empty.
func OpenSQLite(path string) (*gorm.DB, error) {
	dsn := path
	if dsn == "" {
		dsn = memoryDSN
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		PrepareStmt:            true,
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode = MEMORY;",
		"PRAGMA synchronous = OFF;",
		"PRAGMA temp_store = MEMORY;",
	} {
		if err := db.Exec(pragma).Error; err != nil {
			return nil, fmt.Errorf("error setting %q: %w", pragma, err)
		}
	}
	return db, nil
}

// DumpToFile snapshots db into a fresh SQLite file at path with VACUUM INTO.
func DumpToFile(db *gorm.DB, path string) error {
	if path == "" {
		return fmt.Errorf("sqlite dump path not set")
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("error removing previous dump: %w", err)
	}
	target := "file:" + strings.ReplaceAll(path, "'", "''")
	if err := db.Exec("VACUUM INTO '" + target + "';").Error; err != nil {
		return fmt.Errorf("error dumping DB to %s: %w", path, err)
	}
	return nil
}
