// Package gormstorage implements the storage.Backend interface on top of any
// GORM dialect. The sqlite and postgres backends embed it.
package gormstorage

import (
	"errors"
	"fmt"
	"time"

	"github.com/gymjs/muscle-selector/internal/database"
	"github.com/gymjs/muscle-selector/internal/logging"
	"github.com/gymjs/muscle-selector/internal/model"
	"github.com/gymjs/muscle-selector/internal/storage"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Dependencies holds all dependencies for the GORM storage backend.
type Dependencies struct {
	DB         *gorm.DB
	LogManager *logging.SlogManager
}

// Backend stores each slot as a row in layout_slots.
type Backend struct {
	deps    Dependencies
	dbReady bool
}

// New creates a new GORM storage backend.
func New(deps Dependencies) *Backend {
	return &Backend{
		deps: deps,
	}
}

// Init migrates the schema.
func (b *Backend) Init() error {
	if b.deps.DB == nil {
		return fmt.Errorf("gorm backend has no database")
	}
	if err := database.Migrate(b.deps.DB); err != nil {
		return err
	}
	b.dbReady = true
	return nil
}

// Close releases the connection pool.
func (b *Backend) Close() error {
	if b.deps.DB == nil {
		return nil
	}
	b.dbReady = false
	sqlDB, err := b.deps.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// DB exposes the underlying connection for stores sharing it.
func (b *Backend) DB() *gorm.DB {
	return b.deps.DB
}

// Describe reports the dialect in use.
func (b *Backend) Describe() string {
	if b.deps.DB == nil {
		return "gorm"
	}
	return "gorm:" + b.deps.DB.Dialector.Name()
}

// Get returns the stored value for key.
func (b *Backend) Get(key string) ([]byte, error) {
	if !b.dbReady {
		return nil, fmt.Errorf("database not ready")
	}
	var slot model.LayoutSlot
	err := b.deps.DB.Where("slot_key = ?", key).First(&slot).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read slot %q: %w", key, err)
	}
	return []byte(slot.Value), nil
}

// Put upserts key.
func (b *Backend) Put(key string, value []byte) error {
	if !b.dbReady {
		return fmt.Errorf("database not ready")
	}
	slot := model.LayoutSlot{
		Key:       key,
		Value:     datatypes.JSON(append([]byte(nil), value...)),
		Size:      len(value),
		UpdatedAt: time.Now().UTC(),
	}
	err := b.deps.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "slot_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "size", "updated_at"}),
	}).Create(&slot).Error
	if err != nil {
		b.log("gorm:Put", fmt.Sprintf("Error writing slot %q: %v", key, err), "ERROR")
		return fmt.Errorf("failed to write slot %q: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (b *Backend) Delete(key string) error {
	if !b.dbReady {
		return fmt.Errorf("database not ready")
	}
	if err := b.deps.DB.Where("slot_key = ?", key).Delete(&model.LayoutSlot{}).Error; err != nil {
		return fmt.Errorf("failed to delete slot %q: %w", key, err)
	}
	return nil
}

func (b *Backend) log(functionName, data, level string) {
	if b.deps.LogManager != nil {
		b.deps.LogManager.WriteLog(functionName, data, level)
	}
}
