package postgres

import (
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/gymjs/muscle-selector/internal/config"
	"github.com/gymjs/muscle-selector/internal/database"
	"github.com/gymjs/muscle-selector/internal/logging"
	"github.com/gymjs/muscle-selector/internal/storage"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// Compile-time interface check
var _ storage.Backend = (*Backend)(nil)

func TestInit_NoManager(t *testing.T) {
	b := New(Dependencies{})
	assert.Error(t, b.Init())
	assert.NoError(t, b.Close())
}

func TestNotReady(t *testing.T) {
	b := New(Dependencies{})
	_, err := b.Get("k")
	assert.Error(t, err)
	assert.Error(t, b.Put("k", nil))
	assert.Error(t, b.Delete("k"))
}

func TestInit_WithInjectedDB(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "pg.db")), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	m := database.NewManager(config.DBConfig{}, zerolog.Nop())
	m.DB = db

	b := New(Dependencies{Manager: m, LogManager: logging.NewSlogManager()})
	require.NoError(t, b.Init())
	defer b.Close()

	require.NoError(t, b.Put("layout", []byte(`{"front":[],"back":[]}`)))
	got, err := b.Get("layout")
	require.NoError(t, err)
	assert.JSONEq(t, `{"front":[],"back":[]}`, string(got))
	assert.Equal(t, "postgres", b.Describe())

	m.Fallback = true
	assert.Equal(t, "postgres(fallback sqlite)", b.Describe())
}
