package sqlitestorage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gymjs/muscle-selector/internal/config"
	"github.com/gymjs/muscle-selector/internal/logging"
	"github.com/gymjs/muscle-selector/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Compile-time interface check
var (
	_ storage.Backend   = (*Backend)(nil)
	_ storage.Describer = (*Backend)(nil)
)

func TestFileBackend_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layouts.db")
	b, err := New(config.SQLiteConfig{Path: path}, logging.NewSlogManager())
	require.NoError(t, err)
	require.NoError(t, b.Init())

	require.NoError(t, b.Put("layout", []byte(`{"version":1}`)))
	require.NoError(t, b.Close())

	// reopen and read what was written
	reopened, err := New(config.SQLiteConfig{Path: path}, logging.NewSlogManager())
	require.NoError(t, err)
	require.NoError(t, reopened.Init())
	defer reopened.Close()

	got, err := reopened.Get("layout")
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":1}`, string(got))
	assert.Equal(t, "sqlite:"+path, reopened.Describe())
}

func TestMemoryBackend_DumpsOnClose(t *testing.T) {
	dump := filepath.Join(t.TempDir(), "dump.db")
	b, err := New(config.SQLiteConfig{DumpPath: dump, DumpInterval: time.Hour}, nil)
	require.NoError(t, err)
	require.NoError(t, b.Init())

	require.NoError(t, b.Put("layout", []byte(`[]`)))
	require.NoError(t, b.Close())

	_, err = os.Stat(dump)
	assert.NoError(t, err)
}

func TestMemoryBackend_PeriodicSnapshot(t *testing.T) {
	dump := filepath.Join(t.TempDir(), "periodic.db")
	b, err := New(config.SQLiteConfig{DumpPath: dump, DumpInterval: 20 * time.Millisecond}, nil)
	require.NoError(t, err)
	require.NoError(t, b.Init())
	defer b.Close()

	require.NoError(t, b.Put("layout", []byte(`[]`)))
	assert.Eventually(t, func() bool {
		_, err := os.Stat(dump)
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "sqlite:memory->"+dump, b.Describe())
}

func TestClose_WithoutInitAndTwice(t *testing.T) {
	b, err := New(config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "x.db")}, nil)
	require.NoError(t, err)

	assert.NoError(t, b.Close())
	assert.NoError(t, b.Close())
}
