package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gymjs/muscle-selector/internal/config"
	"github.com/gymjs/muscle-selector/internal/persistence"
	"github.com/gymjs/muscle-selector/internal/profile"
	"github.com/gymjs/muscle-selector/internal/storage/memory"
	sqlitestorage "github.com/gymjs/muscle-selector/internal/storage/sqlite"
)

func TestCreateStorageBackend(t *testing.T) {
	backend, err := createStorageBackend(config.StorageConfig{Type: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &memory.Backend{}, backend)

	backend, err = createStorageBackend(config.StorageConfig{Type: ""})
	require.NoError(t, err)
	assert.IsType(t, &memory.Backend{}, backend)

	_, err = createStorageBackend(config.StorageConfig{Type: "redis"})
	assert.ErrorContains(t, err, "unknown storage type")
}

func TestCreateProfileStore(t *testing.T) {
	assert.IsType(t, &profile.MemoryStore{}, createProfileStore(memory.New(config.MemoryConfig{})))

	backend, err := createStorageBackend(config.StorageConfig{
		Type:   "sqlite",
		SQLite: config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "layouts.db")},
	})
	require.NoError(t, err)
	require.IsType(t, &sqlitestorage.Backend{}, backend)
	require.NoError(t, backend.Init())
	defer closeBackend(backend)

	assert.IsType(t, &profile.GormStore{}, createProfileStore(backend))
}

func TestExportLayout(t *testing.T) {
	g := persistence.New(memory.New(config.MemoryConfig{}), persistence.Config{}, nil)

	var out bytes.Buffer
	require.NoError(t, exportLayout(g, &out))
	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(out.Bytes(), &doc))
	assert.Contains(t, doc, "front")
	assert.Contains(t, doc, "back")

	layout := g.Defaults()
	layout.Front[0].Rotation = 45
	require.NoError(t, g.Save(layout))

	out.Reset()
	require.NoError(t, exportLayout(g, &out))
	assert.Contains(t, out.String(), `"rotation": 45`)
}

func TestSessionConfig(t *testing.T) {
	t.Cleanup(viper.Reset)
	config.SetDefaults()

	cfg := sessionConfig(config.GetEditorConfig())
	assert.Equal(t, 30.0, cfg.Limits.MinWidth)
	assert.Equal(t, 18.0, cfg.Limits.MinHeight)
	assert.Equal(t, 15.0, cfg.Steps.Rotation)
	assert.Equal(t, 10.0, cfg.Steps.ResizeWidth)
	assert.Equal(t, 5.0, cfg.Steps.ResizeHeight)
	assert.Equal(t, 1.0, cfg.DeviceScale)

	layout := layoutConfig(config.GetStorageConfig(), config.GetEditorConfig())
	assert.Equal(t, persistence.DefaultKey, layout.Key)
}

func TestRootCommand_Subcommands(t *testing.T) {
	root := rootCommand()
	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["serve"])
	assert.True(t, names["layout"])
	assert.True(t, names["status"])

	layout, _, err := root.Find([]string{"layout", "export"})
	require.NoError(t, err)
	assert.Equal(t, "export", layout.Name())

	push, _, err := root.Find([]string{"layout", "push"})
	require.NoError(t, err)
	assert.NotNil(t, push.Flags().Lookup("server"))
}

func TestImportLayout(t *testing.T) {
	g := persistence.New(memory.New(config.MemoryConfig{}), persistence.Config{}, nil)
	dir := t.TempDir()

	good := filepath.Join(dir, "good.json")
	require.NoError(t, os.WriteFile(good, []byte(`{"version":1,"front":[{"id":1,"rotation":30}],"back":[]}`), 0644))
	var out bytes.Buffer
	require.NoError(t, importLayout(g, good, &out))
	assert.Contains(t, out.String(), "Imported 1 labels")

	layout, restored := g.Load()
	assert.True(t, restored)
	assert.Equal(t, 30.0, layout.Front[0].Rotation)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`not json`), 0644))
	err := importLayout(g, bad, &out)
	assert.ErrorIs(t, err, persistence.ErrMalformed)

	assert.Error(t, importLayout(g, filepath.Join(dir, "missing.json"), &out))
}
