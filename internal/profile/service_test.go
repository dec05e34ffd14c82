package profile

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/gymjs/muscle-selector/internal/database"
)

// Compile-time interface checks
var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*GormStore)(nil)
)

func newGormStore(t *testing.T) *GormStore {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "profiles.db")), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.Migrate(db))
	return NewGormStore(db)
}

func newService(store Store) *Service {
	s := NewService(store)
	s.now = func() time.Time { return fixedNow }
	return s
}

func storeCases(t *testing.T) map[string]Store {
	return map[string]Store{
		"memory": NewMemoryStore(),
		"gorm":   newGormStore(t),
	}
}

func TestService_LoadMissing(t *testing.T) {
	for name, store := range storeCases(t) {
		t.Run(name, func(t *testing.T) {
			_, ok, err := newService(store).Load("nobody")
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestService_SaveAndLoad(t *testing.T) {
	for name, store := range storeCases(t) {
		t.Run(name, func(t *testing.T) {
			svc := newService(store)
			p := validProfile()
			p.FitnessGoal = "muscle-gain"
			require.NoError(t, svc.Save("user-1", p))

			got, ok, err := svc.Load("user-1")
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, p, got)
		})
	}
}

func TestService_SaveClearsOptionalFields(t *testing.T) {
	for name, store := range storeCases(t) {
		t.Run(name, func(t *testing.T) {
			svc := newService(store)
			p := validProfile()
			p.Email = "ana@example.com"
			require.NoError(t, svc.Save("user-1", p))

			p.Email = ""
			require.NoError(t, svc.Save("user-1", p))

			fields, err := store.Fields("user-1")
			require.NoError(t, err)
			assert.NotContains(t, fields, FieldEmail)
		})
	}
}

func TestService_SaveRejectsInvalid(t *testing.T) {
	svc := newService(NewMemoryStore())

	p := validProfile()
	p.HeightCm = 20
	assert.ErrorIs(t, svc.Save("user-1", p), ErrValidation)
	assert.ErrorIs(t, svc.Save("", validProfile()), ErrValidation)

	_, ok, err := svc.Load("user-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestService_LoadCorruptNumber(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.SetFields("user-1", map[string]string{FieldName: "Ana", FieldWeightKg: "heavy"}))

	_, _, err := newService(store).Load("user-1")
	assert.ErrorContains(t, err, "weightKg")
}

func TestMemoryStore_FieldsIsACopy(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.SetFields("u", map[string]string{"a": "1"}))

	fields, _ := store.Fields("u")
	fields["a"] = "2"

	again, _ := store.Fields("u")
	assert.Equal(t, "1", again["a"])
}
