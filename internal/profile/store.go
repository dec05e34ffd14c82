package profile

import (
	"fmt"
	"maps"
	"sync"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/gymjs/muscle-selector/internal/model"
)

// Store is a per-user key-value collaborator. Setting a field to the empty
// string removes it.
type Store interface {
	Fields(userID string) (map[string]string, error)
	SetFields(userID string, fields map[string]string) error
}

// MemoryStore keeps fields in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	users map[string]map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[string]map[string]string)}
}

func (s *MemoryStore) Fields(userID string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.users[userID]), nil
}

func (s *MemoryStore) SetFields(userID string, fields map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.users[userID]
	if !ok {
		current = make(map[string]string)
		s.users[userID] = current
	}
	for k, v := range fields {
		if v == "" {
			delete(current, k)
			continue
		}
		current[k] = v
	}
	return nil
}

// GormStore keeps fields as rows in profile_fields.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore expects db to be migrated already.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Fields(userID string) (map[string]string, error) {
	var rows []model.ProfileField
	if err := s.db.Where("user_id = ?", userID).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to read profile %q: %w", userID, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(rows))
	for _, r := range rows {
		out[r.Field] = r.Value
	}
	return out, nil
}

func (s *GormStore) SetFields(userID string, fields map[string]string) error {
	now := time.Now().UTC()
	err := s.db.Transaction(func(tx *gorm.DB) error {
		for field, value := range fields {
			if value == "" {
				if err := tx.Where("user_id = ? AND field = ?", userID, field).Delete(&model.ProfileField{}).Error; err != nil {
					return err
				}
				continue
			}
			row := model.ProfileField{UserID: userID, Field: field, Value: value, UpdatedAt: now}
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "user_id"}, {Name: "field"}},
				DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
			}).Create(&row).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write profile %q: %w", userID, err)
	}
	return nil
}
