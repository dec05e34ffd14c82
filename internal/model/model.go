package model

import (
	"time"

	"gorm.io/datatypes"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// DatabaseModels is a list of all the structs exported here which represent tables in the database schema
var DatabaseModels = []interface{}{
	&ServiceInfo{},
	&LayoutSlot{},
	&ProfileField{},
}

// ServiceInfo records which schema the database was created for.
type ServiceInfo struct {
	ID            uint      `json:"id" gorm:"primarykey"`
	SchemaVersion int       `json:"schemaVersion"`
	CreatedAt     time.Time `json:"createdAt"`
}

func (*ServiceInfo) TableName() string {
	return "service_infos"
}

// LayoutSlot is one durable key-value slot holding a serialized label layout.
type LayoutSlot struct {
	Key       string         `json:"key" gorm:"column:slot_key;primaryKey;size:127"`
	Value     datatypes.JSON `json:"value"`
	Size      int            `json:"size"`
	UpdatedAt time.Time      `json:"updatedAt" gorm:"index:idx_layout_slot_updated_at"`
}

func (*LayoutSlot) TableName() string {
	return "layout_slots"
}

// ProfileField is a single scalar profile value keyed by user and field name.
type ProfileField struct {
	UserID    string    `json:"userId" gorm:"primaryKey;size:127"`
	Field     string    `json:"field" gorm:"primaryKey;size:63"`
	Value     string    `json:"value" gorm:"size:255"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (*ProfileField) TableName() string {
	return "profile_fields"
}
