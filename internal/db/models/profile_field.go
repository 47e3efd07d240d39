package models

import "time"

// ProfileField is one entry of the canonical profile-field catalog:
// an application-defined field name (e.g., "nationalId") that DOM inputs can
// be mapped to. Administrators manage the catalog; applicants fill values.
type ProfileField struct {
	// ID is the unique identifier for the catalog entry.
	ID uint64 `gorm:"primaryKey"`
	// Name is the unique canonical field name (e.g., "firstName", "nationalId").
	Name string `gorm:"unique;size:100;not null"`
	// Label is the human-readable label shown in the UI.
	Label string `gorm:"size:255"`
	// Ordering controls display order in the profile form.
	Ordering int `gorm:"default:0"`
	// Active indicates whether the field is offered to applicants.
	Active bool `gorm:"default:true"`
	// CreatedAt is the timestamp when the entry was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the entry was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the ProfileField model.
func (ProfileField) TableName() string {
	return "profile_fields"
}
