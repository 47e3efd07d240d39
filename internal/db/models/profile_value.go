package models

import "time"

// ProfileValue stores one applicant's value for one canonical profile field.
// The pair (UserID, ProfileFieldID) is unique; saving again overwrites the
// value in place.
type ProfileValue struct {
	// ID is an opaque unique identifier (UUID string), assigned on create.
	ID string `gorm:"primaryKey;size:36"`
	// UserID is the owning user.
	UserID uint64 `gorm:"column:user_id;not null;uniqueIndex:idx_user_profile_field"`
	// ProfileFieldID references the catalog entry this value belongs to.
	ProfileFieldID uint64 `gorm:"column:profile_field_id;not null;uniqueIndex:idx_user_profile_field"`
	// ProfileField is the associated catalog entry (loaded via foreign key).
	ProfileField ProfileField `gorm:"foreignKey:ProfileFieldID;constraint:OnDelete:CASCADE"`
	// Value is the applicant's stored value for the field.
	Value string `gorm:"size:1024"`
	// CreatedAt is the timestamp when the value was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the value was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the ProfileValue model.
func (ProfileValue) TableName() string {
	return "profile_values"
}
