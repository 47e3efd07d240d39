package models

import "time"

// FieldMapping represents a learned association between a DOM input on a
// specific site and a canonical profile field for a specific user.
//
// The triple (UserID, Domain, Selector) is unique: at most one mapping per
// user per site per locator. A later save for the same triple overwrites
// ProfileField, DomID and DomName in place (upsert, never append). ID,
// UserID, Domain and Selector are immutable once created.
type FieldMapping struct {
	// ID is an opaque unique identifier (UUID string), assigned on create.
	ID string `gorm:"primaryKey;size:36"`
	// UserID is the owning user. Mappings are never shared across users.
	UserID uint64 `gorm:"column:user_id;not null;uniqueIndex:idx_user_domain_selector"`
	// Domain is the site host the mapping applies to, normalized to lower case.
	Domain string `gorm:"size:255;not null;uniqueIndex:idx_user_domain_selector"`
	// Selector is a CSS-selector-like locator for the input element.
	Selector string `gorm:"size:512;not null;uniqueIndex:idx_user_domain_selector"`
	// ProfileField is the canonical profile field name the input maps to.
	ProfileField string `gorm:"size:100;not null"`
	// DomID is the raw DOM id attribute, informational only.
	DomID string `gorm:"column:dom_id;size:255"`
	// DomName is the raw DOM name attribute, informational only.
	DomName string `gorm:"column:dom_name;size:255"`
	// CreatedAt is the timestamp when the mapping was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the mapping was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the FieldMapping model.
func (FieldMapping) TableName() string {
	return "field_mappings"
}
