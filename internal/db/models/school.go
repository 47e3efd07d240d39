package models

import "time"

// School represents a partner school whose application site is known to the
// platform. Administrators manage this catalog; the mapping UI links a
// detected domain back to a school when one matches.
type School struct {
	// ID is the unique identifier for the school.
	ID uint64 `gorm:"primaryKey"`
	// Name is the unique display name of the school.
	Name string `gorm:"unique;size:255;not null"`
	// Domain is the host of the school's application site, normalized to lower case.
	Domain string `gorm:"size:255;not null;index"`
	// URL is the full address of the application start page.
	URL string `gorm:"size:512"`
	// Active indicates whether the school is shown to applicants.
	Active bool `gorm:"default:true"`
	// CreatedAt is the timestamp when the school was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the school was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the School model.
func (School) TableName() string {
	return "schools"
}
