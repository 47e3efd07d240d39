// Package profilefield provides operations for the canonical profile-field
// catalog and the per-applicant profile values stored against it.
package profilefield

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/applymate/applymate/internal/db/models"
)

const (
	nameQueryPattern = "name = ?"
)

var (
	// ErrFieldNotFound is returned when a catalog entry is not found.
	ErrFieldNotFound = errors.New("profile field not found")
	// ErrFieldNameEmpty is returned when attempting to create/update a catalog entry with an empty name.
	ErrFieldNameEmpty = errors.New("profile field name cannot be empty")
	// ErrFieldAlreadyExists is returned when attempting to create a catalog entry that already exists.
	ErrFieldAlreadyExists = errors.New("profile field already exists")
	// ErrUserIDZero is returned when no owning user is given.
	ErrUserIDZero = errors.New("user id cannot be zero")
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)

// Get retrieves a catalog entry by its canonical name.
func Get(db *gorm.DB, name string) (*models.ProfileField, error) {
	if db == nil {
		return nil, ErrDBNil
	}
	if name == "" {
		return nil, ErrFieldNameEmpty
	}

	var field models.ProfileField
	result := db.Where(nameQueryPattern, name).First(&field)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrFieldNotFound
		}
		return nil, result.Error
	}

	return &field, nil
}

// GetAll retrieves all active catalog entries in display order.
func GetAll(db *gorm.DB) ([]models.ProfileField, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var fields []models.ProfileField
	result := db.Where("active = ?", true).Order("ordering, name").Find(&fields)
	if result.Error != nil {
		return nil, result.Error
	}

	return fields, nil
}

// List retrieves the whole catalog, inactive entries included, in display
// order. Used by the admin catalog page; applicants see GetAll.
func List(db *gorm.DB) ([]models.ProfileField, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var fields []models.ProfileField
	result := db.Order("ordering, name").Find(&fields)
	if result.Error != nil {
		return nil, result.Error
	}

	return fields, nil
}

// Create creates a new catalog entry.
func Create(db *gorm.DB, name, label string, ordering int) (*models.ProfileField, error) {
	if db == nil {
		return nil, ErrDBNil
	}
	if name == "" {
		return nil, ErrFieldNameEmpty
	}

	// Check if entry already exists
	var existing models.ProfileField
	result := db.Where(nameQueryPattern, name).First(&existing)
	if result.Error == nil {
		return nil, ErrFieldAlreadyExists
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, result.Error
	}

	field := &models.ProfileField{
		Name:     name,
		Label:    label,
		Ordering: ordering,
		Active:   true,
	}

	result = db.Create(field)
	if result.Error != nil {
		return nil, result.Error
	}

	return field, nil
}

// Update changes the label, ordering and active flag of a catalog entry.
// The canonical name is immutable: stored mappings and values reference it.
func Update(db *gorm.DB, id uint64, label string, ordering int, active bool) (*models.ProfileField, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var field models.ProfileField
	result := db.First(&field, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrFieldNotFound
		}
		return nil, result.Error
	}

	field.Label = label
	field.Ordering = ordering
	field.Active = active

	result = db.Save(&field)
	if result.Error != nil {
		return nil, result.Error
	}

	return &field, nil
}

// SetValue creates or updates an applicant's value for a catalog entry
// (upsert on the (userID, fieldID) pair).
func SetValue(db *gorm.DB, userID, fieldID uint64, value string) (*models.ProfileValue, error) {
	if db == nil {
		return nil, ErrDBNil
	}
	if userID == 0 {
		return nil, ErrUserIDZero
	}

	var pv models.ProfileValue
	result := db.Where("user_id = ? AND profile_field_id = ?", userID, fieldID).First(&pv)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		pv = models.ProfileValue{
			ID:             uuid.New().String(),
			UserID:         userID,
			ProfileFieldID: fieldID,
			Value:          value,
		}

		if err := db.Create(&pv).Error; err != nil {
			return nil, err
		}

		return &pv, nil
	}
	if result.Error != nil {
		return nil, result.Error
	}

	pv.Value = value
	result = db.Save(&pv)
	if result.Error != nil {
		return nil, result.Error
	}

	return &pv, nil
}

// GetValues retrieves an applicant's stored values with their catalog entries preloaded.
func GetValues(db *gorm.DB, userID uint64) ([]models.ProfileValue, error) {
	if db == nil {
		return nil, ErrDBNil
	}
	if userID == 0 {
		return nil, ErrUserIDZero
	}

	var values []models.ProfileValue
	result := db.Preload("ProfileField").Where("user_id = ?", userID).Find(&values)
	if result.Error != nil {
		return nil, result.Error
	}

	return values, nil
}
