// Package school provides CRUD operations for the partner-school catalog.
package school

import (
	"errors"

	"gorm.io/gorm"

	"github.com/applymate/applymate/internal/db/models"
)

const (
	nameQueryPattern = "name = ?"
)

var (
	// ErrSchoolNotFound is returned when a school is not found.
	ErrSchoolNotFound = errors.New("school not found")
	// ErrSchoolNameEmpty is returned when attempting to create/update a school with an empty name.
	ErrSchoolNameEmpty = errors.New("school name cannot be empty")
	// ErrSchoolAlreadyExists is returned when attempting to create a school that already exists.
	ErrSchoolAlreadyExists = errors.New("school already exists")
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)

// Get retrieves a school by its name.
func Get(db *gorm.DB, name string) (*models.School, error) {
	if db == nil {
		return nil, ErrDBNil
	}
	if name == "" {
		return nil, ErrSchoolNameEmpty
	}

	var school models.School
	result := db.Where(nameQueryPattern, name).First(&school)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrSchoolNotFound
		}
		return nil, result.Error
	}

	return &school, nil
}

// GetByID retrieves a school by its ID.
func GetByID(db *gorm.DB, id uint64) (*models.School, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var school models.School
	result := db.First(&school, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrSchoolNotFound
		}
		return nil, result.Error
	}

	return &school, nil
}

// GetAll retrieves all schools from the database ordered by name.
func GetAll(db *gorm.DB) ([]models.School, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var schools []models.School
	result := db.Order("name").Find(&schools)
	if result.Error != nil {
		return nil, result.Error
	}

	return schools, nil
}

// GetActiveByDomain retrieves the active school matching a site domain.
func GetActiveByDomain(db *gorm.DB, domain string) (*models.School, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var school models.School
	result := db.Where("domain = ? AND active = ?", domain, true).First(&school)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrSchoolNotFound
		}
		return nil, result.Error
	}

	return &school, nil
}

// Create creates a new school in the database.
func Create(db *gorm.DB, name, domain, url string) (*models.School, error) {
	if db == nil {
		return nil, ErrDBNil
	}
	if name == "" {
		return nil, ErrSchoolNameEmpty
	}

	// Check if school already exists
	var existing models.School
	result := db.Where(nameQueryPattern, name).First(&existing)
	if result.Error == nil {
		return nil, ErrSchoolAlreadyExists
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, result.Error
	}

	school := &models.School{
		Name:   name,
		Domain: domain,
		URL:    url,
		Active: true,
	}

	result = db.Create(school)
	if result.Error != nil {
		return nil, result.Error
	}

	return school, nil
}

// Update updates an existing school by ID.
func Update(db *gorm.DB, id uint64, name, domain, url string, active bool) (*models.School, error) {
	if db == nil {
		return nil, ErrDBNil
	}
	if name == "" {
		return nil, ErrSchoolNameEmpty
	}

	var school models.School
	result := db.First(&school, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrSchoolNotFound
		}
		return nil, result.Error
	}

	school.Name = name
	school.Domain = domain
	school.URL = url
	school.Active = active

	result = db.Save(&school)
	if result.Error != nil {
		return nil, result.Error
	}

	return &school, nil
}

// Delete deletes a school by ID.
func Delete(db *gorm.DB, id uint64) error {
	if db == nil {
		return ErrDBNil
	}

	result := db.Delete(&models.School{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrSchoolNotFound
	}

	return nil
}
