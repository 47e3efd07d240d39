// Package mapping is the only component permitted to touch persisted
// field-mapping state. It provides the atomic upsert and the lookups the
// detection and save flows are built on.
package mapping

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/applymate/applymate/internal/db/models"
)

const (
	keyQueryPattern = "user_id = ? AND domain = ? AND selector = ?"
)

var (
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
	// ErrKeyFieldEmpty is returned when domain, selector or profile field is empty.
	ErrKeyFieldEmpty = errors.New("domain, selector and profile field cannot be empty")
	// ErrUserIDZero is returned when no owning user is given.
	ErrUserIDZero = errors.New("user id cannot be zero")
	// ErrMappingNotFound is returned when a mapping is not found.
	ErrMappingNotFound = errors.New("mapping not found")
)

// isUniqueViolation reports whether err is a unique-constraint violation on
// any of the supported engines. GORM translates most of them to
// ErrDuplicatedKey; the string check covers drivers that predate the
// translation.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	msg := strings.ToLower(err.Error())

	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}

// Upsert atomically creates or updates the mapping for the unique key
// (userID, domain, selector).
//
// If no mapping exists for the key, a new one is created with a freshly
// generated identifier. If one exists, only ProfileField, DomID and DomName
// are overwritten; ID, UserID, Domain and Selector stay untouched. Concurrent
// upserts for the same key converge to whatever write lands last: a
// duplicate-key error raced from a concurrent creator is retried as an
// update instead of being surfaced.
func Upsert(db *gorm.DB, userID uint64, domain, selector, profileField, domID, domName string) (*models.FieldMapping, error) {
	if db == nil {
		return nil, ErrDBNil
	}
	if userID == 0 {
		return nil, ErrUserIDZero
	}
	if domain == "" || selector == "" || profileField == "" {
		return nil, ErrKeyFieldEmpty
	}

	var out models.FieldMapping

	err := db.Transaction(func(tx *gorm.DB) error {
		var existing models.FieldMapping

		result := tx.Where(keyQueryPattern, userID, domain, selector).First(&existing)
		if result.Error == nil {
			existing.ProfileField = profileField
			existing.DomID = domID
			existing.DomName = domName

			if err := tx.Save(&existing).Error; err != nil {
				return err
			}

			out = existing

			return nil
		}

		if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return result.Error
		}

		created := models.FieldMapping{
			ID:           uuid.New().String(),
			UserID:       userID,
			Domain:       domain,
			Selector:     selector,
			ProfileField: profileField,
			DomID:        domID,
			DomName:      domName,
		}

		if err := tx.Create(&created).Error; err != nil {
			if isUniqueViolation(err) {
				// A concurrent creator won the race; the intent "ensure this
				// mapping exists with this value" is still satisfiable as an
				// update on the surviving row.
				var raced models.FieldMapping
				if ferr := tx.Where(keyQueryPattern, userID, domain, selector).First(&raced).Error; ferr != nil {
					return ferr
				}

				raced.ProfileField = profileField
				raced.DomID = domID
				raced.DomName = domName

				if serr := tx.Save(&raced).Error; serr != nil {
					return serr
				}

				out = raced

				return nil
			}

			return err
		}

		out = created

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &out, nil
}

// FindByUserAndDomain retrieves all mappings a user has saved for a domain,
// ordered by selector for stable display.
func FindByUserAndDomain(db *gorm.DB, userID uint64, domain string) ([]models.FieldMapping, error) {
	if db == nil {
		return nil, ErrDBNil
	}
	if userID == 0 {
		return nil, ErrUserIDZero
	}

	var mappings []models.FieldMapping
	result := db.Where("user_id = ? AND domain = ?", userID, domain).
		Order("selector").
		Find(&mappings)
	if result.Error != nil {
		return nil, result.Error
	}

	return mappings, nil
}

// FindBySelector retrieves the single mapping for a full unique key.
func FindBySelector(db *gorm.DB, userID uint64, domain, selector string) (*models.FieldMapping, error) {
	if db == nil {
		return nil, ErrDBNil
	}
	if userID == 0 {
		return nil, ErrUserIDZero
	}

	var m models.FieldMapping
	result := db.Where(keyQueryPattern, userID, domain, selector).First(&m)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrMappingNotFound
		}

		return nil, result.Error
	}

	return &m, nil
}

// CountByUser returns how many mappings a user has saved across all domains.
func CountByUser(db *gorm.DB, userID uint64) (int64, error) {
	if db == nil {
		return 0, ErrDBNil
	}

	var count int64
	result := db.Model(&models.FieldMapping{}).Where("user_id = ?", userID).Count(&count)
	if result.Error != nil {
		return 0, result.Error
	}

	return count, nil
}
