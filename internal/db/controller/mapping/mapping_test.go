package mapping

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/applymate/applymate/internal/db/models"
)

// setupTestDB creates an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to create test database")

	// Migrate the schema
	err = db.AutoMigrate(&models.FieldMapping{})
	require.NoError(t, err, "failed to migrate test database")

	return db
}

func TestUpsertValidation(t *testing.T) {
	db := setupTestDB(t)

	testCases := []struct {
		name          string
		dbParam       *gorm.DB
		userID        uint64
		domain        string
		selector      string
		profileField  string
		expectedError error
	}{
		{
			name:          "nil database",
			dbParam:       nil,
			userID:        1,
			domain:        "example.edu",
			selector:      "#ssn",
			profileField:  "socialSecurityNumber",
			expectedError: ErrDBNil,
		},
		{
			name:          "zero user id",
			dbParam:       db,
			userID:        0,
			domain:        "example.edu",
			selector:      "#ssn",
			profileField:  "socialSecurityNumber",
			expectedError: ErrUserIDZero,
		},
		{
			name:          "empty domain",
			dbParam:       db,
			userID:        1,
			domain:        "",
			selector:      "#ssn",
			profileField:  "socialSecurityNumber",
			expectedError: ErrKeyFieldEmpty,
		},
		{
			name:          "empty selector",
			dbParam:       db,
			userID:        1,
			domain:        "example.edu",
			selector:      "",
			profileField:  "socialSecurityNumber",
			expectedError: ErrKeyFieldEmpty,
		},
		{
			name:          "empty profile field",
			dbParam:       db,
			userID:        1,
			domain:        "example.edu",
			selector:      "#ssn",
			profileField:  "",
			expectedError: ErrKeyFieldEmpty,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m, err := Upsert(tc.dbParam, tc.userID, tc.domain, tc.selector, tc.profileField, "", "")

			require.Error(t, err)
			require.ErrorIs(t, err, tc.expectedError)
			assert.Nil(t, m)

			// no partial writes on validation failure
			if tc.dbParam != nil {
				var count int64
				tc.dbParam.Model(&models.FieldMapping{}).Count(&count)
				assert.Zero(t, count)
			}
		})
	}
}

func TestUpsertCreate(t *testing.T) {
	db := setupTestDB(t)

	m, err := Upsert(db, 1, "example.edu", "#ssn", "socialSecurityNumber", "ssn", "applicant_ssn")
	require.NoError(t, err)
	require.NotNil(t, m)

	assert.NotEmpty(t, m.ID)
	assert.Equal(t, uint64(1), m.UserID)
	assert.Equal(t, "example.edu", m.Domain)
	assert.Equal(t, "#ssn", m.Selector)
	assert.Equal(t, "socialSecurityNumber", m.ProfileField)
	assert.Equal(t, "ssn", m.DomID)
	assert.Equal(t, "applicant_ssn", m.DomName)
}

func TestUpsertIsIdempotent(t *testing.T) {
	db := setupTestDB(t)

	first, err := Upsert(db, 1, "example.edu", "#ssn", "socialSecurityNumber", "ssn", "")
	require.NoError(t, err)

	second, err := Upsert(db, 1, "example.edu", "#ssn", "nationalId", "ssn-field", "ssn_input")
	require.NoError(t, err)

	// same identity, updated payload
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "nationalId", second.ProfileField)
	assert.Equal(t, "ssn-field", second.DomID)
	assert.Equal(t, "ssn_input", second.DomName)

	// exactly one stored mapping for the triple
	var count int64
	db.Model(&models.FieldMapping{}).
		Where("user_id = ? AND domain = ? AND selector = ?", 1, "example.edu", "#ssn").
		Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestUpsertKeyUniqueness(t *testing.T) {
	db := setupTestDB(t)

	// a burst of saves to the same triple must leave one row, last writer wins
	fields := []string{"firstName", "lastName", "email", "nationalId"}
	for _, f := range fields {
		_, err := Upsert(db, 7, "apply.example.edu", "input[name=q1]", f, "", "")
		require.NoError(t, err)
	}

	var rows []models.FieldMapping
	require.NoError(t, db.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, "nationalId", rows[0].ProfileField)
}

func TestIsUniqueViolation(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "gorm translated duplicate key",
			err:      gorm.ErrDuplicatedKey,
			expected: true,
		},
		{
			name:     "wrapped duplicate key",
			err:      fmt.Errorf("create failed: %w", gorm.ErrDuplicatedKey),
			expected: true,
		},
		{
			name:     "sqlite driver message",
			err:      errors.New("UNIQUE constraint failed: field_mappings.user_id, field_mappings.domain, field_mappings.selector"),
			expected: true,
		},
		{
			name:     "mysql driver message",
			err:      errors.New("Error 1062 (23000): Duplicate entry '1-example.edu-#ssn' for key 'idx_user_domain_selector'"),
			expected: true,
		},
		{
			name:     "unrelated error",
			err:      errors.New("connection refused"),
			expected: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, isUniqueViolation(tc.err))
		})
	}
}

func TestUpsertConvergesOnDuplicateKeyRace(t *testing.T) {
	db := setupTestDB(t)

	// Simulate a concurrent creator winning the race: the first create for
	// the key finds the row already inserted and fails with a duplicate-key
	// error. The upsert must fall back to updating the surviving row.
	racedID := "11111111-2222-3333-4444-555555555555"
	raced := false

	err := db.Callback().Create().Before("gorm:create").Register("test:raced_creator", func(tx *gorm.DB) {
		if raced {
			return
		}
		raced = true

		now := time.Now()
		insert := tx.Session(&gorm.Session{NewDB: true}).Exec(
			"INSERT INTO field_mappings (id, user_id, domain, selector, profile_field, dom_id, dom_name, created_at, updated_at)"+
				" VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
			racedID, 1, "example.edu", "#ssn", "firstName", "", "", now, now,
		)
		require.NoError(t, insert.Error)

		tx.AddError(gorm.ErrDuplicatedKey)
	})
	require.NoError(t, err)

	m, err := Upsert(db, 1, "example.edu", "#ssn", "socialSecurityNumber", "ssn", "")
	require.NoError(t, err)
	require.NotNil(t, m)

	// the surviving row keeps its identity, the caller's value wins
	assert.Equal(t, racedID, m.ID)
	assert.Equal(t, "socialSecurityNumber", m.ProfileField)
	assert.Equal(t, "ssn", m.DomID)

	var rows []models.FieldMapping
	require.NoError(t, db.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, racedID, rows[0].ID)
	assert.Equal(t, "socialSecurityNumber", rows[0].ProfileField)
}

func TestUpsertCrossUserIsolation(t *testing.T) {
	db := setupTestDB(t)

	m1, err := Upsert(db, 1, "example.edu", "#ssn", "socialSecurityNumber", "", "")
	require.NoError(t, err)

	m2, err := Upsert(db, 2, "example.edu", "#ssn", "nationalId", "", "")
	require.NoError(t, err)

	// distinct mappings, neither overwritten by the other
	assert.NotEqual(t, m1.ID, m2.ID)

	got1, err := FindBySelector(db, 1, "example.edu", "#ssn")
	require.NoError(t, err)
	assert.Equal(t, "socialSecurityNumber", got1.ProfileField)

	got2, err := FindBySelector(db, 2, "example.edu", "#ssn")
	require.NoError(t, err)
	assert.Equal(t, "nationalId", got2.ProfileField)
}

func TestUpsertCrossKeyIndependence(t *testing.T) {
	db := setupTestDB(t)

	_, err := Upsert(db, 1, "example.edu", "#first", "firstName", "", "")
	require.NoError(t, err)
	_, err = Upsert(db, 1, "example.edu", "#last", "lastName", "", "")
	require.NoError(t, err)
	_, err = Upsert(db, 1, "other.example.org", "#first", "firstName", "", "")
	require.NoError(t, err)

	var count int64
	db.Model(&models.FieldMapping{}).Count(&count)
	assert.Equal(t, int64(3), count)
}

func TestFindByUserAndDomain(t *testing.T) {
	db := setupTestDB(t)

	testCases := []struct {
		name          string
		dbParam       *gorm.DB
		userID        uint64
		domain        string
		seed          bool
		expectedError error
		expectedCount int
	}{
		{
			name:          "nil database",
			dbParam:       nil,
			userID:        1,
			domain:        "example.edu",
			expectedError: ErrDBNil,
		},
		{
			name:          "zero user id",
			dbParam:       db,
			userID:        0,
			domain:        "example.edu",
			expectedError: ErrUserIDZero,
		},
		{
			name:          "no mappings",
			dbParam:       db,
			userID:        1,
			domain:        "nothing.example.edu",
			expectedCount: 0,
		},
		{
			name:          "mappings for domain only",
			dbParam:       db,
			userID:        1,
			domain:        "example.edu",
			seed:          true,
			expectedCount: 2,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.dbParam != nil {
				tc.dbParam.Exec("DELETE FROM field_mappings")
			}

			if tc.seed {
				_, err := Upsert(tc.dbParam, 1, "example.edu", "#zz", "lastName", "", "")
				require.NoError(t, err)
				_, err = Upsert(tc.dbParam, 1, "example.edu", "#aa", "firstName", "", "")
				require.NoError(t, err)
				_, err = Upsert(tc.dbParam, 1, "elsewhere.edu", "#aa", "firstName", "", "")
				require.NoError(t, err)
				_, err = Upsert(tc.dbParam, 2, "example.edu", "#aa", "email", "", "")
				require.NoError(t, err)
			}

			mappings, err := FindByUserAndDomain(tc.dbParam, tc.userID, tc.domain)

			if tc.expectedError != nil {
				require.Error(t, err)
				require.ErrorIs(t, err, tc.expectedError)
				assert.Nil(t, mappings)
			} else {
				require.NoError(t, err)
				assert.Len(t, mappings, tc.expectedCount)

				// ordered by selector
				if tc.expectedCount == 2 {
					assert.Equal(t, "#aa", mappings[0].Selector)
					assert.Equal(t, "#zz", mappings[1].Selector)
				}
			}
		})
	}
}

func TestFindBySelector(t *testing.T) {
	db := setupTestDB(t)

	_, err := FindBySelector(db, 1, "example.edu", "#missing")
	require.Error(t, err)
	require.ErrorIs(t, err, ErrMappingNotFound)

	created, err := Upsert(db, 1, "example.edu", "#ssn", "socialSecurityNumber", "", "")
	require.NoError(t, err)

	got, err := FindBySelector(db, 1, "example.edu", "#ssn")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "socialSecurityNumber", got.ProfileField)
}

func TestCountByUser(t *testing.T) {
	db := setupTestDB(t)

	count, err := CountByUser(db, 1)
	require.NoError(t, err)
	assert.Zero(t, count)

	_, err = Upsert(db, 1, "example.edu", "#a", "firstName", "", "")
	require.NoError(t, err)
	_, err = Upsert(db, 1, "elsewhere.edu", "#b", "lastName", "", "")
	require.NoError(t, err)
	_, err = Upsert(db, 2, "example.edu", "#a", "firstName", "", "")
	require.NoError(t, err)

	count, err = CountByUser(db, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	_, err = CountByUser(nil, 1)
	require.ErrorIs(t, err, ErrDBNil)
}
