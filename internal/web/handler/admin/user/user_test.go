package user

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/applymate/applymate/internal/auth"
	"github.com/applymate/applymate/internal/config"
	"github.com/applymate/applymate/internal/db/models"
)

type testFixture struct {
	app       *fiber.App
	db        *gorm.DB
	tokens    *auth.TokenService
	adminID   uint64
	applicant *models.User
	roles     map[string]uint
}

// setupTestApp wires the handler against an in-memory SQLite database with an
// admin holding the user-management permission and one plain applicant.
func setupTestApp(t *testing.T) testFixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to create test database")

	err = db.AutoMigrate(
		&models.Role{}, &models.Permission{}, &models.RolePermission{}, &models.User{},
	)
	require.NoError(t, err, "failed to migrate test database")

	adminRole := models.Role{Name: models.RoleAdmin}
	require.NoError(t, db.Create(&adminRole).Error)

	applicantRole := models.Role{Name: models.RoleApplicant}
	require.NoError(t, db.Create(&applicantRole).Error)

	perm := models.Permission{Name: auth.PermAdminUsers, Resource: "admin", Action: "users"}
	require.NoError(t, db.Create(&perm).Error)
	require.NoError(t, db.Create(&models.RolePermission{RoleID: adminRole.ID, PermissionID: perm.ID}).Error)

	admin := models.User{Active: true, Username: "admin", RoleID: adminRole.ID, AuthSource: models.AuthSourceLocal}
	require.NoError(t, db.Create(&admin).Error)

	applicant, err := auth.NewLocalProvider(db).Register(
		"applicant", "applicant@example.edu", "original password",
		"App", "Licant", applicantRole.ID,
	)
	require.NoError(t, err)

	cfg := &config.Config{DevMode: true}
	tokens := auth.NewTokenService("test-secret-do-not-use", time.Hour)

	app := fiber.New()

	svc := Service{}
	svc.Init(app, cfg, db, auth.NewService(db), tokens)

	return testFixture{
		app:       app,
		db:        db,
		tokens:    tokens,
		adminID:   admin.ID,
		applicant: applicant,
		roles:     map[string]uint{models.RoleAdmin: adminRole.ID, models.RoleApplicant: applicantRole.ID},
	}
}

func (f testFixture) formRequest(t *testing.T, target, body string, userID uint64) *http.Request {
	t.Helper()

	req := httptest.NewRequest(fiber.MethodPost, target, strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)

	if userID != 0 {
		token, _, err := f.tokens.Issue(userID, "someone")
		require.NoError(t, err)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	return req
}

func TestUserAdminGate(t *testing.T) {
	f := setupTestApp(t)

	target := fmt.Sprintf("%s/%d/active", Path, f.applicant.ID)

	// anonymous
	resp, err := f.app.Test(f.formRequest(t, target, "active=false", 0))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	// an applicant cannot manage accounts
	resp, err = f.app.Test(f.formRequest(t, target, "active=false", f.applicant.ID))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	var untouched models.User
	require.NoError(t, f.db.First(&untouched, f.applicant.ID).Error)
	assert.True(t, untouched.Active)
}

func TestUserAdminSetActive(t *testing.T) {
	f := setupTestApp(t)

	target := fmt.Sprintf("%s/%d/active", Path, f.applicant.ID)
	resp, err := f.app.Test(f.formRequest(t, target, "active=false", f.adminID))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)

	var disabled models.User
	require.NoError(t, f.db.First(&disabled, f.applicant.ID).Error)
	assert.False(t, disabled.Active)

	// disabled accounts cannot sign in
	_, err = auth.NewLocalProvider(f.db).Authenticate("applicant", "original password")
	require.ErrorIs(t, err, auth.ErrUserAccountDisabled)

	// unknown account
	resp, err = f.app.Test(f.formRequest(t, Path+"/999/active", "active=false", f.adminID))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestUserAdminResetPassword(t *testing.T) {
	f := setupTestApp(t)

	target := fmt.Sprintf("%s/%d/password", Path, f.applicant.ID)
	resp, err := f.app.Test(f.formRequest(t, target, "newPassword=fresh+start", f.adminID))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)

	local := auth.NewLocalProvider(f.db)

	_, err = local.Authenticate("applicant", "original password")
	require.Error(t, err)

	user, err := local.Authenticate("applicant", "fresh start")
	require.NoError(t, err)
	assert.Equal(t, f.applicant.ID, user.ID)

	// an empty password is rejected before the store
	resp, err = f.app.Test(f.formRequest(t, target, "", f.adminID))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Contains(t, resp.Header.Get(fiber.HeaderLocation), "error=")
}

func TestUserAdminAssignRole(t *testing.T) {
	f := setupTestApp(t)

	target := fmt.Sprintf("%s/%d/role", Path, f.applicant.ID)
	body := fmt.Sprintf("roleId=%d", f.roles[models.RoleAdmin])

	resp, err := f.app.Test(f.formRequest(t, target, body, f.adminID))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)

	var promoted models.User
	require.NoError(t, f.db.First(&promoted, f.applicant.ID).Error)
	assert.Equal(t, f.roles[models.RoleAdmin], promoted.RoleID)

	// unknown role
	resp, err = f.app.Test(f.formRequest(t, target, "roleId=999", f.adminID))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
