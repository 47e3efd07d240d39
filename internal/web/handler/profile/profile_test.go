package profile

import (
	"net/http"
	"net/http/httptest"
	"strconv"
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
	profilefieldctl "github.com/applymate/applymate/internal/db/controller/profilefield"
	"github.com/applymate/applymate/internal/db/models"
)

// setupTestApp wires the handler against an in-memory SQLite database with
// one applicant holding the profile permission.
func setupTestApp(t *testing.T) (*fiber.App, *gorm.DB, *auth.TokenService, *models.User) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to create test database")

	err = db.AutoMigrate(
		&models.Role{}, &models.Permission{}, &models.RolePermission{},
		&models.User{}, &models.ProfileField{}, &models.ProfileValue{},
	)
	require.NoError(t, err, "failed to migrate test database")

	applicantRole := models.Role{Name: models.RoleApplicant}
	require.NoError(t, db.Create(&applicantRole).Error)

	perm := models.Permission{Name: auth.PermProfileEdit, Resource: "profile", Action: "edit"}
	require.NoError(t, db.Create(&perm).Error)
	require.NoError(t, db.Create(&models.RolePermission{RoleID: applicantRole.ID, PermissionID: perm.ID}).Error)

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

	return app, db, tokens, applicant
}

func formRequest(t *testing.T, tokens *auth.TokenService, target, body string, userID uint64) *http.Request {
	t.Helper()

	req := httptest.NewRequest(fiber.MethodPost, target, strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)

	if userID != 0 {
		token, _, err := tokens.Issue(userID, "applicant")
		require.NoError(t, err)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	return req
}

func TestSaveValuesRequiresAuth(t *testing.T) {
	app, db, tokens, _ := setupTestApp(t)

	resp, err := app.Test(formRequest(t, tokens, Path, "field_1=whatever", 0))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	var count int64
	db.Model(&models.ProfileValue{}).Count(&count)
	assert.Zero(t, count)
}

func TestSaveValues(t *testing.T) {
	app, db, tokens, applicant := setupTestApp(t)

	field, err := profilefieldctl.Create(db, "firstName", "First name", 10)
	require.NoError(t, err)

	body := "field_" + strconv.FormatUint(field.ID, 10) + "=Ada&field_999=ignored&unrelated=x"
	resp, err := app.Test(formRequest(t, tokens, Path, body, applicant.ID))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)

	values, err := profilefieldctl.GetValues(db, applicant.ID)
	require.NoError(t, err)
	require.Len(t, values, 1)
	assert.Equal(t, field.ID, values[0].ProfileFieldID)
	assert.Equal(t, "Ada", values[0].Value)
}

func TestChangePassword(t *testing.T) {
	app, db, tokens, applicant := setupTestApp(t)

	target := Path + "/password"
	local := auth.NewLocalProvider(db)

	// wrong current password leaves the stored one in place
	resp, err := app.Test(formRequest(t, tokens, target,
		"oldPassword=not+it&newPassword=next+one", applicant.ID))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Contains(t, resp.Header.Get(fiber.HeaderLocation), "error=")

	_, err = local.Authenticate("applicant", "original password")
	require.NoError(t, err)

	// empty new password is rejected before the store
	resp, err = app.Test(formRequest(t, tokens, target,
		"oldPassword=original+password&newPassword=", applicant.ID))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Contains(t, resp.Header.Get(fiber.HeaderLocation), "error=")

	// correct current password rotates it
	resp, err = app.Test(formRequest(t, tokens, target,
		"oldPassword=original+password&newPassword=next+one", applicant.ID))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.NotContains(t, resp.Header.Get(fiber.HeaderLocation), "error=")

	_, err = local.Authenticate("applicant", "original password")
	require.Error(t, err)

	user, err := local.Authenticate("applicant", "next one")
	require.NoError(t, err)
	assert.Equal(t, applicant.ID, user.ID)
}
