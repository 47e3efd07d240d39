package mapping

import (
	"encoding/json"
	"io"
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
	mappingctl "github.com/applymate/applymate/internal/db/controller/mapping"
	"github.com/applymate/applymate/internal/db/models"
)

// setupTestApp wires the handler against an in-memory SQLite database.
// API authentication in tests goes through bearer tokens so no session
// storage is needed.
func setupTestApp(t *testing.T) (*fiber.App, *gorm.DB, *auth.TokenService) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to create test database")

	err = db.AutoMigrate(&models.FieldMapping{})
	require.NoError(t, err, "failed to migrate test database")

	cfg := &config.Config{DevMode: true}
	tokens := auth.NewTokenService("test-secret-do-not-use", time.Hour)

	app := fiber.New()

	svc := Service{}
	svc.Init(app, cfg, db, auth.NewService(db), tokens)

	return app, db, tokens
}

func bearerFor(t *testing.T, tokens *auth.TokenService, userID uint64) string {
	t.Helper()

	token, _, err := tokens.Issue(userID, "applicant")
	require.NoError(t, err)

	return "Bearer " + token
}

func jsonRequest(method, target, body, authHeader string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	if authHeader != "" {
		req.Header.Set(fiber.HeaderAuthorization, authHeader)
	}

	return req
}

func decodeBody(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(body, out))
}

func TestDetectResilience(t *testing.T) {
	app, _, _ := setupTestApp(t)

	testCases := []struct {
		name string
		body string
	}{
		{name: "empty body", body: ""},
		{name: "garbage body", body: "not json at all"},
		{name: "missing field list", body: `{"domain":"example.edu"}`},
		{name: "empty field list", body: `{"fields":[]}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := app.Test(jsonRequest(fiber.MethodPost, DetectAPIPath, tc.body, ""))
			require.NoError(t, err)
			assert.Equal(t, fiber.StatusOK, resp.StatusCode)

			var out DetectResponse
			decodeBody(t, resp, &out)
			assert.NotNil(t, out.Fields)
			assert.Empty(t, out.Fields)
		})
	}
}

func TestDetectNormalizesInOrder(t *testing.T) {
	app, _, _ := setupTestApp(t)

	body := `{"fields":[{"id":"first","label":"First name"},{"label":"dropped"},{"id":"ssn"}]}`

	resp, err := app.Test(jsonRequest(fiber.MethodPost, DetectAPIPath, body, ""))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var out DetectResponse
	decodeBody(t, resp, &out)

	require.Len(t, out.Fields, 2)
	assert.Equal(t, "first", out.Fields[0].ID)
	assert.Equal(t, "#first", out.Fields[0].Selector)
	assert.Equal(t, "ssn", out.Fields[1].ID)
}

func TestDetectSuggestsFromStoredMappings(t *testing.T) {
	app, db, tokens := setupTestApp(t)

	_, err := mappingctl.Upsert(db, 1, "example.edu", "#ssn", "socialSecurityNumber", "", "")
	require.NoError(t, err)

	body := `{"domain":"https://example.edu/apply","fields":[{"id":"ssn"},{"id":"other"}]}`

	resp, err := app.Test(jsonRequest(fiber.MethodPost, DetectAPIPath, body, bearerFor(t, tokens, 1)))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var out DetectResponse
	decodeBody(t, resp, &out)

	require.Len(t, out.Fields, 2)
	assert.Equal(t, "socialSecurityNumber", out.Fields[0].Suggestion)
	assert.Empty(t, out.Fields[1].Suggestion)

	// other users never see u1's mappings
	resp, err = app.Test(jsonRequest(fiber.MethodPost, DetectAPIPath, body, bearerFor(t, tokens, 2)))
	require.NoError(t, err)
	out = DetectResponse{}
	decodeBody(t, resp, &out)
	assert.Empty(t, out.Fields[0].Suggestion)
}

func TestSaveRequiresAuth(t *testing.T) {
	app, db, _ := setupTestApp(t)

	body := `{"domain":"example.edu","selector":"#ssn","profileField":"socialSecurityNumber"}`

	resp, err := app.Test(jsonRequest(fiber.MethodPost, MappingsAPIPath, body, ""))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	count, err := mappingctl.CountByUser(db, 1)
	require.NoError(t, err)
	assert.Zero(t, count, "auth failure must never reach the store")
}

func TestSaveValidationFailFast(t *testing.T) {
	app, db, tokens := setupTestApp(t)

	testCases := []struct {
		name string
		body string
	}{
		{name: "missing domain", body: `{"selector":"#ssn","profileField":"socialSecurityNumber"}`},
		{name: "missing selector", body: `{"domain":"example.edu","profileField":"socialSecurityNumber"}`},
		{name: "missing profile field", body: `{"domain":"example.edu","selector":"#ssn"}`},
		{name: "empty profile field", body: `{"domain":"example.edu","selector":"#ssn","profileField":""}`},
		{name: "garbage body", body: "nope"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := app.Test(jsonRequest(fiber.MethodPost, MappingsAPIPath, tc.body, bearerFor(t, tokens, 1)))
			require.NoError(t, err)
			assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

			var out ErrorResponse
			decodeBody(t, resp, &out)
			assert.Equal(t, ErrMsgRequiredFields, out.Error)
		})
	}

	count, err := mappingctl.CountByUser(db, 1)
	require.NoError(t, err)
	assert.Zero(t, count, "validation failure must never reach the store")
}

func TestSaveThenOverwrite(t *testing.T) {
	app, db, tokens := setupTestApp(t)

	authHeader := bearerFor(t, tokens, 1)

	body := `{"domain":"example.edu","selector":"#ssn","profileField":"socialSecurityNumber"}`
	resp, err := app.Test(jsonRequest(fiber.MethodPost, MappingsAPIPath, body, authHeader))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var first SaveResponse
	decodeBody(t, resp, &first)

	assert.True(t, first.Success)
	assert.NotEmpty(t, first.Mapping.ID)
	assert.Equal(t, uint64(1), first.Mapping.UserID)
	assert.Equal(t, "example.edu", first.Mapping.Domain)
	assert.Equal(t, "#ssn", first.Mapping.Selector)
	assert.Equal(t, "socialSecurityNumber", first.Mapping.ProfileField)

	// same key, new profile field: same mapping identity, value replaced
	body = `{"domain":"example.edu","selector":"#ssn","profileField":"nationalId"}`
	resp, err = app.Test(jsonRequest(fiber.MethodPost, MappingsAPIPath, body, authHeader))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var second SaveResponse
	decodeBody(t, resp, &second)

	assert.True(t, second.Success)
	assert.Equal(t, first.Mapping.ID, second.Mapping.ID)
	assert.Equal(t, "nationalId", second.Mapping.ProfileField)

	count, err := mappingctl.CountByUser(db, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestSaveNormalizesDomain(t *testing.T) {
	app, _, tokens := setupTestApp(t)

	body := `{"domain":"https://WWW.Example.EDU/apply?step=1","selector":"#first","profileField":"firstName"}`

	resp, err := app.Test(jsonRequest(fiber.MethodPost, MappingsAPIPath, body, bearerFor(t, tokens, 1)))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var out SaveResponse
	decodeBody(t, resp, &out)
	assert.Equal(t, "example.edu", out.Mapping.Domain)
}

func TestListMappings(t *testing.T) {
	app, db, tokens := setupTestApp(t)

	_, err := mappingctl.Upsert(db, 1, "example.edu", "#zz", "lastName", "", "")
	require.NoError(t, err)
	_, err = mappingctl.Upsert(db, 1, "example.edu", "#aa", "firstName", "", "")
	require.NoError(t, err)
	_, err = mappingctl.Upsert(db, 2, "example.edu", "#aa", "email", "", "")
	require.NoError(t, err)

	authHeader := bearerFor(t, tokens, 1)

	resp, err := app.Test(jsonRequest(fiber.MethodGet, MappingsAPIPath+"?domain=example.edu", "", authHeader))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var out ListResponse
	decodeBody(t, resp, &out)

	require.Len(t, out.Mappings, 2)
	assert.Equal(t, "#aa", out.Mappings[0].Selector)
	assert.Equal(t, "#zz", out.Mappings[1].Selector)

	// domain is mandatory for listing
	resp, err = app.Test(jsonRequest(fiber.MethodGet, MappingsAPIPath, "", authHeader))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
