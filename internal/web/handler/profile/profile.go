// Package profile provides the applicant profile page where canonical
// profile-field values are viewed and edited.
package profile

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/applymate/applymate/internal/auth"
	"github.com/applymate/applymate/internal/config"
	"github.com/applymate/applymate/internal/db/controller/profilefield"
	"github.com/applymate/applymate/internal/web/handler"
	"github.com/applymate/applymate/internal/web/navigation"
)

const (
	// Path is the path to the profile page.
	Path = handler.RootPath + "profile"

	// TemplateName is the name of the profile template.
	TemplateName = "profile"

	// fieldFormPrefix prefixes the form input name of each catalog entry.
	fieldFormPrefix = "field_"
)

// Entry represents one catalog field plus the applicant's current value for
// template rendering.
type Entry struct {
	ID    uint64
	Name  string
	Label string
	Value string
}

// Service is the profile handler service.
type Service struct {
	handler.Service
	cfg   *config.Config
	db    *gorm.DB
	local *auth.LocalProvider
}

// Handler is the profile handler.
var Handler = Service{}

// Init initializes the profile handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, authService *auth.Service, tokens *auth.TokenService) {
	if app == nil || cfg == nil || db == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.db = db
	s.cfg = cfg
	s.local = auth.NewLocalProvider(db)

	app.Route(Path, func(router fiber.Router) {
		router.Use(auth.RequirePermission(authService, tokens, auth.PermProfileEdit))
		router.Get(handler.RouterRootPath, s.Get)
		router.Post(handler.RouterRootPath, s.Post)
		router.Post("/password", s.ChangePassword)
	})
}

// entries loads the catalog joined with the applicant's stored values.
func (s *Service) entries(userID uint64) ([]Entry, error) {
	catalog, err := profilefield.GetAll(s.db)
	if err != nil {
		return nil, err
	}

	values, err := profilefield.GetValues(s.db, userID)
	if err != nil {
		return nil, err
	}

	byField := make(map[uint64]string, len(values))
	for i := range values {
		byField[values[i].ProfileFieldID] = values[i].Value
	}

	entries := make([]Entry, 0, len(catalog))
	for i := range catalog {
		entries = append(entries, Entry{
			ID:    catalog[i].ID,
			Name:  catalog[i].Name,
			Label: catalog[i].Label,
			Value: byField[catalog[i].ID],
		})
	}

	return entries, nil
}

// Get handles the profile page rendering.
func (s *Service) Get(c *fiber.Ctx) error {
	userID := auth.UserIDFromLocals(c)

	nav := navigation.NewContext("Profile", "profile", "profile").
		AddBreadcrumb("Home", "/dashboard", false).
		AddBreadcrumb("Profile", Path, true)

	entries, err := s.entries(userID)
	if err != nil {
		log.Error().Err(err).Uint64("user_id", userID).Msg("failed to load profile")

		return c.Status(fiber.StatusInternalServerError).SendString("Failed to load profile")
	}

	return c.Render(TemplateName, fiber.Map{
		"Navigation": nav,
		"Entries":    entries,
		"title":      s.cfg.Title,
		"error":      c.Query("error"),
	}, handler.BaseLayout)
}

// ChangePassword changes the signed-in applicant's password after checking
// the current one. Accounts signed in through an identity provider have no
// local password and are turned away.
func (s *Service) ChangePassword(c *fiber.Ctx) error {
	userID := auth.UserIDFromLocals(c)

	oldPassword := c.FormValue("oldPassword")
	newPassword := c.FormValue("newPassword")

	if newPassword == "" {
		return c.Redirect(Path + "?error=new+password+is+required")
	}

	if err := s.local.ChangePassword(userID, oldPassword, newPassword); err != nil {
		if errors.Is(err, auth.ErrInvalidOldPassword) {
			return c.Redirect(Path + "?error=current+password+is+incorrect")
		}

		log.Error().Err(err).Uint64("user_id", userID).Msg("failed to change password")

		return c.Redirect(Path + "?error=failed+to+change+password")
	}

	return c.Redirect(Path)
}

// Post saves the submitted profile values. Each form input is named
// "field_<catalogID>"; unknown inputs are ignored.
func (s *Service) Post(c *fiber.Ctx) error {
	userID := auth.UserIDFromLocals(c)

	var saveErr error

	c.Context().PostArgs().VisitAll(func(key, value []byte) {
		if saveErr != nil {
			return
		}

		saveErr = s.saveOne(userID, string(key), string(value))
	})

	if saveErr != nil {
		log.Error().Err(saveErr).Uint64("user_id", userID).Msg("failed to save profile value")

		return c.Status(fiber.StatusInternalServerError).SendString("Failed to save profile")
	}

	return c.Redirect(Path)
}

// saveOne stores a single submitted value if the key names a catalog entry.
func (s *Service) saveOne(userID uint64, key, value string) error {
	if !strings.HasPrefix(key, fieldFormPrefix) {
		return nil
	}

	fieldID, err := strconv.ParseUint(strings.TrimPrefix(key, fieldFormPrefix), 10, 64)
	if err != nil {
		return nil
	}

	_, err = profilefield.SetValue(s.db, userID, fieldID, value)

	return err
}
