// Package profilefield provides the admin page for managing the canonical
// profile-field catalog.
package profilefield

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/applymate/applymate/internal/auth"
	"github.com/applymate/applymate/internal/config"
	profilefieldctl "github.com/applymate/applymate/internal/db/controller/profilefield"
	"github.com/applymate/applymate/internal/web/handler"
	"github.com/applymate/applymate/internal/web/navigation"
)

const (
	// Path is the path to the admin profile-field catalog page.
	Path = "/admin/profile-fields"

	// TemplateName is the name of the catalog admin template.
	TemplateName = "admin/profile_fields"
)

// Service is the profile-field admin handler service.
type Service struct {
	handler.Service
	cfg *config.Config
	db  *gorm.DB
}

// Handler is the profile-field admin handler.
var Handler = Service{}

// Init initializes the profile-field admin handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, authService *auth.Service, tokens *auth.TokenService) {
	if app == nil || cfg == nil || db == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.db = db
	s.cfg = cfg

	app.Route(Path, func(router fiber.Router) {
		router.Use(auth.RequirePermission(authService, tokens, auth.PermAdminProfileFields))
		router.Get(handler.RouterRootPath, s.Get)
		router.Post(handler.RouterRootPath, s.Post)
		router.Post("/:id/update", s.Update)
	})
}

// Get handles the catalog admin page rendering.
func (s *Service) Get(c *fiber.Ctx) error {
	nav := navigation.NewContext("Profile Fields", "admin", "profile-fields").
		AddBreadcrumb("Home", "/dashboard", false).
		AddBreadcrumb("Admin", "/admin", false).
		AddBreadcrumb("Profile Fields", Path, true)

	fields, err := profilefieldctl.List(s.db)
	if err != nil {
		log.Error().Err(err).Msg("failed to load profile field catalog")

		return c.Status(fiber.StatusInternalServerError).SendString("Failed to load catalog")
	}

	return c.Render(TemplateName, fiber.Map{
		"Navigation": nav,
		"Fields":     fields,
		"title":      s.cfg.Title,
		"error":      c.Query("error"),
	}, handler.BaseLayout)
}

// Post handles creating a new catalog entry from the admin form.
func (s *Service) Post(c *fiber.Ctx) error {
	form := new(FieldForm)

	if err := c.BodyParser(form); err != nil {
		return c.Redirect(Path + "?error=invalid+form")
	}

	if failures := ValidateForm(form); len(failures) > 0 {
		log.Debug().Interface("failures", failures).Msg("profile field form validation failed")

		return c.Redirect(Path + "?error=field+name+is+required")
	}

	if _, err := profilefieldctl.Create(s.db, form.Name, form.Label, form.Ordering); err != nil {
		if errors.Is(err, profilefieldctl.ErrFieldAlreadyExists) {
			return c.Redirect(Path + "?error=field+already+exists")
		}

		log.Error().Err(err).Str("name", form.Name).Msg("failed to create profile field")

		return c.Status(fiber.StatusInternalServerError).SendString("Failed to create profile field")
	}

	return c.Redirect(Path)
}

// Update handles editing the label, ordering and active flag of an entry.
// The canonical name stays immutable.
func (s *Service) Update(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).SendString("Invalid field id")
	}

	form := new(FieldForm)
	if err := c.BodyParser(form); err != nil {
		return c.Redirect(Path + "?error=invalid+form")
	}

	if _, err := profilefieldctl.Update(s.db, id, form.Label, form.Ordering, form.Active); err != nil {
		if errors.Is(err, profilefieldctl.ErrFieldNotFound) {
			return c.Status(fiber.StatusNotFound).SendString("Profile field not found")
		}

		log.Error().Err(err).Uint64("field_id", id).Msg("failed to update profile field")

		return c.Status(fiber.StatusInternalServerError).SendString("Failed to update profile field")
	}

	return c.Redirect(Path)
}
