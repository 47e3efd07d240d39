// Package school provides the admin page for managing the partner-school
// catalog.
package school

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/applymate/applymate/internal/auth"
	"github.com/applymate/applymate/internal/config"
	schoolctl "github.com/applymate/applymate/internal/db/controller/school"
	"github.com/applymate/applymate/internal/fieldmatch"
	"github.com/applymate/applymate/internal/web/handler"
	"github.com/applymate/applymate/internal/web/navigation"
)

const (
	// Path is the path to the admin school page.
	Path = "/admin/schools"

	// TemplateName is the name of the school admin template.
	TemplateName = "admin/schools"
)

// Service is the school admin handler service.
type Service struct {
	handler.Service
	cfg *config.Config
	db  *gorm.DB
}

// Handler is the school admin handler.
var Handler = Service{}

// Init initializes the school admin handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, authService *auth.Service, tokens *auth.TokenService) {
	if app == nil || cfg == nil || db == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.db = db
	s.cfg = cfg

	app.Route(Path, func(router fiber.Router) {
		router.Use(auth.RequirePermission(authService, tokens, auth.PermAdminSchools))
		router.Get(handler.RouterRootPath, s.Get)
		router.Post(handler.RouterRootPath, s.Post)
		router.Post("/:id/update", s.Update)
		router.Post("/:id/delete", s.Delete)
	})
}

// Get handles the school admin page rendering.
func (s *Service) Get(c *fiber.Ctx) error {
	nav := navigation.NewContext("Schools", "admin", "schools").
		AddBreadcrumb("Home", "/dashboard", false).
		AddBreadcrumb("Schools", Path, true)

	schools, err := schoolctl.GetAll(s.db)
	if err != nil {
		log.Error().Err(err).Msg("failed to load schools")

		return c.Status(fiber.StatusInternalServerError).SendString("Failed to load schools")
	}

	return c.Render(TemplateName, fiber.Map{
		"Navigation": nav,
		"Schools":    schools,
		"title":      s.cfg.Title,
		"error":      c.Query("error"),
	}, handler.BaseLayout)
}

// Post handles creating a new school from the admin form.
func (s *Service) Post(c *fiber.Ctx) error {
	form := new(SchoolForm)

	if err := c.BodyParser(form); err != nil {
		return c.Redirect(Path + "?error=invalid+form")
	}

	if failures := ValidateForm(form); len(failures) > 0 {
		log.Debug().Interface("failures", failures).Msg("school form validation failed")

		return c.Redirect(Path + "?error=name+and+domain+are+required")
	}

	domain := fieldmatch.NormalizeDomain(form.Domain)

	if _, err := schoolctl.Create(s.db, form.Name, domain, form.URL); err != nil {
		if errors.Is(err, schoolctl.ErrSchoolAlreadyExists) {
			return c.Redirect(Path + "?error=school+already+exists")
		}

		log.Error().Err(err).Str("name", form.Name).Msg("failed to create school")

		return c.Status(fiber.StatusInternalServerError).SendString("Failed to create school")
	}

	return c.Redirect(Path)
}

// Update handles editing an existing school.
func (s *Service) Update(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).SendString("Invalid school id")
	}

	form := new(SchoolForm)
	if err := c.BodyParser(form); err != nil {
		return c.Redirect(Path + "?error=invalid+form")
	}

	if failures := ValidateForm(form); len(failures) > 0 {
		return c.Redirect(Path + "?error=name+and+domain+are+required")
	}

	domain := fieldmatch.NormalizeDomain(form.Domain)

	if _, err := schoolctl.Update(s.db, id, form.Name, domain, form.URL, form.Active); err != nil {
		if errors.Is(err, schoolctl.ErrSchoolNotFound) {
			return c.Status(fiber.StatusNotFound).SendString("School not found")
		}

		log.Error().Err(err).Uint64("school_id", id).Msg("failed to update school")

		return c.Status(fiber.StatusInternalServerError).SendString("Failed to update school")
	}

	return c.Redirect(Path)
}

// Delete handles removing a school from the catalog.
func (s *Service) Delete(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).SendString("Invalid school id")
	}

	if err := schoolctl.Delete(s.db, id); err != nil {
		if errors.Is(err, schoolctl.ErrSchoolNotFound) {
			return c.Status(fiber.StatusNotFound).SendString("School not found")
		}

		log.Error().Err(err).Uint64("school_id", id).Msg("failed to delete school")

		return c.Status(fiber.StatusInternalServerError).SendString("Failed to delete school")
	}

	return c.Redirect(Path)
}
