// Package index provides the admin landing page linking the admin sections.
package index

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/applymate/applymate/internal/auth"
	"github.com/applymate/applymate/internal/config"
	"github.com/applymate/applymate/internal/web/handler"
	"github.com/applymate/applymate/internal/web/navigation"
)

const (
	// Path is the path to the admin landing page.
	Path = "/admin"

	// TemplateName is the name of the admin landing template.
	TemplateName = "admin/index"
)

// Section is one admin area the signed-in administrator may manage.
type Section struct {
	Title      string
	URL        string
	Permission string
}

var sections = []Section{
	{Title: "Partner schools", URL: "/admin/schools", Permission: auth.PermAdminSchools},
	{Title: "Profile fields", URL: "/admin/profile-fields", Permission: auth.PermAdminProfileFields},
	{Title: "Users", URL: "/admin/users", Permission: auth.PermAdminUsers},
}

// Service is the admin landing handler service.
type Service struct {
	handler.Service
	cfg         *config.Config
	db          *gorm.DB
	authService *auth.Service
	tokens      *auth.TokenService
}

// Handler is the admin landing handler.
var Handler = Service{}

// Init initializes the admin landing handler. Any admin permission grants
// access to the page; each section still enforces its own permission.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, authService *auth.Service, tokens *auth.TokenService) {
	if app == nil || cfg == nil || db == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.db = db
	s.cfg = cfg
	s.authService = authService
	s.tokens = tokens

	app.Get(Path,
		auth.RequireAnyPermission(authService, tokens,
			auth.PermAdminSchools, auth.PermAdminProfileFields, auth.PermAdminUsers),
		s.Get,
	)
}

// Get handles the admin landing page rendering, listing only the sections the
// administrator holds the permission for.
func (s *Service) Get(c *fiber.Ctx) error {
	userID := auth.UserIDFromLocals(c)

	nav := navigation.NewContext("Admin", "admin", "index").
		AddBreadcrumb("Home", "/dashboard", false).
		AddBreadcrumb("Admin", Path, true)

	visible := make([]Section, 0, len(sections))

	for _, section := range sections {
		has, err := s.authService.HasPermission(userID, section.Permission)
		if err != nil {
			log.Error().Err(err).Uint64("user_id", userID).Str("permission", section.Permission).
				Msg("failed to check permission")

			return c.Status(fiber.StatusInternalServerError).SendString("Failed to load admin page")
		}

		if has {
			visible = append(visible, section)
		}
	}

	return c.Render(TemplateName, fiber.Map{
		"Navigation": nav,
		"Sections":   visible,
		"title":      s.cfg.Title,
	}, handler.BaseLayout)
}
