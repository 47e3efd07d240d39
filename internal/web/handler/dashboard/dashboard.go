// Package dashboard provides the applicant dashboard page.
package dashboard

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/applymate/applymate/internal/auth"
	"github.com/applymate/applymate/internal/config"
	mappingctl "github.com/applymate/applymate/internal/db/controller/mapping"
	"github.com/applymate/applymate/internal/db/controller/profilefield"
	schoolctl "github.com/applymate/applymate/internal/db/controller/school"
	"github.com/applymate/applymate/internal/web/handler"
	"github.com/applymate/applymate/internal/web/navigation"
)

const (
	// Path is the path to the dashboard page.
	Path = handler.RootPath + "dashboard"

	// TemplateName is the name of the dashboard template.
	TemplateName = "dashboard/dashboard"
)

// Data represents the complete dashboard data.
type Data struct {
	ProfileTotal   int
	ProfileFilled  int
	ProfilePercent int
	MappingCount   int64
	Schools        []SchoolEntry
}

// SchoolEntry represents one partner school for template rendering.
type SchoolEntry struct {
	Name   string
	Domain string
	URL    string
}

// Service is the dashboard handler service.
type Service struct {
	handler.Service
	cfg *config.Config
	db  *gorm.DB
}

// Handler is the dashboard handler.
var Handler = Service{}

// Init initializes the dashboard handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, authService *auth.Service, tokens *auth.TokenService) {
	if app == nil || cfg == nil || db == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.db = db
	s.cfg = cfg

	app.Get(Path,
		auth.RequirePermission(authService, tokens, auth.PermDashboardView),
		s.Get,
	)
}

// Get handles the dashboard page rendering. It shows how complete the
// applicant's profile is, how many mappings they have learned so far and the
// active partner schools.
func (s *Service) Get(c *fiber.Ctx) error {
	userID := auth.UserIDFromLocals(c)

	nav := navigation.NewContext("Dashboard", "dashboard", "dashboard").
		AddBreadcrumb("Home", Path, false).
		AddBreadcrumb("Dashboard", Path, true)

	data := Data{}

	catalog, err := profilefield.GetAll(s.db)
	if err != nil {
		log.Error().Err(err).Msg("failed to load profile field catalog")

		return c.Status(fiber.StatusInternalServerError).SendString("Failed to load dashboard")
	}

	values, err := profilefield.GetValues(s.db, userID)
	if err != nil {
		log.Error().Err(err).Uint64("user_id", userID).Msg("failed to load profile values")

		return c.Status(fiber.StatusInternalServerError).SendString("Failed to load dashboard")
	}

	filled := make(map[uint64]bool, len(values))
	for i := range values {
		if values[i].Value != "" {
			filled[values[i].ProfileFieldID] = true
		}
	}

	data.ProfileTotal = len(catalog)
	for i := range catalog {
		if filled[catalog[i].ID] {
			data.ProfileFilled++
		}
	}

	if data.ProfileTotal > 0 {
		data.ProfilePercent = data.ProfileFilled * 100 / data.ProfileTotal
	}

	data.MappingCount, err = mappingctl.CountByUser(s.db, userID)
	if err != nil {
		log.Error().Err(err).Uint64("user_id", userID).Msg("failed to count mappings")

		return c.Status(fiber.StatusInternalServerError).SendString("Failed to load dashboard")
	}

	schools, err := schoolctl.GetAll(s.db)
	if err != nil {
		log.Error().Err(err).Msg("failed to load schools")

		return c.Status(fiber.StatusInternalServerError).SendString("Failed to load dashboard")
	}

	for i := range schools {
		if !schools[i].Active {
			continue
		}

		data.Schools = append(data.Schools, SchoolEntry{
			Name:   schools[i].Name,
			Domain: schools[i].Domain,
			URL:    schools[i].URL,
		})
	}

	log.Debug().
		Uint64("user_id", userID).
		Int("profile_total", data.ProfileTotal).
		Int("profile_filled", data.ProfileFilled).
		Int64("mapping_count", data.MappingCount).
		Int("schools", len(data.Schools)).
		Msg("Dashboard rendered")

	return c.Render(TemplateName, fiber.Map{
		"Navigation": nav,
		"Data":       data,
		"title":      s.cfg.Title,
	}, handler.BaseLayout)
}
