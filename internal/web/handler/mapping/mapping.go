// Package mapping provides the field-mapping page and the detection and
// save-mapping API endpoints used by the companion page and the browser
// extension.
package mapping

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/applymate/applymate/internal/auth"
	"github.com/applymate/applymate/internal/config"
	mappingctl "github.com/applymate/applymate/internal/db/controller/mapping"
	"github.com/applymate/applymate/internal/fieldmatch"
	"github.com/applymate/applymate/internal/web/handler"
	"github.com/applymate/applymate/internal/web/navigation"
)

const (
	// Path is the path to the mapping page.
	Path = handler.RootPath + "mapping"

	// TemplateName is the name of the mapping template.
	TemplateName = "mapping"

	// DetectAPIPath is the detection endpoint. It is deliberately
	// unauthenticated: scan input is ephemeral, non-sensitive DOM shape.
	DetectAPIPath = "/api/fields/detect"

	// MappingsAPIPath is the save and list endpoint for stored mappings.
	MappingsAPIPath = "/api/mappings"

	// ErrMsgRequiredFields is the validation failure message for a save call.
	ErrMsgRequiredFields = "domain, selector and profileField required"

	// ErrMsgInternal is the generic persistence failure message.
	ErrMsgInternal = "internal error"
)

// Service is the mapping handler service.
type Service struct {
	handler.Service
	cfg    *config.Config
	db     *gorm.DB
	tokens *auth.TokenService
}

// Handler is the mapping handler.
var Handler = Service{}

// Init initializes the mapping handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, authService *auth.Service, tokens *auth.TokenService) {
	if app == nil || cfg == nil || db == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.db = db
	s.cfg = cfg
	s.tokens = tokens

	app.Get(Path,
		auth.RequirePermission(authService, tokens, auth.PermMappingSave),
		s.GetPage,
	)

	// Detection stays open; everything touching stored mappings requires a user.
	app.Post(DetectAPIPath, s.Detect)
	app.Post(MappingsAPIPath, auth.RequireUser(tokens), s.Save)
	app.Get(MappingsAPIPath, auth.RequireUser(tokens), s.List)
}

// GetPage handles the mapping page rendering.
func (s *Service) GetPage(c *fiber.Ctx) error {
	nav := navigation.NewContext("Field Mappings", "mappings", "mapping").
		AddBreadcrumb("Home", "/dashboard", false).
		AddBreadcrumb("Field Mappings", Path, true)

	return c.Render(TemplateName, fiber.Map{
		"Navigation": nav,
		"title":      s.cfg.Title,
	}, handler.BaseLayout)
}

// Detect normalizes a scan request into detected fields, preserving input
// order. Scanning is best effort: an absent or malformed field list yields an
// empty list, never an error. When the caller happens to be authenticated and
// names a domain, stored mappings for that domain pre-fill the suggestions.
func (s *Service) Detect(c *fiber.Ctx) error {
	req := new(DetectRequest)

	if err := c.BodyParser(req); err != nil {
		log.Debug().Err(err).Msg("unparsable detection request, returning empty scan")

		return c.JSON(DetectResponse{Fields: []fieldmatch.DetectedField{}})
	}

	fields := fieldmatch.NormalizeAll(req.Fields)

	if userID, ok := auth.ResolveUserID(c, s.tokens); ok && req.Domain != "" {
		domain := fieldmatch.NormalizeDomain(req.Domain)

		known, err := mappingctl.FindByUserAndDomain(s.db, userID, domain)
		if err != nil {
			log.Warn().Err(err).Uint64("user_id", userID).Str("domain", domain).
				Msg("failed to load stored mappings for suggestions")
		} else {
			fields = fieldmatch.Annotate(fields, known)
		}
	}

	return c.JSON(DetectResponse{Fields: fields})
}

// Save validates and upserts a single mapping for the authenticated user.
// Exactly one durable write happens per successful call; validation and auth
// failures never reach the store.
func (s *Service) Save(c *fiber.Ctx) error {
	userID := auth.UserIDFromLocals(c)
	if userID == 0 {
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{Error: "unauthorized"})
	}

	req := new(SaveRequest)
	if err := c.BodyParser(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: ErrMsgRequiredFields})
	}

	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: ErrMsgRequiredFields})
	}

	domain := fieldmatch.NormalizeDomain(req.Domain)
	if domain == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: ErrMsgRequiredFields})
	}

	saved, err := mappingctl.Upsert(s.db, userID, domain, req.Selector, req.ProfileField, req.DomID, req.DomName)
	if err != nil {
		log.Error().Err(err).Uint64("user_id", userID).Str("domain", domain).Str("selector", req.Selector).
			Msg("failed to upsert mapping")

		resp := ErrorResponse{Error: ErrMsgInternal}
		if s.cfg.DevMode {
			resp.Detail = err.Error()
		}

		return c.Status(fiber.StatusInternalServerError).JSON(resp)
	}

	log.Debug().Uint64("user_id", userID).Str("domain", domain).Str("selector", saved.Selector).
		Str("profile_field", saved.ProfileField).Msg("mapping saved")

	return c.JSON(SaveResponse{
		Success: true,
		Mapping: toWire(saved),
	})
}

// List returns the authenticated user's stored mappings for a domain.
func (s *Service) List(c *fiber.Ctx) error {
	userID := auth.UserIDFromLocals(c)
	if userID == 0 {
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{Error: "unauthorized"})
	}

	domain := fieldmatch.NormalizeDomain(c.Query("domain"))
	if domain == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "domain required"})
	}

	stored, err := mappingctl.FindByUserAndDomain(s.db, userID, domain)
	if err != nil {
		log.Error().Err(err).Uint64("user_id", userID).Str("domain", domain).
			Msg("failed to list mappings")

		resp := ErrorResponse{Error: ErrMsgInternal}
		if s.cfg.DevMode {
			resp.Detail = err.Error()
		}

		return c.Status(fiber.StatusInternalServerError).JSON(resp)
	}

	mappings := make([]Mapping, 0, len(stored))
	for i := range stored {
		mappings = append(mappings, toWire(&stored[i]))
	}

	return c.JSON(ListResponse{Mappings: mappings})
}
