// Package logout provides the logout endpoint.
package logout

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/applymate/applymate/internal/config"
	"github.com/applymate/applymate/internal/web/handler"
	"github.com/applymate/applymate/internal/web/handler/login"
	"github.com/applymate/applymate/internal/web/session"
)

const (
	// Path is the path to the logout endpoint.
	Path = "/logout"
)

// Service is the logout handler service.
type Service struct {
	handler.Service
	cfg *config.Config
	db  *gorm.DB
}

// Handler is the logout handler.
var Handler = Service{}

// Init initializes the logout handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB) error {
	if app == nil || cfg == nil || db == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.db = db
	s.cfg = cfg

	app.Get(Path, s.Get)

	return nil
}

// Get terminates the session server-side, clears the cookie and redirects to
// the login page.
func (s *Service) Get(c *fiber.Ctx) error {
	sessionID := c.Cookies(handler.SessionCookieName)
	if sessionID != "" {
		if err := session.Delete(sessionID); err != nil {
			log.Warn().Err(err).Msg("failed to delete session")
		}
	}

	c.ClearCookie(handler.SessionCookieName)

	return c.Redirect(login.Path)
}
