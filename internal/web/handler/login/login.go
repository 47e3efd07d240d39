// Package login provides the login and applicant registration pages.
package login

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/applymate/applymate/internal/auth"
	"github.com/applymate/applymate/internal/config"
	"github.com/applymate/applymate/internal/db/models"
	"github.com/applymate/applymate/internal/web/handler"
	"github.com/applymate/applymate/internal/web/session"
)

const (
	// Path is the path to the login page.
	Path = "/login"

	// RegisterPath is the path to the applicant registration page.
	RegisterPath = "/register"

	// TemplateName is the name of the login template.
	TemplateName = "login"

	// RegisterTemplateName is the name of the registration template.
	RegisterTemplateName = "register"
)

// credentials is the login form payload.
type credentials struct {
	Username string `form:"username"`
	Password string `form:"password"`
}

// registration is the registration form payload.
type registration struct {
	Username  string `form:"username"`
	Email     string `form:"email"`
	Password  string `form:"password"`
	FirstName string `form:"firstName"`
	LastName  string `form:"lastName"`
}

// Service is the login handler service.
type Service struct {
	handler.Service
	cfg   *config.Config
	db    *gorm.DB
	local *auth.LocalProvider
}

// Handler is the login handler.
var Handler = Service{}

// Init initializes the login handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB) error {
	if app == nil || cfg == nil || db == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.db = db
	s.cfg = cfg
	s.local = auth.NewLocalProvider(db)

	// register routes
	app.Route(Path, func(router fiber.Router) {
		router.Get(handler.RouterRootPath, s.Get)
		router.Post(handler.RouterRootPath, s.Post)
	})
	app.Route(RegisterPath, func(router fiber.Router) {
		router.Get(handler.RouterRootPath, s.GetRegister)
		router.Post(handler.RouterRootPath, s.PostRegister)
	})

	return nil
}

// Get handles the login page rendering.
func (s *Service) Get(c *fiber.Ctx) error {
	return c.Render(TemplateName, fiber.Map{
		"title":        s.cfg.Title,
		"oidc_enabled": s.cfg.Auth.OIDC.Enabled,
	})
}

// Post handles the login form submission.
func (s *Service) Post(c *fiber.Ctx) error {
	creds := new(credentials)

	if err := c.BodyParser(creds); err != nil {
		return err
	}

	user, err := s.local.Authenticate(creds.Username, creds.Password)
	if err != nil {
		message := "Invalid username or password"
		if errors.Is(err, auth.ErrUserAccountDisabled) {
			message = "Account is disabled"
		}

		return c.Render(TemplateName, fiber.Map{
			"title":        s.cfg.Title,
			"oidc_enabled": s.cfg.Auth.OIDC.Enabled,
			"error":        message,
		})
	}

	if err := s.startSession(c, user); err != nil {
		log.Error().Err(err).Msg("failed to start session")

		return c.Render(TemplateName, fiber.Map{
			"title":        s.cfg.Title,
			"oidc_enabled": s.cfg.Auth.OIDC.Enabled,
			"error":        "Internal server error",
		})
	}

	return c.Redirect("/dashboard")
}

// GetRegister handles the registration page rendering.
func (s *Service) GetRegister(c *fiber.Ctx) error {
	return c.Render(RegisterTemplateName, fiber.Map{
		"title": s.cfg.Title,
	})
}

// PostRegister handles the registration form submission. New accounts get the
// applicant role and are signed in immediately.
func (s *Service) PostRegister(c *fiber.Ctx) error {
	form := new(registration)

	if err := c.BodyParser(form); err != nil {
		return err
	}

	if form.Username == "" || form.Email == "" || form.Password == "" {
		return c.Render(RegisterTemplateName, fiber.Map{
			"title": s.cfg.Title,
			"error": "Username, email and password are required",
		})
	}

	var applicantRole models.Role
	if err := s.db.Where("name = ?", models.RoleApplicant).First(&applicantRole).Error; err != nil {
		log.Error().Err(err).Msg("applicant role missing")

		return c.Render(RegisterTemplateName, fiber.Map{
			"title": s.cfg.Title,
			"error": "Internal server error",
		})
	}

	user, err := s.local.Register(
		form.Username, form.Email, form.Password,
		form.FirstName, form.LastName,
		applicantRole.ID,
	)
	if err != nil {
		message := "Internal server error"
		if errors.Is(err, auth.ErrUserNameOrEmailExists) {
			message = "An account with this username or email already exists"
		}

		return c.Render(RegisterTemplateName, fiber.Map{
			"title": s.cfg.Title,
			"error": message,
		})
	}

	if err := s.startSession(c, user); err != nil {
		log.Error().Err(err).Msg("failed to start session")
		return c.Redirect(Path)
	}

	return c.Redirect("/dashboard")
}

// startSession writes a new session for the user and sets the login cookie.
func (s *Service) startSession(c *fiber.Ctx, user *models.User) error {
	sessionID, err := session.GenerateSessionID()
	if err != nil {
		return err
	}

	userSession := &session.Data{
		User: *user,
	}

	if err = userSession.Write(sessionID, s.cfg.Webserver.Session.ExpiryTime); err != nil {
		return err
	}

	cookieSettings := &fiber.Cookie{
		Name:     handler.SessionCookieName,
		Value:    sessionID,
		MaxAge:   int(s.cfg.Webserver.Session.ExpiryTime.Seconds()),
		Secure:   true,
		HTTPOnly: true,
		SameSite: "Lax",
	}

	if s.cfg.DevMode {
		cookieSettings.Secure = false
	}

	c.Cookie(cookieSettings)

	return nil
}
