// Package token provides the credential-for-token exchange used by the
// browser extension, which cannot hold a session cookie across origins.
package token

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/applymate/applymate/internal/auth"
	"github.com/applymate/applymate/internal/config"
	"github.com/applymate/applymate/internal/web/handler"
)

const (
	// Path is the token exchange endpoint.
	Path = "/api/token"
)

// Request carries the credentials to exchange.
type Request struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Response carries the issued bearer token.
type Response struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expiresIn"`
}

// Service is the token handler service.
type Service struct {
	handler.Service
	cfg    *config.Config
	db     *gorm.DB
	local  *auth.LocalProvider
	tokens *auth.TokenService
}

// Handler is the token handler.
var Handler = Service{}

// Init initializes the token handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, tokens *auth.TokenService) {
	if app == nil || cfg == nil || db == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.db = db
	s.cfg = cfg
	s.local = auth.NewLocalProvider(db)
	s.tokens = tokens

	app.Post(Path, s.Post)
}

// Post exchanges a username and password for a signed bearer token.
func (s *Service) Post(c *fiber.Ctx) error {
	req := new(Request)

	if err := c.BodyParser(req); err != nil || req.Username == "" || req.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "username and password required",
		})
	}

	user, err := s.local.Authenticate(req.Username, req.Password)
	if err != nil {
		log.Debug().Err(err).Str("username", req.Username).Msg("token exchange rejected")

		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "invalid credentials",
		})
	}

	token, expiresIn, err := s.tokens.Issue(user.ID, user.Username)
	if err != nil {
		log.Error().Err(err).Uint64("user_id", user.ID).Msg("failed to issue token")

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal error",
		})
	}

	return c.JSON(Response{
		Token:     token,
		ExpiresIn: expiresIn,
	})
}
