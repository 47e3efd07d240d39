// Package user provides the admin page for managing user accounts.
package user

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/applymate/applymate/internal/auth"
	"github.com/applymate/applymate/internal/config"
	"github.com/applymate/applymate/internal/db/models"
	"github.com/applymate/applymate/internal/web/handler"
	"github.com/applymate/applymate/internal/web/navigation"
)

const (
	// Path is the path to the admin users page.
	Path = "/admin/users"

	// TemplateName is the name of the users admin template.
	TemplateName = "admin/users"

	// pageSize is the number of accounts listed per page.
	pageSize = 50
)

// Service is the user admin handler service.
type Service struct {
	handler.Service
	cfg         *config.Config
	db          *gorm.DB
	local       *auth.LocalProvider
	authService *auth.Service
}

// Handler is the user admin handler.
var Handler = Service{}

// Init initializes the user admin handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, authService *auth.Service, tokens *auth.TokenService) {
	if app == nil || cfg == nil || db == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.db = db
	s.cfg = cfg
	s.local = auth.NewLocalProvider(db)
	s.authService = authService

	app.Route(Path, func(router fiber.Router) {
		router.Use(auth.RequirePermission(authService, tokens, auth.PermAdminUsers))
		router.Get(handler.RouterRootPath, s.Get)
		router.Post("/:id/active", s.SetActive)
		router.Post("/:id/password", s.ResetPassword)
		router.Post("/:id/role", s.AssignRole)
	})
}

// Get handles the users admin page rendering. A ?username= query narrows the
// listing to one exact account; ?page= pages through the rest.
func (s *Service) Get(c *fiber.Ctx) error {
	nav := navigation.NewContext("Users", "admin", "users").
		AddBreadcrumb("Home", "/dashboard", false).
		AddBreadcrumb("Admin", "/admin", false).
		AddBreadcrumb("Users", Path, true)

	var (
		users []models.User
		total int64
		err   error
	)

	if username := c.Query("username"); username != "" {
		user, lookupErr := s.local.GetUserByUsername(username)
		if lookupErr == nil {
			users = []models.User{*user}
			total = 1
		}
	} else {
		page, _ := strconv.Atoi(c.Query("page", "1"))
		if page < 1 {
			page = 1
		}

		users, total, err = s.local.ListUsers("", nil, pageSize, (page-1)*pageSize)
		if err != nil {
			log.Error().Err(err).Msg("failed to list users")

			return c.Status(fiber.StatusInternalServerError).SendString("Failed to load users")
		}
	}

	var roles []models.Role
	if err = s.db.Order("name").Find(&roles).Error; err != nil {
		log.Error().Err(err).Msg("failed to load roles")

		return c.Status(fiber.StatusInternalServerError).SendString("Failed to load users")
	}

	return c.Render(TemplateName, fiber.Map{
		"Navigation": nav,
		"Users":      users,
		"Total":      total,
		"Roles":      roles,
		"title":      s.cfg.Title,
		"error":      c.Query("error"),
	}, handler.BaseLayout)
}

// SetActive enables or disables an account. Disabled applicants keep their
// data but cannot sign in.
func (s *Service) SetActive(c *fiber.Ctx) error {
	userID, ok := s.targetUser(c)
	if !ok {
		return c.Status(fiber.StatusNotFound).SendString("User not found")
	}

	active, err := strconv.ParseBool(c.FormValue("active"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).SendString("Invalid active flag")
	}

	if err := s.local.SetActive(userID, active); err != nil {
		log.Error().Err(err).Uint64("user_id", userID).Msg("failed to set user active flag")

		return c.Status(fiber.StatusInternalServerError).SendString("Failed to update user")
	}

	return c.Redirect(Path)
}

// ResetPassword sets a new password on a local account without the old one.
func (s *Service) ResetPassword(c *fiber.Ctx) error {
	userID, ok := s.targetUser(c)
	if !ok {
		return c.Status(fiber.StatusNotFound).SendString("User not found")
	}

	newPassword := c.FormValue("newPassword")
	if newPassword == "" {
		return c.Redirect(Path + "?error=new+password+is+required")
	}

	if err := s.local.ResetPassword(userID, newPassword); err != nil {
		log.Error().Err(err).Uint64("user_id", userID).Msg("failed to reset password")

		return c.Status(fiber.StatusInternalServerError).SendString("Failed to reset password")
	}

	return c.Redirect(Path)
}

// AssignRole moves an account to another role.
func (s *Service) AssignRole(c *fiber.Ctx) error {
	userID, ok := s.targetUser(c)
	if !ok {
		return c.Status(fiber.StatusNotFound).SendString("User not found")
	}

	roleID, err := strconv.ParseUint(c.FormValue("roleId"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).SendString("Invalid role id")
	}

	var role models.Role
	if err := s.db.First(&role, roleID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).SendString("Role not found")
	}

	if err := s.authService.AssignRoleToUser(userID, role.ID); err != nil {
		log.Error().Err(err).Uint64("user_id", userID).Uint("role_id", role.ID).
			Msg("failed to assign role")

		return c.Status(fiber.StatusInternalServerError).SendString("Failed to assign role")
	}

	return c.Redirect(Path)
}

// targetUser resolves the :id route parameter to an existing account.
func (s *Service) targetUser(c *fiber.Ctx) (uint64, bool) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return 0, false
	}

	if _, err := s.local.GetUserByID(id); err != nil {
		return 0, false
	}

	return id, true
}
