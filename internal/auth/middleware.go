package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/applymate/applymate/internal/web/session"
)

// LocalsUserID is the fiber.Locals key under which middleware stores the
// resolved user ID.
const LocalsUserID = "userID"

// ResolveUserID resolves the calling user from the request, trying the
// extension bearer token first and the session cookie second. Returns the
// user ID and true on success.
func ResolveUserID(c *fiber.Ctx, tokens *TokenService) (uint64, bool) {
	header := c.Get(fiber.HeaderAuthorization)
	if tokens != nil && strings.HasPrefix(header, "Bearer ") {
		claims, err := tokens.Verify(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			log.Debug().Err(err).Msg("Rejected bearer token")
			return 0, false
		}

		return claims.UserID, true
	}

	sessionID := c.Cookies("session")
	if sessionID == "" {
		return 0, false
	}

	sessionData := new(session.Data)
	if err := sessionData.Read(sessionID); err != nil {
		return 0, false
	}

	if sessionData.User.ID == 0 {
		return 0, false
	}

	return sessionData.User.ID, true
}

// RequireUser creates Fiber middleware that requires an authenticated user,
// by session cookie or bearer token. The resolved user ID is stored in
// c.Locals(LocalsUserID).
func RequireUser(tokens *TokenService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := ResolveUserID(c, tokens)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).SendString("Unauthorized")
		}

		c.Locals(LocalsUserID, userID)

		return c.Next()
	}
}

// RequirePermission creates Fiber middleware that requires a specific permission.
func RequirePermission(authService *Service, tokens *TokenService, permission string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := ResolveUserID(c, tokens)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).SendString("Unauthorized")
		}

		hasPermission, err := authService.HasPermission(userID, permission)
		if err != nil {
			log.Error().Err(err).Uint64("user_id", userID).Str("permission", permission).
				Msg("Failed to check permission")

			return c.Status(fiber.StatusInternalServerError).SendString("Internal Server Error")
		}

		if !hasPermission {
			log.Warn().Uint64("user_id", userID).Str("permission", permission).
				Msg("User lacks required permission")

			return c.Status(fiber.StatusForbidden).SendString("Forbidden: You don't have permission to access this resource")
		}

		c.Locals(LocalsUserID, userID)

		return c.Next()
	}
}

// RequireAnyPermission creates Fiber middleware that requires at least one of the given permissions.
func RequireAnyPermission(authService *Service, tokens *TokenService, permissions ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := ResolveUserID(c, tokens)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).SendString("Unauthorized")
		}

		hasPermission, err := authService.HasAnyPermission(userID, permissions)
		if err != nil {
			log.Error().Err(err).Uint64("user_id", userID).Strs("permissions", permissions).
				Msg("Failed to check permissions")

			return c.Status(fiber.StatusInternalServerError).SendString("Internal Server Error")
		}

		if !hasPermission {
			log.Warn().Uint64("user_id", userID).Strs("permissions", permissions).
				Msg("User lacks required permissions")

			return c.Status(fiber.StatusForbidden).SendString("Forbidden: You don't have permission to access this resource")
		}

		c.Locals(LocalsUserID, userID)

		return c.Next()
	}
}

// UserIDFromLocals returns the user ID stored by RequireUser or
// RequirePermission middleware on this request.
func UserIDFromLocals(c *fiber.Ctx) uint64 {
	if userID, ok := c.Locals(LocalsUserID).(uint64); ok {
		return userID
	}

	return 0
}

// AddPermissionsToLocals is a Fiber middleware that adds user permissions to fiber.Locals.
// This allows templates to access permissions for conditional rendering.
func AddPermissionsToLocals(authService *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sessionID := c.Cookies("session")
		if sessionID == "" {
			return c.Next()
		}

		sessionData := new(session.Data)
		if err := sessionData.Read(sessionID); err != nil {
			return c.Next()
		}

		if sessionData.User.ID == 0 {
			return c.Next()
		}

		permissions, err := authService.GetUserPermissions(sessionData.User.ID)
		if err != nil {
			log.Error().Err(err).Uint64("user_id", sessionData.User.ID).
				Msg("Failed to get user permissions")

			return c.Next()
		}

		c.Locals("permissions", permissions)
		c.Locals("hasPermission", func(perm string) bool {
			if has, errHas := authService.HasPermission(sessionData.User.ID, perm); errHas == nil {
				return has
			}

			return false
		})

		return c.Next()
	}
}
