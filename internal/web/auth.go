package web

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/applymate/applymate/internal/web/handler/login"
	"github.com/applymate/applymate/internal/web/session"
)

// openPrefixes are request paths that never require a session. API routes
// enforce their own authentication (bearer token or cookie) per endpoint, so
// the page middleware stays out of their way; detection in particular is
// deliberately open.
var openPrefixes = []string{
	"/static",
	"/api",
	"/auth/oidc",
	login.RegisterPath,
	"/checkalive",
}

// AuthMiddleware is a Fiber middleware that gates browser pages on a valid
// session, redirecting anonymous visitors to the login page.
func AuthMiddleware(c *fiber.Ctx) error {
	var (
		isLoginPage   = IsLoginPage(c)
		sessDataValid bool
	)

	originalURL := strings.ToLower(c.OriginalURL())
	for _, prefix := range openPrefixes {
		if strings.HasPrefix(originalURL, prefix) {
			return c.Next()
		}
	}

	// get session cookie
	loginCookie := c.Cookies("session")

	// if no session cookie, redirect to login page
	if loginCookie == "" && !isLoginPage {
		return c.Redirect(login.Path)
	}

	// check session validity
	sessData := new(session.Data)
	_ = sessData.Read(loginCookie)

	// valid data in session
	if sessData.User.ID > 0 {
		sessDataValid = true
	}

	if sessDataValid && isLoginPage {
		return c.Redirect("/dashboard")
	}

	return c.Next()
}

// IsLoginPage checks if the current request is for the login page.
func IsLoginPage(c *fiber.Ctx) bool {
	originalURL := strings.ToLower(c.OriginalURL())
	return strings.HasPrefix(originalURL, login.Path)
}
