package config

import (
	"time"

	"github.com/applymate/applymate/internal/logger"
)

// Session settings.
type Session struct {
	ExpiryTime time.Duration
}

// OIDC holds the OpenID Connect login settings for applicant SSO.
type OIDC struct {
	Enabled      bool
	ProviderURL  string   // discovery URL, e.g. "https://accounts.google.com"
	ClientID     string   // OAuth2 client identifier
	ClientSecret string   // OAuth2 client secret
	RedirectURL  string   // callback URL registered at the provider
	Scopes       []string // requested scopes, defaults to openid/profile/email
}

// Auth holds authentication settings beyond the session cookie.
type Auth struct {
	TokenSecret string        // HMAC secret for extension bearer tokens
	TokenTTL    time.Duration // lifetime of extension bearer tokens
	OIDC        OIDC
}

// Config overall data structure.
type Config struct {
	DevMode   bool // enable dev mode for development
	DB        DB
	Log       logger.Log
	Title     string
	Auth      Auth
	Webserver Webserver
}

// Webserver implement webserver settings.
type Webserver struct {
	CacheEnabled        bool    // true = cache static assets
	DisableRecover      bool    // disable recover middleware
	Domain              string  // domain name for the webserver
	Port                int     // listening port for the webserver
	ShutDownTime        int     // wait time for shutdown
	URL                 string  // base url for the webserver
	CookieEncryptionKey string  // base64 key for cookie encryption, empty disables it
	Session             Session // session settings
}
