// Package auth provides authentication and authorization for ApplyMate.
//
// Authentication is pluggable per account: applicants either hold a local
// argon2id-hashed password or sign in through an OpenID Connect provider.
// The rest of the platform treats the outcome uniformly, a request resolves
// to a user or to nothing, via the session cookie for browser pages and a
// bearer token for the companion extension.
//
// Authorization is role based: users carry one role, roles carry
// permissions, and handlers guard their routes with RequirePermission or
// RequireUser middleware.
package auth
