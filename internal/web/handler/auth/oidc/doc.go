// Package oidc provides the web endpoints for the OpenID Connect sign-in
// flow: login redirect, provider callback and logout.
package oidc
