// Package uniuri generates random strings good for use in URIs and other
// places where a short unguessable identifier is needed, such as generated
// initial passwords and OAuth2 state tokens.
//
// It uses crypto/rand and rejects bytes outside the usable range to avoid
// modulo bias.
package uniuri
