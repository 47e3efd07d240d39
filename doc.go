// Package main provides the entry point for the ApplyMate platform.
// It initializes and runs a web server using the Fiber framework that lets
// applicants maintain application profiles, lets administrators manage
// partner schools and the profile-field catalog, and exposes the
// field-mapping API used by the companion page and browser extension to
// detect form fields on application sites and map them to profile fields
// for autofill. The application uses gorm for data persistence.
package main
