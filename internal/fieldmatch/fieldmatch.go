// Package fieldmatch turns raw DOM field descriptors reported by the
// companion page or browser extension into normalized detected fields, and
// suggests profile fields for them from a user's previously saved mappings.
//
// Everything here is pure: no store access, no suggestion is ever written
// back. Suggestions come only from exact selector matches against stored
// mappings; when nothing matches, no guess is made (a wrong autofill is
// worse than an empty field).
package fieldmatch

import (
	"strings"

	"github.com/applymate/applymate/internal/db/models"
)

// RawField is one candidate input as reported by the scanning client.
// Only ID is required; everything else is best effort.
type RawField struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Name     string `json:"name"`
	Selector string `json:"selector"`
}

// DetectedField is one normalized candidate input found during a page scan.
// It lives only for the request/response cycle and is never persisted.
type DetectedField struct {
	ID       string `json:"id"`
	Label    string `json:"label,omitempty"`
	Name     string `json:"name,omitempty"`
	Selector string `json:"selector"`
	// Suggestion is the profile field to pre-populate in the UI, filled from
	// stored mappings only. Empty when no stored mapping matches.
	Suggestion string `json:"suggestion,omitempty"`
}

// Normalize turns a raw descriptor into a DetectedField. Descriptors without
// an id are rejected; scanning is best effort and skipping is not an error.
func Normalize(raw RawField) (DetectedField, bool) {
	id := strings.TrimSpace(raw.ID)
	if id == "" {
		return DetectedField{}, false
	}

	selector := strings.TrimSpace(raw.Selector)
	if selector == "" {
		selector = "#" + id
	}

	return DetectedField{
		ID:       id,
		Label:    strings.TrimSpace(raw.Label),
		Name:     strings.TrimSpace(raw.Name),
		Selector: selector,
	}, true
}

// NormalizeAll normalizes a scan result, preserving input order. Descriptors
// without an id are dropped. A nil input yields an empty, non-nil slice so
// callers can always respond with a list.
func NormalizeAll(raws []RawField) []DetectedField {
	fields := make([]DetectedField, 0, len(raws))

	for _, raw := range raws {
		if f, ok := Normalize(raw); ok {
			fields = append(fields, f)
		}
	}

	return fields
}

// NormalizeDomain reduces a site reference to its bare lower-case host:
// scheme, port, path and a leading "www." are stripped.
func NormalizeDomain(domain string) string {
	d := strings.ToLower(strings.TrimSpace(domain))

	if i := strings.Index(d, "://"); i >= 0 {
		d = d[i+3:]
	}

	if i := strings.IndexAny(d, "/?#"); i >= 0 {
		d = d[:i]
	}

	if i := strings.Index(d, ":"); i >= 0 {
		d = d[:i]
	}

	d = strings.TrimPrefix(d, "www.")

	return d
}

// Suggest returns the profile field to pre-populate for a selector, based on
// the user's stored mappings for the domain. Only an exact selector match
// counts; with no stored mapping the suggestion stays empty.
func Suggest(selector string, known []models.FieldMapping) string {
	for i := range known {
		if known[i].Selector == selector {
			return known[i].ProfileField
		}
	}

	return ""
}

// Annotate fills the Suggestion of each detected field from the user's
// stored mappings. The input slice is modified in place and returned.
func Annotate(fields []DetectedField, known []models.FieldMapping) []DetectedField {
	for i := range fields {
		fields[i].Suggestion = Suggest(fields[i].Selector, known)
	}

	return fields
}
