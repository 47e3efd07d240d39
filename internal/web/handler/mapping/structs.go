package mapping

import (
	"github.com/go-playground/validator/v10"

	"github.com/applymate/applymate/internal/db/models"
	"github.com/applymate/applymate/internal/fieldmatch"
)

type (
	// DetectRequest carries the raw field descriptors a scan reported.
	DetectRequest struct {
		Domain string               `json:"domain"`
		Fields []fieldmatch.RawField `json:"fields"`
	}

	// DetectResponse is the normalized scan result, in the order received.
	DetectResponse struct {
		Fields []fieldmatch.DetectedField `json:"fields"`
	}

	// SaveRequest is the payload for saving a single field mapping.
	SaveRequest struct {
		Domain       string `json:"domain"       validate:"required"`
		Selector     string `json:"selector"     validate:"required"`
		ProfileField string `json:"profileField" validate:"required"`
		DomID        string `json:"domId"`
		DomName      string `json:"domName"`
	}

	// Mapping is the wire representation of a stored field mapping.
	Mapping struct {
		ID           string `json:"id"`
		UserID       uint64 `json:"userId"`
		Domain       string `json:"domain"`
		Selector     string `json:"selector"`
		ProfileField string `json:"profileField"`
		DomID        string `json:"domId,omitempty"`
		DomName      string `json:"domName,omitempty"`
	}

	// SaveResponse reports the post-upsert state of the mapping.
	SaveResponse struct {
		Success bool    `json:"success"`
		Mapping Mapping `json:"mapping"`
	}

	// ListResponse is the mapping list for one user and domain.
	ListResponse struct {
		Mappings []Mapping `json:"mappings"`
	}

	// ErrorResponse is a machine-readable failure payload.
	ErrorResponse struct {
		Error  string `json:"error"`
		Detail string `json:"detail,omitempty"`
	}
)

var validate = validator.New()

// toWire converts a stored mapping into its wire representation.
func toWire(m *models.FieldMapping) Mapping {
	return Mapping{
		ID:           m.ID,
		UserID:       m.UserID,
		Domain:       m.Domain,
		Selector:     m.Selector,
		ProfileField: m.ProfileField,
		DomID:        m.DomID,
		DomName:      m.DomName,
	}
}
