package profilefield

import (
	"github.com/go-playground/validator/v10"
)

type (
	// FieldForm is the create/update form payload for a catalog entry.
	FieldForm struct {
		Name     string `form:"name"     validate:"required"`
		Label    string `form:"label"`
		Ordering int    `form:"ordering"`
		Active   bool   `form:"active"`
	}

	// ValidationFailure represents a single failed validation rule.
	ValidationFailure struct {
		FailedField string
		Tag         string
		Value       interface{}
	}
)

var validate = validator.New()

// ValidateForm checks the form against its validation tags and returns one
// failure per violated rule.
func ValidateForm(form *FieldForm) []ValidationFailure {
	var failures []ValidationFailure

	errs := validate.Struct(form)
	if errs != nil {
		for _, err := range errs.(validator.ValidationErrors) { //nolint:errorlint,errcheck // ok here
			failures = append(failures, ValidationFailure{
				FailedField: err.Field(),
				Tag:         err.Tag(),
				Value:       err.Value(),
			})
		}
	}

	return failures
}
