package validation

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// FieldError represents a validation error on a specific field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// CreateVictimRequest mirrors the fields needed for create validation.
type CreateVictimRequest struct {
	Name      string   `validate:"required,min=2"`
	LastName  string   `validate:"required,min=2"`
	DeathType string   `validate:"omitempty,min=1"`
	Images    []string `validate:"omitempty,dive,required"`
}

// DeathTypeRequest mirrors the fields needed for death-type patch validation.
type DeathTypeRequest struct {
	DeathType string `validate:"required"`
}

// DetailsRequest mirrors the fields needed for details patch validation.
type DetailsRequest struct {
	Details string `validate:"required"`
}

// ValidateCreateRequest validates a create victim request.
// Returns a slice of field errors; empty slice means valid.
func ValidateCreateRequest(req CreateVictimRequest) []FieldError {
	return check(req)
}

// ValidateDeathTypeRequest validates a death-type patch request.
func ValidateDeathTypeRequest(req DeathTypeRequest) []FieldError {
	return check(req)
}

// ValidateDetailsRequest validates a details patch request.
func ValidateDetailsRequest(req DetailsRequest) []FieldError {
	return check(req)
}

func check(req any) []FieldError {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []FieldError{{Field: "", Message: err.Error()}}
	}

	errs := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		errs = append(errs, FieldError{
			Field:   fieldName(fe),
			Message: message(fe),
		})
	}
	return errs
}

// fieldName lowercases the first rune so errors report JSON-style names.
// Slice element failures like "Images[0]" collapse to the slice name.
func fieldName(fe validator.FieldError) string {
	name := fe.Field()
	if i := strings.IndexByte(name, '['); i >= 0 {
		name = name[:i]
	}
	if name == "" {
		return name
	}
	return strings.ToLower(name[:1]) + name[1:]
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fieldName(fe))
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fieldName(fe), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", fieldName(fe))
	}
}
