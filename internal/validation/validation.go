// Package validation checks request payloads against their struct tags and reports every
// failing field.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"kinship/internal/models"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report JSON field names rather than Go field names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("visibility", func(fl validator.FieldLevel) bool {
		return models.Visibility(fl.Field().String()).Valid()
	})
	return v
}

// Struct validates s and returns a VALIDATION_ERROR listing every failing field, or nil.
func Struct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return models.NewValidationError("Invalid request")
	}
	fields := make([]models.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, models.FieldError{Field: fe.Field(), Message: message(fe)})
	}
	return models.NewFieldValidationError("Validation failed", fields)
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "required_without":
		return fmt.Sprintf("%s is required when %s is missing", fe.Field(), strings.ToLower(fe.Param()))
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "alphanum":
		return "must contain only letters and numbers"
	case "visibility":
		return "must be one of PUBLIC, FRIEND_ONLY, PRIVATE"
	}
	return fmt.Sprintf("failed %s validation", fe.Tag())
}
