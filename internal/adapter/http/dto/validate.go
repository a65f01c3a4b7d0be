package dto

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// ErrValidationFailed wraps every request validation failure.
var ErrValidationFailed = errors.New("validation failed")

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// Validate checks the validate tags of a request DTO. The returned error
// names the first failing field by its JSON name.
func Validate(payload any) error {
	err := getValidator().Struct(payload)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		return formatValidationError(validationErrors[0])
	}
	return fmt.Errorf("%w: %w", ErrValidationFailed, err)
}

func formatValidationError(fe validator.FieldError) error {
	field := fe.Field()

	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%w: %s is required", ErrValidationFailed, field)
	case "max":
		return fmt.Errorf("%w: %s must be at most %s", ErrValidationFailed, field, fe.Param())
	case "min":
		return fmt.Errorf("%w: %s must be at least %s", ErrValidationFailed, field, fe.Param())
	case "datetime":
		return fmt.Errorf("%w: %s must be a date in format YYYY-MM-DD", ErrValidationFailed, field)
	default:
		return fmt.Errorf("%w: %s failed on %s", ErrValidationFailed, field, fe.Tag())
	}
}
