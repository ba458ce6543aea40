package handler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/saturnino-fabrica-de-software/lookout/internal/domain"
)

var validate *validator.Validate

func init() {
	validate = validator.New()

	_ = validate.RegisterValidation("reference_code", func(fl validator.FieldLevel) bool {
		return domain.ValidCodeFormat(fl.Field().String())
	})
}

// validateStruct returns nil or a VALIDATION_FAILED error naming the first bad field
func validateStruct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return domain.ErrValidationFailed.WithError(err)
	}

	fe := verrs[0]
	field := strings.ToLower(fe.Field()[:1]) + fe.Field()[1:]

	var message string
	switch fe.Tag() {
	case "required":
		message = fmt.Sprintf("%s is required", field)
	case "gte", "lte":
		message = fmt.Sprintf("%s must be between 0 and 1", field)
	case "oneof":
		message = fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	default:
		message = fmt.Sprintf("%s is invalid", field)
	}

	return domain.ErrValidationFailed.WithError(errors.New(message))
}
