package utils

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

var (
	validate *validator.Validate

	phonePattern    = regexp.MustCompile(`^\+?[0-9 ()\-]{7,20}$`)
	currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)
)

func init() {
	validate = validator.New()

	_ = validate.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	_ = validate.RegisterValidation("currency", func(fl validator.FieldLevel) bool {
		return currencyPattern.MatchString(fl.Field().String())
	})
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}
