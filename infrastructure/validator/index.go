package validator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

func init() {
	validate.RegisterValidation("username", validateUsername)
	validate.RegisterValidation("password", validatePasswordStrength)
	validate.RegisterValidation("backup_code", validateBackupCode)
}

type Validator struct{}

func (v *Validator) ValidateStruct(payload interface{}) *[]error {
	return validateStruct(payload)
}

func (v *Validator) ValidateValue(value any, rules string) error {
	return validateField(value, rules)
}

var ValidatorInstance = Validator{}

func validateStruct(payload interface{}) *[]error {
	err := validate.Struct(payload)
	if err == nil {
		return nil
	}
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return &[]error{err}
	}
	errs := make([]error, 0, len(validationErrs))
	for _, fieldErr := range validationErrs {
		errs = append(errs, errors.New(describe(fieldErr)))
	}
	return &errs
}

func validateField(value any, rules string) error {
	err := validate.Var(value, rules)
	if err == nil {
		return nil
	}
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) && len(validationErrs) > 0 {
		return errors.New(describe(validationErrs[0]))
	}
	return err
}

func describe(fieldErr validator.FieldError) string {
	field := strings.ToLower(fieldErr.Field())
	if field == "" {
		field = "value"
	}
	switch fieldErr.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fieldErr.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fieldErr.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of %s", field, fieldErr.Param())
	case "username":
		return "username must be 3 to 50 letters, numbers or underscores and not a reserved word"
	case "password":
		return "password must be 8 to 128 characters with upper and lower case letters, a number and a special character"
	case "backup_code":
		return "backup code must be 8 characters"
	}
	return fmt.Sprintf("%s failed the %s rule", field, fieldErr.Tag())
}
