package validator

import (
	"regexp"

	"facegate.io/application/services/backupcode"
	auth_usecases "facegate.io/application/usecases/auth"
	"github.com/go-playground/validator/v10"
)

var backupCodePattern = regexp.MustCompile(`^[A-Z2-9]{8}$`)

func validateUsername(fl validator.FieldLevel) bool {
	return auth_usecases.ValidateUsername(fl.Field().String()) == nil
}

func validatePasswordStrength(fl validator.FieldLevel) bool {
	return auth_usecases.ValidatePassword(fl.Field().String()) == nil
}

func validateBackupCode(fl validator.FieldLevel) bool {
	return backupCodePattern.MatchString(backupcode.Normalise(fl.Field().String()))
}
