package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signUp struct {
	Username string  `json:"username" validate:"required,username"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Password string  `json:"password" validate:"required,password"`
}

type codeBody struct {
	Code string `json:"code" validate:"required,backup_code"`
}

func TestValidateStruct(t *testing.T) {
	email := "alice@example.com"
	assert.Nil(t, ValidatorInstance.ValidateStruct(signUp{Username: "alice_1", Email: &email, Password: "Sup3r$ecret"}))

	bad := "not-an-email"
	errs := ValidatorInstance.ValidateStruct(signUp{Username: "admin", Email: &bad, Password: "weak"})
	require.NotNil(t, errs)
	require.Len(t, *errs, 3)
	assert.Contains(t, (*errs)[0].Error(), "username")
	assert.Contains(t, (*errs)[1].Error(), "valid email")
	assert.Contains(t, (*errs)[2].Error(), "password must be")
}

func TestBackupCodeRule(t *testing.T) {
	assert.Nil(t, ValidatorInstance.ValidateStruct(codeBody{Code: "abcd-efgh"}))
	assert.NotNil(t, ValidatorInstance.ValidateStruct(codeBody{Code: "ABCD01"}))
	assert.NotNil(t, ValidatorInstance.ValidateStruct(codeBody{Code: "ABCDEFG1"}))
}

func TestValidateValue(t *testing.T) {
	assert.NoError(t, ValidatorInstance.ValidateValue("face", "oneof=face password"))
	assert.EqualError(t, ValidatorInstance.ValidateValue("pin", "oneof=face password"), "value must be one of face password")
}
