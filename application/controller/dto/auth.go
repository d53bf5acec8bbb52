package dto

type RegisterDTO struct {
	Username string  `json:"username" validate:"required,username"`
	Email    *string `json:"email,omitempty" validate:"omitempty,email,max=100"`
	Password string  `json:"password" validate:"required,password"`
}

type LoginDTO struct {
	Username string `json:"username" validate:"required,max=50"`
	Password string `json:"password" validate:"required,max=128"`
}

type VerifyBackupCodeDTO struct {
	Code string `json:"code" validate:"required,backup_code"`
}
