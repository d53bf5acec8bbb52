package dto

import "facegate.io/entities"

type UnlockAccountDTO struct {
	Channel *entities.Channel `json:"channel,omitempty" validate:"omitempty,oneof=face password"`
}

type DisableAccountDTO struct {
	Reason *string `json:"reason,omitempty" validate:"omitempty,max=500"`
}

type AuditQueryDTO struct {
	AccountID string `form:"accountID" validate:"omitempty,max=64"`
	Type      string `form:"type" validate:"omitempty,max=64"`
	Since     *int64 `form:"since" validate:"omitempty,min=0"`
	Limit     int    `form:"limit" validate:"omitempty,min=1,max=500"`
}
