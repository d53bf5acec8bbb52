package controller

import (
	"net/http"

	apperrors "facegate.io/application/appErrors"
	"facegate.io/application/constants"
	"facegate.io/application/controller/dto"
	"facegate.io/application/interfaces"
	"facegate.io/application/services/backupcode"
	server_response "facegate.io/infrastructure/serverResponse"
	"facegate.io/infrastructure/validator"
)

func (c *Controller) GenerateBackupCode(ctx *interfaces.ApplicationContext[any]) {
	code, err := c.Auth.GenerateBackupCode(ctx.Ctx.Request.Context(), ctx.Principal)
	if err != nil {
		respondWithError(ctx.Ctx, err)
		return
	}
	server_response.Responder.Respond(ctx.Ctx, http.StatusCreated, "backup code generated, store it somewhere safe", map[string]any{
		"code": code,
	}, nil, &constants.BACKUP_CODE_ISSUED)
}

func (c *Controller) RevealBackupCode(ctx *interfaces.ApplicationContext[any]) {
	code, err := c.Auth.RevealBackupCode(ctx.Ctx.Request.Context(), ctx.Principal)
	if err != nil {
		respondWithError(ctx.Ctx, err)
		return
	}
	server_response.Responder.Respond(ctx.Ctx, http.StatusOK, "backup code revealed, it will not be shown again", map[string]any{
		"code": code,
	}, nil, nil)
}

func (c *Controller) VerifyBackupCode(ctx *interfaces.ApplicationContext[dto.VerifyBackupCodeDTO]) {
	validationErr := validator.ValidatorInstance.ValidateStruct(ctx.Body)
	if validationErr != nil {
		apperrors.ValidationFailedError(ctx.Ctx, validationErr)
		return
	}
	result, err := c.Auth.VerifyBackupCode(ctx.Ctx.Request.Context(), ctx.Principal, ctx.Body.Code)
	if err != nil {
		respondWithError(ctx.Ctx, err)
		return
	}
	message := "backup code accepted"
	switch result.Outcome {
	case backupcode.Rejected:
		message = "backup code not recognised"
		if result.Locked {
			message = "backup code not recognised, sign in is locked for now"
		}
	case backupcode.AlreadyUsed:
		message = "backup code has already been used"
	}
	server_response.Responder.Respond(ctx.Ctx, http.StatusOK, message, result, nil, nil)
}
