package controller

import (
	"net/http"
	"time"

	apperrors "facegate.io/application/appErrors"
	"facegate.io/application/controller/dto"
	"facegate.io/application/interfaces"
	"facegate.io/entities"
	"facegate.io/infrastructure/database/repository"
	server_response "facegate.io/infrastructure/serverResponse"
	"facegate.io/infrastructure/validator"
)

func (c *Controller) UnlockAccount(ctx *interfaces.ApplicationContext[dto.UnlockAccountDTO]) {
	validationErr := validator.ValidatorInstance.ValidateStruct(ctx.Body)
	if validationErr != nil {
		apperrors.ValidationFailedError(ctx.Ctx, validationErr)
		return
	}
	channels := []entities.Channel{}
	if ctx.Body.Channel != nil {
		channels = append(channels, *ctx.Body.Channel)
	}
	err := c.Auth.AdminUnlock(ctx.Ctx.Request.Context(), ctx.Principal, ctx.Param["id"], channels...)
	if err != nil {
		respondWithError(ctx.Ctx, err)
		return
	}
	server_response.Responder.Respond(ctx.Ctx, http.StatusOK, "account unlocked", nil, nil, nil)
}

func (c *Controller) DisableAccount(ctx *interfaces.ApplicationContext[dto.DisableAccountDTO]) {
	validationErr := validator.ValidatorInstance.ValidateStruct(ctx.Body)
	if validationErr != nil {
		apperrors.ValidationFailedError(ctx.Ctx, validationErr)
		return
	}
	err := c.Auth.DisableAccount(ctx.Ctx.Request.Context(), ctx.Principal, ctx.Param["id"], ctx.Body.Reason)
	if err != nil {
		respondWithError(ctx.Ctx, err)
		return
	}
	server_response.Responder.Respond(ctx.Ctx, http.StatusOK, "account disabled", nil, nil, nil)
}

func (c *Controller) EnableAccount(ctx *interfaces.ApplicationContext[any]) {
	err := c.Auth.EnableAccount(ctx.Ctx.Request.Context(), ctx.Principal, ctx.Param["id"])
	if err != nil {
		respondWithError(ctx.Ctx, err)
		return
	}
	server_response.Responder.Respond(ctx.Ctx, http.StatusOK, "account enabled", nil, nil, nil)
}

func (c *Controller) ResetFace(ctx *interfaces.ApplicationContext[any]) {
	err := c.Auth.ResetFace(ctx.Ctx.Request.Context(), ctx.Principal, ctx.Param["id"])
	if err != nil {
		respondWithError(ctx.Ctx, err)
		return
	}
	server_response.Responder.Respond(ctx.Ctx, http.StatusOK, "face profile reset, the user enrolls again on next sign in", nil, nil, nil)
}

func (c *Controller) AccountStatus(ctx *interfaces.ApplicationContext[any]) {
	status, err := c.Auth.AccountStatus(ctx.Ctx.Request.Context(), ctx.Principal, ctx.Param["id"])
	if err != nil {
		respondWithError(ctx.Ctx, err)
		return
	}
	server_response.Responder.Respond(ctx.Ctx, http.StatusOK, "account status fetched", status, nil, nil)
}

func (c *Controller) ListLockedAccounts(ctx *interfaces.ApplicationContext[any]) {
	locked, err := c.Auth.ListLockedAccounts(ctx.Ctx.Request.Context(), ctx.Principal)
	if err != nil {
		respondWithError(ctx.Ctx, err)
		return
	}
	server_response.Responder.Respond(ctx.Ctx, http.StatusOK, "locked accounts fetched", locked, nil, nil)
}

func (c *Controller) ListAuditEvents(ctx *interfaces.ApplicationContext[dto.AuditQueryDTO]) {
	validationErr := validator.ValidatorInstance.ValidateStruct(ctx.Body)
	if validationErr != nil {
		apperrors.ValidationFailedError(ctx.Ctx, validationErr)
		return
	}
	filter := repository.AuditFilter{
		AccountID: ctx.Body.AccountID,
		Type:      entities.AuditEventType(ctx.Body.Type),
		Limit:     ctx.Body.Limit,
	}
	if ctx.Body.Since != nil {
		since := time.Unix(*ctx.Body.Since, 0)
		filter.Since = &since
	}
	events, err := c.Auth.ListAuditEvents(ctx.Ctx.Request.Context(), ctx.Principal, filter)
	if err != nil {
		respondWithError(ctx.Ctx, err)
		return
	}
	server_response.Responder.Respond(ctx.Ctx, http.StatusOK, "audit events fetched", events, nil, nil)
}
