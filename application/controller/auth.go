package controller

import (
	"net/http"

	apperrors "facegate.io/application/appErrors"
	"facegate.io/application/constants"
	"facegate.io/application/controller/dto"
	"facegate.io/application/interfaces"
	auth_usecases "facegate.io/application/usecases/auth"
	server_response "facegate.io/infrastructure/serverResponse"
	"facegate.io/infrastructure/validator"
)

func (c *Controller) Register(ctx *interfaces.ApplicationContext[dto.RegisterDTO]) {
	validationErr := validator.ValidatorInstance.ValidateStruct(ctx.Body)
	if validationErr != nil {
		apperrors.ValidationFailedError(ctx.Ctx, validationErr)
		return
	}
	account, err := c.Auth.Register(ctx.Ctx.Request.Context(), ctx.Body.Username, ctx.Body.Email, ctx.Body.Password)
	if err != nil {
		respondWithError(ctx.Ctx, err)
		return
	}
	server_response.Responder.Respond(ctx.Ctx, http.StatusCreated, "account created", map[string]any{
		"id":       account.ID,
		"username": account.Username,
		"nextStep": "login",
	}, nil, nil)
}

func (c *Controller) Login(ctx *interfaces.ApplicationContext[dto.LoginDTO]) {
	validationErr := validator.ValidatorInstance.ValidateStruct(ctx.Body)
	if validationErr != nil {
		apperrors.ValidationFailedError(ctx.Ctx, validationErr)
		return
	}
	result, err := c.Auth.Login(ctx.Ctx.Request.Context(), ctx.Body.Username, ctx.Body.Password)
	if err != nil {
		respondWithError(ctx.Ctx, err)
		return
	}
	responseCode := &constants.FACE_VERIFICATION_REQUIRED
	if result.NextStep == auth_usecases.NextStepEnrollFace {
		responseCode = &constants.FACE_ENROLLMENT_REQUIRED
	}
	server_response.Responder.Respond(ctx.Ctx, http.StatusOK, "password accepted", result, nil, responseCode)
}

func (c *Controller) Me(ctx *interfaces.ApplicationContext[any]) {
	profile, err := c.Auth.Profile(ctx.Ctx.Request.Context(), ctx.Principal)
	if err != nil {
		respondWithError(ctx.Ctx, err)
		return
	}
	server_response.Responder.Respond(ctx.Ctx, http.StatusOK, "profile fetched", profile, nil, nil)
}
