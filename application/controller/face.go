package controller

import (
	"net/http"

	"facegate.io/application/constants"
	"facegate.io/application/interfaces"
	server_response "facegate.io/infrastructure/serverResponse"
)

type faceImage = []byte

func (c *Controller) EnrollFace(ctx *interfaces.ApplicationContext[faceImage]) {
	session, err := c.Auth.EnrollFace(ctx.Ctx.Request.Context(), ctx.Principal, *ctx.Body)
	if err != nil {
		respondWithError(ctx.Ctx, err)
		return
	}
	if session == nil {
		server_response.Responder.Respond(ctx.Ctx, http.StatusOK, "face profile updated", nil, nil, nil)
		return
	}
	var responseCode *uint
	if session.BackupCode != nil {
		responseCode = &constants.BACKUP_CODE_ISSUED
	}
	server_response.Responder.Respond(ctx.Ctx, http.StatusCreated, "face enrolled", session, nil, responseCode)
}

func (c *Controller) VerifyFace(ctx *interfaces.ApplicationContext[faceImage]) {
	result, err := c.Auth.VerifyFace(ctx.Ctx.Request.Context(), ctx.Principal, *ctx.Body)
	if err != nil {
		respondWithError(ctx.Ctx, err)
		return
	}
	message := "face verified"
	var responseCode *uint
	switch {
	case result.Locked:
		message = "face not recognised, sign in is locked for now"
		responseCode = &constants.ACCOUNT_LOCKED
	case result.Warned:
		message = "face not recognised, one attempt left"
		responseCode = &constants.FACE_ATTEMPT_WARNING
	case !result.Verified:
		message = "face not recognised"
	}
	server_response.Responder.Respond(ctx.Ctx, http.StatusOK, message, result, nil, responseCode)
}

func (c *Controller) FaceHealth(ctx *interfaces.ApplicationContext[any]) {
	health := c.Faces.Health(ctx.Ctx.Request.Context())
	code := http.StatusOK
	available := false
	for _, backend := range health {
		available = available || backend.Available
	}
	if !available {
		code = http.StatusServiceUnavailable
	}
	server_response.Responder.Respond(ctx.Ctx, code, "face backends", health, nil, nil)
}
