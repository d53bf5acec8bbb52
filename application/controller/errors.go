package controller

import (
	"context"
	"errors"
	"net/http"

	apperrors "facegate.io/application/appErrors"
	"facegate.io/application/services/backupcode"
	"facegate.io/application/services/facematch"
	"facegate.io/application/services/lockout"
	auth_usecases "facegate.io/application/usecases/auth"
	server_response "facegate.io/infrastructure/serverResponse"
	"github.com/gin-gonic/gin"
)

// respondWithError maps a use case error onto an HTTP answer.
func respondWithError(ctx *gin.Context, err error) {
	var (
		validationErr *auth_usecases.ValidationError
		lockedErr     *auth_usecases.LockedError
		rateErr       *backupcode.RateLimitError
	)
	switch {
	case errors.As(err, &validationErr):
		apperrors.ValidationFailedError(ctx, &[]error{validationErr})
	case errors.As(err, &lockedErr):
		apperrors.LockedError(ctx, lockedErr.Error(), lockedErr.RetryAfter, lockedErr.LockedUntil)
	case errors.As(err, &rateErr):
		apperrors.RateLimitedError(ctx, backupcode.ErrRateLimited.Error(), rateErr.RetryAfter)
	case errors.Is(err, auth_usecases.ErrInvalidCredentials), errors.Is(err, auth_usecases.ErrUnauthorised):
		apperrors.AuthenticationError(ctx, err.Error())
	case errors.Is(err, auth_usecases.ErrAccountDisabled),
		errors.Is(err, auth_usecases.ErrForbidden),
		errors.Is(err, auth_usecases.ErrCannotModifyAdmin):
		apperrors.AuthorizationError(ctx, err.Error())
	case errors.Is(err, auth_usecases.ErrAccountNotFound), errors.Is(err, backupcode.ErrNoActiveCode):
		apperrors.NotFoundError(ctx, err.Error())
	case errors.Is(err, auth_usecases.ErrUsernameTaken),
		errors.Is(err, auth_usecases.ErrAlreadyEnrolled),
		errors.Is(err, backupcode.ErrAlreadyRevealed),
		errors.Is(err, facematch.ErrNotEnrolled),
		errors.Is(err, facematch.ErrProfileIncompatible):
		apperrors.EntityAlreadyExistsError(ctx, err.Error())
	case errors.Is(err, facematch.ErrInvalidFrame),
		errors.Is(err, facematch.ErrNoFaceDetected),
		errors.Is(err, facematch.ErrMultipleFaces),
		errors.Is(err, facematch.ErrLowQuality),
		errors.Is(err, facematch.ErrSpoofSuspected):
		apperrors.ClientError(ctx, err.Error(), nil, nil)
	case errors.Is(err, facematch.ErrBackendUnavailable):
		apperrors.ExternalDependencyError(ctx, "face backend", err)
	case errors.Is(err, lockout.ErrContention), errors.Is(err, context.DeadlineExceeded):
		server_response.Responder.Respond(ctx, http.StatusServiceUnavailable, "Too many concurrent requests for this account, try again", nil, nil, nil)
	case errors.Is(err, context.Canceled):
		// client went away
		ctx.AbortWithStatus(499)
	default:
		apperrors.FatalServerError(ctx, err)
	}
}
