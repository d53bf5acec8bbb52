package middlewares

import (
	"context"
	"errors"
	"strings"

	apperrors "facegate.io/application/appErrors"
	"facegate.io/application/interfaces"
	auth_usecases "facegate.io/application/usecases/auth"
)

type Authenticator interface {
	Authenticate(ctx context.Context, token string, intents ...string) (*auth_usecases.Principal, error)
}

// UserAuthenticationMiddleware resolves the bearer token into a principal.
// The token intent must be one of intents.
func UserAuthenticationMiddleware(ctx *interfaces.ApplicationContext[any], authenticator Authenticator, intents ...string) (*interfaces.ApplicationContext[any], bool) {
	header := ctx.GetHeader("Authorization")
	if header == nil || !strings.HasPrefix(*header, "Bearer ") {
		apperrors.AuthenticationError(ctx.Ctx, "provide a bearer token")
		return nil, false
	}
	token := strings.TrimSpace(strings.TrimPrefix(*header, "Bearer "))
	principal, err := authenticator.Authenticate(ctx.Ctx.Request.Context(), token, intents...)
	if err != nil {
		if errors.Is(err, auth_usecases.ErrAccountDisabled) {
			apperrors.AuthorizationError(ctx.Ctx, err.Error())
			return nil, false
		}
		if errors.Is(err, auth_usecases.ErrUnauthorised) {
			apperrors.AuthenticationError(ctx.Ctx, "session expired or invalid, sign in again")
			return nil, false
		}
		apperrors.FatalServerError(ctx.Ctx, err)
		return nil, false
	}
	ctx.Principal = principal
	ctx.SetContextData("AccountID", principal.AccountID)
	ctx.SetContextData("Role", string(principal.Role))
	return ctx, true
}
