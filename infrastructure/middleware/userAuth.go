package middlewares

import (
	"facegate.io/application/interfaces"
	"facegate.io/application/middlewares"
	"github.com/gin-gonic/gin"
)

func UserAuthenticationMiddleware(authenticator middlewares.Authenticator, intents ...string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		savedCtx := (ctx.MustGet("AppContext")).(*interfaces.ApplicationContext[any])
		appContext, next := middlewares.UserAuthenticationMiddleware(&interfaces.ApplicationContext[any]{
			Ctx:    ctx,
			Keys:   savedCtx.Keys,
			Header: ctx.Request.Header,
			Client: savedCtx.Client,
		}, authenticator, intents...)
		if next {
			ctx.Set("AppContext", appContext)
			ctx.Next()
		}
	}
}
