package middlewares

import (
	"facegate.io/application/interfaces"
	"facegate.io/application/middlewares"
	iptypes "facegate.io/infrastructure/ipresolver/types"
	"github.com/gin-gonic/gin"
)

// ClientInfoMiddleware starts the request's AppContext.
func ClientInfoMiddleware(resolver iptypes.IPResolver) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		appContext, next := middlewares.ClientInfoMiddleware(&interfaces.ApplicationContext[any]{
			Ctx:    ctx,
			Keys:   map[string]any{},
			Header: ctx.Request.Header,
		}, resolver, ctx.ClientIP())
		if next {
			ctx.Set("AppContext", appContext)
			ctx.Next()
		}
	}
}
