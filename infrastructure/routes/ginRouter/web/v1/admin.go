package routev1

import (
	apperrors "facegate.io/application/appErrors"
	"facegate.io/application/controller"
	"facegate.io/application/controller/dto"
	"facegate.io/application/middlewares"
	"facegate.io/infrastructure/auth"
	middleware "facegate.io/infrastructure/middleware"
	"github.com/gin-gonic/gin"
)

// AdminRouter mounts operator endpoints. Role checks happen in the use cases.
func AdminRouter(router *gin.RouterGroup, c *controller.Controller, authenticator middlewares.Authenticator) {
	adminRouter := router.Group("/admin")
	adminRouter.Use(middleware.UserAuthenticationMiddleware(authenticator, auth.IntentSession))
	{
		adminRouter.POST("/accounts/:id/unlock", func(ctx *gin.Context) {
			var body dto.UnlockAccountDTO
			if !bindJSON(ctx, &body) {
				return
			}
			c.UnlockAccount(withBody(ctx, &body))
		})

		adminRouter.POST("/accounts/:id/disable", func(ctx *gin.Context) {
			var body dto.DisableAccountDTO
			if !bindJSON(ctx, &body) {
				return
			}
			c.DisableAccount(withBody(ctx, &body))
		})

		adminRouter.POST("/accounts/:id/enable", func(ctx *gin.Context) {
			c.EnableAccount(withBody[any](ctx, nil))
		})

		adminRouter.POST("/accounts/:id/reset-face", func(ctx *gin.Context) {
			c.ResetFace(withBody[any](ctx, nil))
		})

		adminRouter.GET("/accounts/:id/status", func(ctx *gin.Context) {
			c.AccountStatus(withBody[any](ctx, nil))
		})

		adminRouter.GET("/locked", func(ctx *gin.Context) {
			c.ListLockedAccounts(withBody[any](ctx, nil))
		})

		adminRouter.GET("/audit", func(ctx *gin.Context) {
			var query dto.AuditQueryDTO
			if err := ctx.ShouldBindQuery(&query); err != nil {
				apperrors.ErrorProcessingPayload(ctx)
				return
			}
			c.ListAuditEvents(withBody(ctx, &query))
		})
	}
}
