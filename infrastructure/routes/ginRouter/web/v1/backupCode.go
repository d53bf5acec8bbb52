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

func BackupCodeRouter(router *gin.RouterGroup, c *controller.Controller, authenticator middlewares.Authenticator) {
	codeRouter := router.Group("/backup-code")
	{
		codeRouter.POST("/generate", middleware.UserAuthenticationMiddleware(authenticator, auth.IntentSession), func(ctx *gin.Context) {
			c.GenerateBackupCode(withBody[any](ctx, nil))
		})

		codeRouter.GET("/reveal", middleware.UserAuthenticationMiddleware(authenticator, auth.IntentSession), func(ctx *gin.Context) {
			c.RevealBackupCode(withBody[any](ctx, nil))
		})

		codeRouter.POST("/verify", middleware.UserAuthenticationMiddleware(authenticator, auth.IntentFacePending), func(ctx *gin.Context) {
			var body dto.VerifyBackupCodeDTO
			if err := ctx.ShouldBindJSON(&body); err != nil {
				apperrors.ErrorProcessingPayload(ctx)
				return
			}
			c.VerifyBackupCode(withBody(ctx, &body))
		})
	}
}
