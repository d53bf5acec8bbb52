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

func AuthRouter(router *gin.RouterGroup, c *controller.Controller, authenticator middlewares.Authenticator) {
	authRouter := router.Group("/auth")
	{
		authRouter.POST("/register", func(ctx *gin.Context) {
			var body dto.RegisterDTO
			if err := ctx.ShouldBindJSON(&body); err != nil {
				apperrors.ErrorProcessingPayload(ctx)
				return
			}
			c.Register(withBody(ctx, &body))
		})

		authRouter.POST("/login", func(ctx *gin.Context) {
			var body dto.LoginDTO
			if err := ctx.ShouldBindJSON(&body); err != nil {
				apperrors.ErrorProcessingPayload(ctx)
				return
			}
			c.Login(withBody(ctx, &body))
		})

		authRouter.GET("/me", middleware.UserAuthenticationMiddleware(authenticator, auth.IntentSession), func(ctx *gin.Context) {
			c.Me(withBody[any](ctx, nil))
		})
	}
}
