package routev1

import (
	"facegate.io/application/controller"
	"facegate.io/application/middlewares"
	"facegate.io/infrastructure/auth"
	middleware "facegate.io/infrastructure/middleware"
	"github.com/gin-gonic/gin"
)

func FaceRouter(router *gin.RouterGroup, c *controller.Controller, authenticator middlewares.Authenticator) {
	faceRouter := router.Group("/face")
	{
		// a signed in user may enroll again to refresh their profile
		faceRouter.POST("/enroll", middleware.UserAuthenticationMiddleware(authenticator, auth.IntentFacePending, auth.IntentSession), func(ctx *gin.Context) {
			image, ok := readFaceImage(ctx)
			if !ok {
				return
			}
			c.EnrollFace(withBody(ctx, &image))
		})

		faceRouter.POST("/verify", middleware.UserAuthenticationMiddleware(authenticator, auth.IntentFacePending), func(ctx *gin.Context) {
			image, ok := readFaceImage(ctx)
			if !ok {
				return
			}
			c.VerifyFace(withBody(ctx, &image))
		})
	}

	router.GET("/health/face", func(ctx *gin.Context) {
		c.FaceHealth(withBody[any](ctx, nil))
	})
}
