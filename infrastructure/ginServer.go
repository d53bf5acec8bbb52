package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	apperrors "facegate.io/application/appErrors"
	"facegate.io/application/controller"
	"facegate.io/infrastructure/logger"
	middlewares "facegate.io/infrastructure/middleware"
	"facegate.io/infrastructure/ratelimit"
	routev1 "facegate.io/infrastructure/routes/ginRouter/web/v1"
	server_response "facegate.io/infrastructure/serverResponse"
	startup "facegate.io/infrastructure/startUp"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type ginServer struct {
	services *startup.Services
}

// NewRouter mounts every route on a fresh gin engine.
func NewRouter(services *startup.Services) *gin.Engine {
	config := services.Config
	server := gin.New()
	server.Use(gin.Recovery())
	corsConfig := cors.Config{
		AllowOrigins:     config.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "User-Agent"},
		ExposeHeaders:    []string{"Content-Length", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	if len(config.AllowedOrigins) == 0 || (len(config.AllowedOrigins) == 1 && config.AllowedOrigins[0] == "*") {
		corsConfig.AllowOrigins = nil
		corsConfig.AllowAllOrigins = true
	}
	server.Use(cors.New(corsConfig))
	server.Use(ratelimit.TokenBucketPerIP(config.RequestsPerSec))
	server.MaxMultipartMemory = 10 << 20

	c := controller.New(services.Auth, services.Faces)
	v1 := server.Group("/api/v1")
	v1.Use(middlewares.ClientInfoMiddleware(services.Resolver))
	{
		routev1.AuthRouter(v1, c, services.Auth)
		routev1.FaceRouter(v1, c, services.Auth)
		routev1.BackupCodeRouter(v1, c, services.Auth)
		routev1.AdminRouter(v1, c, services.Auth)
	}

	server.GET("/ping", func(ctx *gin.Context) {
		server_response.Responder.Respond(ctx, http.StatusOK, "pong!", nil, nil, nil)
	})

	server.NoRoute(func(ctx *gin.Context) {
		apperrors.NotFoundError(ctx, fmt.Sprintf("%s %s does not exist", ctx.Request.Method, ctx.Request.URL))
	})
	return server
}

func (s *ginServer) Start() {
	if s.services.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", s.services.Config.Port),
		Handler:           NewRouter(s.services),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go func() {
		logger.Info(fmt.Sprintf("Server starting on PORT %s", s.services.Config.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", logger.LoggerOptions{
				Key:  "error",
				Data: err,
			})
			stop()
		}
	}()
	<-ctx.Done()

	shutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdown); err != nil {
		logger.Error("graceful shutdown failed", logger.LoggerOptions{
			Key:  "error",
			Data: err,
		})
	}
}
