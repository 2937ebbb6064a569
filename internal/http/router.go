package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/ZLoganZ/SocialNetwork-Server/internal/config"
	"github.com/ZLoganZ/SocialNetwork-Server/internal/http/handler"
	httpmiddleware "github.com/ZLoganZ/SocialNetwork-Server/internal/http/middleware"
)

// NewRouter wires Gin routes and middleware.
func NewRouter(cfg config.Config, authHandler *handler.AuthHandler, authMiddleware *httpmiddleware.Auth, rateLimiter *httpmiddleware.RateLimiter) *gin.Engine {
	if cfg.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpmiddleware.RequestLogger(nil))
	if rateLimiter != nil {
		r.Use(rateLimiter.Handler())
	}
	r.Use(httpmiddleware.CORS(cfg))
	r.Use(otelgin.Middleware(cfg.ServiceName))

	auth := r.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/check", authHandler.CheckSession)
		auth.POST("/logout", authMiddleware.RequireSession, authHandler.Logout)
		auth.GET("/me", authMiddleware.RequireSession, authHandler.Me)

		auth.POST("/forgot", authHandler.ForgotPassword)
		auth.POST("/verify", authHandler.VerifyCode)
		auth.POST("/check-verify", authHandler.CheckVerified)
		auth.POST("/check-reset", authHandler.CheckResetReady)
		auth.POST("/reset", authHandler.ResetPassword)

		auth.GET("/:provider/start", authHandler.ProviderStart)
		auth.GET("/:provider/callback", authHandler.ProviderCallback)
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return r
}
