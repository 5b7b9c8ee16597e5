package http

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pauseshop/backend/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler, logger *zap.Logger) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RequestIDMiddleware())
	router.Use(RecoveryMiddleware(logger))
	router.Use(LoggerMiddleware(logger))
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	// Health check endpoint
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		referrer := v1.Group("/referrer")
		{
			referrer.GET("", handler.DecodeReferrer)
			referrer.POST("/encode", handler.EncodeReferrer)
		}

		v1.POST("/analyze", handler.Analyze)
		v1.POST("/rank", handler.Rank)
		v1.GET("/screenshot/:pauseId", handler.GetScreenshot)
	}

	return router
}
