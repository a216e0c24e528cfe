package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/okhotin/shortly/internal/middleware"
	"github.com/okhotin/shortly/internal/service"
	"go.uber.org/zap"
)

func NewRouter(
	linkService service.LinkService,
	redirectService service.RedirectService,
	analyticsService service.AnalyticsService,
	baseURL string,
	logger *zap.Logger,
) *gin.Engine {
	router := gin.New()

	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.Recovery(logger))

	linkHandler := NewLinkHandler(linkService, redirectService, baseURL, logger)
	analyticsHandler := NewAnalyticsHandler(analyticsService, logger)

	// API v.1
	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", HealthCheck)
		v1.POST("/links", linkHandler.CreateLink)
		v1.DELETE("/links/:code", linkHandler.DeleteLink)
		v1.POST("/analytics", analyticsHandler.Summarize)
	}

	// Редирект (корневой путь)
	router.GET("/:code", linkHandler.Redirect)

	return router
}
