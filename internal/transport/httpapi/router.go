// Package httpapi exposes result views over HTTP and WebSocket.
package httpapi

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

// SetupRouter registers every route of the result viewer.
func SetupRouter(h *Handler, ginMode string) *gin.Engine {
	if ginMode != "" {
		gin.SetMode(ginMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(h.logger))

	router.GET("/health", HealthCheck)
	router.GET("/languages", h.Languages)

	router.POST("/results", h.CreateResult)
	router.POST("/results/:resultID/views", h.OpenView)
	router.POST("/analyze", h.Analyze)

	views := router.Group("/views/:viewID")
	{
		views.GET("", h.GetView)
		views.POST("/language", h.SelectLanguage)
		views.GET("/ws", h.Subscribe)
		views.DELETE("", h.CloseView)
	}

	return router
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if logger == nil {
			return
		}
		logger.Debug("http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start).String(),
		)
	}
}
