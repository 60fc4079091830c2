package http

import (
	"log/slog"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"go.ngs.io/sst-validation/internal/usecase"
)

// SetupRouter creates and configures the Gin router. An empty allowedOrigins
// allows all origins.
func SetupRouter(extractUC *usecase.ExtractUseCase, allowedOrigins string, logger *slog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger))

	// Setup CORS middleware.
	corsConfig := cors.DefaultConfig()
	if allowedOrigins != "" {
		corsConfig.AllowOrigins = strings.Split(allowedOrigins, ",")
	} else {
		corsConfig.AllowAllOrigins = true
	}
	router.Use(cors.New(corsConfig))

	// Create handler.
	handler := NewHandler(extractUC, logger)

	// API v1 routes.
	v1 := router.Group("/v1")
	v1.GET("/points", handler.GetPoints)
	v1.GET("/dates", handler.GetDates)
	v1.GET("/datasets/:date", handler.GetDataset)

	// Match-ups.
	v1.POST("/matchups", handler.PostMatchups)
	v1.GET("/matchups", handler.GetMatchups)

	// Health check and metrics.
	router.GET("/health", handler.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return router
}

// requestLogger logs one record per request.
func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("latency", time.Since(start)),
			slog.String("client_ip", c.ClientIP()))
	}
}
