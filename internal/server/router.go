// Package server assembles the HTTP router.
package server

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"lumonew/internal/config"
	"lumonew/internal/handlers"
	"lumonew/internal/middleware"
	"lumonew/internal/services"

	_ "lumonew/internal/docs" // Import swagger docs
)

// Deps are the collaborators the routes are bound to.
type Deps struct {
	Query    services.AuditQueryServicer
	Recorder services.AuditServicer
	Feed     handlers.RecentFeed
}

// NewRouter builds the gin engine with middleware and all routes.
func NewRouter(cfg *config.Config, deps Deps) *gin.Engine {
	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-API-Key", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Disposition", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	router.Use(middleware.RequestLogging())
	router.Use(middleware.Metrics())
	router.Use(middleware.ErrorHandler())

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	auditHandler := handlers.NewAuditHandler(deps.Query, deps.Recorder, deps.Feed, cfg.Location)

	// API v1 group
	v1 := router.Group("/api/v1")

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware(cfg.JWTSecret))

	auditLogs := protected.Group("/audit-logs")
	auditLogs.GET("", auditHandler.ListAuditLogs)
	auditLogs.GET("/stats", auditHandler.GetAuditStats)
	auditLogs.GET("/recent", auditHandler.GetRecentActivity)
	auditLogs.GET("/export", auditHandler.ExportAuditLogs)
	auditLogs.GET("/:id", auditHandler.GetAuditLog)

	// Pipeline routes (API key)
	pipeline := v1.Group("/pipeline")
	pipeline.Use(middleware.PipelineAuthMiddleware(cfg.IngestAPIKey, cfg.IngestAPIKeyHash))
	pipeline.POST("/audit-logs", auditHandler.IngestAuditLog)

	return router
}
