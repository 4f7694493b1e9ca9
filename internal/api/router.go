package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/team-entries-api/internal/config"
	"github.com/team-entries-api/internal/models"
	"github.com/team-entries-api/internal/repository"
	"github.com/team-entries-api/internal/service"
)

// NewRouter creates and configures the Gin router
func NewRouter(services *service.Services, repos *repository.Repositories, cfg *config.Config, log zerolog.Logger) *gin.Engine {
	// Set Gin mode
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Middleware
	router.Use(recoveryMiddleware(log))
	router.Use(loggingMiddleware(log))
	router.Use(corsMiddleware())

	// Handlers
	authHandler := NewAuthHandler(services, log)
	recordHandler := NewRecordHandler(services, log)
	profileHandler := NewProfileHandler(services, log)
	exportHandler := NewExportHandler(services, cfg, log)

	authn := authMiddleware(repos.User, &cfg.Auth, log)

	// Health check
	router.GET("/health", healthCheck)

	// Metrics
	router.GET("/metrics", metricsHandler(services, repos))

	// API v1
	v1 := router.Group("/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
		}

		v1.GET("/teams", authn, profileHandler.ListTeams)
		v1.PUT("/users/:id/team", authn, adminOnly(), profileHandler.AssignTeam)

		records := v1.Group("/records", authn)
		{
			records.POST("", recordHandler.Create)
			records.GET("", recordHandler.List)
			records.GET("/:id", recordHandler.Get)
			records.PUT("/:id", recordHandler.Update)
			records.DELETE("/:id", recordHandler.Delete)
		}
	}

	// Export surface: administrators only
	export := router.Group("/export/v1", authn, adminOnly())
	{
		export.GET("/entries", exportHandler.Export)
		export.GET("/entries/preview", exportHandler.Preview)
		export.GET("/entries/csv", exportHandler.DownloadCSV)
		export.POST("/jobs", exportHandler.CreateJob)
		export.GET("/jobs/:job_id", exportHandler.GetJob)
	}

	return router
}

// healthCheck returns the health status
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"service":   "team-entries-api",
	})
}

// metricsHandler returns record and account counts
func metricsHandler(services *service.Services, repos *repository.Repositories) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		entryCount, _ := services.Export.GetCount(ctx, models.RecordTypeEntry)
		cityCount, _ := services.Export.GetCount(ctx, models.RecordTypeCity)
		userCount, _ := repos.User.Count(ctx)

		c.JSON(http.StatusOK, gin.H{
			"database": gin.H{
				"entries": entryCount,
				"cities":  cityCount,
				"users":   userCount,
			},
			"timestamp": time.Now().Format(time.RFC3339),
		})
	}
}

// recoveryMiddleware handles panics
func recoveryMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error().Interface("error", err).Msg("Panic recovered")
				c.JSON(http.StatusInternalServerError, gin.H{
					"error": "Internal server error",
				})
				c.Abort()
			}
		}()
		c.Next()
	}
}

// loggingMiddleware logs requests
func loggingMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		duration := time.Since(start)
		statusCode := c.Writer.Status()

		event := log.Info()
		if statusCode >= 400 {
			event = log.Warn()
		}
		if statusCode >= 500 {
			event = log.Error()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", statusCode).
			Dur("duration", duration).
			Str("client_ip", c.ClientIP()).
			Msg("Request completed")
	}
}

// corsMiddleware handles CORS
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
