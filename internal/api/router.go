package api

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/contextcraft/contextcraft/internal/assistant"
	"github.com/contextcraft/contextcraft/pkg/config"
	"github.com/contextcraft/contextcraft/pkg/health"
	"github.com/contextcraft/contextcraft/pkg/logging"
	"github.com/contextcraft/contextcraft/pkg/metrics"
	"github.com/contextcraft/contextcraft/pkg/resilience"
)

// NewRouter creates and configures the API router
func NewRouter(
	cfg *config.Config,
	logger *logging.Logger,
	svc *assistant.Service,
	manager *resilience.Manager,
	healthService *health.Service,
	m *metrics.Metrics,
) *gin.Engine {
	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(RequestIDMiddleware())
	router.Use(LoggingMiddleware(logger))
	router.Use(RecoveryMiddleware())
	router.Use(SecurityHeadersMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders: []string{"X-Request-ID"},
	}))
	if m != nil {
		router.Use(m.GinMiddleware())
	}

	router.GET("/health", healthService.Handler())
	router.GET("/health/live", healthService.LivenessHandler())
	router.GET("/health/ready", healthService.ReadinessHandler())
	if m != nil {
		router.GET("/metrics", m.Handler())
	}

	router.GET("/api/v1", func(c *gin.Context) {
		SuccessResponse(c, gin.H{
			"name":    "ContextCraft API",
			"version": "1.0.0",
			"status":  "ok",
		})
	})

	assistantHandler := NewAssistantHandler(svc)
	providersHandler := NewProvidersHandler(manager)

	v1 := router.Group("/api/v1")
	{
		v1.POST("/respond", assistantHandler.Respond)

		providersGroup := v1.Group("/providers")
		{
			providersGroup.GET("/health", providersHandler.Health)
			providersGroup.POST("/:id/reset", providersHandler.Reset)
		}
	}

	return router
}
