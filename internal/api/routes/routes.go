package routes

import (
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"

	"swissjobs-utils/internal/api/handlers"
	"swissjobs-utils/internal/api/middleware"
	"swissjobs-utils/internal/config"
	"swissjobs-utils/internal/enrich"
	"swissjobs-utils/internal/search"
)

// SetupRoutes configures all API routes
func SetupRoutes(e *echo.Echo, cfg *config.Config, svc *search.Service, enricher *enrich.Manager) {
	// Global middleware
	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.Recover())
	e.Use(middleware.CORSConfig())
	e.Use(middleware.RequestValidation())
	// Searches page through a paced session and can run long; give
	// them more room than the probe endpoints.
	e.Use(middleware.TimeoutConfig(2 * time.Minute))

	// Health check routes
	health := e.Group("/health")
	{
		health.GET("", handlers.HealthHandler(svc))
		health.GET("/ready", handlers.ReadinessHandler(svc))
		health.GET("/live", handlers.LivenessHandler)
		health.GET("/provider", handlers.ProviderHealthHandler(svc))
	}

	e.GET("/status", handlers.StatusHandler(svc))

	// API v1 routes
	v1 := e.Group("/api/v1")
	{
		v1.POST("/search", handlers.SearchHandler(svc))
		v1.GET("/jobs/:id", handlers.DetailsHandler(svc))
		v1.GET("/resolve", handlers.ResolveHandler(svc))
		v1.GET("/providers", handlers.ProvidersHandler(svc))

		if enricher != nil {
			v1.POST("/enrich", handlers.EnrichHandler(enricher))
		}

		workers := v1.Group("/workers")
		{
			workers.GET("/stats", handlers.WorkerStatsHandler(svc))
		}
	}
}
