package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"swissjobs-utils/internal/search"
	"swissjobs-utils/pkg/models"
	"swissjobs-utils/pkg/utils"
)

// Version is stamped at build time.
var Version = "dev"

var startTime = time.Now()

// HealthHandler reports component health
func HealthHandler(svc *search.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, svc.Health(c.Request().Context(), Version))
	}
}

// LivenessHandler handles liveness probe requests
func LivenessHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, models.HealthResponse{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   Version,
		Uptime:    time.Since(startTime),
	})
}

// ReadinessHandler handles readiness probe requests
func ReadinessHandler(svc *search.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		health := svc.Health(c.Request().Context(), Version)
		status := http.StatusOK
		if health.Status != "healthy" {
			status = http.StatusServiceUnavailable
		}
		return c.JSON(status, health)
	}
}

// StatusHandler provides a quick operational snapshot without probing
// the upstream portal.
func StatusHandler(svc *search.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		stats := svc.Stats()
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":    "operational",
			"timestamp": time.Now(),
			"version":   Version,
			"uptime":    utils.FormatDuration(time.Since(startTime)),
			"providers": svc.Providers(),
			"workers":   stats,
		})
	}
}

// ProviderHealthHandler probes the upstream portal
func ProviderHealthHandler(svc *search.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		health := svc.ProviderHealth(c.Request().Context())
		status := http.StatusOK
		if !health.Reachable {
			status = http.StatusServiceUnavailable
		}
		return c.JSON(status, health)
	}
}
