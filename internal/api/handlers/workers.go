package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"swissjobs-utils/internal/search"
)

// WorkerStatsHandler exposes worker pool counters
func WorkerStatsHandler(svc *search.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, svc.Stats())
	}
}
