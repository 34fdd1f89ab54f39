package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"swissjobs-utils/internal/search"
	"swissjobs-utils/pkg/models"
)

// ResolveHandler resolves a free-text location to BFS communal codes
func ResolveHandler(svc *search.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		query := c.QueryParam("q")
		if query == "" {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:     "missing_query",
				Message:   "Query parameter q is required",
				RequestID: requestID(c),
				Timestamp: time.Now(),
			})
		}

		resp, err := svc.ResolveLocation(query)
		if err != nil {
			status, code := classifyError(err)
			return c.JSON(status, models.ErrorResponse{
				Error:     code,
				Message:   err.Error(),
				RequestID: requestID(c),
				Timestamp: time.Now(),
			})
		}
		return c.JSON(http.StatusOK, resp)
	}
}
