package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"swissjobs-utils/internal/logging"
	"swissjobs-utils/internal/search"
	"swissjobs-utils/pkg/models"
	"swissjobs-utils/pkg/utils"
)

// SearchHandler runs one acquisition search through the engine
func SearchHandler(svc *search.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := requestID(c)
		logger := logging.GetGlobalLogger()

		var req models.SearchAPIRequest
		if err := c.Bind(&req); err != nil {
			logger.Error("Failed to bind search request", map[string]interface{}{
				"request_id": requestID,
				"error":      err.Error(),
			})
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:     "invalid_request",
				Message:   "Invalid request format",
				RequestID: requestID,
				Timestamp: time.Now(),
			})
		}

		resp, err := svc.Search(c.Request().Context(), &req)
		if err != nil {
			status, code := classifyError(err)
			logger.Warn("Search request failed", map[string]interface{}{
				"request_id": requestID,
				"error":      err.Error(),
			})
			// Partial results accompany some failures; return them with
			// the error so callers keep what was acquired.
			if resp != nil && len(resp.Listings) > 0 {
				return c.JSON(http.StatusOK, resp)
			}
			return c.JSON(status, models.ErrorResponse{
				Error:     code,
				Message:   err.Error(),
				RequestID: requestID,
				Timestamp: time.Now(),
			})
		}

		return c.JSON(http.StatusOK, resp)
	}
}

// DetailsHandler fetches a single listing by provider id
func DetailsHandler(svc *search.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := requestID(c)
		id := c.Param("id")
		if id == "" {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:     "missing_id",
				Message:   "Listing id is required",
				RequestID: requestID,
				Timestamp: time.Now(),
			})
		}

		listing, err := svc.GetDetails(c.Request().Context(), id, models.Language(c.QueryParam("lang")))
		if err != nil {
			status, code := classifyError(err)
			return c.JSON(status, models.ErrorResponse{
				Error:     code,
				Message:   err.Error(),
				RequestID: requestID,
				Timestamp: time.Now(),
			})
		}
		return c.JSON(http.StatusOK, listing)
	}
}

// ProvidersHandler lists the registered providers
func ProvidersHandler(svc *search.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"providers": svc.Providers(),
		})
	}
}

// classifyError maps engine errors onto HTTP status codes
func classifyError(err error) (int, string) {
	var (
		verr    *utils.ValidationError
		nf      *utils.NotFoundError
		unknown *utils.UnknownCodeError
		hs      *utils.HandshakeError
		rf      *utils.RequestFailedError
	)
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, "validation_failed"
	case utils.IsUnresolvedLocation(err):
		return http.StatusUnprocessableEntity, "unresolved_location"
	case errors.As(err, &unknown):
		return http.StatusUnprocessableEntity, "unknown_location"
	case errors.As(err, &nf):
		return http.StatusNotFound, "not_found"
	case utils.IsRateLimited(err):
		return http.StatusTooManyRequests, "rate_limited"
	case errors.As(err, &hs):
		return http.StatusBadGateway, "handshake_failed"
	case errors.As(err, &rf):
		return http.StatusBadGateway, "provider_error"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func requestID(c echo.Context) string {
	if id, ok := c.Get("request_id").(string); ok && id != "" {
		return id
	}
	return utils.GenerateRequestID()
}
