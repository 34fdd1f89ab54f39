package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"swissjobs-utils/internal/enrich"
	"swissjobs-utils/pkg/models"
)

// EnrichRequest is the payload of the enrichment endpoint
type EnrichRequest struct {
	Listings []models.JobListing        `json:"listings" validate:"required,min=1,max=50"`
	Features []models.EnrichmentFeature `json:"features,omitempty"`
	Language models.Language            `json:"language,omitempty"`
}

// EnrichResponse wraps the per-listing enrichment outcomes
type EnrichResponse struct {
	Results []models.EnrichmentResult `json:"results"`
	Elapsed time.Duration             `json:"elapsed"`
}

// EnrichHandler runs LLM enrichment over a batch of listings
func EnrichHandler(manager *enrich.Manager) echo.HandlerFunc {
	return func(c echo.Context) error {
		reqID := requestID(c)

		var req EnrichRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:     "invalid_request",
				Message:   "Invalid request format",
				RequestID: reqID,
				Timestamp: time.Now(),
			})
		}
		if len(req.Listings) == 0 {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:     "empty_batch",
				Message:   "At least one listing is required",
				RequestID: reqID,
				Timestamp: time.Now(),
			})
		}

		start := time.Now()
		results := manager.EnrichBatch(c.Request().Context(), req.Listings, req.Features, req.Language)
		return c.JSON(http.StatusOK, EnrichResponse{
			Results: results,
			Elapsed: time.Since(start),
		})
	}
}
