// Package search drives paginated acquisition runs against a provider
// and aggregates the results with duplicate suppression and stop
// reason classification.
package search

import (
	"context"
	"time"

	"swissjobs-utils/internal/logging"
	"swissjobs-utils/internal/provider"
	"swissjobs-utils/pkg/models"
	"swissjobs-utils/pkg/utils"
)

// Controller walks a provider's result pages for one search. It owns
// no session state; create one per run.
type Controller struct {
	provider provider.Provider
	maxPages int
	logger   logging.Logger
}

// NewController creates a pagination controller. maxPages caps the
// number of pages fetched in one run; values below 1 fetch one page.
func NewController(p provider.Provider, maxPages int, logger logging.Logger) *Controller {
	if maxPages < 1 {
		maxPages = 1
	}
	return &Controller{provider: p, maxPages: maxPages, logger: logger}
}

// Run fetches pages starting at req.Page until a stop condition hits.
// The response always carries whatever was aggregated before the stop;
// a non-nil error accompanies partial results only for failures other
// than rate limiting.
func (c *Controller) Run(ctx context.Context, req *models.SearchRequest) (*models.SearchResponse, error) {
	start := time.Now()
	resp := &models.SearchResponse{
		Page:     req.Page,
		PageSize: req.PageSize,
		Source:   c.provider.Name(),
		Listings: []models.JobListing{},
	}

	seen := make(map[string]bool)
	var runErr error

	reason := models.StopExhausted
	stoppedEarly := false

	for fetched := 0; fetched < c.maxPages; fetched++ {
		// Cancellation is an error, not a stop reason: the closed
		// enumeration only classifies provider-side conditions, so the
		// descriptor keeps its not-early default and the context error
		// travels alongside the partial response.
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}

		pageNum := req.Page + fetched
		page, err := c.provider.FetchPage(ctx, req, pageNum)
		if err != nil {
			if utils.IsRateLimited(err) {
				reason = models.StopRateLimited
				stoppedEarly = true
				c.logger.Warn("Provider rate limited, stopping pagination", map[string]interface{}{
					"provider": c.provider.Name(),
					"page":     pageNum,
				})
			} else {
				runErr = err
			}
			break
		}

		resp.PagesFetched++
		resp.Skipped += page.Skipped
		if page.TotalCount > resp.TotalCount {
			resp.TotalCount = page.TotalCount
		}

		if len(page.Listings) == 0 {
			reason = models.StopEmptyPage
			stoppedEarly = true
			break
		}

		fresh := 0
		for _, listing := range page.Listings {
			if seen[listing.ID] {
				continue
			}
			seen[listing.ID] = true
			resp.Listings = append(resp.Listings, listing)
			fresh++
		}

		// A non-empty page contributing nothing new means the portal
		// is replaying content; further pages would loop forever.
		if fresh == 0 {
			reason = models.StopRepeated
			stoppedEarly = true
			break
		}

		if len(page.Listings) < req.PageSize {
			reason = models.StopExhausted
			break
		}
		if resp.TotalCount > 0 && len(seen) >= resp.TotalCount {
			reason = models.StopExhausted
			break
		}

		if fetched == c.maxPages-1 {
			reason = models.StopMaxPages
			stoppedEarly = true
		}
	}

	resp.Elapsed = time.Since(start)
	resp.Termination = models.Termination{StoppedEarly: stoppedEarly, Reason: reason}

	c.logger.Info("Pagination run finished", map[string]interface{}{
		"provider":      c.provider.Name(),
		"pages_fetched": resp.PagesFetched,
		"listings":      len(resp.Listings),
		"reason":        string(reason),
		"elapsed":       resp.Elapsed.String(),
	})
	return resp, runErr
}
