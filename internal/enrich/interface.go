// Package enrich augments acquired listings with LLM-derived fields:
// translations, experience level, language and education requirements
// and skill keywords.
package enrich

import (
	"context"

	"swissjobs-utils/pkg/models"
)

// Provider is an LLM backend capable of enriching a single listing.
type Provider interface {
	Name() string
	Enrich(ctx context.Context, listing *models.JobListing, features []models.EnrichmentFeature, target models.Language) (*models.Enrichment, error)
	HealthCheck(ctx context.Context) error
}
