// Package provider defines the job-portal provider abstraction and the
// registry that maps provider names to constructors.
package provider

import (
	"context"

	"swissjobs-utils/internal/config"
	"swissjobs-utils/internal/logging"
	"swissjobs-utils/internal/session"
	"swissjobs-utils/pkg/models"
)

// Page is one fetched result page, already mapped to the portable
// listing model. Skipped counts records the provider returned but the
// mapper had to drop.
type Page struct {
	Listings   []models.JobListing
	TotalCount int
	Skipped    int
}

// Capabilities describes what a provider supports, so callers can
// validate and clamp a request before any network traffic. Empty
// Languages or Filters means no declared restriction.
type Capabilities struct {
	Details     bool
	MaxPageSize int
	Languages   []string
	Filters     []string
}

// SupportsLanguage reports whether the provider serves lang. An empty
// declaration accepts everything.
func (c Capabilities) SupportsLanguage(lang string) bool {
	if len(c.Languages) == 0 {
		return true
	}
	for _, l := range c.Languages {
		if l == lang {
			return true
		}
	}
	return false
}

// Provider is one job portal behind a stealth session. Implementations
// must be safe to drop after Close; they are created per search.
type Provider interface {
	Name() string
	Capabilities() Capabilities

	// Open establishes the portal session. It must be called before
	// any fetch.
	Open(ctx context.Context) error

	// FetchPage retrieves one zero-based result page.
	FetchPage(ctx context.Context, req *models.SearchRequest, page int) (*Page, error)

	// GetDetails retrieves a single listing by provider id, with the
	// description in the requested language where available.
	GetDetails(ctx context.Context, id string, lang models.Language) (*models.JobListing, error)

	// HealthCheck probes the portal and reports reachability.
	HealthCheck(ctx context.Context) *models.ProviderHealth

	Close() error
}

// Constructor builds a provider in the given acquisition mode. The
// proxy pool is shared across all sessions the provider opens.
type Constructor func(cfg *config.Config, mode session.Mode, proxies *session.ProxyPool, logger logging.Logger) (Provider, error)
