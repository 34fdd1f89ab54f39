package enrich

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"swissjobs-utils/internal/config"
	"swissjobs-utils/internal/enrich/providers"
	"swissjobs-utils/internal/logging"
	"swissjobs-utils/pkg/models"
)

// Manager fans listing enrichment out to the configured LLM provider
// with bounded concurrency.
type Manager struct {
	provider    Provider
	concurrency int
	logger      logging.Logger
}

// NewManager selects the enrichment provider from configuration.
func NewManager(cfg *config.Config, logger logging.Logger) (*Manager, error) {
	var p Provider
	switch cfg.LLM.Provider {
	case "claude", "":
		p = providers.NewClaudeProvider(cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported LLM provider %q", cfg.LLM.Provider)
	}

	concurrency := cfg.LLM.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	return &Manager{provider: p, concurrency: concurrency, logger: logger}, nil
}

// NewManagerWithProvider wires a manager around an existing provider.
func NewManagerWithProvider(p Provider, concurrency int, logger logging.Logger) *Manager {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Manager{provider: p, concurrency: concurrency, logger: logger}
}

// ProviderName returns the active provider's name.
func (m *Manager) ProviderName() string {
	return m.provider.Name()
}

// HealthCheck probes the underlying provider.
func (m *Manager) HealthCheck(ctx context.Context) error {
	return m.provider.HealthCheck(ctx)
}

// EnrichBatch enriches listings concurrently. Per-listing failures are
// reported in the result slice instead of aborting the batch; the
// returned results keep the input order.
func (m *Manager) EnrichBatch(ctx context.Context, listings []models.JobListing, features []models.EnrichmentFeature, target models.Language) []models.EnrichmentResult {
	if len(features) == 0 {
		features = models.AllEnrichmentFeatures
	}
	if target == "" {
		target = models.LanguageEN
	}

	results := make([]models.EnrichmentResult, len(listings))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.concurrency)

	for i := range listings {
		i := i
		g.Go(func() error {
			listing := &listings[i]
			results[i].ListingID = listing.ID

			enrichment, err := m.provider.Enrich(gctx, listing, features, target)
			if err != nil {
				results[i].Error = err.Error()
				m.logger.Warn("Listing enrichment failed", map[string]interface{}{
					"listing_id": listing.ID,
					"provider":   m.provider.Name(),
					"error":      err.Error(),
				})
				return nil
			}
			results[i].Enrichment = enrichment
			return nil
		})
	}

	g.Wait()
	return results
}
