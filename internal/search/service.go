package search

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"swissjobs-utils/internal/bfs"
	"swissjobs-utils/internal/config"
	"swissjobs-utils/internal/logging"
	"swissjobs-utils/internal/provider"
	"swissjobs-utils/internal/session"
	"swissjobs-utils/internal/storage"
	"swissjobs-utils/pkg/models"
	"swissjobs-utils/pkg/utils"
)

// ProviderFactory creates a provider by name; it exists so tests can
// substitute a fake portal.
type ProviderFactory func(name string, cfg *config.Config, mode session.Mode, proxies *session.ProxyPool, logger logging.Logger) (provider.Provider, error)

// Service is the acquisition engine's front door. It validates
// requests, resolves locations to communal codes, runs paginated
// acquisition through the worker pool and optionally caches and
// persists results.
type Service struct {
	cfg      *config.Config
	logger   logging.Logger
	pool     *Pool
	proxies  *session.ProxyPool
	resolver *bfs.Resolver
	cache    *utils.SearchCache
	repo     *storage.Repository
	validate *validator.Validate
	factory  ProviderFactory
	started  time.Time
}

// NewService wires the engine together. cache and repo may be nil. The
// proxy pool is built once here and shared by every session the engine
// opens, so the per-endpoint parallelism cap holds across concurrent
// searches.
func NewService(cfg *config.Config, logger logging.Logger, resolver *bfs.Resolver, cache *utils.SearchCache, repo *storage.Repository) (*Service, error) {
	proxies, err := session.NewProxyPool(cfg.Session.Proxies, cfg.Session.ProxyParallel)
	if err != nil {
		return nil, err
	}
	return &Service{
		cfg:      cfg,
		logger:   logger,
		pool:     NewPool(cfg, logger),
		proxies:  proxies,
		resolver: resolver,
		cache:    cache,
		repo:     repo,
		validate: validator.New(),
		factory:  provider.New,
		started:  time.Now(),
	}, nil
}

// Start launches the worker pool.
func (s *Service) Start() {
	s.pool.Start()
}

// Stop drains in-flight searches.
func (s *Service) Stop() {
	s.pool.Stop()
}

// Stats exposes worker pool counters.
func (s *Service) Stats() PoolStats {
	return s.pool.Stats()
}

// Providers lists the registered provider names.
func (s *Service) Providers() []string {
	return provider.Names()
}

// Search runs one paginated acquisition. Validation failures surface
// as ValidationError before any network traffic; rate-limited runs
// return partial results without error.
func (s *Service) Search(ctx context.Context, apiReq *models.SearchAPIRequest) (*models.SearchResponse, error) {
	if err := s.validate.Struct(apiReq); err != nil {
		return nil, utils.NewValidationError(err.Error())
	}

	req := apiReq.SearchRequest.WithDefaults()
	if err := req.Validate(); err != nil {
		return nil, utils.NewValidationError(err.Error())
	}

	mode, err := session.ParseMode(utils.GetStringOrDefault(apiReq.Mode, s.cfg.Session.Mode))
	if err != nil {
		return nil, utils.NewValidationError(err.Error())
	}

	if req.Location != "" {
		matches, err := s.resolver.Resolve(req.Location)
		switch {
		case utils.IsUnresolvedLocation(err):
			// Non-fatal: a degraded, unfiltered search beats refusing
			// to run. Callers can pre-check via ResolveLocation.
			s.logger.Warn("Location did not resolve, searching unfiltered", map[string]interface{}{
				"location": req.Location,
			})
		case err != nil:
			return nil, err
		default:
			for _, match := range matches {
				req.CommunalCodes = appendUnique(req.CommunalCodes, match.Code)
			}
			s.logger.Debug("Resolved location filter", map[string]interface{}{
				"location": req.Location,
				"codes":    len(matches),
				"method":   matches[0].Method,
			})
		}
	}

	maxPages := apiReq.MaxPages
	if maxPages < 1 {
		maxPages = s.cfg.Provider.MaxPages
	}

	p, err := s.factory(s.providerName(), s.cfg, mode, s.proxies, s.logger)
	if err != nil {
		return nil, err
	}
	caps := p.Capabilities()
	if !caps.SupportsLanguage(string(req.Language)) {
		return nil, utils.NewValidationError(fmt.Sprintf("provider %s does not serve language %q", p.Name(), req.Language))
	}
	if caps.MaxPageSize > 0 && req.PageSize > caps.MaxPageSize {
		req.PageSize = caps.MaxPageSize
	}

	var cacheKey string
	if s.cache != nil && s.cache.Enabled() {
		cacheKey = s.cache.Key(&req, string(mode), maxPages)
		if cached := s.cache.Get(ctx, cacheKey); cached != nil {
			s.logger.Debug("Search served from cache", map[string]interface{}{"key": cacheKey})
			return cached, nil
		}
	}

	var resp *models.SearchResponse
	poolErr := s.pool.Do(ctx, func(runCtx context.Context) error {
		if err := p.Open(runCtx); err != nil {
			return err
		}
		defer p.Close()

		controller := NewController(p, maxPages, s.logger)
		var runErr error
		resp, runErr = controller.Run(runCtx, &req)
		return runErr
	})
	if resp == nil && poolErr != nil {
		return nil, poolErr
	}

	if apiReq.Store && s.repo != nil && resp != nil && len(resp.Listings) > 0 {
		if _, err := s.repo.UpsertBatch(ctx, resp.Listings); err != nil {
			s.logger.Error("Failed to persist search results", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	if poolErr == nil && cacheKey != "" && resp != nil {
		s.cache.Set(ctx, cacheKey, resp)
	}
	return resp, poolErr
}

// GetDetails fetches one listing in the requested language, preferring
// the local store when the listing was persisted before. An empty
// language defaults to English.
func (s *Service) GetDetails(ctx context.Context, id string, lang models.Language) (*models.JobListing, error) {
	if lang == "" {
		lang = models.LanguageEN
	}
	if s.repo != nil {
		stored, err := s.repo.Get(ctx, s.providerName(), id)
		if err == nil && stored != nil && (stored.Language == "" || stored.Language == string(lang)) {
			return stored, nil
		}
	}

	mode, err := session.ParseMode(s.cfg.Session.Mode)
	if err != nil {
		mode = session.ModeStealth
	}
	p, err := s.factory(s.providerName(), s.cfg, mode, s.proxies, s.logger)
	if err != nil {
		return nil, err
	}
	if !p.Capabilities().Details {
		return nil, utils.NewNotFoundError(id)
	}
	if err := p.Open(ctx); err != nil {
		return nil, err
	}
	defer p.Close()
	return p.GetDetails(ctx, id, lang)
}

// ResolveLocation exposes the BFS resolver.
func (s *Service) ResolveLocation(query string) (*models.ResolveResponse, error) {
	matches, err := s.resolver.Resolve(query)
	if err != nil {
		if _, ok := err.(*utils.ValidationError); ok {
			return nil, err
		}
		return &models.ResolveResponse{Input: query, Resolved: false}, nil
	}
	codes := make([]string, 0, len(matches))
	for _, match := range matches {
		codes = append(codes, match.Code)
	}
	return &models.ResolveResponse{
		Input:    query,
		Codes:    codes,
		Resolved: true,
	}, nil
}

// ProviderHealth probes the configured portal.
func (s *Service) ProviderHealth(ctx context.Context) *models.ProviderHealth {
	p, err := s.factory(s.providerName(), s.cfg, session.ModeFast, s.proxies, s.logger)
	if err != nil {
		return &models.ProviderHealth{Provider: s.providerName(), Message: err.Error()}
	}
	defer p.Close()
	return p.HealthCheck(ctx)
}

// Health aggregates component checks for the service health endpoint.
func (s *Service) Health(ctx context.Context, version string) *models.HealthResponse {
	checks := make(map[string]string)
	status := "healthy"

	if s.cache != nil && s.cache.Enabled() {
		if err := s.cache.HealthCheck(ctx); err != nil {
			checks["redis"] = err.Error()
			status = "degraded"
		} else {
			checks["redis"] = "ok"
		}
	}
	if s.repo != nil {
		if _, err := s.repo.Count(ctx); err != nil {
			checks["storage"] = err.Error()
			status = "degraded"
		} else {
			checks["storage"] = "ok"
		}
	}
	checks["workers"] = fmt.Sprintf("%d active", s.pool.Stats().Active)

	return &models.HealthResponse{
		Status:    status,
		Timestamp: time.Now(),
		Version:   version,
		Uptime:    time.Since(s.started),
		Checks:    checks,
	}
}

func (s *Service) providerName() string {
	return utils.GetStringOrDefault(s.cfg.Provider.Name, "job_room")
}

func appendUnique(codes []string, code string) []string {
	if utils.Contains(codes, code) {
		return codes
	}
	return append(codes, code)
}
