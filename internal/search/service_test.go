package search

import (
	"context"
	"errors"
	"testing"
	"time"

	"swissjobs-utils/internal/bfs"
	"swissjobs-utils/internal/config"
	"swissjobs-utils/internal/logging"
	"swissjobs-utils/internal/provider"
	"swissjobs-utils/internal/session"
	"swissjobs-utils/pkg/models"
	"swissjobs-utils/pkg/utils"
)

func testService(t *testing.T, fake *fakeProvider) *Service {
	t.Helper()
	cfg := &config.Config{}
	cfg.Workers.PoolSize = 1
	cfg.Workers.QueueSize = 4
	cfg.Workers.Timeout = 5 * time.Second
	cfg.Provider.Name = "fake"
	cfg.Provider.MaxPages = 10
	cfg.Session.Mode = "fast"

	index, err := bfs.NewIndex("")
	if err != nil {
		t.Fatalf("failed to build index: %v", err)
	}
	resolver := bfs.NewResolver(index, 0, testLogger())

	svc, err := NewService(cfg, testLogger(), resolver, nil, nil)
	if err != nil {
		t.Fatalf("failed to build service: %v", err)
	}
	svc.factory = func(name string, cfg *config.Config, mode session.Mode, proxies *session.ProxyPool, logger logging.Logger) (provider.Provider, error) {
		return fake, nil
	}
	svc.Start()
	t.Cleanup(svc.Stop)
	return svc
}

func TestSearchRejectsInvalidWorkloadRange(t *testing.T) {
	svc := testService(t, &fakeProvider{})

	req := &models.SearchAPIRequest{
		SearchRequest: models.SearchRequest{WorkloadMin: 80, WorkloadMax: 40},
	}
	_, err := svc.Search(context.Background(), req)
	var verr *utils.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestSearchRejectsUnknownMode(t *testing.T) {
	svc := testService(t, &fakeProvider{})

	req := &models.SearchAPIRequest{Mode: "warp"}
	_, err := svc.Search(context.Background(), req)
	var verr *utils.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError for unknown mode, got %v", err)
	}
}

func TestSearchResolvesLocationToCommunalCode(t *testing.T) {
	fake := &fakeProvider{pages: []fakePage{
		{page: &provider.Page{Listings: listings("p0", 5), TotalCount: 5}},
	}}
	svc := testService(t, fake)

	var seenCodes []string
	svc.factory = func(name string, cfg *config.Config, mode session.Mode, proxies *session.ProxyPool, logger logging.Logger) (provider.Provider, error) {
		return &codeCapturingProvider{fakeProvider: fake, codes: &seenCodes}, nil
	}

	req := &models.SearchAPIRequest{
		SearchRequest: models.SearchRequest{Location: "Zürich"},
	}
	resp, err := svc.Search(context.Background(), req)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(resp.Listings) != 5 {
		t.Errorf("listings = %d, want 5", len(resp.Listings))
	}
	if len(seenCodes) != 1 || seenCodes[0] != "261" {
		t.Errorf("communal codes sent to provider = %v, want [261]", seenCodes)
	}
}

type codeCapturingProvider struct {
	*fakeProvider
	codes *[]string
}

func (c *codeCapturingProvider) FetchPage(ctx context.Context, req *models.SearchRequest, page int) (*provider.Page, error) {
	*c.codes = append([]string{}, req.CommunalCodes...)
	return c.fakeProvider.FetchPage(ctx, req, page)
}

func TestSearchUnresolvableLocationProceedsUnfiltered(t *testing.T) {
	fake := &fakeProvider{pages: []fakePage{
		{page: &provider.Page{Listings: listings("p0", 3), TotalCount: 3}},
	}}
	svc := testService(t, fake)

	var seenCodes []string
	svc.factory = func(name string, cfg *config.Config, mode session.Mode, proxies *session.ProxyPool, logger logging.Logger) (provider.Provider, error) {
		return &codeCapturingProvider{fakeProvider: fake, codes: &seenCodes}, nil
	}

	req := &models.SearchAPIRequest{
		SearchRequest: models.SearchRequest{Location: "Atlantis"},
	}
	resp, err := svc.Search(context.Background(), req)
	if err != nil {
		t.Fatalf("unresolvable location must degrade to an unfiltered search, got %v", err)
	}
	if len(resp.Listings) != 3 {
		t.Errorf("listings = %d, want 3", len(resp.Listings))
	}
	if len(seenCodes) != 0 {
		t.Errorf("communal codes sent to provider = %v, want none", seenCodes)
	}
}

type cappedProvider struct {
	*fakeProvider
	caps     provider.Capabilities
	pageSize *int
}

func (c *cappedProvider) Capabilities() provider.Capabilities { return c.caps }

func (c *cappedProvider) FetchPage(ctx context.Context, req *models.SearchRequest, page int) (*provider.Page, error) {
	*c.pageSize = req.PageSize
	return c.fakeProvider.FetchPage(ctx, req, page)
}

func TestSearchConsultsProviderCapabilities(t *testing.T) {
	fake := &fakeProvider{pages: []fakePage{
		{page: &provider.Page{Listings: listings("p0", 5), TotalCount: 5}},
	}}
	svc := testService(t, fake)

	var sentPageSize int
	svc.factory = func(name string, cfg *config.Config, mode session.Mode, proxies *session.ProxyPool, logger logging.Logger) (provider.Provider, error) {
		return &cappedProvider{
			fakeProvider: fake,
			caps:         provider.Capabilities{MaxPageSize: 50, Languages: []string{"en"}},
			pageSize:     &sentPageSize,
		}, nil
	}

	req := &models.SearchAPIRequest{
		SearchRequest: models.SearchRequest{PageSize: 80},
	}
	if _, err := svc.Search(context.Background(), req); err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if sentPageSize != 50 {
		t.Errorf("page size sent to provider = %d, want clamped to 50", sentPageSize)
	}

	req = &models.SearchAPIRequest{
		SearchRequest: models.SearchRequest{Language: models.LanguageDE},
	}
	_, err := svc.Search(context.Background(), req)
	var verr *utils.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError for unsupported language, got %v", err)
	}
	if fake.fetched != 1 {
		t.Errorf("fetches = %d, the rejected language must not reach the portal", fake.fetched)
	}
}

func TestSearchRateLimitedReturnsPartial(t *testing.T) {
	fake := &fakeProvider{pages: []fakePage{
		{page: &provider.Page{Listings: listings("p0", 20), TotalCount: 60}},
		{err: &utils.RateLimitedError{}},
	}}
	svc := testService(t, fake)

	req := &models.SearchAPIRequest{}
	resp, err := svc.Search(context.Background(), req)
	if err != nil {
		t.Fatalf("rate limited search must not error, got %v", err)
	}
	if len(resp.Listings) != 20 {
		t.Errorf("listings = %d, want 20", len(resp.Listings))
	}
	if resp.Termination.Reason != models.StopRateLimited {
		t.Errorf("reason = %s", resp.Termination.Reason)
	}
}

func TestResolveLocationEndpointShapes(t *testing.T) {
	svc := testService(t, &fakeProvider{})

	resolved, err := svc.ResolveLocation("8000")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if !resolved.Resolved || len(resolved.Codes) != 1 || resolved.Codes[0] != "261" {
		t.Errorf("resolved = %+v", resolved)
	}

	unresolved, err := svc.ResolveLocation("Atlantis")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if unresolved.Resolved || len(unresolved.Codes) != 0 {
		t.Errorf("unresolved = %+v", unresolved)
	}
}

func TestHealthAggregation(t *testing.T) {
	svc := testService(t, &fakeProvider{})
	health := svc.Health(context.Background(), "test")
	if health.Status != "healthy" {
		t.Errorf("status = %s", health.Status)
	}
	if health.Checks["workers"] == "" {
		t.Error("workers check missing")
	}
}
