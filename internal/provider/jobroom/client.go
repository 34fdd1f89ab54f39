package jobroom

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"swissjobs-utils/internal/config"
	"swissjobs-utils/internal/logging"
	"swissjobs-utils/internal/provider"
	"swissjobs-utils/internal/session"
	"swissjobs-utils/pkg/models"
)

func init() {
	provider.Register(ProviderName, func(cfg *config.Config, mode session.Mode, proxies *session.ProxyPool, logger logging.Logger) (provider.Provider, error) {
		return New(cfg, mode, proxies, logger)
	})
}

// Client talks to job-room.ch through a stealth session.
type Client struct {
	baseURL string
	cfg     *config.Config
	mode    session.Mode
	proxies *session.ProxyPool
	session *session.Session
	logger  logging.Logger
}

// New creates an unopened job-room client.
func New(cfg *config.Config, mode session.Mode, proxies *session.ProxyPool, logger logging.Logger) (*Client, error) {
	baseURL := cfg.Provider.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		cfg:     cfg,
		mode:    mode,
		proxies: proxies,
		logger:  logger,
	}, nil
}

func (c *Client) Name() string {
	return ProviderName
}

func (c *Client) Capabilities() provider.Capabilities {
	return provider.Capabilities{
		Details:     true,
		MaxPageSize: maxPageSize,
		Languages:   supportedLanguages,
		Filters:     supportedFilters,
	}
}

// Open establishes the portal session and performs the CSRF handshake.
func (c *Client) Open(ctx context.Context) error {
	sess, err := session.New(c.baseURL, c.mode, c.cfg, c.proxies, c.logger)
	if err != nil {
		return err
	}
	if err := sess.Open(ctx); err != nil {
		return err
	}
	c.session = sess
	return nil
}

// Close tears down the portal session.
func (c *Client) Close() error {
	if c.session != nil {
		c.session.Close()
		c.session = nil
	}
	return nil
}

// FetchPage posts one search to the portal and maps the result page.
func (c *Client) FetchPage(ctx context.Context, req *models.SearchRequest, page int) (*provider.Page, error) {
	if c.session == nil {
		return nil, errors.New("job-room client not opened")
	}

	payload, err := json.Marshal(BuildPayload(req))
	if err != nil {
		return nil, fmt.Errorf("failed to encode search payload: %w", err)
	}

	path := searchPath(req, page)
	body, err := c.session.Execute(ctx, http.MethodPost, path, payload)
	if err != nil {
		return nil, err
	}

	result, err := mapSearchResponse(body, string(req.Language))
	if err != nil {
		return nil, err
	}
	if result.Skipped > 0 {
		c.logger.Warn("Skipped malformed job-room records", map[string]interface{}{
			"page":    page,
			"skipped": result.Skipped,
		})
	}
	return result, nil
}

// GetDetails fetches a single advertisement by portal id, asking the
// portal for the requested language and picking the matching
// description from the record.
func (c *Client) GetDetails(ctx context.Context, id string, lang models.Language) (*models.JobListing, error) {
	if c.session == nil {
		return nil, errors.New("job-room client not opened")
	}

	langValue, ok := languageParams[string(lang)]
	if !ok {
		langValue = languageParams[string(models.LanguageEN)]
	}
	path := detailEndpoint + id + "?_ng=" + langValue

	body, err := c.session.Execute(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, translateDetailError(id, err)
	}

	var ad advertisement
	if err := json.Unmarshal(body, &ad); err != nil {
		return nil, fmt.Errorf("failed to decode job-room advertisement: %w", err)
	}
	listing, ok := mapAdvertisement(&ad, string(lang))
	if !ok {
		return nil, fmt.Errorf("job-room advertisement %s is missing required fields", id)
	}
	return listing, nil
}

// HealthCheck probes the portal with a minimal one-item search.
func (c *Client) HealthCheck(ctx context.Context) *models.ProviderHealth {
	health := &models.ProviderHealth{Provider: ProviderName}

	opened := c.session != nil
	if !opened {
		if err := c.Open(ctx); err != nil {
			health.Message = err.Error()
			return health
		}
		defer c.Close()
	}

	probe := models.SearchRequest{PageSize: 1}.WithDefaults()
	start := time.Now()
	_, err := c.FetchPage(ctx, &probe, 0)
	health.Latency = time.Since(start)
	if err != nil {
		health.Message = err.Error()
		return health
	}
	health.Reachable = true
	return health
}

// searchPath builds the search URL with paging, sorting and the
// portal's encoded language parameter.
func searchPath(req *models.SearchRequest, page int) string {
	sortValue, ok := sortParams[string(req.Sort)]
	if !ok {
		sortValue = sortParams[string(models.SortDateDesc)]
	}
	langValue, ok := languageParams[string(req.Language)]
	if !ok {
		langValue = languageParams[string(models.LanguageEN)]
	}
	size := req.PageSize
	if size < 1 {
		size = 20
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return fmt.Sprintf("%s?page=%d&size=%d&sort=%s&_ng=%s", searchEndpoint, page, size, sortValue, langValue)
}

// SearchPayload is the portal's search body. Absent filters are
// explicit: empty arrays mean "no restriction" and a null permanent
// flag means "any contract type".
type SearchPayload struct {
	WorkloadPercentageMin int            `json:"workloadPercentageMin"`
	WorkloadPercentageMax int            `json:"workloadPercentageMax"`
	Permanent             *bool          `json:"permanent"`
	CompanyName           *string        `json:"companyName"`
	OnlineSince           int            `json:"onlineSince"`
	DisplayRestricted     bool           `json:"displayRestricted"`
	ProfessionCodes       []string       `json:"professionCodes"`
	Keywords              []string       `json:"keywords"`
	CommunalCodes         []string       `json:"communalCodes"`
	CantonCodes           []string       `json:"cantonCodes"`
	RadiusSearchRequest   *RadiusRequest `json:"radiusSearchRequest,omitempty"`
}

type RadiusRequest struct {
	GeoPoint GeoPoint `json:"geoPoint"`
	Distance int      `json:"distance"`
}

type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// BuildPayload maps a portable search request onto the portal's wire
// payload. The mapping is deterministic and performs no IO.
func BuildPayload(req *models.SearchRequest) *SearchPayload {
	payload := &SearchPayload{
		WorkloadPercentageMin: req.WorkloadMin,
		WorkloadPercentageMax: req.WorkloadMax,
		OnlineSince:           defaultOnlineSince,
		ProfessionCodes:       []string{},
		Keywords:              []string{},
		CommunalCodes:         []string{},
		CantonCodes:           []string{},
	}
	if payload.WorkloadPercentageMax == 0 {
		payload.WorkloadPercentageMax = 100
	}
	if req.PostedWithinDays > 0 {
		payload.OnlineSince = req.PostedWithinDays
	}

	switch req.ContractType {
	case models.ContractPermanent:
		value := true
		payload.Permanent = &value
	case models.ContractTemporary:
		value := false
		payload.Permanent = &value
	}

	if req.CompanyName != "" {
		name := req.CompanyName
		payload.CompanyName = &name
	}

	if req.Query != "" {
		payload.Keywords = append(payload.Keywords, strings.Fields(req.Query)...)
	}
	payload.Keywords = append(payload.Keywords, req.Keywords...)

	payload.CommunalCodes = append(payload.CommunalCodes, req.CommunalCodes...)
	payload.CantonCodes = append(payload.CantonCodes, req.CantonCodes...)

	if req.Radius != nil {
		payload.RadiusSearchRequest = &RadiusRequest{
			GeoPoint: GeoPoint{Lat: req.Radius.Lat, Lon: req.Radius.Lon},
			Distance: req.Radius.Distance,
		}
	}
	return payload
}
