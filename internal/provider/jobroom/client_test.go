package jobroom

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"swissjobs-utils/internal/config"
	"swissjobs-utils/internal/logging"
	"swissjobs-utils/internal/session"
	"swissjobs-utils/pkg/models"
	"swissjobs-utils/pkg/utils"
)

func testLogger() logging.Logger {
	logger := logging.NewMultiLogger()
	logger.SetLevel(logging.ErrorLevel)
	return logger
}

func testClient(t *testing.T, serverURL string) *Client {
	t.Helper()
	cfg := &config.Config{}
	cfg.Provider.BaseURL = serverURL
	cfg.Session.RequestTimeout = 5 * time.Second
	cfg.Session.MaxRetries = 1

	client, err := New(cfg, session.ModeFast, nil, testLogger())
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	return client
}

func portalHandler(api http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			http.SetCookie(w, &http.Cookie{Name: "XSRF-TOKEN", Value: "portal-token", Path: "/"})
			w.WriteHeader(http.StatusOK)
			return
		}
		api(w, r)
	})
}

const sampleAd = `{
	"id": "ad-1",
	"publication": {"startDate": "2025-08-15"},
	"jobContent": {
		"jobDescriptions": [
			{"languageIsoCode": "de", "title": "Softwareentwickler", "description": "<p>Go Entwicklung</p><p>Remote möglich</p>"},
			{"languageIsoCode": "en", "title": "Software Engineer", "description": "<p>Go development</p>"}
		],
		"company": {"name": "Acme AG", "city": "Zürich"},
		"location": {"city": "Zürich", "postalCode": "8005", "communalCode": "261", "cantonCode": "ZH", "countryIsoCode": "CH"},
		"employment": {"permanent": true, "immediately": true, "workloadPercentageMin": 80, "workloadPercentageMax": 100},
		"publicContact": {"email": "jobs@acme.ch"},
		"applyChannel": {"formUrl": "https://acme.ch/apply"}
	}
}`

func TestFetchPage(t *testing.T) {
	var gotPath, gotQuery, gotBody, gotToken string
	server := httptest.NewServer(portalHandler(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotToken = r.Header.Get("X-Xsrf-Token")
		data, _ := io.ReadAll(r.Body)
		gotBody = string(data)
		w.Write([]byte(`{"content": [` + sampleAd + `], "totalElements": 42}`))
	}))
	defer server.Close()

	client := testClient(t, server.URL)
	ctx := context.Background()
	if err := client.Open(ctx); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer client.Close()

	req := models.SearchRequest{Query: "golang", Language: models.LanguageEN}.WithDefaults()
	page, err := client.FetchPage(ctx, &req, 2)
	if err != nil {
		t.Fatalf("FetchPage failed: %v", err)
	}

	if gotPath != "/jobadservice/api/jobAdvertisements/_search" {
		t.Errorf("path = %s", gotPath)
	}
	for _, fragment := range []string{"page=2", "size=20", "sort=date_desc", "_ng=ZW4="} {
		if !strings.Contains(gotQuery, fragment) {
			t.Errorf("query %q missing %q", gotQuery, fragment)
		}
	}
	if gotToken != "portal-token" {
		t.Errorf("csrf header = %q", gotToken)
	}
	if !strings.Contains(gotBody, `"keywords":["golang"]`) {
		t.Errorf("payload missing keywords: %s", gotBody)
	}

	if page.TotalCount != 42 {
		t.Errorf("total = %d, want 42", page.TotalCount)
	}
	if len(page.Listings) != 1 {
		t.Fatalf("listings = %d, want 1", len(page.Listings))
	}

	listing := page.Listings[0]
	if listing.ID != "ad-1" || listing.Source != ProviderName {
		t.Errorf("identity = %s/%s", listing.ID, listing.Source)
	}
	if listing.Title != "Software Engineer" {
		t.Errorf("title = %q, want requested-language description", listing.Title)
	}
	if strings.Contains(listing.Description, "<p>") {
		t.Errorf("description still has HTML: %q", listing.Description)
	}
	if listing.Location.CommunalCode != "261" || !listing.Location.Resolved {
		t.Errorf("location = %+v", listing.Location)
	}
	if listing.PostedAt == nil || listing.PostedAt.Format("2006-01-02") != "2025-08-15" {
		t.Errorf("posted at = %v", listing.PostedAt)
	}
	if len(listing.Raw) == 0 {
		t.Error("raw record not preserved")
	}
}

func TestGetDetailsRequestsLanguage(t *testing.T) {
	var gotPath, gotQuery string
	server := httptest.NewServer(portalHandler(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Write([]byte(sampleAd))
	}))
	defer server.Close()

	client := testClient(t, server.URL)
	ctx := context.Background()
	if err := client.Open(ctx); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer client.Close()

	listing, err := client.GetDetails(ctx, "ad-1", models.LanguageDE)
	if err != nil {
		t.Fatalf("GetDetails failed: %v", err)
	}
	if gotPath != "/jobadservice/api/jobAdvertisements/ad-1" {
		t.Errorf("path = %s", gotPath)
	}
	if !strings.Contains(gotQuery, "_ng=ZGU=") {
		t.Errorf("query %q missing encoded language", gotQuery)
	}
	if listing.Title != "Softwareentwickler" {
		t.Errorf("title = %q, want the German description", listing.Title)
	}
	if listing.Language != "de" {
		t.Errorf("language = %q, want de", listing.Language)
	}
}

func TestGetDetailsNotFound(t *testing.T) {
	server := httptest.NewServer(portalHandler(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := testClient(t, server.URL)
	ctx := context.Background()
	if err := client.Open(ctx); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer client.Close()

	_, err := client.GetDetails(ctx, "missing-id", models.LanguageEN)
	var nf *utils.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if nf.ID != "missing-id" {
		t.Errorf("id = %s", nf.ID)
	}
}

func TestHealthCheck(t *testing.T) {
	server := httptest.NewServer(portalHandler(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"content": [], "totalElements": 0}`))
	}))
	defer server.Close()

	client := testClient(t, server.URL)
	health := client.HealthCheck(context.Background())
	if !health.Reachable {
		t.Errorf("health not reachable: %s", health.Message)
	}
	if health.Provider != ProviderName {
		t.Errorf("provider = %s", health.Provider)
	}
}
