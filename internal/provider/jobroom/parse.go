package jobroom

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"swissjobs-utils/internal/provider"
	"swissjobs-utils/pkg/models"
	"swissjobs-utils/pkg/utils"
)

// advertisement mirrors the portal's job advertisement record. Only
// the fields we map are declared; the full record is preserved in
// JobListing.Raw.
type advertisement struct {
	ID          string `json:"id"`
	ExternalURL string `json:"externalUrl"`
	Publication struct {
		StartDate string `json:"startDate"`
	} `json:"publication"`
	JobContent struct {
		ExternalURL     string `json:"externalUrl"`
		JobDescriptions []struct {
			LanguageIsoCode string `json:"languageIsoCode"`
			Title           string `json:"title"`
			Description     string `json:"description"`
		} `json:"jobDescriptions"`
		Company struct {
			Name string `json:"name"`
			City string `json:"city"`
		} `json:"company"`
		Location struct {
			City         string `json:"city"`
			PostalCode   string `json:"postalCode"`
			CommunalCode string `json:"communalCode"`
			CantonCode   string `json:"cantonCode"`
			CountryCode  string `json:"countryIsoCode"`
		} `json:"location"`
		Employment struct {
			StartDate             string `json:"startDate"`
			EndDate               string `json:"endDate"`
			Immediately           bool   `json:"immediately"`
			Permanent             bool   `json:"permanent"`
			WorkloadPercentageMin int    `json:"workloadPercentageMin"`
			WorkloadPercentageMax int    `json:"workloadPercentageMax"`
		} `json:"employment"`
		PublicContact struct {
			Email string `json:"email"`
		} `json:"publicContact"`
		ApplyChannel struct {
			FormURL string `json:"formUrl"`
		} `json:"applyChannel"`
	} `json:"jobContent"`
}

// searchEnvelope is the portal's paged response shape. The same
// endpoint has been observed returning a bare array, so mapping
// handles both.
type searchEnvelope struct {
	Content           []json.RawMessage `json:"content"`
	JobAdvertisements []json.RawMessage `json:"jobAdvertisements"`
	TotalElements     int               `json:"totalElements"`
}

// mapSearchResponse decodes a search response body into a Page.
// Records that fail to decode or lack an id are counted as skipped,
// never dropped silently.
func mapSearchResponse(body []byte, language string) (*provider.Page, error) {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return &provider.Page{}, nil
	}

	var items []json.RawMessage
	total := 0

	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal(body, &items); err != nil {
			return nil, fmt.Errorf("failed to decode job-room response array: %w", err)
		}
		total = len(items)
	} else {
		var envelope searchEnvelope
		if err := json.Unmarshal(body, &envelope); err != nil {
			return nil, fmt.Errorf("failed to decode job-room response: %w", err)
		}
		items = envelope.Content
		if len(items) == 0 {
			items = envelope.JobAdvertisements
		}
		total = envelope.TotalElements
		if total == 0 {
			total = len(items)
		}
	}

	page := &provider.Page{TotalCount: total}
	for _, raw := range items {
		var ad advertisement
		if err := json.Unmarshal(raw, &ad); err != nil {
			page.Skipped++
			continue
		}
		listing, ok := mapAdvertisement(&ad, language)
		if !ok {
			page.Skipped++
			continue
		}
		listing.Raw = raw
		page.Listings = append(page.Listings, *listing)
	}
	return page, nil
}

// mapAdvertisement converts one portal record to the portable listing
// model. Records without an id are unusable and rejected.
func mapAdvertisement(ad *advertisement, language string) (*models.JobListing, bool) {
	if ad.ID == "" {
		return nil, false
	}

	title, description, descLang := pickDescription(ad, language)

	listing := &models.JobListing{
		ID:           ad.ID,
		Source:       ProviderName,
		Title:        title,
		Description:  stripHTML(description),
		Language:     descLang,
		CompanyName:  ad.JobContent.Company.Name,
		CompanyCity:  ad.JobContent.Company.City,
		JobURL:       DefaultBaseURL + "/job-search/" + ad.ID,
		ContactEmail: ad.JobContent.PublicContact.Email,
		Location: models.JobLocation{
			City:         ad.JobContent.Location.City,
			PostalCode:   ad.JobContent.Location.PostalCode,
			CantonCode:   ad.JobContent.Location.CantonCode,
			CommunalCode: ad.JobContent.Location.CommunalCode,
			CountryCode:  ad.JobContent.Location.CountryCode,
			Resolved:     ad.JobContent.Location.CommunalCode != "",
		},
		Employment: models.EmploymentTerms{
			WorkloadMin: ad.JobContent.Employment.WorkloadPercentageMin,
			WorkloadMax: ad.JobContent.Employment.WorkloadPercentageMax,
			Permanent:   ad.JobContent.Employment.Permanent,
			Immediate:   ad.JobContent.Employment.Immediately,
			StartDate:   ad.JobContent.Employment.StartDate,
			EndDate:     ad.JobContent.Employment.EndDate,
		},
	}

	if ad.ExternalURL != "" {
		listing.ExternalURL = ad.ExternalURL
	} else if ad.JobContent.ExternalURL != "" {
		listing.ExternalURL = ad.JobContent.ExternalURL
	} else if ad.JobContent.ApplyChannel.FormURL != "" {
		listing.ExternalURL = ad.JobContent.ApplyChannel.FormURL
	}

	if ad.Publication.StartDate != "" {
		if posted, err := parsePortalDate(ad.Publication.StartDate); err == nil {
			listing.PostedAt = &posted
		}
	}
	return listing, true
}

// pickDescription selects the job description in the requested
// language, falling back to the first one the record carries.
func pickDescription(ad *advertisement, language string) (title, description, descLang string) {
	descs := ad.JobContent.JobDescriptions
	if len(descs) == 0 {
		return "", "", ""
	}
	for _, d := range descs {
		if strings.EqualFold(d.LanguageIsoCode, language) {
			return d.Title, d.Description, strings.ToLower(d.LanguageIsoCode)
		}
	}
	first := descs[0]
	return first.Title, first.Description, strings.ToLower(first.LanguageIsoCode)
}

// stripHTML flattens the portal's HTML descriptions into plain text,
// keeping paragraph breaks readable.
func stripHTML(s string) string {
	if s == "" || !strings.Contains(s, "<") {
		return strings.TrimSpace(s)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.TrimSpace(s)
	}
	doc.Find("br, p, li, div").Each(func(_ int, sel *goquery.Selection) {
		sel.AppendHtml("\n")
	})
	text := doc.Text()
	lines := strings.Split(text, "\n")
	var out []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

// parsePortalDate reads the portal's date formats, with and without a
// time component.
func parsePortalDate(value string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", value)
}

// translateDetailError maps a portal 404 on the detail endpoint to the
// not-found signal; everything else passes through.
func translateDetailError(id string, err error) error {
	var rf *utils.RequestFailedError
	if errors.As(err, &rf) && rf.Status == http.StatusNotFound {
		return utils.NewNotFoundError(id)
	}
	return err
}
