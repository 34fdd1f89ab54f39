package jobroom

import (
	"encoding/json"
	"strings"
	"testing"

	"swissjobs-utils/pkg/models"
)

func TestBuildPayloadDefaults(t *testing.T) {
	req := models.SearchRequest{}.WithDefaults()
	payload := BuildPayload(&req)

	if payload.WorkloadPercentageMin != 0 || payload.WorkloadPercentageMax != 100 {
		t.Errorf("workload = [%d,%d], want [0,100]", payload.WorkloadPercentageMin, payload.WorkloadPercentageMax)
	}
	if payload.Permanent != nil {
		t.Errorf("permanent = %v, want null for any contract", *payload.Permanent)
	}
	if payload.CompanyName != nil {
		t.Errorf("company name = %v, want null", *payload.CompanyName)
	}
	if payload.OnlineSince != defaultOnlineSince {
		t.Errorf("onlineSince = %d, want %d", payload.OnlineSince, defaultOnlineSince)
	}

	// Absent list filters must serialize as empty arrays, not null.
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	for _, field := range []string{`"keywords":[]`, `"communalCodes":[]`, `"cantonCodes":[]`, `"professionCodes":[]`} {
		if !strings.Contains(string(data), field) {
			t.Errorf("payload %s missing %s", data, field)
		}
	}
	if !strings.Contains(string(data), `"permanent":null`) {
		t.Errorf("payload %s missing null permanent", data)
	}
}

func TestBuildPayloadFilters(t *testing.T) {
	req := models.SearchRequest{
		Query:            "backend engineer",
		Keywords:         []string{"golang"},
		CommunalCodes:    []string{"261"},
		CantonCodes:      []string{"ZH", "ZG"},
		CompanyName:      "Acme AG",
		WorkloadMin:      60,
		WorkloadMax:      80,
		ContractType:     models.ContractPermanent,
		PostedWithinDays: 7,
		Radius:           &models.RadiusSearch{Lat: 47.37, Lon: 8.54, Distance: 25},
	}.WithDefaults()
	payload := BuildPayload(&req)

	wantKeywords := []string{"backend", "engineer", "golang"}
	if len(payload.Keywords) != len(wantKeywords) {
		t.Fatalf("keywords = %v, want %v", payload.Keywords, wantKeywords)
	}
	for i, kw := range wantKeywords {
		if payload.Keywords[i] != kw {
			t.Errorf("keyword[%d] = %s, want %s", i, payload.Keywords[i], kw)
		}
	}

	if payload.Permanent == nil || !*payload.Permanent {
		t.Error("permanent filter not set")
	}
	if payload.CompanyName == nil || *payload.CompanyName != "Acme AG" {
		t.Error("company name filter not set")
	}
	if payload.OnlineSince != 7 {
		t.Errorf("onlineSince = %d, want 7", payload.OnlineSince)
	}
	if payload.WorkloadPercentageMin != 60 || payload.WorkloadPercentageMax != 80 {
		t.Errorf("workload = [%d,%d]", payload.WorkloadPercentageMin, payload.WorkloadPercentageMax)
	}
	if payload.RadiusSearchRequest == nil || payload.RadiusSearchRequest.Distance != 25 {
		t.Errorf("radius = %+v", payload.RadiusSearchRequest)
	}

	if BuildPayload(&req) == payload {
		t.Error("BuildPayload must return a fresh payload per call")
	}
}

func TestBuildPayloadTemporaryContract(t *testing.T) {
	req := models.SearchRequest{ContractType: models.ContractTemporary}.WithDefaults()
	payload := BuildPayload(&req)
	if payload.Permanent == nil || *payload.Permanent {
		t.Error("temporary contract must map to permanent=false")
	}
}

func TestMapSearchResponseShapes(t *testing.T) {
	t.Run("bare array", func(t *testing.T) {
		page, err := mapSearchResponse([]byte(`[`+sampleAd+`]`), "en")
		if err != nil {
			t.Fatalf("map failed: %v", err)
		}
		if len(page.Listings) != 1 || page.TotalCount != 1 {
			t.Errorf("listings=%d total=%d", len(page.Listings), page.TotalCount)
		}
	})

	t.Run("content envelope", func(t *testing.T) {
		page, err := mapSearchResponse([]byte(`{"content":[`+sampleAd+`],"totalElements":99}`), "en")
		if err != nil {
			t.Fatalf("map failed: %v", err)
		}
		if len(page.Listings) != 1 || page.TotalCount != 99 {
			t.Errorf("listings=%d total=%d", len(page.Listings), page.TotalCount)
		}
	})

	t.Run("jobAdvertisements envelope", func(t *testing.T) {
		page, err := mapSearchResponse([]byte(`{"jobAdvertisements":[`+sampleAd+`]}`), "en")
		if err != nil {
			t.Fatalf("map failed: %v", err)
		}
		if len(page.Listings) != 1 {
			t.Errorf("listings=%d", len(page.Listings))
		}
	})

	t.Run("empty body", func(t *testing.T) {
		page, err := mapSearchResponse(nil, "en")
		if err != nil {
			t.Fatalf("map failed: %v", err)
		}
		if len(page.Listings) != 0 {
			t.Errorf("listings=%d", len(page.Listings))
		}
	})
}

func TestMapSearchResponseSkipsMalformed(t *testing.T) {
	body := `{"content":[` + sampleAd + `, {"jobContent":{}}, "garbage"],"totalElements":3}`
	page, err := mapSearchResponse([]byte(body), "en")
	if err != nil {
		t.Fatalf("map failed: %v", err)
	}
	if len(page.Listings) != 1 {
		t.Errorf("listings = %d, want 1", len(page.Listings))
	}
	if page.Skipped != 2 {
		t.Errorf("skipped = %d, want 2", page.Skipped)
	}
}

func TestPickDescriptionFallback(t *testing.T) {
	var ad advertisement
	if err := json.Unmarshal([]byte(sampleAd), &ad); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	title, _, lang := pickDescription(&ad, "fr")
	if title != "Softwareentwickler" || lang != "de" {
		t.Errorf("fallback = %s/%s, want first description", title, lang)
	}

	title, _, lang = pickDescription(&ad, "EN")
	if title != "Software Engineer" || lang != "en" {
		t.Errorf("case-insensitive match = %s/%s", title, lang)
	}
}

func TestStripHTML(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain text untouched", "just text", "just text"},
		{"paragraphs", "<p>first</p><p>second</p>", "first\nsecond"},
		{"list items", "<ul><li>a</li><li>b</li></ul>", "a\nb"},
		{"entities", "<p>K&uuml;che &amp; Bad</p>", "Küche & Bad"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stripHTML(tt.in); got != tt.want {
				t.Errorf("stripHTML(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
