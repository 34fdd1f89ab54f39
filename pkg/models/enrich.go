package models

// EnrichmentFeature selects one AI enrichment aspect
type EnrichmentFeature string

const (
	FeatureTranslation EnrichmentFeature = "translation"
	FeatureExperience  EnrichmentFeature = "experience"
	FeatureLanguages   EnrichmentFeature = "languages"
	FeatureEducation   EnrichmentFeature = "education"
	FeatureKeywords    EnrichmentFeature = "keywords"
)

// AllEnrichmentFeatures lists every supported feature flag
var AllEnrichmentFeatures = []EnrichmentFeature{
	FeatureTranslation,
	FeatureExperience,
	FeatureLanguages,
	FeatureEducation,
	FeatureKeywords,
}

// Enrichment holds the structured output of the language-model step for
// one listing. Fields for features that were not requested stay empty.
type Enrichment struct {
	TranslatedTitle       string   `json:"translated_title,omitempty"`
	TranslatedDescription string   `json:"translated_description,omitempty"`
	ExperienceLevel       string   `json:"experience_level,omitempty"` // entry, mid, senior, lead
	Languages             []string `json:"languages,omitempty"`        // spoken languages required by the posting
	Education             string   `json:"education,omitempty"`
	Keywords              []string `json:"keywords,omitempty"`
}

// EnrichmentResult pairs a listing with its enrichment or failure
type EnrichmentResult struct {
	ListingID  string      `json:"listing_id"`
	Enrichment *Enrichment `json:"enrichment,omitempty"`
	Error      string      `json:"error,omitempty"`
}
