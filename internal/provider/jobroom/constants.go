// Package jobroom implements the provider for job-room.ch, the public
// job board of the Swiss unemployment insurance.
package jobroom

// ProviderName is the registry key of this provider.
const ProviderName = "job_room"

const (
	// DefaultBaseURL is the portal origin; override via configuration
	// for integration tests.
	DefaultBaseURL = "https://www.job-room.ch"

	searchEndpoint = "/jobadservice/api/jobAdvertisements/_search"
	detailEndpoint = "/jobadservice/api/jobAdvertisements/"

	// maxPageSize is the largest page the portal serves per request.
	maxPageSize = 100

	// defaultOnlineSince is the lookback window in days when the
	// request does not constrain publication age.
	defaultOnlineSince = 30
)

// languageParams holds the portal's base64-encoded `_ng` query values
// per UI language.
var languageParams = map[string]string{
	"en": "ZW4=",
	"de": "ZGU=",
	"fr": "ZnI=",
	"it": "aXQ=",
}

// supportedLanguages and supportedFilters feed the capabilities
// descriptor consulted before any request is sent.
var supportedLanguages = []string{"en", "de", "fr", "it"}

var supportedFilters = []string{
	"canton_codes",
	"communal_codes",
	"company_name",
	"contract_type",
	"keywords",
	"posted_within_days",
	"query",
	"radius",
	"workload",
}

// sortParams maps portable sort orders to the portal's sort values.
var sortParams = map[string]string{
	"date_desc": "date_desc",
	"date_asc":  "date_asc",
	"relevance": "score",
}
