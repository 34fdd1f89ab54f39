package models

import "time"

// StopReason classifies why pagination ended early
type StopReason string

const (
	StopMaxPages    StopReason = "max_pages_reached"
	StopEmptyPage   StopReason = "empty_page"
	StopRateLimited StopReason = "rate_limited"
	StopRepeated    StopReason = "repeated_content"
	StopExhausted   StopReason = "exhausted"
)

// Termination reports how a search ended. Exactly one reason is set when
// StoppedEarly is true; Reason is StopExhausted otherwise.
type Termination struct {
	StoppedEarly bool       `json:"stopped_early"`
	Reason       StopReason `json:"reason"`
}

// SearchResponse is the aggregated result of one paginated search.
// It is constructed once per search and not mutated after return.
type SearchResponse struct {
	Listings     []JobListing  `json:"listings"`
	TotalCount   int           `json:"total_count"`
	Page         int           `json:"page"`
	PageSize     int           `json:"page_size"`
	PagesFetched int           `json:"pages_fetched"`
	Skipped      int           `json:"skipped,omitempty"` // malformed raw items dropped during mapping
	Source       string        `json:"source"`
	Elapsed      time.Duration `json:"elapsed"`
	Termination  Termination   `json:"termination"`
}

// ProviderHealth is the result of a provider health probe. Unreachability
// is encoded in the value, never raised as an error.
type ProviderHealth struct {
	Provider  string        `json:"provider"`
	Reachable bool          `json:"reachable"`
	Latency   time.Duration `json:"latency"`
	Message   string        `json:"message,omitempty"`
}

// ResolveResponse is the HTTP payload for location resolution
type ResolveResponse struct {
	Input    string   `json:"input"`
	Codes    []string `json:"codes,omitempty"`
	Resolved bool     `json:"resolved"`
}

// HealthResponse represents the service health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Version   string            `json:"version"`
	Uptime    time.Duration     `json:"uptime"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	RequestID string    `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`
}

// UpsertResult reports persistence outcome counts
type UpsertResult struct {
	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`
}
