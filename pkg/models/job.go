package models

import (
	"encoding/json"
	"time"
)

// JobLocation is the resolved workplace location of a listing.
// Either CommunalCode carries a valid BFS code or Resolved is false;
// a listing never carries a guessed code.
type JobLocation struct {
	City         string `json:"city,omitempty"`
	PostalCode   string `json:"postal_code,omitempty"`
	CantonCode   string `json:"canton_code,omitempty"`
	CommunalCode string `json:"communal_code,omitempty"`
	CountryCode  string `json:"country_code,omitempty"`
	Resolved     bool   `json:"resolved"`
}

// EmploymentTerms captures workload and permanence of a listing
type EmploymentTerms struct {
	WorkloadMin int    `json:"workload_min"`
	WorkloadMax int    `json:"workload_max"`
	Permanent   bool   `json:"permanent"`
	Immediate   bool   `json:"immediate,omitempty"`
	StartDate   string `json:"start_date,omitempty"`
	EndDate     string `json:"end_date,omitempty"`
}

// JobListing is the canonical job record produced by a provider client.
// It is an immutable value object; ownership passes to the caller.
type JobListing struct {
	ID           string          `json:"id" validate:"required"`
	Source       string          `json:"source" validate:"required"`
	Title        string          `json:"title"`
	Description  string          `json:"description,omitempty"`
	Language     string          `json:"language,omitempty"`
	CompanyName  string          `json:"company_name,omitempty"`
	CompanyCity  string          `json:"company_city,omitempty"`
	JobURL       string          `json:"job_url,omitempty"`
	ExternalURL  string          `json:"external_url,omitempty"`
	ContactEmail string          `json:"contact_email,omitempty"`
	Location     JobLocation     `json:"location"`
	Employment   EmploymentTerms `json:"employment"`
	PostedAt     *time.Time      `json:"posted_at,omitempty"`
	Raw          json.RawMessage `json:"raw,omitempty"` // original provider item, kept for enrichment
}
