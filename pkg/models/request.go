package models

import (
	"fmt"
	"strings"
)

// ContractType filters listings by employment permanence
type ContractType string

const (
	ContractPermanent ContractType = "permanent"
	ContractTemporary ContractType = "temporary"
	ContractAny       ContractType = "any"
)

// SortOrder controls result ordering on providers that support it
type SortOrder string

const (
	SortDateDesc  SortOrder = "date_desc"
	SortDateAsc   SortOrder = "date_asc"
	SortRelevance SortOrder = "relevance"
)

// Language selects the response language for multilingual providers
type Language string

const (
	LanguageEN Language = "en"
	LanguageDE Language = "de"
	LanguageFR Language = "fr"
	LanguageIT Language = "it"
)

// RadiusSearch restricts results to a circle around a geo point
type RadiusSearch struct {
	Lat      float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lon      float64 `json:"lon" validate:"gte=-180,lte=180"`
	Distance int     `json:"distance" validate:"gt=0"` // kilometers
}

// SearchRequest is the canonical, provider-independent search payload.
// Treat a constructed request as immutable; the engine copies it per search.
type SearchRequest struct {
	Query            string        `json:"query,omitempty"`
	Keywords         []string      `json:"keywords,omitempty"`
	Location         string        `json:"location,omitempty"`
	CantonCodes      []string      `json:"canton_codes,omitempty" validate:"max=26"`
	CommunalCodes    []string      `json:"communal_codes,omitempty"`
	CompanyName      string        `json:"company_name,omitempty"`
	WorkloadMin      int           `json:"workload_min" validate:"gte=0,lte=100"`
	WorkloadMax      int           `json:"workload_max" validate:"gte=0,lte=100"`
	ContractType     ContractType  `json:"contract_type,omitempty"`
	PostedWithinDays int           `json:"posted_within_days" validate:"gte=0"`
	Page             int           `json:"page" validate:"gte=0"`
	PageSize         int           `json:"page_size" validate:"gte=0,lte=100"`
	Sort             SortOrder     `json:"sort,omitempty"`
	Language         Language      `json:"language,omitempty"`
	Radius           *RadiusSearch `json:"radius,omitempty"`
}

// WithDefaults returns a copy with unset fields replaced by defaults
func (r SearchRequest) WithDefaults() SearchRequest {
	if r.WorkloadMax == 0 {
		r.WorkloadMax = 100
	}
	if r.PageSize == 0 {
		r.PageSize = 20
	}
	if r.ContractType == "" {
		r.ContractType = ContractAny
	}
	if r.Sort == "" {
		r.Sort = SortDateDesc
	}
	if r.Language == "" {
		r.Language = LanguageEN
	}
	return r
}

// Validate checks range and enum constraints. It must pass before any
// network call is made on behalf of the request.
func (r SearchRequest) Validate() error {
	if r.WorkloadMin < 0 || r.WorkloadMax > 100 {
		return fmt.Errorf("workload range must be within [0,100], got [%d,%d]", r.WorkloadMin, r.WorkloadMax)
	}
	if r.WorkloadMin > r.WorkloadMax {
		return fmt.Errorf("workload_min %d exceeds workload_max %d", r.WorkloadMin, r.WorkloadMax)
	}
	switch r.ContractType {
	case ContractPermanent, ContractTemporary, ContractAny:
	default:
		return fmt.Errorf("invalid contract_type %q", r.ContractType)
	}
	switch r.Sort {
	case SortDateDesc, SortDateAsc, SortRelevance:
	default:
		return fmt.Errorf("invalid sort %q", r.Sort)
	}
	switch r.Language {
	case LanguageEN, LanguageDE, LanguageFR, LanguageIT:
	default:
		return fmt.Errorf("invalid language %q", r.Language)
	}
	if r.PostedWithinDays < 0 {
		return fmt.Errorf("posted_within_days must be non-negative, got %d", r.PostedWithinDays)
	}
	if r.Page < 0 {
		return fmt.Errorf("page must be non-negative, got %d", r.Page)
	}
	if r.PageSize < 1 || r.PageSize > 100 {
		return fmt.Errorf("page_size must be within [1,100], got %d", r.PageSize)
	}
	if len(r.CantonCodes) > 26 {
		return fmt.Errorf("at most 26 canton codes allowed, got %d", len(r.CantonCodes))
	}
	for _, c := range r.CantonCodes {
		if len(c) != 2 || c != strings.ToUpper(c) {
			return fmt.Errorf("invalid canton code %q", c)
		}
	}
	if r.Radius != nil {
		if r.Radius.Distance <= 0 {
			return fmt.Errorf("radius distance must be positive, got %d", r.Radius.Distance)
		}
		if r.Radius.Lat < -90 || r.Radius.Lat > 90 || r.Radius.Lon < -180 || r.Radius.Lon > 180 {
			return fmt.Errorf("radius coordinates out of range")
		}
	}
	return nil
}

// SearchAPIRequest is the HTTP request payload for the search endpoint
type SearchAPIRequest struct {
	SearchRequest
	Mode     string `json:"mode,omitempty" validate:"omitempty,oneof=fast stealth aggressive"`
	MaxPages int    `json:"max_pages,omitempty" validate:"gte=0,lte=100"`
	Store    bool   `json:"store,omitempty"`
}
