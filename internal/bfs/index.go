// Package bfs resolves free-text Swiss locations to official BFS
// municipality codes. Lookups run against a bundled snapshot of the
// federal municipality register, optionally replaced by an external
// dataset file at startup.
package bfs

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

//go:embed data/municipalities.json
var embeddedDataset []byte

// MunicipalityRecord is a single entry of the municipality register.
type MunicipalityRecord struct {
	Code        string            `json:"code"`
	Canton      string            `json:"canton"`
	Names       map[string]string `json:"names"`
	PostalCodes []string          `json:"postal_codes"`
}

// PrimaryName returns the record's display name, preferring English.
func (r *MunicipalityRecord) PrimaryName() string {
	if name, ok := r.Names["en"]; ok && name != "" {
		return name
	}
	if name, ok := r.Names["de"]; ok && name != "" {
		return name
	}
	for _, name := range r.Names {
		if name != "" {
			return name
		}
	}
	return ""
}

// Index holds the municipality register with lookup tables for the
// resolver. It is immutable after construction and safe for
// concurrent reads.
type Index struct {
	records  []MunicipalityRecord
	byPostal map[string][]*MunicipalityRecord
	byCode   map[string]*MunicipalityRecord

	// nameEntries holds every normalized (name, record) pair across
	// all languages, sorted by name for deterministic fuzzy scans.
	nameEntries []nameEntry
}

type nameEntry struct {
	name   string
	record *MunicipalityRecord
}

// NewIndex builds an Index from a register snapshot. An empty dataset
// path loads the bundled snapshot.
func NewIndex(datasetPath string) (*Index, error) {
	raw := embeddedDataset
	if datasetPath != "" {
		data, err := os.ReadFile(datasetPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read municipality dataset %s: %w", datasetPath, err)
		}
		raw = data
	}

	var records []MunicipalityRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("failed to parse municipality dataset: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("municipality dataset is empty")
	}

	idx := &Index{
		records:  records,
		byPostal: make(map[string][]*MunicipalityRecord),
		byCode:   make(map[string]*MunicipalityRecord),
	}

	for i := range idx.records {
		rec := &idx.records[i]
		idx.byCode[rec.Code] = rec
		for _, postal := range rec.PostalCodes {
			// Postal codes are one-to-many; enclaves and merged
			// municipalities can share one.
			idx.byPostal[postal] = append(idx.byPostal[postal], rec)
		}
		seen := make(map[string]bool, len(rec.Names))
		for _, name := range rec.Names {
			normalized := Normalize(name)
			if normalized == "" || seen[normalized] {
				continue
			}
			seen[normalized] = true
			idx.nameEntries = append(idx.nameEntries, nameEntry{name: normalized, record: rec})
		}
	}

	sort.Slice(idx.nameEntries, func(i, j int) bool {
		if idx.nameEntries[i].name != idx.nameEntries[j].name {
			return idx.nameEntries[i].name < idx.nameEntries[j].name
		}
		return idx.nameEntries[i].record.Code < idx.nameEntries[j].record.Code
	})
	for _, recs := range idx.byPostal {
		sort.Slice(recs, func(i, j int) bool { return recs[i].Code < recs[j].Code })
	}

	return idx, nil
}

// Size returns the number of municipalities in the index.
func (idx *Index) Size() int {
	return len(idx.records)
}

// ByPostalCode looks up the municipalities sharing a four-digit postal
// code, ordered by communal code.
func (idx *Index) ByPostalCode(postal string) ([]*MunicipalityRecord, bool) {
	recs, ok := idx.byPostal[postal]
	return recs, ok && len(recs) > 0
}

// ByCode looks up a municipality by its BFS code.
func (idx *Index) ByCode(code string) (*MunicipalityRecord, bool) {
	rec, ok := idx.byCode[code]
	return rec, ok
}
