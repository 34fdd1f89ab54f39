package bfs

import (
	"regexp"
	"strings"
	"sync"

	"swissjobs-utils/internal/logging"
	"swissjobs-utils/pkg/utils"
)

// DefaultFuzzyThreshold is the minimum similarity score a fuzzy name
// match needs to be accepted.
const DefaultFuzzyThreshold = 0.72

var postalCodePattern = regexp.MustCompile(`^[1-9]\d{3}$`)

// Match is a resolved location.
type Match struct {
	Code   string  `json:"code"`
	Canton string  `json:"canton"`
	Name   string  `json:"name"`
	Method string  `json:"method"`
	Score  float64 `json:"score"`
}

// Resolution methods reported in Match.Method.
const (
	MethodCache  = "cache"
	MethodPostal = "postal_code"
	MethodFuzzy  = "fuzzy"
)

// Resolver maps free-text locations and postal codes to BFS communal
// codes. Successful resolutions are cached by normalized query.
type Resolver struct {
	index     *Index
	threshold float64
	logger    logging.Logger

	mu    sync.RWMutex
	cache map[string][]Match
}

// NewResolver creates a Resolver over the given index. A threshold of
// zero falls back to DefaultFuzzyThreshold.
func NewResolver(index *Index, threshold float64, logger logging.Logger) *Resolver {
	if threshold <= 0 {
		threshold = DefaultFuzzyThreshold
	}
	return &Resolver{
		index:     index,
		threshold: threshold,
		logger:    logger,
		cache:     make(map[string][]Match),
	}
}

// Resolve turns a location query into communal code matches. The
// pipeline is cache, then postal code, then fuzzy name matching. A
// postal code shared by several municipalities yields one match per
// municipality; a fuzzy hit yields exactly one. Misses surface as
// UnresolvedLocationError, never a best-guess code.
func (r *Resolver) Resolve(query string) ([]Match, error) {
	normalized := Normalize(query)
	if normalized == "" {
		return nil, utils.NewValidationError("location query is empty")
	}

	r.mu.RLock()
	cached, hit := r.cache[normalized]
	r.mu.RUnlock()
	if hit {
		out := make([]Match, len(cached))
		for i, m := range cached {
			m.Method = MethodCache
			out[i] = m
		}
		return out, nil
	}

	if postalCodePattern.MatchString(normalized) {
		recs, ok := r.index.ByPostalCode(normalized)
		if !ok {
			return nil, utils.NewUnresolvedLocationError(query)
		}
		matches := make([]Match, 0, len(recs))
		for _, rec := range recs {
			matches = append(matches, Match{
				Code:   rec.Code,
				Canton: rec.Canton,
				Name:   rec.PrimaryName(),
				Method: MethodPostal,
				Score:  1,
			})
		}
		r.store(normalized, matches)
		return matches, nil
	}

	match, ok := r.fuzzyMatch(normalized)
	if !ok {
		r.logger.Debug("No municipality match for location query", map[string]interface{}{
			"query":     query,
			"threshold": r.threshold,
		})
		return nil, utils.NewUnresolvedLocationError(query)
	}
	matches := []Match{match}
	r.store(normalized, matches)
	return matches, nil
}

// CodeToCanton returns the canton abbreviation for a BFS communal code.
func (r *Resolver) CodeToCanton(code string) (string, error) {
	rec, ok := r.index.ByCode(code)
	if !ok {
		return "", utils.NewUnknownCodeError(code)
	}
	return rec.Canton, nil
}

// CacheSize reports the number of cached resolutions.
func (r *Resolver) CacheSize() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.cache)
}

func (r *Resolver) store(key string, matches []Match) {
	r.mu.Lock()
	r.cache[key] = matches
	r.mu.Unlock()
}

// fuzzyMatch scans the name table and keeps the best candidate above
// the threshold. Ties prefer substring containment, then the smaller
// edit distance, then the lowest communal code.
func (r *Resolver) fuzzyMatch(query string) (Match, bool) {
	var (
		best      *MunicipalityRecord
		bestScore float64
		bestSub   bool
		bestDist  int
	)

	for _, entry := range r.index.nameEntries {
		score := similarity(query, entry.name)
		if score < r.threshold {
			continue
		}
		sub := strings.Contains(entry.name, query) || strings.Contains(query, entry.name)
		dist := levenshtein(query, entry.name)

		if best == nil || betterCandidate(score, sub, dist, entry.record.Code, bestScore, bestSub, bestDist, best.Code) {
			best = entry.record
			bestScore = score
			bestSub = sub
			bestDist = dist
		}
	}

	if best == nil {
		return Match{}, false
	}
	return Match{
		Code:   best.Code,
		Canton: best.Canton,
		Name:   best.PrimaryName(),
		Method: MethodFuzzy,
		Score:  bestScore,
	}, true
}

func betterCandidate(score float64, sub bool, dist int, code string, bestScore float64, bestSub bool, bestDist int, bestCode string) bool {
	if score != bestScore {
		return score > bestScore
	}
	if sub != bestSub {
		return sub
	}
	if dist != bestDist {
		return dist < bestDist
	}
	return code < bestCode
}
