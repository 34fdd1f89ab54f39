package bfs

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"swissjobs-utils/internal/logging"
	"swissjobs-utils/pkg/utils"
)

func newTestResolver(t *testing.T) *Resolver {
	t.Helper()
	index, err := NewIndex("")
	if err != nil {
		t.Fatalf("failed to build index: %v", err)
	}
	logger := logging.NewMultiLogger()
	logger.SetLevel(logging.ErrorLevel)
	return NewResolver(index, 0, logger)
}

func resolveOne(t *testing.T, r *Resolver, query string) Match {
	t.Helper()
	matches, err := r.Resolve(query)
	if err != nil {
		t.Fatalf("Resolve(%q) returned error: %v", query, err)
	}
	if len(matches) != 1 {
		t.Fatalf("Resolve(%q) returned %d matches, want 1", query, len(matches))
	}
	return matches[0]
}

func TestResolvePostalCode(t *testing.T) {
	r := newTestResolver(t)

	tests := []struct {
		name       string
		query      string
		wantCode   string
		wantCanton string
	}{
		{"zurich city center", "8000", "261", "ZH"},
		{"zurich oerlikon", "8050", "261", "ZH"},
		{"geneva", "1201", "6621", "GE"},
		{"basel", "4051", "2701", "BS"},
		{"lugano", "6900", "5192", "TI"},
		{"postal with whitespace", "  3011 ", "351", "BE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			match := resolveOne(t, r, tt.query)
			if match.Code != tt.wantCode {
				t.Errorf("code = %s, want %s", match.Code, tt.wantCode)
			}
			if match.Canton != tt.wantCanton {
				t.Errorf("canton = %s, want %s", match.Canton, tt.wantCanton)
			}
			if match.Method != MethodPostal {
				t.Errorf("method = %s, want %s", match.Method, MethodPostal)
			}
		})
	}
}

func TestResolveSharedPostalCode(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "municipalities.json")
	dataset := `[
		{"code":"1002","canton":"XA","names":{"en":"Northville"},"postal_codes":["5555"]},
		{"code":"1001","canton":"XB","names":{"en":"Southville"},"postal_codes":["5555","5556"]}
	]`
	if err := os.WriteFile(path, []byte(dataset), 0o644); err != nil {
		t.Fatalf("failed to write dataset: %v", err)
	}
	index, err := NewIndex(path)
	if err != nil {
		t.Fatalf("NewIndex failed: %v", err)
	}
	logger := logging.NewMultiLogger()
	logger.SetLevel(logging.ErrorLevel)
	r := NewResolver(index, 0, logger)

	matches, err := r.Resolve("5555")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("matches = %d, want both municipalities sharing the postal code", len(matches))
	}
	if matches[0].Code != "1001" || matches[1].Code != "1002" {
		t.Errorf("codes = %s, %s, want 1001, 1002 in code order", matches[0].Code, matches[1].Code)
	}
	for _, m := range matches {
		if m.Method != MethodPostal {
			t.Errorf("method = %s, want %s", m.Method, MethodPostal)
		}
	}

	single, err := r.Resolve("5556")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(single) != 1 || single[0].Code != "1001" {
		t.Errorf("unshared postal resolved to %+v", single)
	}
}

func TestResolveUnknownPostalCode(t *testing.T) {
	r := newTestResolver(t)

	_, err := r.Resolve("9999")
	var unresolved *utils.UnresolvedLocationError
	if !errors.As(err, &unresolved) {
		t.Fatalf("expected UnresolvedLocationError for unmapped postal code, got %v", err)
	}
}

func TestResolveFuzzyName(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		wantCode string
	}{
		{"exact english", "Zurich", "261"},
		{"german with umlaut", "Zürich", "261"},
		{"uppercase", "GENEVA", "6621"},
		{"french name", "Genève", "6621"},
		{"italian name", "Losanna", "5586"},
		{"minor typo", "Lausane", "5586"},
		{"accent free french", "Neuchatel", "6458"},
		{"st gallen", "St. Gallen", "3203"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestResolver(t)
			match := resolveOne(t, r, tt.query)
			if match.Code != tt.wantCode {
				t.Errorf("code = %s, want %s", match.Code, tt.wantCode)
			}
			if match.Method != MethodFuzzy {
				t.Errorf("method = %s, want %s", match.Method, MethodFuzzy)
			}
			if match.Score < DefaultFuzzyThreshold {
				t.Errorf("score = %f, want >= %f", match.Score, DefaultFuzzyThreshold)
			}
		})
	}
}

func TestResolveCacheHit(t *testing.T) {
	r := newTestResolver(t)

	first := resolveOne(t, r, "Winterthur")
	if first.Method != MethodFuzzy {
		t.Fatalf("first method = %s, want %s", first.Method, MethodFuzzy)
	}

	second := resolveOne(t, r, "winterthur")
	if second.Method != MethodCache {
		t.Errorf("second method = %s, want %s", second.Method, MethodCache)
	}
	if second.Code != first.Code {
		t.Errorf("cached code = %s, want %s", second.Code, first.Code)
	}
	if r.CacheSize() != 1 {
		t.Errorf("cache size = %d, want 1", r.CacheSize())
	}
}

func TestResolveNoMatch(t *testing.T) {
	r := newTestResolver(t)

	_, err := r.Resolve("Atlantis")
	var unresolved *utils.UnresolvedLocationError
	if !errors.As(err, &unresolved) {
		t.Fatalf("expected UnresolvedLocationError for nonsense query, got %v", err)
	}
}

func TestResolveEmptyQuery(t *testing.T) {
	r := newTestResolver(t)

	for _, query := range []string{"", "   "} {
		_, err := r.Resolve(query)
		var verr *utils.ValidationError
		if !errors.As(err, &verr) {
			t.Errorf("Resolve(%q): expected ValidationError, got %v", query, err)
		}
	}
}

func TestCodeToCanton(t *testing.T) {
	r := newTestResolver(t)

	canton, err := r.CodeToCanton("261")
	if err != nil {
		t.Fatalf("CodeToCanton(261) returned error: %v", err)
	}
	if canton != "ZH" {
		t.Errorf("canton = %s, want ZH", canton)
	}

	_, err = r.CodeToCanton("99999")
	var unknown *utils.UnknownCodeError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownCodeError for unknown communal code, got %v", err)
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Zürich", "zurich"},
		{"Genève", "geneve"},
		{"  Bâle  ", "bale"},
		{"NEUCHÂTEL", "neuchatel"},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"", "abc", 3},
		{"zurich", "zurich", 0},
		{"zurich", "zuerich", 1},
		{"bern", "berne", 1},
		{"lausanne", "losanna", 3},
	}
	for _, tt := range tests {
		if got := levenshtein(tt.a, tt.b); got != tt.want {
			t.Errorf("levenshtein(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}
