package bfs

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewIndexEmbedded(t *testing.T) {
	index, err := NewIndex("")
	if err != nil {
		t.Fatalf("NewIndex failed: %v", err)
	}
	if index.Size() == 0 {
		t.Fatal("embedded dataset produced an empty index")
	}

	rec, ok := index.ByCode("261")
	if !ok {
		t.Fatal("communal code 261 missing from index")
	}
	if rec.Canton != "ZH" {
		t.Errorf("canton = %s, want ZH", rec.Canton)
	}
	if rec.PrimaryName() != "Zurich" {
		t.Errorf("primary name = %s, want Zurich", rec.PrimaryName())
	}
}

func TestNewIndexExternalDataset(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "municipalities.json")
	dataset := `[{"code":"9001","canton":"XX","names":{"en":"Testville"},"postal_codes":["1111"]}]`
	if err := os.WriteFile(path, []byte(dataset), 0o644); err != nil {
		t.Fatalf("failed to write dataset: %v", err)
	}

	index, err := NewIndex(path)
	if err != nil {
		t.Fatalf("NewIndex(%s) failed: %v", path, err)
	}
	if index.Size() != 1 {
		t.Fatalf("size = %d, want 1", index.Size())
	}
	recs, ok := index.ByPostalCode("1111")
	if !ok {
		t.Fatal("postal code 1111 missing from external dataset index")
	}
	if len(recs) != 1 || recs[0].Code != "9001" {
		t.Errorf("records = %+v, want single code 9001", recs)
	}
}

func TestNewIndexErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		if _, err := NewIndex(filepath.Join(t.TempDir(), "absent.json")); err == nil {
			t.Error("expected error for missing dataset file")
		}
	})

	t.Run("malformed json", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.json")
		if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
			t.Fatalf("failed to write dataset: %v", err)
		}
		if _, err := NewIndex(path); err == nil {
			t.Error("expected error for malformed dataset")
		}
	})

	t.Run("empty dataset", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "empty.json")
		if err := os.WriteFile(path, []byte("[]"), 0o644); err != nil {
			t.Fatalf("failed to write dataset: %v", err)
		}
		if _, err := NewIndex(path); err == nil {
			t.Error("expected error for empty dataset")
		}
	})
}
