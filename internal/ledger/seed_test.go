package ledger

import (
	"os"
	"path/filepath"
	"testing"

	"claritychain/internal/core"
)

func TestLoadSeed(t *testing.T) {
	dir := t.TempDir()

	seed, err := LoadSeed(filepath.Join(dir, "missing.json"))
	if err != nil {
		t.Fatalf("missing file should fall back to defaults: %v", err)
	}
	if len(seed.Projects) != len(DefaultSeed().Projects) {
		t.Fatalf("expected default projects, got %d", len(seed.Projects))
	}

	path := filepath.Join(dir, "seed.json")
	content := `{"Projects":[{"ID":"p9","Name":"Well","Category":"Health","Target":{"Cents":100},"Raised":{"Cents":40}}]}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	seed, err = LoadSeed(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(seed.Projects) != 1 {
		t.Fatalf("projects = %d, want 1", len(seed.Projects))
	}
	p := seed.Projects[0]
	if p.ID != "p9" || p.Raised.Cents != 40 || p.Category != core.CategoryHealth {
		t.Fatalf("unexpected project: %+v", p)
	}

	if err := os.WriteFile(path, []byte("{"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadSeed(path); err == nil {
		t.Fatal("expected decode error")
	}
}
