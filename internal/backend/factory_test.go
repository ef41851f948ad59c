package backend

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"claritychain/internal/config"
)

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
	if _, err := FromAppConfig(&config.Config{DataBackend: "sheets"}); err == nil {
		t.Fatal("expected error for unknown backend")
	}
	got, err := FromAppConfig(&config.Config{DataBackend: "sqlite", SQLiteDBPath: "x.db", SeedFile: "seed.json"})
	if err != nil {
		t.Fatalf("FromAppConfig: %v", err)
	}
	if got.Type != SQLiteBackend || got.SQLiteDBPath != "x.db" || got.SeedFile != "seed.json" {
		t.Fatalf("unexpected config: %+v", got)
	}
}

func TestCreateBackend(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"memory", Config{Type: MemoryBackend}, false},
		{"sqlite", Config{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(dir, "ledger.db")}, false},
		{"sqlite without path", Config{Type: SQLiteBackend}, true},
		{"invalid type", Config{Type: "postgres"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := NewFactory(nil).CreateBackend(ctx, tt.config)
			if (err != nil) != tt.wantErr {
				t.Fatalf("CreateBackend() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if res.Cleanup != nil {
				t.Cleanup(func() { _ = res.Cleanup() })
			}
			if err := res.Ready(ctx); err != nil {
				t.Fatalf("Ready: %v", err)
			}
			projects, err := res.Store.ListProjects(ctx)
			if err != nil {
				t.Fatalf("ListProjects: %v", err)
			}
			if len(projects) != 5 {
				t.Fatalf("seeded %d projects, want 5", len(projects))
			}
		})
	}
}

func TestCreateBackendBadSeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: MemoryBackend, SeedFile: path}); err == nil {
		t.Fatal("expected error for malformed seed")
	}
}
