package backend

import (
	"context"
	"fmt"
	"log/slog"

	"claritychain/internal/ledger"
	"claritychain/internal/ledger/memory"
	"claritychain/internal/log"
	"claritychain/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger.With(log.FieldComponent, log.ComponentBackend),
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	seed, err := ledger.LoadSeed(config.SeedFile)
	if err != nil {
		return nil, fmt.Errorf("load seed: %w", err)
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteBackend(ctx, config, seed)
	case MemoryBackend:
		return f.createMemoryBackend(config, seed)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLiteBackend(ctx context.Context, config Config, seed ledger.Seed) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	seeded, err := repo.SeedIfEmpty(ctx, seed)
	if err != nil {
		_ = repo.Close()
		return nil, fmt.Errorf("seed SQLite repository: %w", err)
	}

	f.logger.Info("Initialized SQLite backend",
		"db_path", config.SQLiteDBPath,
		"seeded", seeded)

	return &BackendResult{
		Store:   repo,
		Ready:   repo.Ping,
		Cleanup: repo.Close,
	}, nil
}

func (f *DefaultFactory) createMemoryBackend(config Config, seed ledger.Seed) (*BackendResult, error) {
	store := memory.New(seed)

	f.logger.Info("Initialized memory backend",
		"seed_file", config.SeedFile,
		"projects", len(seed.Projects),
		"donations", len(seed.Donations))

	return &BackendResult{
		Store:   store,
		Ready:   func(context.Context) error { return nil },
		Cleanup: nil,
	}, nil
}
