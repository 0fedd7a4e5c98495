package backend

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"crediflow/internal/core"
	"crediflow/internal/storage"
	"crediflow/internal/storage/memory"
	"crediflow/internal/storage/postgres"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
	now    func() time.Time
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) *DefaultFactory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
		now:    time.Now,
	}
}

// CreateBackend opens the store selected by config and seeds it when it is
// empty and seeding is enabled.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	seed, hasSeed, err := f.loadSeed(config)
	if err != nil {
		return nil, err
	}

	var store storage.Store
	switch config.Type {
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		f.logger.Info("Initialized SQLite backend",
			"db_path", config.SQLiteDBPath,
			"schema_version", repo.SchemaVersion())
		store = repo
	case PostgresBackend:
		pg, err := postgres.New(ctx, config.PostgresURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Postgres store: %w", err)
		}
		f.logger.Info("Initialized Postgres backend")
		store = pg
	case MemoryBackend:
		store = memory.New()
		f.logger.Info("Initialized memory backend")
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}

	result := &BackendResult{Backend: store, Cleanup: store.Close}
	if hasSeed {
		seeded, err := storage.ApplySeed(ctx, store, seed)
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("failed to seed %s backend: %w", config.Type, err)
		}
		result.Seeded = seeded
	}
	return result, nil
}

func (f *DefaultFactory) loadSeed(config Config) (storage.Seed, bool, error) {
	switch {
	case config.SeedFile != "":
		seed, err := storage.LoadSeedFile(config.SeedFile)
		if err != nil {
			return storage.Seed{}, false, fmt.Errorf("failed to load seed file: %w", err)
		}
		return seed, true, nil
	case config.SeedDemo:
		now := f.now()
		return storage.DefaultSeed(core.NewDate(now.Year(), int(now.Month()), now.Day())), true, nil
	default:
		return storage.Seed{}, false, nil
	}
}
