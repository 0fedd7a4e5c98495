package backend

import (
	"context"

	"crediflow/internal/storage"
)

// Backend is the persistence port every service works against.
type Backend = storage.Store

// CleanupFunc releases what CreateBackend opened.
type CleanupFunc func() error

// BackendResult is an open store plus its cleanup.
type BackendResult struct {
	Backend Backend
	Cleanup CleanupFunc
	// Seeded is true when the factory wrote seed data into an empty store.
	Seeded bool
}

// Factory opens stores.
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config selects and configures a store.
type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// Postgres specific
	PostgresURL string

	// Seeding of an empty store. SeedFile wins over SeedDemo.
	SeedFile string
	SeedDemo bool
}

// BackendType is a DATA_BACKEND value.
type BackendType string

const (
	MemoryBackend   BackendType = "memory"
	SQLiteBackend   BackendType = "sqlite"
	PostgresBackend BackendType = "postgres"
)

func (bt BackendType) String() string {
	return string(bt)
}
