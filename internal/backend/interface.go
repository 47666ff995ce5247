package backend

import (
	"context"

	"bizops/internal/store"
)

// Pinger is implemented by backends that can check their connection.
type Pinger interface {
	Ping(ctx context.Context) error
}

// CleanupFunc closes the store: the SQLite handle, the pgx pool, or nothing for memory.
type CleanupFunc func() error

// BackendResult is an opened store ready for the ledger services.
type BackendResult struct {
	Repository store.Repository
	Cleanup    CleanupFunc
}

// Ping checks the backend connection. Backends without a connection are
// always ready.
func (r *BackendResult) Ping(ctx context.Context) error {
	if p, ok := r.Repository.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Factory opens the store named by DATA_BACKEND.
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config carries only the settings of the chosen store; the rest are ignored.
type Config struct {
	Type BackendType

	// Memory specific
	SeedFile string

	// SQLite specific
	SQLiteDBPath string

	// Postgres specific
	DatabaseURL string
}

type BackendType string

const (
	MemoryBackend   BackendType = "memory"
	SQLiteBackend   BackendType = "sqlite"
	PostgresBackend BackendType = "postgres"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, SQLiteBackend, PostgresBackend:
		return true
	default:
		return false
	}
}
