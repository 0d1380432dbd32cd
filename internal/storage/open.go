package storage

import (
	"context"
	"fmt"

	"conti/internal/ports"
	"conti/internal/storage/memory"
)

// Options selects and locates the storage backend.
type Options struct {
	Backend     string // sqlite, postgres or memory
	SQLitePath  string
	DatabaseURL string
}

var _ ports.Store = (*Repository)(nil)

// Open builds the configured store. SQL backends are migrated and pinged
// before Open returns, so a nil error means the store is ready for queries.
func Open(ctx context.Context, opts Options) (ports.Store, error) {
	switch opts.Backend {
	case "", "sqlite":
		repo, err := NewSQLiteRepository(ctx, opts.SQLitePath)
		if err != nil {
			return nil, err
		}
		return repo, nil
	case "postgres":
		repo, err := NewPostgresRepository(ctx, opts.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return repo, nil
	case "memory":
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", opts.Backend)
	}
}
