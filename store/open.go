package store

import (
	"context"
	"fmt"

	"askpepper/types"
)

// Open returns the document store selected by cfg.StoreBackend together with
// a function releasing its resources.
func Open(ctx context.Context, cfg types.Config) (DBStorer, func(), error) {
	switch cfg.StoreBackend {
	case "", "memory":
		return NewMemoryStore(cfg.StorePath), func() {}, nil
	case "postgres":
		pg, err := NewPostgresStore(ctx, cfg.Postgres.ConnString(), cfg.EmbeddingDim)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to Postgres: %w", err)
		}
		if err := pg.Init(ctx); err != nil {
			pg.Close()
			return nil, nil, fmt.Errorf("create tables: %w", err)
		}
		return pg, func() { pg.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}
