// Package storage selects and opens a notebook store backend from
// configuration.
package storage

import (
	"context"
	"fmt"

	domainconfig "github.com/helixforge/labrun/domain/config"
	"github.com/helixforge/labrun/domain/notebook"
	"github.com/helixforge/labrun/infrastructure/storage/badger"
	"github.com/helixforge/labrun/infrastructure/storage/filesystem"
	"github.com/helixforge/labrun/infrastructure/storage/memory"
	"github.com/helixforge/labrun/infrastructure/storage/postgres"
	"github.com/helixforge/labrun/infrastructure/storage/sqlite"
)

// Open creates the notebook store named by the configuration.
func Open(ctx context.Context, cfg domainconfig.StorageConfig) (notebook.Store, error) {
	switch cfg.Backend {
	case "memory":
		return memory.NewNotebookStore(), nil
	case "filesystem":
		return filesystem.NewNotebookStore(cfg.Path)
	case "sqlite":
		return sqlite.NewNotebookStore(sqlite.DefaultConfig(cfg.Path))
	case "badger":
		return badger.NewNotebookStore(badger.DefaultConfig(cfg.Path))
	case "postgres":
		return postgres.Connect(ctx, cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
