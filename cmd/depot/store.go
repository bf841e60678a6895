package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sagarc03/depot"
	"github.com/sagarc03/depot/config"
	"github.com/sagarc03/depot/database"
	"github.com/sagarc03/depot/filesystem"
)

// openCatalog connects the configured catalog. Type "none" yields a nil
// catalog. With migrate set the tables are created before the schema check.
func openCatalog(ctx context.Context, cfg database.Config, migrate bool) (depot.Catalog, func(), error) {
	if cfg.Type == "none" {
		return nil, func() {}, nil
	}

	db, err := database.Connect(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}
	closeDB := func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Warn("failed to close database", "err", closeErr)
		}
	}

	if err = db.Ping(ctx); err != nil {
		closeDB()
		return nil, nil, fmt.Errorf("ping database: %w", err)
	}

	if migrate {
		if err = db.Migrate(ctx); err != nil {
			closeDB()
			return nil, nil, fmt.Errorf("migrate database: %w", err)
		}
		slog.Debug("database migration complete")
	}

	if err = db.Validate(ctx); err != nil {
		closeDB()
		return nil, nil, fmt.Errorf("validate database schema: %w", err)
	}

	slog.Info("connected to database", "type", cfg.Type)
	return db.GetCatalog(), closeDB, nil
}

// storeDir resolves the configured store root to an absolute path. With
// create set a missing directory is created.
func storeDir(cfg *config.Config, create bool) (string, error) {
	dir, err := filepath.Abs(cfg.Storage.Path)
	if err != nil {
		return "", fmt.Errorf("resolve storage path: %w", err)
	}

	if create {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return "", fmt.Errorf("create storage directory: %w", err)
		}
		return dir, nil
	}

	info, err := os.Stat(dir)
	if err != nil {
		return "", fmt.Errorf("storage directory: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("storage directory: %s is not a directory", dir)
	}
	return dir, nil
}

// openService builds the artifact service on the store root. The returned
// cleanup closes the root and the catalog.
func openService(ctx context.Context, cfg *config.Config, dir string, migrate bool) (*depot.Service, func(), error) {
	root, err := os.OpenRoot(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("open storage root: %w", err)
	}

	catalog, closeCatalog, err := openCatalog(ctx, cfg.Database, migrate)
	if err != nil {
		_ = root.Close()
		return nil, nil, err
	}

	cleanup := func() {
		closeCatalog()
		_ = root.Close()
	}

	service, err := depot.NewService(depot.New(dir), filesystem.NewStorage(root), catalog)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("create service: %w", err)
	}

	return service, cleanup, nil
}
