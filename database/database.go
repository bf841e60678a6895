package database

import (
	"context"
	"fmt"

	"github.com/sagarc03/depot"
	"github.com/sagarc03/depot/database/postgres"
	"github.com/sagarc03/depot/database/sqlite"
)

// Database is a connected catalog backend.
type Database interface {
	// Ping verifies the connection is alive.
	Ping(ctx context.Context) error
	// Migrate creates the catalog tables if they do not exist.
	Migrate(ctx context.Context) error
	// Validate checks that the tables have the expected columns.
	Validate(ctx context.Context) error
	// GetCatalog returns the depot.Catalog backed by this database.
	GetCatalog() depot.Catalog
	// Close releases the connection.
	Close() error
}

// Config holds the configuration for connecting to a catalog backend.
type Config struct {
	// Type specifies the database type: "sqlite" or "postgres". Commands
	// also accept "none", which runs without a catalog.
	Type string `mapstructure:"type" validate:"required,oneof=sqlite postgres none"`
	// DSN is the data source name (connection string)
	DSN string `mapstructure:"dsn"`
	// Tables holds the catalog table names
	Tables depot.Tables `mapstructure:"tables"`
}

// Connect opens the configured backend. It validates table names but does not
// migrate; callers run Migrate or Validate as their deployment requires.
func Connect(ctx context.Context, cfg Config) (Database, error) {
	if err := cfg.Tables.Validate(); err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	var (
		db  Database
		err error
	)

	switch cfg.Type {
	case "sqlite":
		db, err = connectSQLite(ctx, cfg)
	case "postgres":
		db, err = connectPostgres(ctx, cfg)
	default:
		return nil, fmt.Errorf("connect: unsupported database type: %q", cfg.Type)
	}
	if err != nil {
		return nil, err
	}

	return db, nil
}

func connectSQLite(ctx context.Context, cfg Config) (Database, error) {
	db, err := sqlite.Connect(ctx, cfg.DSN, cfg.Tables)
	if err != nil {
		return nil, err
	}
	return db, nil
}

func connectPostgres(ctx context.Context, cfg Config) (Database, error) {
	db, err := postgres.Connect(ctx, cfg.DSN, cfg.Tables)
	if err != nil {
		return nil, err
	}
	return db, nil
}
