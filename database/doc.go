// Package database connects depot to a catalog backend.
//
// The catalog records digest, size and content type per published version.
// It is an index over the artifact directory, never the source of truth:
// authorization and file resolution always read the filesystem, and the
// catalog can be rebuilt at any time with `depot reindex`.
//
// # Supported Backends
//
//   - PostgreSQL: pgx connection pool, for shared deployments
//   - SQLite: modernc.org/sqlite (no cgo), for single-node deployments
//
// # Usage
//
//	db, err := database.Connect(ctx, database.Config{
//	    Type:   "sqlite",
//	    DSN:    "depot.db",
//	    Tables: depot.Tables{Artifacts: "depot_artifacts"},
//	})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
//
//	service, err := depot.NewService(store, storage, db.GetCatalog())
//
// # Subpackages
//
//   - database/postgres: PostgreSQL implementation using pgx
//   - database/sqlite: SQLite implementation using modernc.org/sqlite
package database
