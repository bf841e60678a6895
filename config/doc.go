// Package config provides configuration loading and validation for the depot
// server.
//
// The package handles YAML configuration files, environment variables, and CLI flags
// with automatic merging and validation using go-playground/validator.
//
// # Configuration Precedence
//
// Values are loaded in this order (later sources override earlier ones):
//
//  1. Default values
//  2. Configuration file(s) - multiple files merged left-to-right
//  3. Environment variables (DEPOT_ prefix)
//  4. CLI flags that were explicitly set
//
// # Usage
//
//	cfg, err := config.Load([]string{"config.yaml"}, cmd.Flags())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Store in context for subcommands
//	ctx = config.WithContext(ctx, cfg)
//
//	// Retrieve later
//	cfg, err = config.FromContext(ctx)
//
// # Environment Variables
//
// All config keys map to environment variables with DEPOT_ prefix:
//   - server.port → DEPOT_SERVER_PORT
//   - storage.path → DEPOT_STORAGE_PATH
//   - database.type → DEPOT_DATABASE_TYPE
//
// # Configuration Structure
//
// The Config struct contains:
//   - Env: dev (colored text logs) or prod (JSON logs)
//   - Server: port, max_upload_size, read_timeout and write_timeout
//   - Storage: store root path and staging_max_age for abandoned uploads
//   - Database: catalog type (sqlite, postgres or none), DSN, and table names
//   - CORS: cross-origin resource sharing settings
//   - Log: logging level
//
// # Validation
//
// Configuration is validated using struct tags:
//   - Port must be 1-65535
//   - Database type must be sqlite, postgres, or none
//   - Table names must be lowercase identifiers (checked unless type is none)
//   - Log level must be debug, info, warn, or error
package config
