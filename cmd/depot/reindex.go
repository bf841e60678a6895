package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sagarc03/depot/config"
)

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Rebuild the catalog from the store root",
	Long: `Scan every project and version on disk and record the digest, size and
content type of each version's file in the catalog. This is useful when:
  - Setting up a catalog for an existing store root
  - Recovering the catalog after database loss
  - Versions were placed on disk by other tools

Corrupted versions are reported and skipped. Allow-lists are not consulted.`,
	Args: cobra.NoArgs,
	RunE: runReindex,
}

func init() {
	rootCmd.AddCommand(reindexCmd)
}

func runReindex(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	if cfg.Database.Type == "none" {
		return errors.New("reindex: no catalog configured (database.type is none)")
	}

	ctx := cmd.Context()

	dir, err := storeDir(cfg, false)
	if err != nil {
		return err
	}

	service, cleanup, err := openService(ctx, cfg, dir, true)
	if err != nil {
		return err
	}
	defer cleanup()

	slog.Info("scanning store root", "path", dir)

	indexed, err := service.Reindex(ctx)
	if err != nil {
		return fmt.Errorf("reindex after %d versions: %w", indexed, err)
	}

	slog.Info("reindex complete", "versions_indexed", indexed)
	return nil
}
