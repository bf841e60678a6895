package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sagarc03/depot/config"
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove unfinished uploads",
	Long: `Remove staging directories left behind by uploads that never committed,
for example when the server was killed mid-upload.

Only entries under <root>/<project>/.staging older than --older-than are
removed; published versions are never touched.`,
	Args: cobra.NoArgs,
	RunE: runCleanup,
}

func init() {
	cleanupCmd.Flags().Duration("older-than", 0, "minimum age of a staging directory (default: storage.staging_max_age)")
	rootCmd.AddCommand(cleanupCmd)
}

func runCleanup(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	olderThan, _ := cmd.Flags().GetDuration("older-than")
	if !cmd.Flags().Changed("older-than") {
		olderThan = cfg.Storage.StagingMaxAge
	}
	if olderThan < 0 {
		return errors.New("cleanup: --older-than must not be negative")
	}

	dir, err := storeDir(cfg, false)
	if err != nil {
		return err
	}

	// Cleanup never needs the catalog.
	noCatalog := *cfg
	noCatalog.Database.Type = "none"

	service, cleanup, err := openService(cmd.Context(), &noCatalog, dir, false)
	if err != nil {
		return err
	}
	defer cleanup()

	slog.Info("starting cleanup", "older_than", olderThan)

	removed, err := service.Cleanup(cmd.Context(), olderThan)
	if err != nil {
		return fmt.Errorf("cleanup: %w", err)
	}

	slog.Info("cleanup complete", "removed", removed)
	return nil
}
