package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/sagarc03/depot/config"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Version: version,
	Use:     "depot",
	Short:   "Artifact store with per-project bearer tokens",
	Long: `Depot stores build and release artifacts on the local filesystem.

Each project holds immutable versions of exactly one file. Reads and
uploads are authorized against the project's readers.txt and writers.txt
allow-lists.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configFiles, _ := cmd.Flags().GetStringSlice("config")

		cfg, err := config.Load(configFiles, cmd.Flags())
		if err != nil {
			return err
		}

		setupLogging(cfg)
		cmd.SetContext(config.WithContext(cmd.Context(), cfg))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringSlice("config", nil, "config file paths, merged left to right (default: ./config.yaml)")
	rootCmd.PersistentFlags().String("storage-path", "", "store root directory (default: ./data, env: DEPOT_STORAGE_PATH)")
	rootCmd.PersistentFlags().String("state-dir", "", "alias for --storage-path")
	rootCmd.PersistentFlags().String("db-type", "", "catalog type: sqlite, postgres, none (default: sqlite, env: DEPOT_DATABASE_TYPE)")
	rootCmd.PersistentFlags().String("db-dsn", "", "catalog connection string (default: depot.db, env: DEPOT_DATABASE_DSN)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error (env: DEPOT_LOG_LEVEL)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
