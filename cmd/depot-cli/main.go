package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sagarc03/depot/clientcli"
	"github.com/spf13/cobra"
)

var (
	version = "dev"

	cfgFile    string
	profile    string
	endpoint   string
	token      string
	jsonOutput bool
	quiet      bool
)

var rootCmd = &cobra.Command{
	Use:           "depot-cli",
	Version:       version,
	Short:         "Client for the depot artifact server",
	SilenceUsage:  true,
	SilenceErrors: true,
	Long: `depot-cli - Client for the depot artifact server

Publishes build and release files as immutable project versions and fetches
them back. Every command except "projects" needs a bearer token that appears
in the project's readers.txt (read commands) or writers.txt (upload).

Settings are resolved in this order, later ones winning:
  1. profile from the config file (~/.depot/config.yaml, env: DEPOT_CLIENT_CONFIG),
     which may hold a separate token per project
  2. environment (DEPOT_ENDPOINT, DEPOT_TOKEN)
  3. flags (--endpoint, --token)

A token from the environment or a flag is used for every project.`,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: ~/.depot/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&profile, "profile", "p", "", "profile to use (env: DEPOT_PROFILE)")
	rootCmd.PersistentFlags().StringVarP(&endpoint, "endpoint", "e", "", "server URL (default: http://localhost:3000, env: DEPOT_ENDPOINT)")
	rootCmd.PersistentFlags().StringVarP(&token, "token", "t", "", "bearer token (env: DEPOT_TOKEN)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-essential output")

	rootCmd.AddCommand(projectsCmd)
	rootCmd.AddCommand(versionsCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(configureCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		var exitErr *exitError
		if !errors.As(err, &exitErr) {
			_ = getFormatter().FormatError(os.Stderr, err)
		}
		os.Exit(1)
	}
}

// getConfigPath returns the profile file named by the flag, the environment
// or the default location.
func getConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	if p := os.Getenv(clientcli.EnvConfig); p != "" {
		return p
	}
	return clientcli.DefaultConfigPath()
}

func buildConfig() (*clientcli.Config, error) {
	return clientcli.Resolve(clientcli.Sources{
		ConfigPath: cfgFile,
		Profile:    profile,
		Endpoint:   endpoint,
		Token:      token,
	})
}

// getFormatter returns the appropriate formatter based on flags.
func getFormatter() clientcli.Formatter {
	return clientcli.NewFormatter(jsonOutput, quiet)
}

// getClient creates a client for commands about project. Every such command
// needs a token; an empty project is only used for listing projects.
// Transfers of large artifacts outlive the default timeout, so callers pass
// WithTimeout(0) for them.
func getClient(project string, opts ...clientcli.Option) (*clientcli.Client, error) {
	cfg, err := buildConfig()
	if err != nil {
		return nil, err
	}

	if project != "" {
		if err := cfg.RequireToken(project); err != nil {
			return nil, err
		}
	}

	return clientcli.New(cfg, opts...)
}

// handleError prints err with the active formatter and returns an error that
// main does not print again.
func handleError(w io.Writer, err error) error {
	_ = getFormatter().FormatError(w, err)
	return &exitError{err: err}
}

// exitError is returned when the error was already reported and the process
// only needs a non-zero exit code.
type exitError struct {
	err error
}

func (e *exitError) Error() string {
	return fmt.Sprintf("reported: %v", e.err)
}

func (e *exitError) Unwrap() error {
	return e.err
}
