package main

import (
	"os"

	"github.com/spf13/cobra"
)

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "List projects on the server",
	Long: `List every project on the server. No token is needed.

Examples:
  depot-cli projects
  depot-cli projects --json`,
	Args: cobra.NoArgs,
	RunE: runProjects,
}

var versionsCmd = &cobra.Command{
	Use:   "versions <project>",
	Short: "List versions of a project",
	Long: `List the versions of a project. Needs a reader token.

Examples:
  depot-cli versions acme
  depot-cli versions acme --token "$ACME_READ_TOKEN"`,
	Args: cobra.ExactArgs(1),
	RunE: runVersions,
}

var infoCmd = &cobra.Command{
	Use:   "info <project> <version>",
	Short: "Show the artifact of a version",
	Long: `Show file name, size, content type and SHA-256 of a version's artifact.
Needs a reader token.

Examples:
  depot-cli info acme 1.4.0
  depot-cli info acme 1.4.0 --json`,
	Args: cobra.ExactArgs(2),
	RunE: runInfo,
}

func runProjects(cmd *cobra.Command, _ []string) error {
	client, err := getClient("")
	if err != nil {
		return err
	}

	projects, err := client.Projects(cmd.Context())
	if err != nil {
		return handleError(os.Stderr, err)
	}

	return getFormatter().FormatProjects(os.Stdout, projects)
}

func runVersions(cmd *cobra.Command, args []string) error {
	client, err := getClient(args[0])
	if err != nil {
		return err
	}

	versions, err := client.Versions(cmd.Context(), args[0])
	if err != nil {
		return handleError(os.Stderr, err)
	}

	return getFormatter().FormatVersions(os.Stdout, args[0], versions)
}

func runInfo(cmd *cobra.Command, args []string) error {
	client, err := getClient(args[0])
	if err != nil {
		return err
	}

	artifact, err := client.Info(cmd.Context(), args[0], args[1])
	if err != nil {
		return handleError(os.Stderr, err)
	}

	return getFormatter().FormatInfo(os.Stdout, artifact)
}
