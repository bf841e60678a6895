package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/sagarc03/depot"
	"github.com/sagarc03/depot/config"
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Provision projects and manage their tokens",
}

var projectAddCmd = &cobra.Command{
	Use:   "add [flags] <name>",
	Short: "Create a project",
	Long: `Create the directory layout of a new project under the store root:

  <root>/<name>/readers.txt
  <root>/<name>/writers.txt
  <root>/<name>/versions/

Tokens given with --reader and --writer are written to the allow-lists.
When a list gets no token, one is generated and printed.

Examples:
  # Create a project with generated tokens
  depot project add acme

  # Create a project with known tokens
  depot project add acme --reader ci-read --writer ci-publish`,
	Args: cobra.ExactArgs(1),
	RunE: runProjectAdd,
}

var projectTokenCmd = &cobra.Command{
	Use:   "token [flags] <name>",
	Short: "Add tokens to a project's allow-list",
	Long: `Append tokens to readers.txt or writers.txt of an existing project.
Without --token a token is generated and printed.

Removing a token is done by editing the allow-list file; changes apply to
the next request.

Examples:
  depot project token acme --role reader
  depot project token acme --role writer --token deploy-bot`,
	Args: cobra.ExactArgs(1),
	RunE: runProjectToken,
}

var (
	addReaders  []string
	addWriters  []string
	tokenRole   string
	tokenValues []string
)

func init() {
	projectAddCmd.Flags().StringArrayVar(&addReaders, "reader", nil, "reader token (repeatable)")
	projectAddCmd.Flags().StringArrayVar(&addWriters, "writer", nil, "writer token (repeatable)")

	projectTokenCmd.Flags().StringVar(&tokenRole, "role", "reader", "allow-list to extend: reader or writer")
	projectTokenCmd.Flags().StringArrayVar(&tokenValues, "token", nil, "token to add (repeatable)")

	projectCmd.AddCommand(projectAddCmd, projectTokenCmd)
	rootCmd.AddCommand(projectCmd)
}

func runProjectAdd(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	dir, err := storeDir(cfg, true)
	if err != nil {
		return err
	}

	readers, generatedReaders := tokensOrGenerate(addReaders)
	writers, generatedWriters := tokensOrGenerate(addWriters)

	if err := provisionProject(dir, args[0], readers, writers); err != nil {
		return err
	}

	slog.Info("project created", "project", args[0], "root", dir)

	out := cmd.OutOrStdout()
	if generatedReaders {
		_, _ = fmt.Fprintf(out, "reader token: %s\n", readers[0])
	}
	if generatedWriters {
		_, _ = fmt.Fprintf(out, "writer token: %s\n", writers[0])
	}
	return nil
}

func runProjectToken(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	listFile, err := allowListFile(tokenRole)
	if err != nil {
		return err
	}

	dir, err := storeDir(cfg, false)
	if err != nil {
		return err
	}

	tokens, generated := tokensOrGenerate(tokenValues)
	if err := appendTokens(dir, args[0], listFile, tokens); err != nil {
		return err
	}

	slog.Info("tokens added", "project", args[0], "role", tokenRole, "count", len(tokens))

	if generated {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s token: %s\n", tokenRole, tokens[0])
	}
	return nil
}

// tokensOrGenerate returns tokens, or a single generated token when tokens
// is empty.
func tokensOrGenerate(tokens []string) ([]string, bool) {
	if len(tokens) > 0 {
		return tokens, false
	}
	return []string{uuid.NewString()}, true
}

func allowListFile(role string) (string, error) {
	switch role {
	case "reader":
		return "readers.txt", nil
	case "writer":
		return "writers.txt", nil
	default:
		return "", fmt.Errorf("unknown role %q: must be reader or writer", role)
	}
}

// validateToken accepts tokens that can be sent as "Bearer <token>" and
// stored as one allow-list line.
func validateToken(token string) error {
	if token == "" {
		return errors.New("token must not be empty")
	}
	if strings.ContainsAny(token, "\r\n") {
		return errors.New("token must be a single line")
	}
	if _, err := depot.ParseBearer([]string{"Bearer " + token}); err != nil {
		return fmt.Errorf("token %q: %w", token, err)
	}
	return nil
}

// provisionProject creates the layout of a new project. An existing project
// directory is an error.
func provisionProject(root, name string, readers, writers []string) error {
	project, err := depot.ParseProjectName(name)
	if err != nil {
		return fmt.Errorf("add project: %w", err)
	}
	for _, t := range append(append([]string{}, readers...), writers...) {
		if err := validateToken(t); err != nil {
			return fmt.Errorf("add project: %w", err)
		}
	}

	projectDir := filepath.Join(root, string(project))
	if err := os.Mkdir(projectDir, 0o750); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("add project: %s already exists", name)
		}
		return fmt.Errorf("add project: %w", err)
	}

	if err := os.Mkdir(filepath.Join(projectDir, "versions"), 0o750); err != nil {
		return fmt.Errorf("add project: %w", err)
	}
	if err := writeTokens(filepath.Join(projectDir, "readers.txt"), readers, os.O_CREATE|os.O_EXCL); err != nil {
		return fmt.Errorf("add project: %w", err)
	}
	if err := writeTokens(filepath.Join(projectDir, "writers.txt"), writers, os.O_CREATE|os.O_EXCL); err != nil {
		return fmt.Errorf("add project: %w", err)
	}
	return nil
}

// appendTokens adds tokens to an allow-list of an existing project.
func appendTokens(root, name, listFile string, tokens []string) error {
	project, err := depot.ParseProjectName(name)
	if err != nil {
		return fmt.Errorf("add tokens: %w", err)
	}
	for _, t := range tokens {
		if err := validateToken(t); err != nil {
			return fmt.Errorf("add tokens: %w", err)
		}
	}

	path := filepath.Join(root, string(project), listFile)
	if err := ensureTrailingNewline(path); err != nil {
		return fmt.Errorf("add tokens: %w", err)
	}
	if err := writeTokens(path, tokens, os.O_APPEND); err != nil {
		return fmt.Errorf("add tokens: %w", err)
	}
	return nil
}

// ensureTrailingNewline terminates the last line of a hand-edited allow-list
// so that an appended token starts on its own line.
func ensureTrailingNewline(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if len(data) == 0 || data[len(data)-1] == '\n' {
		return nil
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0)
	if err != nil {
		return err
	}
	if _, err := f.WriteString("\n"); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func writeTokens(path string, tokens []string, flag int) error {
	f, err := os.OpenFile(path, os.O_WRONLY|flag, 0o640)
	if err != nil {
		return err
	}

	var b strings.Builder
	for _, t := range tokens {
		b.WriteString(t)
		b.WriteByte('\n')
	}

	if _, err := f.WriteString(b.String()); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
