package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/sagarc03/depot"
	"github.com/sagarc03/depot/clientcli"
	"github.com/spf13/cobra"
)

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Manage server profiles and project tokens",
	Long: `Manage server profiles in the configuration file (~/.depot/config.yaml).

A profile names a depot server and the bearer tokens to use with it. Because
every project has its own readers.txt and writers.txt, a profile can hold one
token per project next to a fallback token used for the rest.

Examples:
  depot-cli configure add ci
  depot-cli configure token ci acme
  depot-cli configure use ci
  depot-cli configure list ci --show-secrets`,
}

var configureAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add or replace a profile",
	Long: `Prompt for an endpoint and a fallback token and save them as a profile.

The endpoint must answer GET /projects. When a project is given, the token
is tried against that project's version list before saving.`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigureAdd,
}

var configureTokenCmd = &cobra.Command{
	Use:   "token <profile> <project>",
	Short: "Set the token a profile uses for one project",
	Long: `Prompt for the token to send for <project> and save it in <profile>.

The token is tried against the project's version list. A token missing from
readers.txt is still saved after confirmation, since it may be a writer-only
token. Use --unset to fall back to the profile token again.`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigureToken,
}

var configureUseCmd = &cobra.Command{
	Use:   "use <name>",
	Short: "Make a profile the default",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigureUse,
}

var configureRemoveCmd = &cobra.Command{
	Use:     "remove <name>",
	Aliases: []string{"rm"},
	Short:   "Remove a profile",
	Args:    cobra.ExactArgs(1),
	RunE:    runConfigureRemove,
}

var configureListCmd = &cobra.Command{
	Use:   "list [name]",
	Short: "List profiles, or show one with its project tokens",
	Long: `Without a name, list every profile; the default one is marked with "*".
With a name, show that profile and its per-project tokens.

Tokens are masked unless --show-secrets is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConfigureList,
}

var (
	showSecrets bool
	unsetToken  bool
)

// accessCheckTimeout bounds each request made while configuring.
const accessCheckTimeout = 5 * time.Second

func init() {
	configureCmd.AddCommand(configureAddCmd)
	configureCmd.AddCommand(configureTokenCmd)
	configureCmd.AddCommand(configureUseCmd)
	configureCmd.AddCommand(configureRemoveCmd)
	configureCmd.AddCommand(configureListCmd)

	configureListCmd.Flags().BoolVar(&showSecrets, "show-secrets", false, "show tokens")
	configureTokenCmd.Flags().BoolVar(&unsetToken, "unset", false, "remove the project token")
}

// loadProfiles reads the profile file. A missing file is an empty one when
// allowMissing is set.
func loadProfiles(allowMissing bool) (*clientcli.ConfigFile, string, error) {
	path := getConfigPath()
	if path == "" {
		return nil, "", errors.New("no config path: set --config or DEPOT_CLIENT_CONFIG")
	}

	cf, err := clientcli.LoadConfigFile(path)
	if err != nil {
		if allowMissing && errors.Is(err, os.ErrNotExist) {
			return &clientcli.ConfigFile{}, path, nil
		}
		return nil, "", err
	}
	return cf, path, nil
}

func runConfigureAdd(cmd *cobra.Command, args []string) error {
	name := args[0]
	cf, path, err := loadProfiles(true)
	if err != nil {
		return err
	}

	if _, lookupErr := cf.Profile(name); lookupErr == nil {
		if !confirm(fmt.Sprintf("Profile '%s' already exists. Replace it", name)) {
			return nil
		}
	}

	endpointURL, err := (&promptui.Prompt{
		Label:    "Endpoint URL",
		Default:  clientcli.DefaultEndpoint,
		Validate: validateEndpoint,
	}).Run()
	if err != nil {
		return handlePromptError(err)
	}
	endpointURL = strings.TrimSuffix(endpointURL, "/")

	tok, err := promptToken("Fallback token (empty to only list projects)")
	if err != nil {
		return handlePromptError(err)
	}

	project, err := (&promptui.Prompt{
		Label:    "Project to check the token against (optional)",
		Validate: validateProjectName,
	}).Run()
	if err != nil {
		return handlePromptError(err)
	}

	p := clientcli.Profile{
		Name:     name,
		Endpoint: endpointURL,
		Token:    tok,
		Default:  len(cf.Profiles) == 0,
	}
	if !p.Default {
		p.Default = confirm("Make it the default profile")
	}

	fmt.Printf("Checking %s... ", endpointURL)
	if checkErr := checkAccess(cmd.Context(), p, project); checkErr != nil {
		fmt.Println("FAILED")
		fmt.Printf("Warning: %v\n", checkErr)
		if !confirm("Save profile anyway") {
			return nil
		}
	} else {
		fmt.Println("OK")
	}

	replaced := cf.Put(p)
	if err := cf.Save(path); err != nil {
		return err
	}

	verb := "added"
	if replaced {
		verb = "replaced"
	}
	fmt.Printf("Profile '%s' %s.\n", name, verb)
	if p.Default {
		fmt.Println("It is the default profile.")
	}
	return nil
}

func runConfigureToken(cmd *cobra.Command, args []string) error {
	name, project := args[0], args[1]
	if _, err := depot.ParseProjectName(project); err != nil {
		return err
	}

	cf, path, err := loadProfiles(false)
	if err != nil {
		return err
	}
	p, err := cf.Profile(name)
	if err != nil {
		return err
	}

	if unsetToken {
		if _, ok := p.Projects[project]; !ok {
			return fmt.Errorf("profile '%s' has no token for project %s", name, project)
		}
		delete(p.Projects, project)
		if err := cf.Save(path); err != nil {
			return err
		}
		fmt.Printf("Project %s now uses the token of profile '%s'.\n", project, name)
		return nil
	}

	tok, err := promptToken(fmt.Sprintf("Token for %s", project))
	if err != nil {
		return handlePromptError(err)
	}
	if tok == "" {
		return fmt.Errorf("token for %s: %w", project, clientcli.ErrTokenRequired)
	}

	candidate := *p
	candidate.Token = tok
	candidate.Projects = nil
	fmt.Printf("Checking read access to %s... ", project)
	if checkErr := checkAccess(cmd.Context(), candidate, project); checkErr != nil {
		fmt.Println("FAILED")
		fmt.Printf("Warning: %v\n", checkErr)
		if !confirm("Save token anyway") {
			return nil
		}
	} else {
		fmt.Println("OK")
	}

	if p.Projects == nil {
		p.Projects = make(map[string]string)
	}
	p.Projects[project] = tok
	if err := cf.Save(path); err != nil {
		return err
	}

	fmt.Printf("Profile '%s' uses the new token for %s.\n", name, project)
	return nil
}

func runConfigureUse(_ *cobra.Command, args []string) error {
	cf, path, err := loadProfiles(false)
	if err != nil {
		return err
	}
	if err := cf.Use(args[0]); err != nil {
		return err
	}
	if err := cf.Save(path); err != nil {
		return err
	}

	fmt.Printf("Default profile set to '%s'.\n", args[0])
	return nil
}

func runConfigureRemove(_ *cobra.Command, args []string) error {
	name := args[0]
	cf, path, err := loadProfiles(false)
	if err != nil {
		return err
	}
	if _, err := cf.Profile(name); err != nil {
		return err
	}

	if !confirm(fmt.Sprintf("Remove profile '%s'", name)) {
		return nil
	}
	if err := cf.Remove(name); err != nil {
		return err
	}
	if err := cf.Save(path); err != nil {
		return err
	}

	fmt.Printf("Profile '%s' removed.\n", name)
	return nil
}

func runConfigureList(_ *cobra.Command, args []string) error {
	cf, _, err := loadProfiles(true)
	if err != nil {
		return err
	}
	if len(cf.Profiles) == 0 {
		fmt.Println("No profiles configured.")
		fmt.Println("Run 'depot-cli configure add <name>' to create one.")
		return nil
	}

	formatter := getFormatter()
	if len(args) == 0 {
		return formatter.FormatProfileList(os.Stdout, cf.Profiles, cf.DefaultName(), showSecrets)
	}

	p, err := cf.Profile(args[0])
	if err != nil {
		return err
	}
	return formatter.FormatProfileShow(os.Stdout, *p, p.Name == cf.DefaultName(), showSecrets)
}

// checkAccess lists the server's projects and, when project is set, the
// versions of project with the token p would send for it.
func checkAccess(ctx context.Context, p clientcli.Profile, project string) error {
	ctx, cancel := context.WithTimeout(ctx, 2*accessCheckTimeout)
	defer cancel()

	client, err := clientcli.New(&clientcli.Config{
		Endpoint:      p.Endpoint,
		Token:         p.Token,
		ProjectTokens: p.Projects,
	}, clientcli.WithTimeout(accessCheckTimeout))
	if err != nil {
		return err
	}

	if _, err := client.Projects(ctx); err != nil {
		return fmt.Errorf("server unreachable: %w", err)
	}
	if project == "" {
		return nil
	}

	_, err = client.Versions(ctx, project)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, clientcli.ErrUnauthorized):
		return fmt.Errorf("no token to read %s", project)
	case errors.Is(err, clientcli.ErrForbidden):
		return fmt.Errorf("token is not in the readers.txt of %s", project)
	case errors.Is(err, clientcli.ErrNotFound):
		return fmt.Errorf("project %s does not exist", project)
	default:
		return err
	}
}

func validateEndpoint(input string) error {
	u, err := url.Parse(input)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("URL must start with http:// or https://")
	}
	if u.Host == "" {
		return errors.New("URL has no host")
	}
	return nil
}

// validateProjectName applies the server's project name rules. The empty
// name passes; it means no project was given.
func validateProjectName(input string) error {
	if input == "" {
		return nil
	}
	_, err := depot.ParseProjectName(input)
	return err
}

func promptToken(label string) (string, error) {
	return (&promptui.Prompt{
		Label: label,
		Mask:  '*',
		Validate: func(input string) error {
			if strings.ContainsAny(input, " \t\r\n") {
				return errors.New("token must not contain whitespace")
			}
			return nil
		},
	}).Run()
}

// confirm asks a yes/no question. Anything but "y" is no.
func confirm(label string) bool {
	_, err := (&promptui.Prompt{Label: label, IsConfirm: true}).Run()
	if errors.Is(err, promptui.ErrInterrupt) {
		fmt.Println("\nCancelled.")
		os.Exit(0)
	}
	return err == nil
}

// handlePromptError turns an abort into a clean exit and passes other errors
// through.
func handlePromptError(err error) error {
	if errors.Is(err, promptui.ErrInterrupt) {
		fmt.Println("\nCancelled.")
		os.Exit(0)
	}
	if errors.Is(err, promptui.ErrAbort) {
		fmt.Println("Cancelled.")
		return nil
	}
	return err
}
