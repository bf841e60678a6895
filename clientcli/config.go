package clientcli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultEndpoint is the default server endpoint URL.
const DefaultEndpoint = "http://localhost:3000"

// Environment variables read by Resolve.
const (
	EnvEndpoint = "DEPOT_ENDPOINT"
	EnvToken    = "DEPOT_TOKEN"
	EnvProfile  = "DEPOT_PROFILE"
	EnvConfig   = "DEPOT_CLIENT_CONFIG"
)

// Profile is one depot server. Each project keeps its own reader and writer
// allow-lists, so a profile maps project names to tokens. Token is used for
// projects with no entry of their own.
type Profile struct {
	Name     string            `yaml:"name"`
	Endpoint string            `yaml:"endpoint"`
	Token    string            `yaml:"token,omitempty"`
	Projects map[string]string `yaml:"projects,omitempty"`
	Default  bool              `yaml:"default,omitempty"`
}

// ConfigFile is the on-disk profile list, ~/.depot/config.yaml by default.
type ConfigFile struct {
	Profiles []Profile `yaml:"profiles"`
}

func (c *ConfigFile) index(name string) int {
	for i := range c.Profiles {
		if c.Profiles[i].Name == name {
			return i
		}
	}
	return -1
}

// Profile returns the named profile. An empty name selects the default: the
// profile marked default, else the first one.
func (c *ConfigFile) Profile(name string) (*Profile, error) {
	if len(c.Profiles) == 0 {
		return nil, ErrNoProfiles
	}
	if name == "" {
		return &c.Profiles[c.defaultIndex()], nil
	}
	if i := c.index(name); i >= 0 {
		return &c.Profiles[i], nil
	}
	return nil, fmt.Errorf("%w: %s", ErrProfileNotFound, name)
}

// DefaultName returns the name of the default profile, or "" when there are
// no profiles.
func (c *ConfigFile) DefaultName() string {
	if len(c.Profiles) == 0 {
		return ""
	}
	return c.Profiles[c.defaultIndex()].Name
}

func (c *ConfigFile) defaultIndex() int {
	for i := range c.Profiles {
		if c.Profiles[i].Default {
			return i
		}
	}
	return 0
}

// Put stores p, replacing a profile of the same name, and reports whether
// one was replaced. A profile put with Default set takes the flag from all
// others.
func (c *ConfigFile) Put(p Profile) bool {
	if p.Default {
		for i := range c.Profiles {
			c.Profiles[i].Default = false
		}
	}
	if i := c.index(p.Name); i >= 0 {
		c.Profiles[i] = p
		return true
	}
	c.Profiles = append(c.Profiles, p)
	return false
}

// Remove deletes the named profile.
func (c *ConfigFile) Remove(name string) error {
	i := c.index(name)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}
	c.Profiles = append(c.Profiles[:i], c.Profiles[i+1:]...)
	return nil
}

// Use marks the named profile as the default.
func (c *ConfigFile) Use(name string) error {
	i := c.index(name)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}
	for j := range c.Profiles {
		c.Profiles[j].Default = j == i
	}
	return nil
}

// Save writes the file with owner-only permissions, since it holds tokens.
func (c *ConfigFile) Save(path string) error {
	cleanPath := filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(cleanPath), 0o700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(cleanPath, data, 0o600); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// LoadConfigFile reads a profile file. A missing file yields an error
// matching os.ErrNotExist.
func LoadConfigFile(path string) (*ConfigFile, error) {
	data, err := os.ReadFile(filepath.Clean(path)) //#nosec G304 -- path is user-provided config file
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg ConfigFile
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	return &cfg, nil
}

// DefaultConfigPath returns ~/.depot/config.yaml, or "" without a home
// directory.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".depot", "config.yaml")
}

// Config is the resolved connection to one server.
type Config struct {
	Endpoint string
	Token    string
	// ProjectTokens overrides Token for the named projects.
	ProjectTokens map[string]string
}

// TokenFor returns the bearer token sent for requests about project.
func (c *Config) TokenFor(project string) string {
	if tok := c.ProjectTokens[project]; tok != "" {
		return tok
	}
	return c.Token
}

// RequireToken fails with ErrTokenRequired when no token would be sent for
// project. Listing projects is the only request that works without one.
func (c *Config) RequireToken(project string) error {
	if c.TokenFor(project) == "" {
		return fmt.Errorf("%w for project %s", ErrTokenRequired, project)
	}
	return nil
}

// WithDefaults returns a copy with DefaultEndpoint filled in.
func (c *Config) WithDefaults() *Config {
	cfg := *c
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	return &cfg
}

// Sources are the explicit settings of one invocation, usually its flags.
// Empty fields fall back to the environment and then to the profile.
type Sources struct {
	ConfigPath string
	Profile    string
	Endpoint   string
	Token      string
}

// Resolve builds a Config from a profile, then the DEPOT_* environment, then
// src, later values winning. An explicit token replaces the profile's
// per-project tokens as well as its fallback.
//
// A missing profile file is an error only when a file or profile was named.
func Resolve(src Sources) (*Config, error) {
	path := firstSet(src.ConfigPath, os.Getenv(EnvConfig))
	name := firstSet(src.Profile, os.Getenv(EnvProfile))
	explicit := path != "" || name != ""
	if path == "" {
		path = DefaultConfigPath()
	}

	cfg := &Config{}
	if path != "" {
		file, err := LoadConfigFile(path)
		switch {
		case err == nil:
			p, profileErr := file.Profile(name)
			if profileErr != nil {
				if name != "" || !errors.Is(profileErr, ErrNoProfiles) {
					return nil, profileErr
				}
				break
			}
			cfg.Endpoint = p.Endpoint
			cfg.Token = p.Token
			cfg.ProjectTokens = p.Projects
		case explicit:
			return nil, err
		}
	}

	for _, layer := range []Sources{
		{Endpoint: os.Getenv(EnvEndpoint), Token: os.Getenv(EnvToken)},
		src,
	} {
		if layer.Endpoint != "" {
			cfg.Endpoint = layer.Endpoint
		}
		if layer.Token != "" {
			cfg.Token = layer.Token
			cfg.ProjectTokens = nil
		}
	}
	return cfg, nil
}

func firstSet(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
