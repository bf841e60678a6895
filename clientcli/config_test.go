package clientcli_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sagarc03/depot/clientcli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_WithDefaults(t *testing.T) {
	t.Run("keeps endpoint", func(t *testing.T) {
		cfg := (&clientcli.Config{Endpoint: "http://depot:3000"}).WithDefaults()
		assert.Equal(t, "http://depot:3000", cfg.Endpoint)
	})

	t.Run("empty endpoint gets default", func(t *testing.T) {
		orig := &clientcli.Config{}
		cfg := orig.WithDefaults()
		assert.Equal(t, clientcli.DefaultEndpoint, cfg.Endpoint)
		assert.Empty(t, orig.Endpoint)
	})
}

func TestConfig_TokenFor(t *testing.T) {
	cfg := &clientcli.Config{
		Token:         "shared",
		ProjectTokens: map[string]string{"acme": "acme-writer", "beta": ""},
	}

	assert.Equal(t, "acme-writer", cfg.TokenFor("acme"))
	assert.Equal(t, "shared", cfg.TokenFor("beta"), "empty entry falls back")
	assert.Equal(t, "shared", cfg.TokenFor("other"))
	assert.Equal(t, "shared", cfg.TokenFor(""))

	t.Run("require token", func(t *testing.T) {
		assert.NoError(t, cfg.RequireToken("acme"))

		onlyAcme := &clientcli.Config{ProjectTokens: map[string]string{"acme": "acme-writer"}}
		assert.NoError(t, onlyAcme.RequireToken("acme"))
		err := onlyAcme.RequireToken("beta")
		assert.ErrorIs(t, err, clientcli.ErrTokenRequired)
		assert.ErrorContains(t, err, "beta")
	})
}

func TestConfigFile_Profiles(t *testing.T) {
	cf := &clientcli.ConfigFile{}

	_, err := cf.Profile("")
	assert.ErrorIs(t, err, clientcli.ErrNoProfiles)
	assert.Empty(t, cf.DefaultName())

	assert.False(t, cf.Put(clientcli.Profile{Name: "local", Endpoint: "http://localhost:3000", Token: "tok-local"}))
	assert.False(t, cf.Put(clientcli.Profile{Name: "prod", Endpoint: "https://depot.example.com", Token: "tok-prod"}))

	t.Run("first profile is default", func(t *testing.T) {
		p, err := cf.Profile("")
		require.NoError(t, err)
		assert.Equal(t, "local", p.Name)
		assert.Equal(t, "local", cf.DefaultName())
	})

	t.Run("use", func(t *testing.T) {
		require.NoError(t, cf.Use("prod"))
		p, err := cf.Profile("")
		require.NoError(t, err)
		assert.Equal(t, "prod", p.Name)
		assert.ErrorIs(t, cf.Use("missing"), clientcli.ErrProfileNotFound)
	})

	t.Run("put replaces and can take the default", func(t *testing.T) {
		replaced := cf.Put(clientcli.Profile{
			Name:     "local",
			Endpoint: "http://localhost:3000",
			Projects: map[string]string{"acme": "acme-writer"},
			Default:  true,
		})
		assert.True(t, replaced)

		p, err := cf.Profile("local")
		require.NoError(t, err)
		assert.Empty(t, p.Token)
		assert.Equal(t, "acme-writer", p.Projects["acme"])
		assert.Equal(t, "local", cf.DefaultName())

		prod, err := cf.Profile("prod")
		require.NoError(t, err)
		assert.False(t, prod.Default)
	})

	t.Run("remove", func(t *testing.T) {
		require.NoError(t, cf.Remove("local"))
		require.Len(t, cf.Profiles, 1)
		assert.Equal(t, "prod", cf.DefaultName())
		assert.ErrorIs(t, cf.Remove("local"), clientcli.ErrProfileNotFound)

		_, err := cf.Profile("local")
		assert.ErrorIs(t, err, clientcli.ErrProfileNotFound)
	})
}

func TestConfigFile_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".depot", "config.yaml")

	cf := &clientcli.ConfigFile{Profiles: []clientcli.Profile{
		{
			Name:     "local",
			Endpoint: "http://localhost:3000",
			Token:    "tok-local",
			Projects: map[string]string{"acme": "acme-writer"},
			Default:  true,
		},
	}}
	require.NoError(t, cf.Save(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := clientcli.LoadConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, cf, loaded)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "token: tok-local")
	assert.Contains(t, string(data), "acme: acme-writer")
}

func TestLoadConfigFile_Errors(t *testing.T) {
	t.Run("file not found", func(t *testing.T) {
		_, err := clientcli.LoadConfigFile(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`profiles: [yaml: content`), 0o600))

		_, err := clientcli.LoadConfigFile(path)
		assert.Error(t, err)
	})
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{clientcli.EnvEndpoint, clientcli.EnvToken, clientcli.EnvProfile, clientcli.EnvConfig} {
		t.Setenv(key, "")
	}
	t.Setenv("HOME", t.TempDir())
}

func writeProfileFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	cf := &clientcli.ConfigFile{Profiles: []clientcli.Profile{
		{
			Name:     "local",
			Endpoint: "http://localhost:3000",
			Token:    "tok-local",
			Projects: map[string]string{"acme": "acme-writer"},
			Default:  true,
		},
		{Name: "ci", Endpoint: "https://depot.example.com", Token: "tok-ci"},
	}}
	require.NoError(t, cf.Save(path))
	return path
}

func TestResolve(t *testing.T) {
	t.Run("default profile with project tokens", func(t *testing.T) {
		clearEnv(t)

		cfg, err := clientcli.Resolve(clientcli.Sources{ConfigPath: writeProfileFile(t)})
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:3000", cfg.Endpoint)
		assert.Equal(t, "acme-writer", cfg.TokenFor("acme"))
		assert.Equal(t, "tok-local", cfg.TokenFor("beta"))
	})

	t.Run("profile and file from env", func(t *testing.T) {
		clearEnv(t)
		t.Setenv(clientcli.EnvConfig, writeProfileFile(t))
		t.Setenv(clientcli.EnvProfile, "ci")

		cfg, err := clientcli.Resolve(clientcli.Sources{})
		require.NoError(t, err)
		assert.Equal(t, &clientcli.Config{Endpoint: "https://depot.example.com", Token: "tok-ci"}, cfg)
	})

	t.Run("env token replaces project tokens", func(t *testing.T) {
		clearEnv(t)
		t.Setenv(clientcli.EnvToken, "tok-env")

		cfg, err := clientcli.Resolve(clientcli.Sources{ConfigPath: writeProfileFile(t)})
		require.NoError(t, err)
		assert.Equal(t, "tok-env", cfg.TokenFor("acme"))
	})

	t.Run("explicit values win over env", func(t *testing.T) {
		clearEnv(t)
		t.Setenv(clientcli.EnvEndpoint, "http://env:3000")
		t.Setenv(clientcli.EnvToken, "tok-env")

		cfg, err := clientcli.Resolve(clientcli.Sources{
			ConfigPath: writeProfileFile(t),
			Endpoint:   "http://flag:3000",
			Token:      "tok-flag",
		})
		require.NoError(t, err)
		assert.Equal(t, &clientcli.Config{Endpoint: "http://flag:3000", Token: "tok-flag"}, cfg)
	})

	t.Run("unknown profile", func(t *testing.T) {
		clearEnv(t)

		_, err := clientcli.Resolve(clientcli.Sources{ConfigPath: writeProfileFile(t), Profile: "missing"})
		assert.ErrorIs(t, err, clientcli.ErrProfileNotFound)
	})

	t.Run("named file missing", func(t *testing.T) {
		clearEnv(t)

		_, err := clientcli.Resolve(clientcli.Sources{ConfigPath: filepath.Join(t.TempDir(), "nope.yaml")})
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("default file missing is ignored", func(t *testing.T) {
		clearEnv(t)
		t.Setenv(clientcli.EnvEndpoint, "http://env:3000")

		cfg, err := clientcli.Resolve(clientcli.Sources{})
		require.NoError(t, err)
		assert.Equal(t, &clientcli.Config{Endpoint: "http://env:3000"}, cfg)
	})

	t.Run("file without profiles is ignored", func(t *testing.T) {
		clearEnv(t)
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, (&clientcli.ConfigFile{}).Save(path))

		cfg, err := clientcli.Resolve(clientcli.Sources{ConfigPath: path, Token: "tok"})
		require.NoError(t, err)
		assert.Equal(t, &clientcli.Config{Token: "tok"}, cfg)
	})
}
