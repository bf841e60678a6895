package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagarc03/depot"
)

func TestProvisionProject(t *testing.T) {
	root := t.TempDir()

	require.NoError(t, provisionProject(root, "acme", []string{"r1", "r2"}, []string{"w1"}))

	readers, err := os.ReadFile(filepath.Join(root, "acme", "readers.txt"))
	require.NoError(t, err)
	assert.Equal(t, "r1\nr2\n", string(readers))

	writers, err := os.ReadFile(filepath.Join(root, "acme", "writers.txt"))
	require.NoError(t, err)
	assert.Equal(t, "w1\n", string(writers))

	info, err := os.Stat(filepath.Join(root, "acme", "versions"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	// The store accepts the provisioned tokens.
	store := depot.New(root)
	_, err = store.ProjectReader(t.Context(), "acme", depot.NewCredential("r2"))
	assert.NoError(t, err)
	_, err = store.ProjectWriter(t.Context(), "acme", depot.NewCredential("w1"))
	assert.NoError(t, err)
	_, err = store.ProjectWriter(t.Context(), "acme", depot.NewCredential("r1"))
	assert.ErrorIs(t, err, depot.ErrUnauthorized)
}

func TestProvisionProject_Errors(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, provisionProject(root, "acme", []string{"r"}, []string{"w"}))

	t.Run("exists", func(t *testing.T) {
		err := provisionProject(root, "acme", []string{"r"}, []string{"w"})
		assert.ErrorContains(t, err, "already exists")
	})

	t.Run("invalid name", func(t *testing.T) {
		err := provisionProject(root, "../acme", []string{"r"}, []string{"w"})
		assert.ErrorIs(t, err, depot.ErrInvalidProject)
	})

	t.Run("multi-line token", func(t *testing.T) {
		err := provisionProject(root, "beta", []string{"a\nb"}, []string{"w"})
		assert.Error(t, err)

		_, statErr := os.Stat(filepath.Join(root, "beta"))
		assert.ErrorIs(t, statErr, os.ErrNotExist)
	})

	t.Run("empty token", func(t *testing.T) {
		err := provisionProject(root, "gamma", []string{""}, []string{"w"})
		assert.Error(t, err)
	})
}

func TestAppendTokens(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, provisionProject(root, "acme", []string{"r1"}, []string{"w1"}))

	// A hand-edited list without a final newline.
	path := filepath.Join(root, "acme", "writers.txt")
	require.NoError(t, os.WriteFile(path, []byte("w1"), 0o640))

	require.NoError(t, appendTokens(root, "acme", "writers.txt", []string{"w2", "w3"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "w1\nw2\nw3\n", string(data))

	_, err = depot.New(root).ProjectWriter(t.Context(), "acme", depot.NewCredential("w3"))
	assert.NoError(t, err)
}

func TestAppendTokens_MissingProject(t *testing.T) {
	err := appendTokens(t.TempDir(), "ghost", "readers.txt", []string{"r"})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestTokensOrGenerate(t *testing.T) {
	tokens, generated := tokensOrGenerate([]string{"a"})
	assert.False(t, generated)
	assert.Equal(t, []string{"a"}, tokens)

	tokens, generated = tokensOrGenerate(nil)
	assert.True(t, generated)
	require.Len(t, tokens, 1)
	assert.NoError(t, validateToken(tokens[0]))
}

func TestAllowListFile(t *testing.T) {
	file, err := allowListFile("reader")
	require.NoError(t, err)
	assert.Equal(t, "readers.txt", file)

	file, err = allowListFile("writer")
	require.NoError(t, err)
	assert.Equal(t, "writers.txt", file)

	_, err = allowListFile("admin")
	assert.Error(t, err)
}
