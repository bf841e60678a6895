package depot_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sagarc03/depot"
	"github.com/stretchr/testify/require"
)

// newTestStore returns a Store rooted in a fresh temp directory.
func newTestStore(t *testing.T) (*depot.Store, string) {
	t.Helper()
	root := t.TempDir()
	return depot.New(root), root
}

// provisionProject creates the on-disk layout of a project with the given
// allow-list contents.
func provisionProject(t *testing.T, root, project, readers, writers string) {
	t.Helper()
	dir := filepath.Join(root, project)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "versions"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "readers.txt"), []byte(readers), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "writers.txt"), []byte(writers), 0o644))
}

// writeVersion creates a version directory holding the given files, each with
// its own name as content.
func writeVersion(t *testing.T, root, project, version string, files ...string) {
	t.Helper()
	dir := filepath.Join(root, project, "versions", version)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for _, f := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, f), []byte(f), 0o644))
	}
}

// acme provisions the "acme" project with reader token tok-r and writer token tok-w.
func acme(t *testing.T) (*depot.Store, string) {
	t.Helper()
	store, root := newTestStore(t)
	provisionProject(t, root, "acme", "tok-r\n", "tok-w\n")
	return store, root
}

func bearer(token string) depot.Credential {
	return depot.NewCredential(token)
}

func lines(tokens ...string) string {
	return strings.Join(tokens, "\n")
}
