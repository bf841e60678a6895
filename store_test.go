package depot_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sagarc03/depot"
	"github.com/sagarc03/depot/filesystem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("absolute dir", func(t *testing.T) {
		store := depot.New("/srv/depot/")
		assert.Equal(t, filepath.Clean("/srv/depot"), store.Dir())
	})

	t.Run("relative dir is resolved", func(t *testing.T) {
		base := t.TempDir()
		t.Chdir(base)

		store := depot.New("data")
		assert.Equal(t, filepath.Join(base, "data"), store.Dir())
	})
}

func TestStore_RelativeDirWithStorage(t *testing.T) {
	ctx := context.Background()
	base := t.TempDir()
	t.Chdir(base)
	provisionProject(t, "data", "acme", "tok-r\n", "tok-w\n")

	root, err := os.OpenRoot("data")
	require.NoError(t, err)
	t.Cleanup(func() { _ = root.Close() })

	service, err := depot.NewService(depot.New("data"), filesystem.NewStorage(root), nil)
	require.NoError(t, err)

	w, err := service.ProjectWriter(ctx, "acme", bearer("tok-w"))
	require.NoError(t, err)

	published, err := service.Publish(ctx, w, "1.0.0", "app.bin", "", strings.NewReader("payload"))
	require.NoError(t, err)
	assert.Equal(t, int64(7), published.SizeBytes)

	r, err := service.ProjectReader(ctx, "acme", bearer("tok-r"))
	require.NoError(t, err)

	_, content, err := service.Open(ctx, r, "1.0.0", "app.bin")
	require.NoError(t, err)
	defer func() { _ = content.Close() }()
	data, err := io.ReadAll(content)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))

	info, err := service.Info(ctx, r, "1.0.0")
	require.NoError(t, err)
	assert.Equal(t, published.SHA256, info.SHA256)
}

func TestStore_ListingIsRepeatable(t *testing.T) {
	ctx := context.Background()
	store, root := acme(t)
	provisionProject(t, root, "beta", "", "")
	writeVersion(t, root, "acme", "1.0.0", "app.bin")
	writeVersion(t, root, "acme", "2.0.0", "app.bin")

	first, err := store.ListProjects(ctx)
	require.NoError(t, err)
	second, err := store.ListProjects(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, first, second)

	reader, err := store.ProjectReader(ctx, "acme", bearer("tok-r"))
	require.NoError(t, err)

	firstVersions, err := store.ListVersions(ctx, reader)
	require.NoError(t, err)
	secondVersions, err := store.ListVersions(ctx, reader)
	require.NoError(t, err)
	assert.ElementsMatch(t, firstVersions, secondVersions)
	assert.ElementsMatch(t, []string{"1.0.0", "2.0.0"}, secondVersions)
}

func TestStore_ListProjects(t *testing.T) {
	ctx := context.Background()

	t.Run("returns every root entry", func(t *testing.T) {
		store, root := acme(t)
		provisionProject(t, root, "beta", "", "")
		require.NoError(t, os.WriteFile(filepath.Join(root, "stray.txt"), nil, 0o644))

		projects, err := store.ListProjects(ctx)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"acme", "beta", "stray.txt"}, projects)
	})

	t.Run("empty root", func(t *testing.T) {
		store, _ := newTestStore(t)

		projects, err := store.ListProjects(ctx)
		require.NoError(t, err)
		assert.Empty(t, projects)
	})

	t.Run("missing root", func(t *testing.T) {
		store := depot.New(filepath.Join(t.TempDir(), "missing"))

		_, err := store.ListProjects(ctx)
		assert.ErrorIs(t, err, depot.ErrIO)
	})
}

func TestStore_ListVersions(t *testing.T) {
	ctx := context.Background()

	t.Run("lists version directories", func(t *testing.T) {
		store, root := acme(t)
		writeVersion(t, root, "acme", "1.0.0", "app.bin")
		writeVersion(t, root, "acme", "1.1.0", "app.bin")

		reader, err := store.ProjectReader(ctx, "acme", bearer("tok-r"))
		require.NoError(t, err)

		versions, err := store.ListVersions(ctx, reader)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"1.0.0", "1.1.0"}, versions)
	})

	t.Run("new project has no versions", func(t *testing.T) {
		store, _ := acme(t)

		reader, err := store.ProjectReader(ctx, "acme", bearer("tok-r"))
		require.NoError(t, err)

		versions, err := store.ListVersions(ctx, reader)
		require.NoError(t, err)
		assert.Empty(t, versions)
	})

	t.Run("missing versions directory", func(t *testing.T) {
		store, root := acme(t)
		require.NoError(t, os.Remove(filepath.Join(root, "acme", "versions")))

		reader, err := store.ProjectReader(ctx, "acme", bearer("tok-r"))
		require.NoError(t, err)

		_, err = store.ListVersions(ctx, reader)
		assert.ErrorIs(t, err, depot.ErrIO)
	})
}
