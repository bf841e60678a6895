package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sagarc03/depot"
	"github.com/sagarc03/depot/database/postgres"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnect(t *testing.T) {
	pool := getSharedTestDatabase(t)
	ctx := context.Background()

	db, err := postgres.Connect(ctx, getDSN(pool), uniqueTables(t, pool))
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	assert.NoError(t, db.Ping(ctx), "ping should succeed after connect")
}

func TestDatabase_Migrate(t *testing.T) {
	pool := getSharedTestDatabase(t)
	ctx := context.Background()

	t.Run("creates a usable table", func(t *testing.T) {
		db, err := postgres.Connect(ctx, getDSN(pool), uniqueTables(t, pool))
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		require.NoError(t, db.Migrate(ctx))

		_, err = db.GetCatalog().Get(ctx, "acme", "1.0.0")
		assert.ErrorIs(t, err, depot.ErrNotFound, "catalog should work after migration")
	})

	t.Run("idempotent", func(t *testing.T) {
		db, err := postgres.Connect(ctx, getDSN(pool), uniqueTables(t, pool))
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		require.NoError(t, db.Migrate(ctx), "first migrate should succeed")
		assert.NoError(t, db.Migrate(ctx), "second migrate should succeed")
	})

	t.Run("drop tables", func(t *testing.T) {
		tables := uniqueTables(t, pool)

		require.NoError(t, postgres.Migrate(ctx, pool, tables))
		require.NoError(t, postgres.ValidateSchema(ctx, pool, tables))
		require.NoError(t, postgres.DropTables(ctx, pool, tables))

		assert.ErrorContains(t, postgres.ValidateSchema(ctx, pool, tables), "does not exist")
	})
}

func TestDatabase_Validate(t *testing.T) {
	pool := getSharedTestDatabase(t)
	ctx := context.Background()

	t.Run("valid schema after migrate", func(t *testing.T) {
		db, err := postgres.Connect(ctx, getDSN(pool), uniqueTables(t, pool))
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		require.NoError(t, db.Migrate(ctx))
		assert.NoError(t, db.Validate(ctx))
	})

	t.Run("table does not exist", func(t *testing.T) {
		db, err := postgres.Connect(ctx, getDSN(pool), uniqueTables(t, pool))
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		assert.ErrorContains(t, db.Validate(ctx), "does not exist")
	})

	t.Run("incomplete schema", func(t *testing.T) {
		tables := uniqueTables(t, pool)
		_, err := pool.Exec(ctx, `CREATE TABLE `+tables.Artifacts+` (id UUID PRIMARY KEY, project TEXT NOT NULL)`)
		require.NoError(t, err)

		err = postgres.ValidateSchema(ctx, pool, tables)
		assert.ErrorContains(t, err, "missing column version")
	})

	t.Run("wrong column type", func(t *testing.T) {
		tables := uniqueTables(t, pool)
		_, err := pool.Exec(ctx, `
			CREATE TABLE `+tables.Artifacts+` (
				id UUID PRIMARY KEY,
				project TEXT NOT NULL,
				version TEXT NOT NULL,
				file_name TEXT NOT NULL,
				content_type TEXT NOT NULL,
				sha256 TEXT NOT NULL,
				size_bytes INTEGER NOT NULL,
				created_at TIMESTAMPTZ NOT NULL,
				updated_at TIMESTAMPTZ NOT NULL
			)`)
		require.NoError(t, err)

		err = postgres.ValidateSchema(ctx, pool, tables)
		assert.ErrorContains(t, err, "column size_bytes is integer, want bigint")
	})
}

func TestCatalog_Upsert(t *testing.T) {
	ctx := context.Background()

	t.Run("insert then update", func(t *testing.T) {
		catalog := setupTestCatalog(t)

		entry := depot.ArtifactEntry{
			Project:     "acme",
			Version:     "1.0.0",
			FileName:    "app.bin",
			ContentType: "application/octet-stream",
			SHA256:      "abc",
			SizeBytes:   7,
		}

		first, inserted, err := catalog.Upsert(ctx, entry)
		require.NoError(t, err)
		assert.True(t, inserted)
		assert.NotEqual(t, uuid.Nil, first.ID)
		assert.WithinDuration(t, time.Now(), first.CreatedAt, time.Minute)

		entry.SHA256 = "def"
		second, inserted, err := catalog.Upsert(ctx, entry)
		require.NoError(t, err)
		assert.False(t, inserted)
		assert.Equal(t, first.ID, second.ID)
		assert.True(t, first.CreatedAt.Equal(second.CreatedAt))
		assert.Equal(t, "def", second.SHA256)
	})

	t.Run("versions are keyed per project", func(t *testing.T) {
		catalog := setupTestCatalog(t)

		a, _, err := catalog.Upsert(ctx, depot.ArtifactEntry{Project: "acme", Version: "1.0.0", FileName: "a"})
		require.NoError(t, err)

		b, inserted, err := catalog.Upsert(ctx, depot.ArtifactEntry{Project: "beta", Version: "1.0.0", FileName: "b"})
		require.NoError(t, err)
		assert.True(t, inserted)
		assert.NotEqual(t, a.ID, b.ID)
	})
}

func TestCatalog_Get(t *testing.T) {
	ctx := context.Background()
	catalog := setupTestCatalog(t)

	stored, _, err := catalog.Upsert(ctx, depot.ArtifactEntry{
		Project:     "acme",
		Version:     "1.0.0",
		FileName:    "app.json",
		ContentType: "application/json",
		SHA256:      "abc",
		SizeBytes:   3,
	})
	require.NoError(t, err)

	got, err := catalog.Get(ctx, "acme", "1.0.0")
	require.NoError(t, err)
	assert.Equal(t, stored.ID, got.ID)
	assert.Equal(t, "app.json", got.FileName)
	assert.Equal(t, int64(3), got.SizeBytes)

	_, err = catalog.Get(ctx, "acme", "9.9.9")
	assert.ErrorIs(t, err, depot.ErrNotFound)
}
