package sqlite_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sagarc03/depot"
	"github.com/sagarc03/depot/database/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func TestDatabase_MigrateAndValidate(t *testing.T) {
	ctx := context.Background()
	tables := depot.Tables{Artifacts: "artifacts_" + getRandomString(t)}

	db, err := sqlite.Connect(ctx, ":memory:", tables)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	require.NoError(t, db.Ping(ctx))

	assert.Error(t, db.Validate(ctx), "validate should fail before migration")

	require.NoError(t, db.Migrate(ctx))
	require.NoError(t, db.Migrate(ctx), "migrate should be idempotent")

	assert.NoError(t, db.Validate(ctx))
}

func TestValidateSchema(t *testing.T) {
	ctx := context.Background()

	open := func(t *testing.T) *sql.DB {
		t.Helper()
		db, err := sql.Open("sqlite", ":memory:")
		require.NoError(t, err)
		db.SetMaxOpenConns(1)
		t.Cleanup(func() { _ = db.Close() })
		return db
	}

	t.Run("incomplete schema", func(t *testing.T) {
		db := open(t)
		_, err := db.ExecContext(ctx, `CREATE TABLE partial (id TEXT NOT NULL PRIMARY KEY, project TEXT NOT NULL)`)
		require.NoError(t, err)

		err = sqlite.ValidateSchema(ctx, db, depot.Tables{Artifacts: "partial"})
		assert.ErrorContains(t, err, "missing column version")
		assert.ErrorContains(t, err, "missing column updated_at")
	})

	t.Run("wrong column type", func(t *testing.T) {
		db := open(t)
		_, err := db.ExecContext(ctx, `
			CREATE TABLE sized (
				id TEXT NOT NULL PRIMARY KEY,
				project TEXT NOT NULL,
				version TEXT NOT NULL,
				file_name TEXT NOT NULL,
				content_type TEXT NOT NULL,
				sha256 TEXT NOT NULL,
				size_bytes TEXT NOT NULL,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)`)
		require.NoError(t, err)

		err = sqlite.ValidateSchema(ctx, db, depot.Tables{Artifacts: "sized"})
		assert.ErrorContains(t, err, "column size_bytes is TEXT, want INTEGER")
	})

	t.Run("wrong nullability", func(t *testing.T) {
		db := open(t)
		_, err := db.ExecContext(ctx, `
			CREATE TABLE loose (
				id TEXT NOT NULL PRIMARY KEY,
				project TEXT NOT NULL,
				version TEXT NOT NULL,
				file_name TEXT,
				content_type TEXT NOT NULL,
				sha256 TEXT NOT NULL,
				size_bytes INTEGER NOT NULL,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)`)
		require.NoError(t, err)

		err = sqlite.ValidateSchema(ctx, db, depot.Tables{Artifacts: "loose"})
		assert.ErrorContains(t, err, "column file_name is nullable")
	})

	t.Run("invalid table name", func(t *testing.T) {
		db := open(t)

		err := sqlite.ValidateSchema(ctx, db, depot.Tables{Artifacts: "Bad-Name"})
		assert.Error(t, err)
	})

	t.Run("drop tables", func(t *testing.T) {
		db := open(t)
		tables := depot.Tables{Artifacts: "dropped"}

		require.NoError(t, sqlite.Migrate(ctx, db, tables))
		require.NoError(t, sqlite.ValidateSchema(ctx, db, tables))
		require.NoError(t, sqlite.DropTables(ctx, db, tables))

		assert.ErrorContains(t, sqlite.ValidateSchema(ctx, db, tables), "does not exist")
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
		assert.Equal(t, "app.bin", first.FileName)
		assert.Equal(t, int64(7), first.SizeBytes)
		assert.WithinDuration(t, time.Now(), first.CreatedAt, time.Minute)

		entry.SHA256 = "def"
		entry.SizeBytes = 8
		second, inserted, err := catalog.Upsert(ctx, entry)
		require.NoError(t, err)
		assert.False(t, inserted)
		assert.Equal(t, first.ID, second.ID)
		assert.True(t, first.CreatedAt.Equal(second.CreatedAt))
		assert.Equal(t, "def", second.SHA256)
		assert.False(t, second.UpdatedAt.Before(first.UpdatedAt))
	})

	t.Run("versions are keyed per project", func(t *testing.T) {
		catalog := setupTestCatalog(t)

		a, inserted, err := catalog.Upsert(ctx, depot.ArtifactEntry{Project: "acme", Version: "1.0.0", FileName: "a"})
		require.NoError(t, err)
		assert.True(t, inserted)

		b, inserted, err := catalog.Upsert(ctx, depot.ArtifactEntry{Project: "beta", Version: "1.0.0", FileName: "b"})
		require.NoError(t, err)
		assert.True(t, inserted)
		assert.NotEqual(t, a.ID, b.ID)
	})
}

func TestCatalog_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
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
		assert.Equal(t, "application/json", got.ContentType)
		assert.Equal(t, "abc", got.SHA256)
		assert.Equal(t, int64(3), got.SizeBytes)
		assert.True(t, stored.CreatedAt.Equal(got.CreatedAt))
	})

	t.Run("not found", func(t *testing.T) {
		catalog := setupTestCatalog(t)

		_, err := catalog.Get(ctx, "acme", "9.9.9")
		assert.ErrorIs(t, err, depot.ErrNotFound)
	})
}
