package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sagarc03/depot"
)

type catalog struct {
	pool      *pgxpool.Pool
	tableName string
}

func (c *catalog) Get(ctx context.Context, project, version string) (depot.Artifact, error) {
	query := fmt.Sprintf(`
		SELECT id, project, version, file_name, content_type, sha256, size_bytes, created_at, updated_at
		FROM %s
		WHERE project = $1 AND version = $2
	`, pgx.Identifier{c.tableName}.Sanitize())

	var a depot.Artifact
	err := c.pool.QueryRow(ctx, query, project, version).Scan(
		&a.ID, &a.Project, &a.Version, &a.FileName, &a.ContentType, &a.SHA256, &a.SizeBytes, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return depot.Artifact{}, depot.ErrNotFound
		}
		return depot.Artifact{}, fmt.Errorf("get: %w", err)
	}

	return a, nil
}

func (c *catalog) Upsert(ctx context.Context, entry depot.ArtifactEntry) (depot.Artifact, bool, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (project, version, file_name, content_type, sha256, size_bytes)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (project, version) DO UPDATE
		SET file_name = EXCLUDED.file_name,
			content_type = EXCLUDED.content_type,
			sha256 = EXCLUDED.sha256,
			size_bytes = EXCLUDED.size_bytes,
			updated_at = NOW()
		RETURNING id, project, version, file_name, content_type, sha256, size_bytes, created_at, updated_at,
			(xmax = 0) AS inserted
	`, pgx.Identifier{c.tableName}.Sanitize())

	var a depot.Artifact
	var inserted bool

	err := c.pool.QueryRow(ctx, query,
		entry.Project, entry.Version, entry.FileName, entry.ContentType, entry.SHA256, entry.SizeBytes,
	).Scan(
		&a.ID, &a.Project, &a.Version, &a.FileName, &a.ContentType, &a.SHA256, &a.SizeBytes, &a.CreatedAt, &a.UpdatedAt, &inserted,
	)
	if err != nil {
		return depot.Artifact{}, false, fmt.Errorf("upsert: %w", err)
	}

	return a, inserted, nil
}
